// Package report exports finalized gpusim metrics as CSV. It is an
// external collaborator per the simulator's own scope: it only reads
// already-recorded metrics and has no say in how they were produced.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/corewarp/gpusim"
)

// WorkloadHeader is the fixed header row for WriteWorkloadCSV.
var WorkloadHeader = []string{
	"Workload", "Type", "Execution_Time_ms", "Instructions", "Memory_Ops",
	"Threads", "Blocks", "Utilization_%", "Throughput_instr_ms",
}

// SchedulerComparisonHeader is the fixed header row for
// WriteSchedulerComparisonCSV.
var SchedulerComparisonHeader = []string{
	"Scheduler", "Total_Time_ms", "Avg_Utilization_%", "Avg_Throughput",
	"Total_Instructions", "Total_Memory_Ops",
}

// WriteWorkloadCSV writes one row per entry in metrics, in order, to w.
func WriteWorkloadCSV(w io.Writer, metrics []gpusim.WorkloadMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WorkloadHeader); err != nil {
		return err
	}
	for _, m := range metrics {
		row := []string{
			m.Name,
			fmt.Sprintf("%d", int(m.Type)),
			fmt.Sprintf("%.2f", m.ExecutionTimeMs),
			fmt.Sprintf("%d", m.Instructions),
			fmt.Sprintf("%d", m.MemoryOps),
			fmt.Sprintf("%d", m.Threads),
			fmt.Sprintf("%d", m.Blocks),
			fmt.Sprintf("%.2f", m.UtilizationPct),
			fmt.Sprintf("%.2f", m.ThroughputInstrMs),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SchedulerComparisonRow is one row of the scheduler-comparison export: a
// scheduler name plus the device summary produced by running it.
type SchedulerComparisonRow struct {
	Name    string
	Summary gpusim.DeviceMetrics
}

// WriteSchedulerComparisonCSV writes one row per entry in rows, in order,
// to w.
func WriteSchedulerComparisonCSV(w io.Writer, rows []SchedulerComparisonRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SchedulerComparisonHeader); err != nil {
		return err
	}
	for _, r := range rows {
		avgThroughput := 0.0
		if r.Summary.TotalExecutionMs > 0 {
			avgThroughput = float64(r.Summary.TotalInstructions) / r.Summary.TotalExecutionMs
		}
		row := []string{
			r.Name,
			fmt.Sprintf("%.2f", r.Summary.TotalExecutionMs),
			fmt.Sprintf("%.2f", r.Summary.AvgUtilizationPct),
			fmt.Sprintf("%.2f", avgThroughput),
			fmt.Sprintf("%d", r.Summary.TotalInstructions),
			fmt.Sprintf("%d", r.Summary.TotalMemoryOps),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
