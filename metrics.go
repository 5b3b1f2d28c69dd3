package gpusim

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// WorkloadMetrics is the recorded performance summary of one completed
// workload. Instructions, Cycles, and MemoryOps are snapshots of the
// compute units' and memory controller's cumulative counters taken at
// this workload's completion time — not a delta since the previous
// workload. Every workload after the first therefore inherits the prior
// workloads' counts. This is an intentional preservation of the original
// simulator's behavior (see DESIGN.md's Open Question resolutions), not a
// bug to be fixed here.
type WorkloadMetrics struct {
	Name              string
	Type              WorkloadType
	ExecutionTimeMs    float64
	Instructions      int64
	Cycles            int64
	MemoryOps         int64
	Threads           int
	Blocks            int
	UtilizationPct    float64
	ThroughputInstrMs float64
}

// DeviceMetrics is the device-wide summary recorded at simulation end.
type DeviceMetrics struct {
	TotalCycles       int64
	TotalInstructions int64
	TotalMemoryOps    int64
	TotalExecutionMs  float64
	AvgUtilizationPct float64
	WorkloadsExecuted int
}

// PerformanceAnalyzer aggregates per-workload metrics and the device-wide
// summary for one simulation run.
type PerformanceAnalyzer struct {
	mu        sync.Mutex
	workloads []WorkloadMetrics
	device    DeviceMetrics
}

// NewPerformanceAnalyzer returns an empty PerformanceAnalyzer.
func NewPerformanceAnalyzer() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{}
}

// RecordWorkload snapshots cus' and mem's cumulative counters and appends
// a WorkloadMetrics entry for w.
func (a *PerformanceAnalyzer) RecordWorkload(w *Workload, cus []*ComputeUnit, mem *MemoryController) {
	execMs := float64(w.ExecutionTime().Microseconds()) / 1000.0

	var totalInstr, totalCycles int64
	var utilSum float64
	for _, cu := range cus {
		totalInstr += int64(cu.InstructionsExecuted())
		totalCycles += int64(cu.CyclesExecuted())
		utilSum += cu.Utilization()
	}
	avgUtil := 0.0
	if len(cus) > 0 {
		avgUtil = utilSum / float64(len(cus))
	}
	throughput := 0.0
	if execMs > 0 {
		throughput = float64(totalInstr) / execMs
	}

	m := WorkloadMetrics{
		Name:              w.Name,
		Type:              w.Type,
		ExecutionTimeMs:   execMs,
		Instructions:      totalInstr,
		Cycles:            totalCycles,
		MemoryOps:         mem.TotalMemoryOps(),
		Threads:           w.TotalThreads(),
		Blocks:            w.TotalBlocksLaunched(),
		UtilizationPct:    avgUtil,
		ThroughputInstrMs: throughput,
	}

	_, span := tracer().Start(traceCtx(), "metrics.record_workload")
	span.SetAttributes(attribute.String("workload", w.Name))
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()
	// The counter receives only the instructions retired since the previous
	// snapshot, since totalInstr is cumulative.
	prevInstr := int64(0)
	if n := len(a.workloads); n > 0 {
		prevInstr = a.workloads[n-1].Instructions
	}
	a.workloads = append(a.workloads, m)

	workloadsCompletedCounter().Add(traceCtx(), 1)
	instructionsExecutedCounter().Add(traceCtx(), totalInstr-prevInstr)
}

// RecordDeviceSummary records the device-wide metrics at simulation end.
func (a *PerformanceAnalyzer) RecordDeviceSummary(cus []*ComputeUnit, mem *MemoryController, duration time.Duration) {
	var totalCycles, totalInstr int64
	var utilSum float64
	for _, cu := range cus {
		totalCycles += int64(cu.CyclesExecuted())
		totalInstr += int64(cu.InstructionsExecuted())
		utilSum += cu.Utilization()
	}
	avgUtil := 0.0
	if len(cus) > 0 {
		avgUtil = utilSum / float64(len(cus))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.device = DeviceMetrics{
		TotalCycles:       totalCycles,
		TotalInstructions: totalInstr,
		TotalMemoryOps:    mem.TotalMemoryOps(),
		TotalExecutionMs:  float64(duration.Microseconds()) / 1000.0,
		AvgUtilizationPct: avgUtil,
		WorkloadsExecuted: len(a.workloads),
	}
}

// Workloads returns a copy of the recorded per-workload metrics sequence,
// in completion order.
func (a *PerformanceAnalyzer) Workloads() []WorkloadMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]WorkloadMetrics, len(a.workloads))
	copy(out, a.workloads)
	return out
}

// DeviceSummary returns the last recorded device-wide summary.
func (a *PerformanceAnalyzer) DeviceSummary() DeviceMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device
}

// Clear empties the per-workload sequence and zeroes the device summary.
func (a *PerformanceAnalyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workloads = nil
	a.device = DeviceMetrics{}
}

// FastestWorkload returns the recorded workload with the smallest
// execution time, and true, or the zero value and false if none have been
// recorded.
func (a *PerformanceAnalyzer) FastestWorkload() (WorkloadMetrics, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.workloads) == 0 {
		return WorkloadMetrics{}, false
	}
	best := a.workloads[0]
	for _, m := range a.workloads[1:] {
		if m.ExecutionTimeMs < best.ExecutionTimeMs {
			best = m
		}
	}
	return best, true
}

// SlowestWorkload returns the recorded workload with the greatest
// execution time, and true, or the zero value and false if none have been
// recorded.
func (a *PerformanceAnalyzer) SlowestWorkload() (WorkloadMetrics, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.workloads) == 0 {
		return WorkloadMetrics{}, false
	}
	worst := a.workloads[0]
	for _, m := range a.workloads[1:] {
		if m.ExecutionTimeMs > worst.ExecutionTimeMs {
			worst = m
		}
	}
	return worst, true
}

// AverageWorkloadTime returns the mean execution time in milliseconds
// across all recorded workloads, or 0 if none have been recorded.
func (a *PerformanceAnalyzer) AverageWorkloadTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.workloads) == 0 {
		return 0
	}
	var sum float64
	for _, m := range a.workloads {
		sum += m.ExecutionTimeMs
	}
	return sum / float64(len(a.workloads))
}

// SchedulerComparison is a keyed collection of per-run analyzers, one per
// scheduling policy tried against the same workload mix.
type SchedulerComparison struct {
	mu      sync.Mutex
	results map[string]*PerformanceAnalyzer
}

// NewSchedulerComparison returns an empty SchedulerComparison.
func NewSchedulerComparison() *SchedulerComparison {
	return &SchedulerComparison{results: make(map[string]*PerformanceAnalyzer)}
}

// AddRun records analyzer as the result of running scheduler name.
func (c *SchedulerComparison) AddRun(name string, analyzer *PerformanceAnalyzer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[name] = analyzer
}

// Results returns a copy of the name-to-analyzer map.
func (c *SchedulerComparison) Results() map[string]*PerformanceAnalyzer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*PerformanceAnalyzer, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// BestScheduler returns the name of the scheduler with the smallest
// positive total execution time, and true, or "" and false if no run has
// recorded a positive total execution time.
func (c *SchedulerComparison) BestScheduler() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	best := ""
	bestTime := 0.0
	found := false
	for name, analyzer := range c.results {
		t := analyzer.DeviceSummary().TotalExecutionMs
		if t <= 0 {
			continue
		}
		if !found || t < bestTime {
			best = name
			bestTime = t
			found = true
		}
	}
	return best, found
}
