package gpusim

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	distributorNoPendingSleep = 10 * time.Millisecond
	distributorRetrySleep     = 1 * time.Millisecond
	distributorDrainSleep     = 10 * time.Millisecond
)

// distributor is the single long-running worker that binds thread blocks
// to compute units and advances workloads from scheduled to completed. It
// is strictly serial at workload granularity: only one workload is ever
// in flight across the compute units at a time.
type distributor struct {
	scheduler Scheduler
	cus       []*ComputeUnit
	mem       *MemoryController
	analyzer  *PerformanceAnalyzer

	stopped atomic.Bool
}

func newDistributor(scheduler Scheduler, cus []*ComputeUnit, mem *MemoryController, analyzer *PerformanceAnalyzer) *distributor {
	return &distributor{scheduler: scheduler, cus: cus, mem: mem, analyzer: analyzer}
}

// run drives the distributor loop until Stop is called.
func (d *distributor) run(ctx context.Context) {
	for !d.stopped.Load() {
		if d.scheduler.PendingCount() == 0 {
			time.Sleep(distributorNoPendingSleep)
			continue
		}

		w := d.scheduler.GetNextWorkload()
		if w == nil {
			continue
		}

		d.execute(ctx, w)
	}
}

// execute dispatches every block of w, waits for drain, and records its
// metrics. If Stop is observed mid-flight, execute abandons any remaining
// blocks and returns without marking w completed, per spec §5.
func (d *distributor) execute(ctx context.Context, w *Workload) {
	_, span := tracer().Start(ctx, w.Name)
	defer span.End()

	w.Start()
	logger().Debug("workload started", zap.String("workload", w.Name))

	for w.HasPendingBlocks() {
		if d.stopped.Load() {
			return
		}
		block := w.GetNextBlock()
		d.placeBlock(block)
	}

	d.waitForDrain()

	if d.stopped.Load() {
		return
	}

	w.Complete()
	d.scheduler.MarkCompleted(w)
	d.analyzer.RecordWorkload(w, d.cus, d.mem)

	logger().Debug("workload completed", zap.String("workload", w.Name),
		zap.Duration("execution_time", w.ExecutionTime()))
}

// placeBlock assigns block to the first compute unit (in index order) with
// free occupancy, retrying with a short sleep and a reaping pass across
// every compute unit if none currently accepts it.
func (d *distributor) placeBlock(block *ThreadBlock) {
	for {
		if d.stopped.Load() {
			return
		}
		for _, cu := range d.cus {
			if cu.AssignBlock(block) {
				return
			}
		}
		time.Sleep(distributorRetrySleep)
		for _, cu := range d.cus {
			cu.RemoveCompletedBlocks()
		}
	}
}

// waitForDrain polls every compute unit until all are Idle, implying no
// more blocks of the current workload remain assigned anywhere.
func (d *distributor) waitForDrain() {
	for {
		if d.stopped.Load() {
			return
		}
		allIdle := true
		for _, cu := range d.cus {
			cu.RemoveCompletedBlocks()
			if cu.State() != Idle {
				allIdle = false
			}
		}
		if allIdle {
			return
		}
		time.Sleep(distributorDrainSleep)
	}
}

func (d *distributor) stop() {
	d.stopped.Store(true)
}

func (d *distributor) resetRunState() {
	d.stopped.Store(false)
}
