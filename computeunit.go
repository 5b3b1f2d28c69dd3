package gpusim

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// idleSleepInterval is how long an executor sleeps when it has no work,
// per spec §5's suspension-point contract.
const idleSleepInterval = 100 * time.Microsecond

// ComputeUnit is a scheduling and execution domain: it holds up to
// MaxBlocksPerCU thread blocks, schedules their warps through a bounded
// WarpScheduler, and executes one cycle at a time.
type ComputeUnit struct {
	ID CoreID

	warpScheduler *WarpScheduler
	mem           *MemoryController

	maxBlocksPerCU  int
	maxWarpsPerCU   int
	maxThreadsPerCU int

	// mu guards blocks and state; the per-cycle loop only takes it when
	// scanning for or recording newly completed blocks, per spec §5.
	mu     sync.Mutex
	blocks []*ThreadBlock
	state  ExecutionState

	cyclesExecuted      atomic.Uint64
	instructionsExecuted atomic.Uint64
	warpsRetired        atomic.Uint64
	idleCycles          atomic.Uint64
	stallCycles         atomic.Uint64

	stopped atomic.Bool
}

// NewComputeUnit returns an Idle ComputeUnit sharing the given memory
// controller, with a warp scheduler bounded to maxWarpsPerCU.
func NewComputeUnit(id CoreID, mem *MemoryController, maxBlocksPerCU, maxWarpsPerCU, maxThreadsPerCU int) *ComputeUnit {
	return &ComputeUnit{
		ID:              id,
		warpScheduler:   NewWarpScheduler(maxWarpsPerCU),
		mem:             mem,
		maxBlocksPerCU:  maxBlocksPerCU,
		maxWarpsPerCU:   maxWarpsPerCU,
		maxThreadsPerCU: maxThreadsPerCU,
		state:           Idle,
	}
}

// State returns the compute unit's current execution state.
func (c *ComputeUnit) State() ExecutionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// currentWarpCountLocked sums NumWarps across currently assigned blocks.
// Callers must hold c.mu.
func (c *ComputeUnit) currentWarpCountLocked() int {
	n := 0
	for _, b := range c.blocks {
		n += b.NumWarps()
	}
	return n
}

// CanAcceptBlock reports whether b may be assigned: the current block
// count must be under maxBlocksPerCU and the current warp count plus b's
// warps must not exceed maxWarpsPerCU.
func (c *ComputeUnit) CanAcceptBlock(b *ThreadBlock) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAcceptBlockLocked(b)
}

func (c *ComputeUnit) canAcceptBlockLocked(b *ThreadBlock) bool {
	if len(c.blocks) >= c.maxBlocksPerCU {
		return false
	}
	return c.currentWarpCountLocked()+b.NumWarps() <= c.maxWarpsPerCU
}

// AssignBlock attempts to assign b to this compute unit. On success, every
// warp of b is enqueued into the warp scheduler, b joins the active-block
// set, the CU transitions to Running, and AssignBlock returns true. On
// failure (insufficient occupancy) it returns false and b is unchanged, so
// the caller (the distributor) may retry it on another compute unit.
func (c *ComputeUnit) AssignBlock(b *ThreadBlock) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canAcceptBlockLocked(b) {
		return false
	}
	for _, w := range b.Warps {
		c.warpScheduler.AddWarp(w)
	}
	c.blocks = append(c.blocks, b)
	c.state = Running
	return true
}

// RemoveCompletedBlocks drops any assigned block whose Completed flag is
// set. If no blocks remain afterward, the compute unit returns to Idle.
// Called periodically by the distributor.
func (c *ComputeUnit) RemoveCompletedBlocks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.blocks[:0]
	for _, b := range c.blocks {
		if !b.Completed() {
			remaining = append(remaining, b)
		}
	}
	c.blocks = remaining
	if len(c.blocks) == 0 {
		c.state = Idle
	}
}

// hasAssignedBlocks reports whether the compute unit currently owns any
// blocks.
func (c *ComputeUnit) hasAssignedBlocks() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks) > 0
}

// SimulateCycle executes one cycle: it increments the cycle counter, pulls
// one warp from the warp scheduler (if any), executes its instruction
// quantum, and scans for newly completed blocks.
func (c *ComputeUnit) SimulateCycle() {
	c.cyclesExecuted.Add(1)

	w := c.warpScheduler.GetNextWarp()
	if w == nil {
		c.idleCycles.Add(1)
		return
	}

	c.executeQuantum(w)

	completed := w.maybeComplete()
	if completed {
		c.warpsRetired.Add(1)
	} else {
		c.warpScheduler.AddWarp(w)
	}

	c.mu.Lock()
	for _, b := range c.blocks {
		b.Completed()
	}
	c.mu.Unlock()
}

// executeQuantum retires InstructionsPerCycle instructions for w. Every
// MemoryOpEveryNInstructions-th lifetime instruction records a memory op;
// every StallEveryNInstructions-th instruction (a subset of the memory-op
// instructions) also incurs a simulated stall consuming
// GlobalMemoryLatencyCycles/10 cycles.
func (c *ComputeUnit) executeQuantum(w *Warp) {
	for i := 0; i < InstructionsPerCycle; i++ {
		w.retireInstruction()
		c.instructionsExecuted.Add(1)

		n := w.InstructionsRetired()
		if n%MemoryOpEveryNInstructions == 0 {
			c.mem.RecordMemoryOp()
			if n%StallEveryNInstructions == 0 {
				stallCycles := uint64(GlobalMemoryLatencyCycles / 10)
				w.recordStall(stallCycles)
				c.cyclesExecuted.Add(stallCycles)
				c.stallCycles.Add(stallCycles)
			}
		}
	}
}

// Run executes cycles until Stop is called. When there are no assigned
// blocks or the warp scheduler has no ready warps, it sleeps briefly to
// yield rather than busy-spinning.
func (c *ComputeUnit) Run() {
	for !c.stopped.Load() {
		if c.hasAssignedBlocks() && c.warpScheduler.HasReadyWarps() {
			c.SimulateCycle()
		} else {
			time.Sleep(idleSleepInterval)
		}
	}
}

// Stop signals Run to exit at its next suspension point.
func (c *ComputeUnit) Stop() {
	c.stopped.Store(true)
}

// ResetRunState clears the stopped flag so Run may be invoked again.
func (c *ComputeUnit) ResetRunState() {
	c.stopped.Store(false)
}

// Utilization returns active cycles divided by total cycles, as a
// percentage; 0 if no cycles have run.
func (c *ComputeUnit) Utilization() float64 {
	total := c.cyclesExecuted.Load()
	if total == 0 {
		return 0
	}
	idle := c.idleCycles.Load()
	return float64(total-idle) / float64(total) * 100
}

func (c *ComputeUnit) CyclesExecuted() uint64       { return c.cyclesExecuted.Load() }
func (c *ComputeUnit) InstructionsExecuted() uint64 { return c.instructionsExecuted.Load() }
func (c *ComputeUnit) WarpsRetired() uint64         { return c.warpsRetired.Load() }
func (c *ComputeUnit) IdleCycles() uint64           { return c.idleCycles.Load() }
func (c *ComputeUnit) StallCycles() uint64          { return c.stallCycles.Load() }

// ResetMetrics zeroes every counter and clears any assigned blocks,
// returning the compute unit to Idle. Called by Device.Reset.
func (c *ComputeUnit) ResetMetrics() {
	c.cyclesExecuted.Store(0)
	c.instructionsExecuted.Store(0)
	c.warpsRetired.Store(0)
	c.idleCycles.Store(0)
	c.stallCycles.Store(0)

	c.mu.Lock()
	c.blocks = nil
	c.state = Idle
	c.mu.Unlock()

	c.warpScheduler = NewWarpScheduler(c.maxWarpsPerCU)

	logger().Debug("compute unit reset", zap.Uint32("core_id", uint32(c.ID)))
}
