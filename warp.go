package gpusim

import "sync/atomic"

// Warp is a fixed-size (WarpSize) group of threads executed in lockstep.
// The final warp of a block may own fewer threads, tracked by the active
// mask. A warp's program counter and lifetime instruction count only ever
// increase; Completed is a terminal state.
type Warp struct {
	ID      WarpID
	Threads []*Thread

	// ActiveMask has one bit set per active thread (bit i == thread i is
	// active), initialized to all-ones for NumActiveThreads().
	ActiveMask uint32

	state ExecutionState

	pc                  atomic.Uint64
	instructionsRetired atomic.Uint64
	cyclesStalled       atomic.Uint64
}

// NewWarp returns a Warp in state Ready owning the given threads, with
// every thread marked active.
func NewWarp(id WarpID, threads []*Thread) *Warp {
	w := &Warp{
		ID:      id,
		Threads: threads,
		state:   Ready,
	}
	if n := len(threads); n > 0 && n <= 32 {
		w.ActiveMask = uint32(1)<<uint(n) - 1
	}
	return w
}

// State returns the warp's current execution state.
func (w *Warp) State() ExecutionState {
	return w.state
}

// setState transitions the warp. Completed is terminal: once set, further
// calls are no-ops. Called only from the owning compute unit's single
// executor goroutine, so no lock is required.
func (w *Warp) setState(s ExecutionState) {
	if w.state == Completed {
		return
	}
	w.state = s
}

// PC returns the warp's current program counter.
func (w *Warp) PC() uint64 {
	return w.pc.Load()
}

// InstructionsRetired returns the warp's lifetime instruction count.
func (w *Warp) InstructionsRetired() uint64 {
	return w.instructionsRetired.Load()
}

// CyclesStalled returns the number of cycles this warp has spent stalled
// on simulated memory latency.
func (w *Warp) CyclesStalled() uint64 {
	return w.cyclesStalled.Load()
}

// NumActiveThreads returns the number of bits set in ActiveMask.
func (w *Warp) NumActiveThreads() int {
	n := 0
	mask := w.ActiveMask
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}

// retireInstruction advances PC and the instruction counter by one. It is
// the caller's responsibility (the compute unit's quantum loop) to decide
// when a memory op or stall also applies.
func (w *Warp) retireInstruction() {
	w.pc.Add(1)
	w.instructionsRetired.Add(1)
}

// recordStall adds cycles to the warp's stalled-cycle count and transitions the warp through
// MemoryStalled back to Running, matching the compute unit's per-
// instruction stall handling (spec §4.3).
func (w *Warp) recordStall(cycles uint64) {
	w.setState(MemoryStalled)
	w.cyclesStalled.Add(cycles)
	w.setState(Running)
}

// maybeComplete marks the warp Completed if its lifetime instruction count
// has reached WarpCompletionThreshold, otherwise returns it to Ready.
// Returns true if the warp completed.
func (w *Warp) maybeComplete() bool {
	if w.instructionsRetired.Load() >= WarpCompletionThreshold {
		w.setState(Completed)
		return true
	}
	w.setState(Ready)
	return false
}
