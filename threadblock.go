package gpusim

import "sync/atomic"

// GridPosition is a thread block's 3-D coordinate within its workload's
// launch grid.
type GridPosition struct {
	X, Y, Z int
}

// ThreadBlock is a logical grouping of warps that share one shared-memory
// region. Its Completed flag is terminal: once set, it is never cleared.
type ThreadBlock struct {
	ID       BlockID
	Position GridPosition
	Shared   *SharedMemory
	Warps    []*Warp

	completed atomic.Bool
}

// NewThreadBlock returns a ThreadBlock at the given grid position owning
// the given warps and a shared memory region of sharedMemSize bytes.
func NewThreadBlock(id BlockID, pos GridPosition, warps []*Warp, sharedMemSize int64) *ThreadBlock {
	return &ThreadBlock{
		ID:       id,
		Position: pos,
		Shared:   NewSharedMemory(sharedMemSize),
		Warps:    warps,
	}
}

// Completed reports whether every warp owned by this block has reached
// the Completed state. The flag is sticky: once true, it stays true even
// if called again.
func (b *ThreadBlock) Completed() bool {
	if b.completed.Load() {
		return true
	}
	for _, w := range b.Warps {
		if w.State() != Completed {
			return false
		}
	}
	b.completed.Store(true)
	return true
}

// NumWarps returns the number of warps owned by this block.
func (b *ThreadBlock) NumWarps() int {
	return len(b.Warps)
}

// NumThreads returns the total number of threads across all of this
// block's warps.
func (b *ThreadBlock) NumThreads() int {
	n := 0
	for _, w := range b.Warps {
		n += len(w.Threads)
	}
	return n
}
