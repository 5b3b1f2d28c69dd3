package gpusim

import (
	"sync"

	"github.com/gammazero/deque"
)

// WarpScheduler is a bounded, thread-safe FIFO of ready warps belonging to
// one compute unit. Ordering is strict FIFO among warps that were Ready at
// enqueue time; there is no priority and no aging.
type WarpScheduler struct {
	mu       sync.Mutex
	ready    deque.Deque[*Warp]
	capacity int
}

// NewWarpScheduler returns an empty WarpScheduler bounded to capacity
// warps.
func NewWarpScheduler(capacity int) *WarpScheduler {
	return &WarpScheduler{capacity: capacity}
}

// AddWarp enqueues w at the tail if the queue has room and w is in state
// Ready; otherwise it returns false without enqueuing.
func (s *WarpScheduler) AddWarp(w *Warp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Len() >= s.capacity {
		return false
	}
	if w.State() != Ready {
		return false
	}
	s.ready.PushBack(w)
	return true
}

// GetNextWarp dequeues and returns the warp at the head, or nil if empty.
func (s *WarpScheduler) GetNextWarp() *Warp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Len() == 0 {
		return nil
	}
	return s.ready.PopFront()
}

// HasReadyWarps reports whether any warp is currently enqueued.
func (s *WarpScheduler) HasReadyWarps() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready.Len() > 0
}

// QueueSize returns the number of warps currently enqueued.
func (s *WarpScheduler) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready.Len()
}
