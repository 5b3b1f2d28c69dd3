package gpusim

import (
	"sync"

	internalheap "github.com/corewarp/gpusim/internal/heap"
)

// Scheduler is the workload-level scheduling policy abstraction. All
// policies share the same three-sequence model (pending, running,
// completed) guarded by a single lock; they differ only in the rule
// GetNextWorkload applies to pick the next pending workload.
type Scheduler interface {
	// AddWorkload appends w to the pending sequence.
	AddWorkload(w *Workload)
	// GetNextWorkload selects one workload from pending according to the
	// policy, moves it to running, and returns it; returns nil if pending
	// is empty.
	GetNextWorkload() *Workload
	// MarkRunning moves w from pending to running directly; a no-op if w
	// is not currently pending.
	MarkRunning(w *Workload)
	// MarkCompleted moves w from running to completed; a no-op if w is
	// not currently running.
	MarkCompleted(w *Workload)
	// PendingCount, RunningCount, and CompletedWorkloads are
	// observational accessors used by the distributor and device.
	PendingCount() int
	RunningCount() int
	CompletedWorkloads() []*Workload
	// Name identifies the policy, used in logs and metrics.
	Name() string
}

// workloadQueue holds the running and completed sequences shared by every
// scheduler variant. It is not itself safe for concurrent use; each
// variant's own mutex must be held by the caller.
type workloadQueue struct {
	running   []*Workload
	completed []*Workload
}

func (q *workloadQueue) removeRunning(w *Workload) bool {
	for i, r := range q.running {
		if r == w {
			q.running = append(q.running[:i], q.running[i+1:]...)
			return true
		}
	}
	return false
}

func (q *workloadQueue) markCompleted(w *Workload) {
	if q.removeRunning(w) {
		q.completed = append(q.completed, w)
	}
}

func (q *workloadQueue) runningCount() int {
	return len(q.running)
}

func (q *workloadQueue) completedWorkloads() []*Workload {
	out := make([]*Workload, len(q.completed))
	copy(out, q.completed)
	return out
}

// NewScheduler returns a fresh Scheduler implementing alg.
func NewScheduler(alg SchedulingAlgorithm) Scheduler {
	switch alg {
	case Priority:
		return NewPriorityScheduler()
	case RoundRobin:
		return NewRoundRobinScheduler()
	case ShortestJobFirst:
		return NewShortestJobFirstScheduler()
	default:
		return NewFIFOScheduler()
	}
}

// FIFOScheduler selects the workload at the front of pending.
type FIFOScheduler struct {
	mu      sync.Mutex
	pending []*Workload
	seq     uint64
	workloadQueue
}

// NewFIFOScheduler returns an empty FIFOScheduler.
func NewFIFOScheduler() *FIFOScheduler {
	return &FIFOScheduler{}
}

func (s *FIFOScheduler) Name() string { return "FIFO" }

func (s *FIFOScheduler) AddWorkload(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.sequence = s.seq
	s.pending = append(s.pending, w)
}

func (s *FIFOScheduler) GetNextWorkload() *Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	w := s.pending[0]
	s.pending = s.pending[1:]
	s.running = append(s.running, w)
	return w
}

func (s *FIFOScheduler) MarkRunning(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p == w {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.running = append(s.running, w)
			return
		}
	}
}

func (s *FIFOScheduler) MarkCompleted(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCompleted(w)
}

func (s *FIFOScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *FIFOScheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningCount()
}

func (s *FIFOScheduler) CompletedWorkloads() []*Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedWorkloads()
}

// RoundRobinScheduler selects pending[currentIndex % len(pending)]. Per
// the original implementation this index is read every call but never
// incremented, so the observable behavior is indistinguishable from FIFO;
// the field is kept for fidelity, not advanced. See SPEC_FULL.md §4.
type RoundRobinScheduler struct {
	mu           sync.Mutex
	pending      []*Workload
	currentIndex int
	seq          uint64
	workloadQueue
}

// NewRoundRobinScheduler returns an empty RoundRobinScheduler.
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

func (s *RoundRobinScheduler) Name() string { return "RoundRobin" }

func (s *RoundRobinScheduler) AddWorkload(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.sequence = s.seq
	s.pending = append(s.pending, w)
}

func (s *RoundRobinScheduler) GetNextWorkload() *Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	idx := s.currentIndex % len(s.pending)
	w := s.pending[idx]
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	s.running = append(s.running, w)
	return w
}

func (s *RoundRobinScheduler) MarkRunning(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p == w {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.running = append(s.running, w)
			return
		}
	}
}

func (s *RoundRobinScheduler) MarkCompleted(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCompleted(w)
}

func (s *RoundRobinScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *RoundRobinScheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningCount()
}

func (s *RoundRobinScheduler) CompletedWorkloads() []*Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedWorkloads()
}

// priorityItem wraps a *Workload for use in PriorityScheduler's heap:
// higher Priority sorts first, ties broken by earlier submission sequence.
type priorityItem struct {
	workload *Workload
	position int
}

func (p *priorityItem) Less(other *priorityItem) bool {
	if p.workload.Priority != other.workload.Priority {
		return p.workload.Priority > other.workload.Priority
	}
	return p.workload.sequence < other.workload.sequence
}

func (p *priorityItem) SetPosition(i int) { p.position = i }
func (p *priorityItem) Position() int     { return p.position }

// PriorityScheduler selects the pending workload with the greatest
// Priority, ties broken by earliest submission.
type PriorityScheduler struct {
	mu    sync.Mutex
	heap  internalheap.Heap[*priorityItem]
	items map[*Workload]*priorityItem
	seq   uint64
	workloadQueue
}

// NewPriorityScheduler returns an empty PriorityScheduler.
func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{items: make(map[*Workload]*priorityItem)}
}

func (s *PriorityScheduler) Name() string { return "Priority" }

func (s *PriorityScheduler) AddWorkload(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.sequence = s.seq
	item := &priorityItem{workload: w}
	s.items[w] = item
	s.heap.Push(item)
}

func (s *PriorityScheduler) GetNextWorkload() *Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() == 0 {
		return nil
	}
	item := s.heap.Pop()
	delete(s.items, item.workload)
	s.running = append(s.running, item.workload)
	return item.workload
}

func (s *PriorityScheduler) MarkRunning(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[w]
	if !ok {
		return
	}
	if s.heap.Remove(item) {
		delete(s.items, w)
		s.running = append(s.running, w)
	}
}

func (s *PriorityScheduler) MarkCompleted(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCompleted(w)
}

func (s *PriorityScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

func (s *PriorityScheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningCount()
}

func (s *PriorityScheduler) CompletedWorkloads() []*Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedWorkloads()
}

// sjfItem wraps a *Workload for use in ShortestJobFirstScheduler's heap:
// smaller EstimatedInstructions sorts first, ties broken by earlier
// submission sequence.
type sjfItem struct {
	workload *Workload
	position int
}

func (p *sjfItem) Less(other *sjfItem) bool {
	if p.workload.EstimatedInstructions != other.workload.EstimatedInstructions {
		return p.workload.EstimatedInstructions < other.workload.EstimatedInstructions
	}
	return p.workload.sequence < other.workload.sequence
}

func (p *sjfItem) SetPosition(i int) { p.position = i }
func (p *sjfItem) Position() int     { return p.position }

// ShortestJobFirstScheduler selects the pending workload with the least
// EstimatedInstructions, ties broken by earliest submission.
type ShortestJobFirstScheduler struct {
	mu    sync.Mutex
	heap  internalheap.Heap[*sjfItem]
	items map[*Workload]*sjfItem
	seq   uint64
	workloadQueue
}

// NewShortestJobFirstScheduler returns an empty ShortestJobFirstScheduler.
func NewShortestJobFirstScheduler() *ShortestJobFirstScheduler {
	return &ShortestJobFirstScheduler{items: make(map[*Workload]*sjfItem)}
}

func (s *ShortestJobFirstScheduler) Name() string { return "ShortestJobFirst" }

func (s *ShortestJobFirstScheduler) AddWorkload(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.sequence = s.seq
	item := &sjfItem{workload: w}
	s.items[w] = item
	s.heap.Push(item)
}

func (s *ShortestJobFirstScheduler) GetNextWorkload() *Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() == 0 {
		return nil
	}
	item := s.heap.Pop()
	delete(s.items, item.workload)
	s.running = append(s.running, item.workload)
	return item.workload
}

func (s *ShortestJobFirstScheduler) MarkRunning(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[w]
	if !ok {
		return
	}
	if s.heap.Remove(item) {
		delete(s.items, w)
		s.running = append(s.running, w)
	}
}

func (s *ShortestJobFirstScheduler) MarkCompleted(w *Workload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCompleted(w)
}

func (s *ShortestJobFirstScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

func (s *ShortestJobFirstScheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningCount()
}

func (s *ShortestJobFirstScheduler) CompletedWorkloads() []*Workload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedWorkloads()
}
