package gpusim

import (
	"time"

	"github.com/gammazero/deque"
)

// Workload is a named kernel launch: a launch geometry, cost estimates,
// and the list of thread blocks it expands into. The pending-block list is
// consumed in LIFO order by GetNextBlock, per spec.
type Workload struct {
	Name                  string
	Type                  WorkloadType
	Config                KernelConfig
	Priority              int
	EstimatedInstructions int64
	EstimatedMemoryOps    int64

	pendingBlocks deque.Deque[*ThreadBlock]

	StartTime time.Time
	EndTime   time.Time

	// sequence is the insertion order this workload was submitted in,
	// used to break ties in the Priority and SJF scheduler policies.
	sequence uint64
}

// NewWorkload constructs a Workload with the given geometry and cost
// estimates but does not expand it into thread blocks. Device.SubmitWorkload
// expands it; outside a device, call GenerateThreadBlocks.
func NewWorkload(name string, t WorkloadType, cfg KernelConfig, priority int, estInstructions, estMemoryOps int64) (*Workload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Workload{
		Name:                  name,
		Type:                  t,
		Config:                cfg,
		Priority:              priority,
		EstimatedInstructions: estInstructions,
		EstimatedMemoryOps:    estMemoryOps,
	}, nil
}

// GenerateThreadBlocks expands the workload's KernelConfig into
// GridDimX*GridDimY*GridDimZ thread blocks, each built from fresh warps and
// threads, and pushes them onto the pending list in grid-index order. It is
// a pure function of the kernel config: repeated calls on the same config
// always produce the same block count and grid positions.
func (w *Workload) GenerateThreadBlocks() {
	w.pendingBlocks.Clear()

	threadsPerBlock := w.Config.ThreadsPerBlock()
	total := w.Config.TotalBlocks()

	var threadSeq ThreadID
	var warpSeq WarpID

	for i := 0; i < total; i++ {
		pos := w.Config.gridPosition(i)
		remaining := threadsPerBlock
		var warps []*Warp
		for remaining > 0 {
			n := remaining
			if n > WarpSize {
				n = WarpSize
			}
			threads := make([]*Thread, n)
			for j := 0; j < n; j++ {
				threads[j] = NewThread(threadSeq)
				threadSeq++
			}
			warps = append(warps, NewWarp(warpSeq, threads))
			warpSeq++
			remaining -= n
		}
		block := NewThreadBlock(BlockID(i), pos, warps, defaultSharedMemoryPerBlock)
		w.pendingBlocks.PushBack(block)
	}
}

// defaultSharedMemoryPerBlock backs thread blocks generated without an
// explicit device configuration in scope (GenerateThreadBlocks has no
// access to the owning Device's configured shared-memory size). Workloads
// generated through Device.SubmitWorkload use the device's configured value
// instead; see device.go.
const defaultSharedMemoryPerBlock = 48 * 1024

// GenerateThreadBlocksWithSharedMemory behaves like GenerateThreadBlocks
// but sizes each block's shared memory region to sharedMemSize bytes,
// matching the owning device's configuration.
func (w *Workload) GenerateThreadBlocksWithSharedMemory(sharedMemSize int64) {
	w.GenerateThreadBlocks()
	n := w.pendingBlocks.Len()
	for i := 0; i < n; i++ {
		b := w.pendingBlocks.At(i)
		b.Shared = NewSharedMemory(sharedMemSize)
	}
}

// GetNextBlock removes and returns the last pending block (LIFO), or nil
// if none remain.
func (w *Workload) GetNextBlock() *ThreadBlock {
	if w.pendingBlocks.Len() == 0 {
		return nil
	}
	return w.pendingBlocks.PopBack()
}

// HasPendingBlocks reports whether any blocks remain undispatched.
func (w *Workload) HasPendingBlocks() bool {
	return w.pendingBlocks.Len() > 0
}

// PendingBlockCount returns the number of undispatched blocks.
func (w *Workload) PendingBlockCount() int {
	return w.pendingBlocks.Len()
}

// Start stamps the workload's wall-clock start time. Called by the
// distributor on first dispatch.
func (w *Workload) Start() {
	w.StartTime = time.Now()
}

// Complete stamps the workload's wall-clock end time. Called by the
// distributor once every block has been observed completed.
func (w *Workload) Complete() {
	w.EndTime = time.Now()
}

// ExecutionTime returns the wall-clock duration between Start and
// Complete. Zero if either has not been called.
func (w *Workload) ExecutionTime() time.Duration {
	if w.StartTime.IsZero() || w.EndTime.IsZero() {
		return 0
	}
	return w.EndTime.Sub(w.StartTime)
}

// TotalThreads returns the workload's total thread count per its
// KernelConfig.
func (w *Workload) TotalThreads() int {
	return w.Config.TotalThreads()
}

// TotalBlocksLaunched returns the workload's total block count per its
// KernelConfig.
func (w *Workload) TotalBlocksLaunched() int {
	return w.Config.TotalBlocks()
}

// NewMatrixMultiplyWorkload builds a matrix-multiply workload for an
// M x K by K x N multiply: grid ceil(M/16) x ceil(N/16) x 1, block 16x16x1,
// estimated instructions 2*M*N*K, estimated memory ops M*N*(K+2).
func NewMatrixMultiplyWorkload(name string, m, n, k int, priority int) (*Workload, error) {
	cfg := KernelConfig{
		GridDimX:  ceilDiv(m, 16),
		GridDimY:  ceilDiv(n, 16),
		GridDimZ:  1,
		BlockDimX: 16,
		BlockDimY: 16,
		BlockDimZ: 1,
	}
	estInstr := int64(2) * int64(m) * int64(n) * int64(k)
	estMemOps := int64(m) * int64(n) * int64(k+2)
	return NewWorkload(name, MatrixMultiply, cfg, priority, estInstr, estMemOps)
}

// NewConvolutionWorkload builds a convolution workload over a B x C x H x W
// tensor: grid ceil(B*C*H*W/256) x 1 x 1, block 256x1x1, estimated
// instructions 18*B*C*H*W, estimated memory ops 10*B*C*H*W.
func NewConvolutionWorkload(name string, b, c, h, wdt int, priority int) (*Workload, error) {
	total := int64(b) * int64(c) * int64(h) * int64(wdt)
	cfg := KernelConfig{
		GridDimX:  ceilDiv64(total, 256),
		GridDimY:  1,
		GridDimZ:  1,
		BlockDimX: 256,
		BlockDimY: 1,
		BlockDimZ: 1,
	}
	return NewWorkload(name, Convolution, cfg, priority, 18*total, 10*total)
}

// NewVectorAddWorkload builds a vector-add workload over S elements: grid
// ceil(S/256) x 1 x 1, block 256x1x1, estimated instructions 2*S, estimated
// memory ops 3*S.
func NewVectorAddWorkload(name string, s int, priority int) (*Workload, error) {
	cfg := KernelConfig{
		GridDimX:  ceilDiv(s, 256),
		GridDimY:  1,
		GridDimZ:  1,
		BlockDimX: 256,
		BlockDimY: 1,
		BlockDimZ: 1,
	}
	return NewWorkload(name, VectorAdd, cfg, priority, int64(2*s), int64(3*s))
}

// NewReductionWorkload builds a reduction workload over S elements: grid
// ceil(S/256) x 1 x 1, block 256x1x1, estimated instructions S*floor(log2
// S), estimated memory ops 2*S.
func NewReductionWorkload(name string, s int, priority int) (*Workload, error) {
	cfg := KernelConfig{
		GridDimX:  ceilDiv(s, 256),
		GridDimY:  1,
		GridDimZ:  1,
		BlockDimX: 256,
		BlockDimY: 1,
		BlockDimZ: 1,
	}
	return NewWorkload(name, Reduction, cfg, priority, int64(s)*int64(log2Floor(s)), int64(2*s))
}

func ceilDiv64(a int64, b int64) int {
	if a <= 0 {
		return 0
	}
	return int(((a + b - 1) / b))
}

// log2Floor returns floor(log2(n)) for n >= 1, and 0 for n <= 0.
func log2Floor(n int) int {
	if n <= 0 {
		return 0
	}
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}
