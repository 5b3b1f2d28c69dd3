package gpusim

import "fmt"

// ThreadID, WarpID, BlockID, and CoreID are opaque identifiers, unique
// within their natural scope (a thread, warp or block within a workload, a
// compute unit within a device).
type (
	ThreadID uint32
	WarpID   uint32
	BlockID  uint32
	CoreID   uint32
)

// Fixed geometry and capacity constants shared across the simulation.
const (
	// WarpSize is the number of threads executed in lockstep by a warp.
	WarpSize = 32

	// RegistersPerThread bounds the size of each thread's register file.
	RegistersPerThread = 255

	// MaxThreadsPerBlock and MaxBlocksPerGrid bound the geometry a
	// KernelConfig may request.
	MaxThreadsPerBlock = 1024
	MaxBlocksPerGrid   = 65535

	// GlobalMemoryLatencyCycles and SharedMemoryLatencyCycles are the
	// fixed access latencies consumed by a compute unit's stall loop.
	GlobalMemoryLatencyCycles = 400
	SharedMemoryLatencyCycles = 4

	// InstructionsPerCycle is the quantum of instructions a warp retires
	// each time it is picked by its compute unit.
	InstructionsPerCycle = 8

	// WarpCompletionThreshold is the lifetime instruction count at which
	// a warp transitions to Completed.
	WarpCompletionThreshold = 1000

	// MemoryOpEveryNInstructions and StallEveryNInstructions define the
	// simulated workload shape: one instruction in five is a memory op,
	// and one memory op in two (i.e. one instruction in ten overall)
	// causes a stall.
	MemoryOpEveryNInstructions = 5
	StallEveryNInstructions    = 10
)

// ExecutionState is the finite set of states an execution entity (warp or
// compute unit) can occupy.
type ExecutionState int

const (
	Idle ExecutionState = iota
	Ready
	Running
	MemoryStalled
	Completed
)

// String implements fmt.Stringer.
func (s ExecutionState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case MemoryStalled:
		return "MemoryStalled"
	case Completed:
		return "Completed"
	default:
		return fmt.Sprintf("ExecutionState(%d)", int(s))
	}
}

// WorkloadType tags the kind of kernel a Workload represents. Its integer
// ordinal is part of the workload CSV schema, so the order below must not
// change.
type WorkloadType int

const (
	MatrixMultiply WorkloadType = iota
	Convolution
	VectorAdd
	Reduction
	Custom
)

// String implements fmt.Stringer.
func (t WorkloadType) String() string {
	switch t {
	case MatrixMultiply:
		return "MatrixMultiply"
	case Convolution:
		return "Convolution"
	case VectorAdd:
		return "VectorAdd"
	case Reduction:
		return "Reduction"
	case Custom:
		return "Custom"
	default:
		return fmt.Sprintf("WorkloadType(%d)", int(t))
	}
}

// SchedulingAlgorithm selects the workload-level scheduling policy used by
// a Device.
type SchedulingAlgorithm int

const (
	FIFO SchedulingAlgorithm = iota
	Priority
	RoundRobin
	ShortestJobFirst
)

// String implements fmt.Stringer.
func (a SchedulingAlgorithm) String() string {
	switch a {
	case FIFO:
		return "FIFO"
	case Priority:
		return "Priority"
	case RoundRobin:
		return "RoundRobin"
	case ShortestJobFirst:
		return "ShortestJobFirst"
	default:
		return fmt.Sprintf("SchedulingAlgorithm(%d)", int(a))
	}
}
