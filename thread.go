package gpusim

// Thread is a single lane of execution within a warp. It owns a bounded
// register file and carries its own execution state, but all scheduling
// decisions are made at warp granularity.
type Thread struct {
	ID        ThreadID
	Registers RegisterFile
	State     ExecutionState
}

// NewThread returns a Thread in state Ready.
func NewThread(id ThreadID) *Thread {
	return &Thread{
		ID:    id,
		State: Ready,
	}
}
