package gpusim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestThreads(n int) []*Thread {
	threads := make([]*Thread, n)
	for i := range threads {
		threads[i] = NewThread(ThreadID(i))
	}
	return threads
}

func TestWarpActiveMaskFullWarp(t *testing.T) {
	w := NewWarp(0, newTestThreads(WarpSize))
	require.Equal(t, WarpSize, w.NumActiveThreads())
	require.Equal(t, uint32(0xFFFFFFFF), w.ActiveMask)
}

func TestWarpActiveMaskPartialWarp(t *testing.T) {
	w := NewWarp(0, newTestThreads(5))
	require.Equal(t, 5, w.NumActiveThreads())
	require.Equal(t, uint32(0b11111), w.ActiveMask)
}

// TestWarpPCMonotonicAndCompletion exercises invariant #2 (PC and lifetime
// instructions are monotonically non-decreasing) and the completion
// threshold.
func TestWarpPCMonotonicAndCompletion(t *testing.T) {
	w := NewWarp(0, newTestThreads(WarpSize))
	var lastPC uint64
	for i := 0; i < WarpCompletionThreshold-1; i++ {
		w.retireInstruction()
		require.GreaterOrEqual(t, w.PC(), lastPC)
		lastPC = w.PC()
	}
	require.False(t, w.maybeComplete())
	require.Equal(t, Ready, w.State())

	w.retireInstruction()
	require.True(t, w.maybeComplete())
	require.Equal(t, Completed, w.State())

	// Completed is terminal: further state changes are ignored.
	w.setState(Ready)
	require.Equal(t, Completed, w.State())
}

func TestThreadBlockCompletedIffAllWarpsCompleted(t *testing.T) {
	w1 := NewWarp(0, newTestThreads(WarpSize))
	w2 := NewWarp(1, newTestThreads(WarpSize))
	b := NewThreadBlock(0, GridPosition{}, []*Warp{w1, w2}, 48*1024)

	require.False(t, b.Completed())

	w1.setState(Completed)
	require.False(t, b.Completed())

	w2.setState(Completed)
	require.True(t, b.Completed())
}
