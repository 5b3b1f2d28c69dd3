package gpusim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestWarpSchedulerNeverExceedsCapacity is a property-based law: AddWarp
// never allows the ready queue to exceed its configured capacity.
func TestWarpSchedulerNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		capacity := rapid.IntRange(1, 16).Draw(tt, "capacity")
		numWarps := rapid.IntRange(0, 32).Draw(tt, "numWarps")

		s := NewWarpScheduler(capacity)
		accepted := 0
		for i := 0; i < numWarps; i++ {
			w := NewWarp(WarpID(i), newTestThreads(1))
			if s.AddWarp(w) {
				accepted++
			}
			require.LessOrEqual(tt, s.QueueSize(), capacity)
		}
		require.Equal(tt, accepted, s.QueueSize())
	})
}

// TestWarpSchedulerRejectsNonReadyWarps ensures addWarp refuses warps that
// are not in state Ready, per spec §4.2.
func TestWarpSchedulerRejectsNonReadyWarps(t *testing.T) {
	s := NewWarpScheduler(4)
	w := NewWarp(0, newTestThreads(1))
	w.setState(Running)
	require.False(t, s.AddWarp(w))
	require.Equal(t, 0, s.QueueSize())
}

// TestWarpSchedulerFIFOOrder is a property-based law: warps are always
// returned from GetNextWarp in the order they were added.
func TestWarpSchedulerFIFOOrder(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(tt, "n")
		s := NewWarpScheduler(n)
		var warps []*Warp
		for i := 0; i < n; i++ {
			w := NewWarp(WarpID(i), newTestThreads(1))
			warps = append(warps, w)
			require.True(tt, s.AddWarp(w))
		}
		for _, want := range warps {
			got := s.GetNextWarp()
			require.Same(tt, want, got)
		}
		require.Nil(tt, s.GetNextWarp())
	})
}

// TestComputeUnitCyclesEqualIdlePlusActive is invariant #4: the sum of
// idle-cycles and active-cycles equals the cycles-executed counter at all
// times. "Active" here is cyclesExecuted-idleCycles by construction of
// Utilization, so this law is really checking idleCycles never exceeds
// cyclesExecuted.
func TestComputeUnitCyclesEqualIdlePlusActive(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		numWarps := rapid.IntRange(1, 4).Draw(tt, "numWarps")
		numCycles := rapid.IntRange(0, 50).Draw(tt, "numCycles")

		cu := newTestComputeUnit(4, numWarps)
		b := blockWithWarps(0, numWarps)
		require.True(tt, cu.AssignBlock(b))

		for i := 0; i < numCycles; i++ {
			cu.SimulateCycle()
			require.LessOrEqual(tt, cu.IdleCycles(), cu.CyclesExecuted())
		}
	})
}

// TestComputeUnitNeverExceedsOccupancyCaps is invariant #1.
func TestComputeUnitNeverExceedsOccupancyCaps(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		maxBlocks := rapid.IntRange(1, 8).Draw(tt, "maxBlocks")
		maxWarps := rapid.IntRange(1, 32).Draw(tt, "maxWarps")
		attempts := rapid.IntRange(1, 16).Draw(tt, "attempts")

		cu := newTestComputeUnit(maxBlocks, maxWarps)
		assignedBlocks := 0
		assignedWarps := 0
		for i := 0; i < attempts; i++ {
			warpsInBlock := rapid.IntRange(1, 8).Draw(tt, "warpsInBlock")
			b := blockWithWarps(BlockID(i), warpsInBlock)
			if cu.AssignBlock(b) {
				assignedBlocks++
				assignedWarps += warpsInBlock
			}
			require.LessOrEqual(tt, assignedBlocks, maxBlocks)
			require.LessOrEqual(tt, assignedWarps, maxWarps)
		}
	})
}
