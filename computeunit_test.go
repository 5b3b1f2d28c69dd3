package gpusim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestComputeUnit(maxBlocks, maxWarps int) *ComputeUnit {
	mem := NewMemoryController(1024 * 1024)
	return NewComputeUnit(0, mem, maxBlocks, maxWarps, maxWarps*WarpSize)
}

func blockWithWarps(id BlockID, numWarps int) *ThreadBlock {
	warps := make([]*Warp, numWarps)
	for i := range warps {
		warps[i] = NewWarp(WarpID(i), newTestThreads(WarpSize))
	}
	return NewThreadBlock(id, GridPosition{}, warps, 48*1024)
}

func TestComputeUnitOccupancy(t *testing.T) {
	cu := newTestComputeUnit(1, 4)
	b1 := blockWithWarps(0, 4)
	require.True(t, cu.CanAcceptBlock(b1))
	require.True(t, cu.AssignBlock(b1))

	// Block count cap reached even though warp budget would allow more.
	b2 := blockWithWarps(1, 1)
	require.False(t, cu.CanAcceptBlock(b2))
	require.False(t, cu.AssignBlock(b2))
}

func TestComputeUnitWarpCapacity(t *testing.T) {
	cu := newTestComputeUnit(4, 4)
	b1 := blockWithWarps(0, 3)
	require.True(t, cu.AssignBlock(b1))

	b2 := blockWithWarps(1, 2)
	require.False(t, cu.CanAcceptBlock(b2), "3+2 exceeds max warps of 4")
	require.False(t, cu.AssignBlock(b2))

	b3 := blockWithWarps(2, 1)
	require.True(t, cu.AssignBlock(b3))
}

// TestComputeUnitRunsWarpToCompletion drives a single warp through enough
// cycles to reach the completion threshold and confirms the owning block
// is then flagged completed.
func TestComputeUnitRunsWarpToCompletion(t *testing.T) {
	cu := newTestComputeUnit(1, 1)
	b := blockWithWarps(0, 1)
	require.True(t, cu.AssignBlock(b))

	cycles := WarpCompletionThreshold / InstructionsPerCycle
	for i := 0; i < cycles; i++ {
		cu.SimulateCycle()
	}

	require.True(t, b.Completed())
	require.Equal(t, Completed, b.Warps[0].State())
	require.Equal(t, uint64(1), cu.WarpsRetired())
	require.Equal(t, uint64(WarpCompletionThreshold), cu.InstructionsExecuted())
}

func TestComputeUnitRecordsMemoryOpsAndStalls(t *testing.T) {
	mem := NewMemoryController(1024 * 1024)
	cu := NewComputeUnit(0, mem, 1, 1, WarpSize)
	b := blockWithWarps(0, 1)
	require.True(t, cu.AssignBlock(b))

	// Run exactly 10 cycles (80 instructions): memory ops at every 5th
	// instruction (16 of them) and a stall at every 10th (8 of them).
	for i := 0; i < 10; i++ {
		cu.SimulateCycle()
	}

	require.Equal(t, int64(16), mem.TotalMemoryOps())
	require.Greater(t, cu.StallCycles(), uint64(0))
}

func TestComputeUnitIdleCyclesWhenEmpty(t *testing.T) {
	cu := newTestComputeUnit(1, 1)
	cu.SimulateCycle()
	require.Equal(t, uint64(1), cu.IdleCycles())
	require.Equal(t, uint64(1), cu.CyclesExecuted())
	require.Equal(t, float64(0), cu.Utilization())
}

func TestComputeUnitRemoveCompletedBlocksReturnsToIdle(t *testing.T) {
	cu := newTestComputeUnit(1, 1)
	b := blockWithWarps(0, 1)
	require.True(t, cu.AssignBlock(b))
	require.Equal(t, Running, cu.State())

	cycles := WarpCompletionThreshold / InstructionsPerCycle
	for i := 0; i < cycles; i++ {
		cu.SimulateCycle()
	}
	require.True(t, b.Completed())

	cu.RemoveCompletedBlocks()
	require.Equal(t, Idle, cu.State())
}

func TestComputeUnitResetMetrics(t *testing.T) {
	cu := newTestComputeUnit(1, 1)
	b := blockWithWarps(0, 1)
	require.True(t, cu.AssignBlock(b))
	cu.SimulateCycle()
	require.Greater(t, cu.CyclesExecuted(), uint64(0))

	cu.ResetMetrics()
	require.Equal(t, uint64(0), cu.CyclesExecuted())
	require.Equal(t, uint64(0), cu.InstructionsExecuted())
	require.Equal(t, Idle, cu.State())
	require.False(t, cu.hasAssignedBlocks())
}
