package blocksolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/solver"
)

func TestNakedSingleSolver_SolvesByPropagationAlone(t *testing.T) {
	ctx, err := board.ParseBoard([][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})
	require.NoError(t, err)

	req := solver.Request{
		PartitionValues: []int{1, 2, 3, 0},
		PartitionCells:  []board.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}},
		ContextBoard:    ctx,
		PartitionIndex:  partition.Index{},
		N:               4,
	}

	res, err := NakedSingleSolver{}.Solve(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, solver.ValidateResult(req, res))
	assert.Equal(t, 4, res.Values[3])
	assert.True(t, res.SureMask[3])
}

func TestNakedSingleSolver_FallsBackToBacktrackingWhenUnderdetermined(t *testing.T) {
	// An empty board: naked singles alone resolves nothing,
	// so the solver must fall back to search for a full partition
	// fill, always marking those cells unsure.
	ctx, err := board.New(4)
	require.NoError(t, err)

	req := solver.Request{
		PartitionValues: []int{0, 0, 0, 0},
		PartitionCells:  []board.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}},
		ContextBoard:    ctx,
		N:               4,
	}

	res, err := NakedSingleSolver{}.Solve(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, solver.ValidateResult(req, res))
	for i, sure := range res.SureMask {
		assert.False(t, sure, "cell %d should be an unsure guess on an empty board", i)
	}
}

func TestNakedSingleSolver_EchoesClueCellsAsSure(t *testing.T) {
	ctx, err := board.ParseBoard([][]int{
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	require.NoError(t, err)

	req := solver.Request{
		PartitionValues: []int{1, 0, 0, 0},
		PartitionCells:  []board.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}, {Row: 3, Col: 0}},
		ContextBoard:    ctx,
		N:               4,
	}

	res, err := NakedSingleSolver{}.Solve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Values[0])
	assert.True(t, res.SureMask[0])
}

func TestNakedSingleSolver_InfeasibleContextReturnsError(t *testing.T) {
	ctx, err := board.ParseBoard([][]int{
		{1, 2, 3, 0},
		{0, 0, 0, 4},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	require.NoError(t, err)

	req := solver.Request{
		PartitionValues: []int{1, 0, 0, 0},
		PartitionCells:  []board.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}, {Row: 3, Col: 0}},
		ContextBoard:    ctx,
		N:               4,
	}

	_, err = NakedSingleSolver{}.Solve(context.Background(), req)
	require.ErrorIs(t, err, solver.ErrInfeasible)
}
