package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a 4x4 board (2x2 blocks) with exactly one empty cell, forced by its
// row/col/block to be 4.
func nakedSingleBoard(t *testing.T) *Board {
	t.Helper()
	b, err := ParseBoard([][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})
	require.NoError(t, err)
	return b
}

func TestPropagate_FillsNakedSingle(t *testing.T) {
	b := nakedSingleBoard(t)
	out, err := Propagate(b, LevelNakedSingles)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Get(0, 3))
	assert.True(t, out.IsSolved())
}

func TestPropagate_DoesNotMutateInput(t *testing.T) {
	b := nakedSingleBoard(t)
	_, err := Propagate(b, LevelNakedSingles)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Get(0, 3), "Propagate must not mutate its argument")
}

func TestPropagate_Idempotent(t *testing.T) {
	b := nakedSingleBoard(t)
	once, err := Propagate(b, LevelNakedSingles)
	require.NoError(t, err)
	twice, err := Propagate(once, LevelNakedSingles)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestPropagate_InfeasibleWhenCandidateSetEmpty(t *testing.T) {
	// row 0 already has {1,2,3}; column 3 already has a 4 at row 1,
	// so (0,3)'s candidate set (1..4 minus row/col/block exclusions)
	// is empty.
	b, err := ParseBoard([][]int{
		{1, 2, 3, 0},
		{0, 0, 0, 4},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	require.NoError(t, err)
	_, err = Propagate(b, LevelNakedSingles)
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestPropagate_EmptyBoardMakesNoProgress(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)
	out, err := Propagate(b, LevelNakedSingles)
	require.NoError(t, err)
	assert.True(t, out.Equal(b))
}
