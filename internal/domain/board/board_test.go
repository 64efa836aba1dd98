package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockDims_PerfectSquare(t *testing.T) {
	r, c, err := BlockDims(9)
	require.NoError(t, err)
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	r, c, err = BlockDims(16)
	require.NoError(t, err)
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
}

func TestBlockDims_NonSquareFactorable(t *testing.T) {
	// 6 = 2*3, largest r <= sqrt(6)~2.45 is 2
	r, c, err := BlockDims(6)
	require.NoError(t, err)
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
}

func TestBlockDims_Undefined(t *testing.T) {
	_, _, err := BlockDims(7) // prime
	require.ErrorIs(t, err, ErrNoBlockFactorization)
}

func TestParseBoard_RejectsRagged(t *testing.T) {
	_, err := ParseBoard([][]int{{1, 2}, {1}})
	require.ErrorIs(t, err, ErrMalformedBoard)
}

func TestParseBoard_RejectsOutOfRange(t *testing.T) {
	_, err := ParseBoard([][]int{{1, 10}, {0, 0}})
	require.ErrorIs(t, err, ErrMalformedBoard)
}

func TestIsWellFormed_DetectsRowDuplicate(t *testing.T) {
	b, err := ParseBoard([][]int{
		{1, 1, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.False(t, b.IsWellFormed())
}

func TestIsValidPlacement(t *testing.T) {
	b, err := ParseBoard([][]int{
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.False(t, b.IsValidPlacement(0, 1, 1), "1 already in row 0")
	assert.True(t, b.IsValidPlacement(0, 1, 2))
}

func TestOverlay_OnlyMaskedCellsChange(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)
	b.Set(0, 0, 1)

	cells := []Cell{{0, 0}, {0, 1}, {0, 2}}
	values := []int{9, 3, 4}
	mask := []bool{true, false, true}

	out := b.Overlay(cells, values, mask)
	assert.Equal(t, 9, out.Get(0, 0))
	assert.Equal(t, 0, out.Get(0, 1)) // unmasked, untouched
	assert.Equal(t, 4, out.Get(0, 2))
	assert.Equal(t, 1, b.Get(0, 0), "Overlay must not mutate receiver")
}

func TestClone_IsIndependent(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)
	clone := b.Clone()
	clone.Set(0, 0, 1)
	assert.Equal(t, 0, b.Get(0, 0))
}
