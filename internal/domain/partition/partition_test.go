package partition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/internal/domain/board"
)

func fourByFourWithOneGap(t *testing.T) *board.Board {
	t.Helper()
	b, err := board.ParseBoard([][]int{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 0},
	})
	require.NoError(t, err)
	return b
}

func TestPartition_Column_SkipsFullColumns(t *testing.T) {
	b := fourByFourWithOneGap(t)
	subs, err := Partition(b, ColumnStrategy, "job1", 1, false)
	require.NoError(t, err)

	require.Len(t, subs, 1, "only column 3 has a gap")
	assert.Equal(t, 3, subs[0].PartitionIndex.Col)
	assert.Equal(t, "job1.1", subs[0].SubJobID)
	assert.Equal(t, []int{4, 2, 3, 0}, subs[0].PartitionValues)
}

func TestPartition_Block_SkipsFullBlocks(t *testing.T) {
	b := fourByFourWithOneGap(t)
	subs, err := Partition(b, BlockStrategy, "job1", 1, false)
	require.NoError(t, err)

	require.Len(t, subs, 1, "only the bottom-right block has a gap")
	assert.Equal(t, 1, subs[0].PartitionIndex.BlockRow)
	assert.Equal(t, 1, subs[0].PartitionIndex.BlockCol)
}

func TestPartition_SeqResetsPerCall(t *testing.T) {
	b, err := board.New(4)
	require.NoError(t, err)
	subs, err := Partition(b, ColumnStrategy, "jobX", 2, false)
	require.NoError(t, err)
	require.Len(t, subs, 4)
	for i, s := range subs {
		assert.Equal(t, 2, s.Iteration)
		assert.Contains(t, s.SubJobID, "jobX.")
		assert.Equal(t, fmt.Sprintf("jobX.%d", i+1), s.SubJobID, "seq starts at 1 on every call")
	}
}

func TestPartition_RoundTrip_ColumnsReassembleOriginal(t *testing.T) {
	b := fourByFourWithOneGap(t)
	subs, err := Partition(b, ColumnStrategy, "job1", 1, false)
	require.NoError(t, err)

	rebuilt := b.Clone()
	for _, s := range subs {
		for i, cell := range s.PartitionCells {
			rebuilt.Set(cell.Row, cell.Col, s.PartitionValues[i])
		}
	}
	assert.True(t, b.Equal(rebuilt))
}

func TestPartition_UnknownStrategy(t *testing.T) {
	b, _ := board.New(4)
	_, err := Partition(b, Strategy("DIAGONAL"), "job1", 1, false)
	require.Error(t, err)
}

func TestPartitionAt_StartSeqContinuesPastKept(t *testing.T) {
	b := fourByFourWithOneGap(t)
	b.Set(0, 0, board.Empty)
	b.Set(1, 1, board.Empty)

	subs, err := PartitionAt(b, ColumnStrategy, "job1", 2, []Index{{Col: 0}, {Col: 1}}, 3)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "job1.3", subs[0].SubJobID)
	assert.Equal(t, "job1.4", subs[1].SubJobID)
}

func TestSeqOf(t *testing.T) {
	seq, ok := SeqOf("job1.3")
	require.True(t, ok)
	assert.Equal(t, 3, seq)

	_, ok = SeqOf("no-dot")
	assert.False(t, ok)

	_, ok = SeqOf("job1.")
	assert.False(t, ok)
}

func TestSubJob_Cells_ColumnAndBlock(t *testing.T) {
	b := fourByFourWithOneGap(t)

	col := SubJob{Strategy: ColumnStrategy, PartitionIndex: Index{Col: 2}}
	cells, err := col.Cells(b)
	require.NoError(t, err)
	require.Len(t, cells, 4)
	assert.Equal(t, board.Cell{Row: 0, Col: 2}, cells[0])

	blk := SubJob{Strategy: BlockStrategy, PartitionIndex: Index{BlockRow: 1, BlockCol: 1}}
	cells, err = blk.Cells(b)
	require.NoError(t, err)
	require.Len(t, cells, 4)
}
