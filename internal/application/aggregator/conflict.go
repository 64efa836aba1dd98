package aggregator

import (
	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
)

// conflictingPartitions scans every row and column of b for duplicated
// non-zero values and maps each duplicate to the partitions that own
// it, per spec.md §4.5: for COLUMN strategy the offending columns, for
// BLOCK strategy the offending blocks.
func conflictingPartitions(b *board.Board, strategy partition.Strategy) map[partition.Index]bool {
	conflicts := make(map[partition.Index]bool)

	for r := 0; r < b.N; r++ {
		line := make([]board.Cell, b.N)
		for c := 0; c < b.N; c++ {
			line[c] = board.Cell{Row: r, Col: c}
		}
		scanLine(b, line, strategy, conflicts)
	}
	for c := 0; c < b.N; c++ {
		line := make([]board.Cell, b.N)
		for r := 0; r < b.N; r++ {
			line[r] = board.Cell{Row: r, Col: c}
		}
		scanLine(b, line, strategy, conflicts)
	}

	return conflicts
}

func scanLine(b *board.Board, line []board.Cell, strategy partition.Strategy, conflicts map[partition.Index]bool) {
	byValue := make(map[int][]board.Cell, b.N)
	for _, cell := range line {
		v := b.Get(cell.Row, cell.Col)
		if v == board.Empty {
			continue
		}
		byValue[v] = append(byValue[v], cell)
	}
	for _, cells := range byValue {
		if len(cells) < 2 {
			continue
		}
		for _, cell := range cells {
			conflicts[partitionIndexOf(b, cell, strategy)] = true
		}
	}
}

func partitionIndexOf(b *board.Board, cell board.Cell, strategy partition.Strategy) partition.Index {
	if strategy == partition.BlockStrategy {
		br, bc := b.BlockIndexOf(cell.Row, cell.Col)
		return partition.Index{BlockRow: br, BlockCol: bc}
	}
	return partition.Index{Col: cell.Col}
}

// cellsOfPartition returns every cell belonging to idx under strategy,
// used to zero out a conflicting partition's non-clue cells (spec.md
// §4.5 step 3 of selective requeue).
func cellsOfPartition(b *board.Board, idx partition.Index, strategy partition.Strategy) []board.Cell {
	if strategy == partition.BlockStrategy {
		_, cells := b.Block(idx.BlockRow, idx.BlockCol)
		return cells
	}
	cells := make([]board.Cell, b.N)
	for r := 0; r < b.N; r++ {
		cells[r] = board.Cell{Row: r, Col: idx.Col}
	}
	return cells
}
