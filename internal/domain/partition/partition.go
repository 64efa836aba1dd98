// Package partition splits a board into sub-jobs by the active
// strategy, per spec.md §4.2.
package partition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/distsudoku/master/internal/domain/board"
)

// Strategy selects how a board is split into partitions.
type Strategy string

const (
	ColumnStrategy Strategy = "COLUMN"
	BlockStrategy  Strategy = "BLOCK"
)

// Index identifies a partition within a board: for COLUMN, only
// Col is meaningful; for BLOCK, BlockRow/BlockCol are. A SubJob always
// carries its own Strategy alongside this, since Index{} alone cannot
// tell a COLUMN partition at column 0 apart from a BLOCK partition at
// block (0,0) — both omitempty fields zero out identically on the wire.
type Index struct {
	Col      int `json:"col,omitempty"`
	BlockRow int `json:"blockRow,omitempty"`
	BlockCol int `json:"blockCol,omitempty"`
}

// SubJob is the unit of work handed to exactly one worker pull, per
// spec.md §3. PartitionCells is reconstructible by any worker from
// Strategy + PartitionIndex + ContextBlueprint, so it is not put on the
// wire a second time.
type SubJob struct {
	SubJobID         string   `json:"id"`
	JobID            string   `json:"jobId"`
	Strategy         Strategy `json:"strategy"`
	PartitionIndex   Index    `json:"partitionIndex"`
	PartitionValues  []int    `json:"board"`
	PartitionCells   []board.Cell `json:"-"`
	Iteration        int      `json:"iteration"`
	IsRequeue        bool     `json:"isRequeue"`
	ContextBlueprint [][]int  `json:"contextBoard"`
}

// Cells resolves the board.Cell coordinates this sub-job's
// PartitionValues correspond to, against ctx (normally the board parsed
// from ContextBlueprint). Workers call this after receiving a SubJob
// over the wire, since PartitionCells itself is never serialized.
func (sj SubJob) Cells(ctx *board.Board) ([]board.Cell, error) {
	switch sj.Strategy {
	case ColumnStrategy:
		cells := make([]board.Cell, ctx.N)
		for r := 0; r < ctx.N; r++ {
			cells[r] = board.Cell{Row: r, Col: sj.PartitionIndex.Col}
		}
		return cells, nil
	case BlockStrategy:
		_, cells := ctx.Block(sj.PartitionIndex.BlockRow, sj.PartitionIndex.BlockCol)
		return cells, nil
	default:
		return nil, fmt.Errorf("unknown partition strategy %q", sj.Strategy)
	}
}

// SeqOf parses the trailing ".{seq}" sequence number off a
// "{jobID}.{seq}" sub-job id, as minted by the seq counters below.
func SeqOf(subJobID string) (int, bool) {
	i := strings.LastIndex(subJobID, ".")
	if i <= 0 || i == len(subJobID)-1 {
		return 0, false
	}
	seq, err := strconv.Atoi(subJobID[i+1:])
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Partition splits b into sub-jobs per strategy, skipping partitions
// that are already fully filled (spec.md §4.2). SubJobIDs are
// "{jobID}.{seq}" starting at seq 1; contextBoard is a snapshot of b at
// creation time so every worker sees a consistent view.
func Partition(b *board.Board, strategy Strategy, jobID string, iteration int, isRequeue bool) ([]SubJob, error) {
	switch strategy {
	case ColumnStrategy:
		return partitionColumns(b, jobID, iteration, isRequeue), nil
	case BlockStrategy:
		return partitionBlocks(b, jobID, iteration, isRequeue), nil
	default:
		return nil, fmt.Errorf("unknown partition strategy %q", strategy)
	}
}

func partitionColumns(b *board.Board, jobID string, iteration int, isRequeue bool) []SubJob {
	snapshot := b.Raw()
	seq := 1
	var subs []SubJob
	for c := 0; c < b.N; c++ {
		col := b.Col(c)
		if !containsZero(col) {
			continue
		}
		cells := make([]board.Cell, b.N)
		for r := 0; r < b.N; r++ {
			cells[r] = board.Cell{Row: r, Col: c}
		}
		subs = append(subs, SubJob{
			SubJobID:         fmt.Sprintf("%s.%d", jobID, seq),
			JobID:            jobID,
			Strategy:         ColumnStrategy,
			PartitionIndex:   Index{Col: c},
			PartitionValues:  col,
			PartitionCells:   cells,
			Iteration:        iteration,
			IsRequeue:        isRequeue,
			ContextBlueprint: snapshot,
		})
		seq++
	}
	return subs
}

func partitionBlocks(b *board.Board, jobID string, iteration int, isRequeue bool) []SubJob {
	snapshot := b.Raw()
	seq := 1
	var subs []SubJob
	for br := 0; br < b.NumBlockRows(); br++ {
		for bc := 0; bc < b.NumBlockCols(); bc++ {
			values, cells := b.Block(br, bc)
			if !containsZero(values) {
				continue
			}
			subs = append(subs, SubJob{
				SubJobID:         fmt.Sprintf("%s.%d", jobID, seq),
				JobID:            jobID,
				Strategy:         BlockStrategy,
				PartitionIndex:   Index{BlockRow: br, BlockCol: bc},
				PartitionValues:  values,
				PartitionCells:   cells,
				Iteration:        iteration,
				IsRequeue:        isRequeue,
				ContextBlueprint: snapshot,
			})
			seq++
		}
	}
	return subs
}

// PartitionAt rebuilds SubJobs for exactly the given indices — the
// primitive a selective requeue (spec.md §4.5 step 4) is built from, as
// opposed to Partition's "every partition that still has a zero" sweep.
// Indices whose partition is already fully filled (e.g. after a
// requeue's zero-out-and-propagate step resolved it outright) are
// skipped, consistent with Partition's own "skip fully-filled
// partitions" rule. startSeq sets the first sequence number minted;
// callers that keep surviving sub-jobs from a prior iteration under
// their original "{jobID}.{seq}" ids must pass a startSeq past the
// highest surviving seq, or the new ids collide with and overwrite the
// kept ones.
func PartitionAt(b *board.Board, strategy Strategy, jobID string, iteration int, indices []Index, startSeq int) ([]SubJob, error) {
	switch strategy {
	case ColumnStrategy:
		sorted := append([]Index(nil), indices...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Col < sorted[j].Col })
		return partitionColumnsAt(b, jobID, iteration, sorted, startSeq), nil
	case BlockStrategy:
		sorted := append([]Index(nil), indices...)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].BlockRow != sorted[j].BlockRow {
				return sorted[i].BlockRow < sorted[j].BlockRow
			}
			return sorted[i].BlockCol < sorted[j].BlockCol
		})
		return partitionBlocksAt(b, jobID, iteration, sorted, startSeq), nil
	default:
		return nil, fmt.Errorf("unknown partition strategy %q", strategy)
	}
}

func partitionColumnsAt(b *board.Board, jobID string, iteration int, indices []Index, startSeq int) []SubJob {
	snapshot := b.Raw()
	seq := startSeq
	var subs []SubJob
	for _, idx := range indices {
		c := idx.Col
		col := b.Col(c)
		if !containsZero(col) {
			continue
		}
		cells := make([]board.Cell, b.N)
		for r := 0; r < b.N; r++ {
			cells[r] = board.Cell{Row: r, Col: c}
		}
		subs = append(subs, SubJob{
			SubJobID:         fmt.Sprintf("%s.%d", jobID, seq),
			JobID:            jobID,
			Strategy:         ColumnStrategy,
			PartitionIndex:   Index{Col: c},
			PartitionValues:  col,
			PartitionCells:   cells,
			Iteration:        iteration,
			IsRequeue:        true,
			ContextBlueprint: snapshot,
		})
		seq++
	}
	return subs
}

func partitionBlocksAt(b *board.Board, jobID string, iteration int, indices []Index, startSeq int) []SubJob {
	snapshot := b.Raw()
	seq := startSeq
	var subs []SubJob
	for _, idx := range indices {
		values, cells := b.Block(idx.BlockRow, idx.BlockCol)
		if !containsZero(values) {
			continue
		}
		subs = append(subs, SubJob{
			SubJobID:         fmt.Sprintf("%s.%d", jobID, seq),
			JobID:            jobID,
			Strategy:         BlockStrategy,
			PartitionIndex:   Index{BlockRow: idx.BlockRow, BlockCol: idx.BlockCol},
			PartitionValues:  values,
			PartitionCells:   cells,
			Iteration:        iteration,
			IsRequeue:        true,
			ContextBlueprint: snapshot,
		})
		seq++
	}
	return subs
}

func containsZero(values []int) bool {
	for _, v := range values {
		if v == board.Empty {
			return true
		}
	}
	return false
}
