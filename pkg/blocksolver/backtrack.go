package blocksolver

import "github.com/distsudoku/master/internal/domain/board"

// backtrack performs a depth-first search with most-constrained-cell
// ordering, bounded by a step budget. Returns the solved board and
// true on success, or (nil, false) if the budget is exhausted or the
// board has no solution reachable from b.
func backtrack(b *board.Board, budget int) (*board.Board, bool) {
	steps := 0
	solved, ok := search(b, &steps, budget)
	return solved, ok
}

func search(b *board.Board, steps *int, budget int) (*board.Board, bool) {
	*steps++
	if *steps > budget {
		return nil, false
	}

	row, col, found := mostConstrainedEmptyCell(b)
	if !found {
		return b, true // no empty cells left
	}

	candidates := b.Candidates(row, col)
	if len(candidates) == 0 {
		return nil, false
	}

	for _, v := range candidates {
		attempt := b.Clone()
		attempt.Set(row, col, v)
		if solved, ok := search(attempt, steps, budget); ok {
			return solved, true
		}
		if *steps > budget {
			return nil, false
		}
	}

	return nil, false
}

// mostConstrainedEmptyCell returns the empty cell with the fewest
// remaining candidates (classic MRV heuristic), which keeps the
// branching factor of the search low.
func mostConstrainedEmptyCell(b *board.Board) (row, col int, found bool) {
	best := -1
	for r := 0; r < b.N; r++ {
		for c := 0; c < b.N; c++ {
			if b.Get(r, c) != board.Empty {
				continue
			}
			n := len(b.Candidates(r, c))
			if best == -1 || n < best {
				best = n
				row, col, found = r, c, true
				if n <= 1 {
					return
				}
			}
		}
	}
	return
}
