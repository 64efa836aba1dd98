// Package blocksolver provides a reference implementation of the
// solver.BlockSolver capability (spec.md §4.6), used by cmd/worker.
// It is a pluggable implementation detail, not part of the
// coordination core: any process speaking the /queue and /result wire
// protocol is an equally valid worker.
package blocksolver

import (
	"context"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/solver"
)

// NakedSingleSolver resolves a partition by running the deterministic
// naked-singles propagator over the full context board, then falling
// back to a step-bounded backtracking search for whatever the
// propagator could not force. Only cells resolved by the
// deterministic pass are ever marked sure, per the BlockSolver
// contract (spec.md §4.6): backtracking guesses are always
// sureMask=false, even when they happen to be correct.
type NakedSingleSolver struct {
	// MaxBacktrackSteps bounds the search fallback so a single
	// worker can never hang on a pathological partition. Zero means
	// DefaultMaxBacktrackSteps.
	MaxBacktrackSteps int
}

// DefaultMaxBacktrackSteps is a generous bound for N<=25 boards.
const DefaultMaxBacktrackSteps = 200_000

// Solve implements solver.BlockSolver.
func (s NakedSingleSolver) Solve(_ context.Context, req solver.Request) (solver.Result, error) {
	propagated, err := board.Propagate(req.ContextBoard, board.LevelNakedSingles)
	if err != nil {
		return solver.Result{}, solver.ErrInfeasible
	}

	n := len(req.PartitionValues)
	values := make([]int, n)
	sureMask := make([]bool, n)
	var unresolved []int

	for i, cell := range req.PartitionCells {
		v := propagated.Get(cell.Row, cell.Col)
		if v != board.Empty {
			values[i] = v
			sureMask[i] = true
			continue
		}
		unresolved = append(unresolved, i)
	}

	if len(unresolved) == 0 {
		return solver.Result{Values: values, SureMask: sureMask}, nil
	}

	budget := s.MaxBacktrackSteps
	if budget <= 0 {
		budget = DefaultMaxBacktrackSteps
	}
	solved, ok := backtrack(propagated.Clone(), budget)
	if !ok {
		// The search couldn't complete within budget, or the board
		// has no solution from here: fall back to naming each
		// unresolved cell's first legal candidate as an unsure
		// guess. The Aggregator's conflict detection and requeue
		// machinery is exactly what makes a wrong guess safe.
		for _, i := range unresolved {
			cell := req.PartitionCells[i]
			cands := propagated.Candidates(cell.Row, cell.Col)
			if len(cands) == 0 {
				return solver.Result{}, solver.ErrInfeasible
			}
			values[i] = cands[0]
			sureMask[i] = false
		}
		return solver.Result{Values: values, SureMask: sureMask}, nil
	}

	for _, i := range unresolved {
		cell := req.PartitionCells[i]
		values[i] = solved.Get(cell.Row, cell.Col)
		sureMask[i] = false
	}

	return solver.Result{Values: values, SureMask: sureMask}, nil
}
