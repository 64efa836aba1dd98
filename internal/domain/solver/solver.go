// Package solver defines the BlockSolver capability the coordination
// core consumes without ever inspecting how a result was derived
// (spec.md §4.6). Concrete solvers (naked-singles propagation,
// backtracking, simulated annealing, ...) are external collaborators;
// pkg/blocksolver ships one reference implementation.
package solver

import (
	"context"
	"errors"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
)

// ErrInfeasible is returned when a solver (or the propagator it
// wraps) detects a contradiction in the partition's context.
var ErrInfeasible = errors.New("partition is infeasible")

// Request carries everything a BlockSolver needs: the partition
// itself plus the full board as context, per spec.md §4.6.
type Request struct {
	PartitionValues []int
	PartitionCells  []board.Cell
	ContextBoard    *board.Board
	PartitionIndex  partition.Index
	N               int
}

// Result is the solver's answer: values parallel to
// Request.PartitionValues, and sureMask marking which of them the
// solver is certain are forced (not guessed) by the combined
// row/column/block constraints of the context board.
type Result struct {
	Values    []int
	SureMask  []bool
}

// BlockSolver is the pluggable capability the spec's core consumes.
// Implementations MUST uphold the contract of spec.md §4.6:
//   - values[i] = partitionValues[i] and sureMask[i] = true for every
//     already-filled cell (clues are always echoed back as sure).
//   - sureMask[i] = true only when values[i] is forced, never guessed.
type BlockSolver interface {
	Solve(ctx context.Context, req Request) (Result, error)
}

// ValidateResult checks a Result against the contract in Request,
// independent of which BlockSolver produced it. The coordination core
// calls this on every inbound /result submission before the
// Aggregator is allowed to overlay it onto a blueprint.
func ValidateResult(req Request, res Result) error {
	n := len(req.PartitionValues)
	if len(res.Values) != n || len(res.SureMask) != n {
		return errors.New("solver result length mismatch")
	}
	for i, given := range req.PartitionValues {
		if given == board.Empty {
			continue
		}
		if res.Values[i] != given {
			return errors.New("solver result overwrote a clue cell")
		}
		if !res.SureMask[i] {
			return errors.New("solver result marked a clue cell as unsure")
		}
	}
	return nil
}
