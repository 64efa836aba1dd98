package board

import "errors"

// Sentinel errors for the Malformed-input / Ill-formed-clues /
// Infeasible-propagation taxonomy of spec.md §7.
var (
	ErrMalformedBoard       = errors.New("malformed board")
	ErrNoBlockFactorization = errors.New("board side has no block factorization")
	ErrIllFormedClues       = errors.New("clue set violates row/column/block uniqueness")
	ErrInfeasible           = errors.New("board is infeasible under propagation")
)
