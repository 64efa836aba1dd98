package storage

import (
	"context"
	"sync"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/repository"
	"github.com/distsudoku/master/internal/infrastructure/storage/models"
)

// RepositorySink adapts a repository.SolutionRepository to the
// aggregator.SolutionSink shape the Aggregator depends on, converting
// the in-memory board into its persisted row.
type RepositorySink struct {
	repo     repository.SolutionRepository
	strategy partition.Strategy
}

// NewRepositorySink wraps repo as a SolutionSink. strategy is recorded
// alongside each solution purely for operator visibility — it plays
// no part in solving.
func NewRepositorySink(repo repository.SolutionRepository, strategy partition.Strategy) *RepositorySink {
	return &RepositorySink{repo: repo, strategy: strategy}
}

// Save persists b as jobID's solution.
func (s *RepositorySink) Save(ctx context.Context, jobID string, b *board.Board) error {
	sol := &models.SolutionModel{
		JobID:    jobID,
		Size:     b.N,
		Strategy: string(s.strategy),
		Board:    models.IntGrid(b.Raw()),
	}
	return s.repo.Save(ctx, sol)
}

// MemorySink is the dependency-free SolutionSink default: useful for
// tests and for running the master without a configured database.
type MemorySink struct {
	mu    sync.Mutex
	boards map[string]*board.Board
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{boards: make(map[string]*board.Board)}
}

// Save stores b in memory, keyed by jobID.
func (s *MemorySink) Save(_ context.Context, jobID string, b *board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[jobID] = b
	return nil
}

// Get retrieves a previously saved board, if any.
func (s *MemorySink) Get(jobID string) (*board.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[jobID]
	return b, ok
}
