// Package repository declares the persistence-facing interfaces the
// application layer depends on, kept separate from their bun-backed
// implementations in internal/infrastructure/storage — the same split
// the teacher draws between domain/repository and
// infrastructure/storage.
package repository

import (
	"context"

	"github.com/distsudoku/master/internal/infrastructure/storage/models"
)

// SolutionRepository persists the final board of solved jobs.
type SolutionRepository interface {
	// Save upserts a solution by job id.
	Save(ctx context.Context, sol *models.SolutionModel) error

	// FindByJobID retrieves a persisted solution, returning (nil, nil)
	// when no row exists for jobID.
	FindByJobID(ctx context.Context, jobID string) (*models.SolutionModel, error)

	// Count returns the total number of persisted solutions.
	Count(ctx context.Context) (int, error)
}
