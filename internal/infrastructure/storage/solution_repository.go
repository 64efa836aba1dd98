package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/distsudoku/master/internal/domain/repository"
	"github.com/distsudoku/master/internal/infrastructure/storage/models"
)

// solutionRepository implements repository.SolutionRepository.
type solutionRepository struct {
	db bun.IDB
}

// NewSolutionRepository creates a new SolutionRepository.
func NewSolutionRepository(db bun.IDB) repository.SolutionRepository {
	return &solutionRepository{db: db}
}

// Save upserts a solution keyed by job id — a job is only ever solved
// once, but a worker racing the sweep can occasionally cause Save to
// be called twice for the same job.
func (r *solutionRepository) Save(ctx context.Context, sol *models.SolutionModel) error {
	_, err := r.db.NewInsert().
		Model(sol).
		On("CONFLICT (job_id) DO UPDATE").
		Exec(ctx)
	return err
}

// FindByJobID retrieves a solution by job id.
func (r *solutionRepository) FindByJobID(ctx context.Context, jobID string) (*models.SolutionModel, error) {
	sol := new(models.SolutionModel)
	err := r.db.NewSelect().
		Model(sol).
		Where("job_id = ?", jobID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sol, nil
}

// Count returns the total number of persisted solutions.
func (r *solutionRepository) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*models.SolutionModel)(nil)).Count(ctx)
}
