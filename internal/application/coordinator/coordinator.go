// Package coordinator wires the Registry, Dispatcher, Aggregator, and
// SolutionSink into the transport-agnostic operations the HTTP surface
// of spec.md §6 delegates to, mirroring the teacher's
// serviceapi.Operations split: handler code stays a thin translation
// layer, every piece of actual coordination logic lives here where it
// can be unit tested without a server.
package coordinator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/registry"
	"github.com/distsudoku/master/internal/domain/solver"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// Status values for SolveOutput.Status and GetResultOutput.Status, per
// spec.md §6's response table.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusUnsolvable = "unsolvable"
	StatusReceived   = "received"
)

// Coordinator composes the coordination core for one HTTP surface
// (REST today, any other transport tomorrow).
type Coordinator struct {
	registry   *registry.Registry
	dispatcher dispatcher.Dispatcher
	aggregator *aggregator.Aggregator
	sink       aggregator.SolutionSink
	log        *logger.Logger
}

// New wires a Coordinator from already-constructed collaborators.
func New(reg *registry.Registry, disp dispatcher.Dispatcher, agg *aggregator.Aggregator, sink aggregator.SolutionSink, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Default()
	}
	return &Coordinator{registry: reg, dispatcher: disp, aggregator: agg, sink: sink, log: log}
}

// SolveInput is POST /solve's decoded body.
type SolveInput struct {
	Board    [][]int
	Strategy partition.Strategy
}

// SolveOutput is POST /solve's response, per spec.md §6.
type SolveOutput struct {
	JobID        string
	Status       string
	PartialBoard [][]int
	SolvedBoard  [][]int
}

// Solve implements spec.md §6's /solve intake: parse and validate the
// board, run an initial naked-singles pass (the "pre-solve to seed"
// of spec.md §8's empty-board scenario falls out of this for free,
// since every column/block of an all-zero board still contains a
// zero and is partitioned normally), and either return a completed
// job outright or partition, intake, and return jobId/processing.
func (c *Coordinator) Solve(ctx context.Context, in SolveInput) (SolveOutput, error) {
	strategy := in.Strategy
	if strategy == "" {
		strategy = partition.ColumnStrategy
	}

	parsed, err := board.ParseBoard(in.Board)
	if err != nil {
		return SolveOutput{}, NewValidationError("INVALID_BOARD", err.Error())
	}
	if !parsed.IsWellFormed() {
		return SolveOutput{}, NewValidationError("INVALID_BOARD", "board has a duplicate value in some row, column, or block")
	}

	propagated, err := board.Propagate(parsed, board.LevelNakedSingles)
	if err != nil {
		return SolveOutput{}, NewValidationError("INVALID_BOARD", "board is infeasible: "+err.Error())
	}

	jobID := registry.NewJobID()
	job := registry.NewJob(jobID, strategy, propagated, time.Now())
	c.registry.Add(job)

	if propagated.IsSolved() {
		job.Lock()
		job.State = registry.StateSolved
		job.LastProgressAt = time.Now()
		job.Unlock()

		if c.sink != nil {
			if err := c.sink.Save(ctx, jobID, propagated); err != nil {
				c.log.Error("failed to persist solution", "job_id", jobID, "err", err)
			}
		}
		c.log.Info("job solved at intake", "job_id", jobID)
		return SolveOutput{JobID: jobID, Status: StatusCompleted, SolvedBoard: propagated.Raw()}, nil
	}

	subJobs, err := partition.Partition(propagated, strategy, jobID, job.Iteration, false)
	if err != nil {
		return SolveOutput{}, err
	}
	if err := c.aggregator.Intake(ctx, job, subJobs); err != nil {
		return SolveOutput{}, err
	}

	return SolveOutput{JobID: jobID, Status: StatusProcessing, PartialBoard: propagated.Raw()}, nil
}

// PullSubJob implements spec.md §6's GET /queue.
func (c *Coordinator) PullSubJob(ctx context.Context, workerID string) (partition.SubJob, error) {
	if workerID == "" {
		return partition.SubJob{}, ErrMissingWorkerID
	}

	sj, err := c.dispatcher.Pull(ctx, workerID)
	if err != nil {
		if errors.Is(err, dispatcher.ErrQueueEmpty) {
			return partition.SubJob{}, ErrNoSubJobAvailable
		}
		return partition.SubJob{}, err
	}
	return sj, nil
}

// Heartbeat implements spec.md §6's POST /heartbeat.
func (c *Coordinator) Heartbeat(ctx context.Context, workerID string) error {
	if workerID == "" {
		return ErrMissingWorkerID
	}
	return c.dispatcher.Heartbeat(ctx, workerID)
}

// SubmitResultInput is POST /result's decoded body. JobID is not part
// of the wire payload (spec.md §6's table carries only "id"); it is
// recovered from the sub-job id's "{jobId}.{seq}" shape.
type SubmitResultInput struct {
	SubJobID   string
	Values     []int
	SureMask   []bool
	Iteration  int
	Unsolvable bool
}

// SubmitResultOutput is POST /result's response.
type SubmitResultOutput struct {
	SubJobID string
	Status   string
}

// SubmitResult implements spec.md §6's POST /result. Every inbound
// result is re-validated against the clue-echo contract of §4.6
// before it ever reaches the Aggregator — a worker is an untrusted
// collaborator, and ValidateResult is cheap insurance that holds
// regardless of which BlockSolver produced the payload.
func (c *Coordinator) SubmitResult(ctx context.Context, in SubmitResultInput) (SubmitResultOutput, error) {
	if in.SubJobID == "" {
		return SubmitResultOutput{}, NewValidationError("MISSING_ID", "id is required")
	}
	jobID, ok := jobIDFromSubJobID(in.SubJobID)
	if !ok {
		return SubmitResultOutput{}, NewValidationError("INVALID_ID", "malformed sub-job id: "+in.SubJobID)
	}

	if err := c.dispatcher.Submit(ctx, in.SubJobID); err != nil && !errors.Is(err, dispatcher.ErrSubJobNotPending) {
		return SubmitResultOutput{}, err
	}

	result := registry.Result{
		SubJobID:   in.SubJobID,
		JobID:      jobID,
		Iteration:  in.Iteration,
		Unsolvable: in.Unsolvable,
	}

	if !in.Unsolvable {
		job, ok := c.registry.Get(jobID)
		if !ok {
			// Job already concluded and swept; nothing left to combine.
			return SubmitResultOutput{SubJobID: in.SubJobID, Status: StatusReceived}, nil
		}
		job.Lock()
		sj, exists := job.SubJobs[in.SubJobID]
		job.Unlock()
		if !exists {
			// Stale sub-job: requeued away in a later iteration, or a
			// duplicate submission racing a prior one.
			return SubmitResultOutput{SubJobID: in.SubJobID, Status: StatusReceived}, nil
		}

		if err := solver.ValidateResult(
			solver.Request{PartitionValues: sj.PartitionValues},
			solver.Result{Values: in.Values, SureMask: in.SureMask},
		); err != nil {
			return SubmitResultOutput{}, NewValidationError("INVALID_RESULT", err.Error())
		}

		result.PartitionIndex = sj.PartitionIndex
		result.PartitionValues = in.Values
		result.SureMask = in.SureMask
	}

	switch err := c.aggregator.Submit(ctx, result); {
	case err == nil, errors.Is(err, aggregator.ErrJobNotFound), errors.Is(err, aggregator.ErrSubJobNotFound):
		return SubmitResultOutput{SubJobID: in.SubJobID, Status: StatusReceived}, nil
	default:
		return SubmitResultOutput{}, err
	}
}

// GetGridOutput is GET /grid/:jobId's response.
type GetGridOutput struct {
	JobID        string
	PartialBoard [][]int
}

// GetGrid implements spec.md §6's GET /grid/:jobId.
func (c *Coordinator) GetGrid(ctx context.Context, jobID string) (GetGridOutput, error) {
	job, ok := c.registry.Get(jobID)
	if !ok {
		return GetGridOutput{}, ErrJobNotFound
	}

	job.Lock()
	raw := job.CurrentBlueprint.Raw()
	job.Unlock()

	return GetGridOutput{JobID: jobID, PartialBoard: raw}, nil
}

// GetResultOutput is GET /result/:jobId's response, per spec.md §6.
type GetResultOutput struct {
	JobID       string
	Status      string
	SolvedBoard [][]int
	Progress    int
}

// GetResult implements spec.md §6's GET /result/:jobId and
// /FinalsolvedResults?jobId=….
func (c *Coordinator) GetResult(ctx context.Context, jobID string) (GetResultOutput, error) {
	job, ok := c.registry.Get(jobID)
	if !ok {
		return GetResultOutput{}, ErrJobNotFound
	}

	job.Lock()
	defer job.Unlock()

	switch job.State {
	case registry.StateSolved:
		return GetResultOutput{JobID: jobID, Status: StatusCompleted, SolvedBoard: job.CurrentBlueprint.Raw()}, nil
	case registry.StateAbandoned, registry.StateUnsolvable:
		return GetResultOutput{JobID: jobID, Status: StatusUnsolvable}, nil
	default:
		return GetResultOutput{JobID: jobID, Status: StatusProcessing, Progress: progressPercent(job.CurrentBlueprint)}, nil
	}
}

// TotalJobs implements spec.md §6's GET /totalJobs.
func (c *Coordinator) TotalJobs(ctx context.Context) int {
	return c.registry.Count()
}

func progressPercent(b *board.Board) int {
	total := b.N * b.N
	if total == 0 {
		return 0
	}
	filled := 0
	for r := 0; r < b.N; r++ {
		for c := 0; c < b.N; c++ {
			if b.Get(r, c) != board.Empty {
				filled++
			}
		}
	}
	return filled * 100 / total
}

// jobIDFromSubJobID splits a "{jobId}.{seq}" sub-job id. Job ids are
// UUIDv4 strings (hyphens, no dots), so the last dot always separates
// the sequence suffix.
func jobIDFromSubJobID(subJobID string) (string, bool) {
	i := strings.LastIndex(subJobID, ".")
	if i <= 0 || i == len(subJobID)-1 {
		return "", false
	}
	return subJobID[:i], true
}
