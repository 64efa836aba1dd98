package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/dispatcher/memory"
	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/registry"
)

type fakeSink struct {
	mu    sync.Mutex
	saved map[string]*board.Board
}

func newFakeSink() *fakeSink { return &fakeSink{saved: make(map[string]*board.Board)} }

func (s *fakeSink) Save(_ context.Context, jobID string, b *board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[jobID] = b
	return nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *memory.Dispatcher, *fakeSink) {
	t.Helper()
	reg := registry.NewRegistry()
	disp := memory.New()
	sink := newFakeSink()
	agg := aggregator.New(reg, disp, sink, aggregator.DefaultConfig(), nil)
	return New(reg, disp, agg, sink, nil), disp, sink
}

func TestCoordinator_SolveTriviallySolvableBoard(t *testing.T) {
	ctx := context.Background()
	c, _, sink := newTestCoordinator(t)

	// The last column has a single blank; naked-singles propagation at
	// intake resolves it without ever partitioning or enqueuing.
	raw := [][]int{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 0},
	}

	out, err := c.Solve(ctx, SolveInput{Board: raw, Strategy: partition.ColumnStrategy})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	require.NotEmpty(t, out.JobID)
	require.NotNil(t, out.SolvedBoard)
	assert.Equal(t, 1, out.SolvedBoard[3][3])

	_, saved := sink.saved[out.JobID]
	assert.True(t, saved, "solved job must be handed to the sink")
}

func TestCoordinator_SolveRejectsMalformedBoard(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	raw := [][]int{
		{1, 2, 3},
		{4, 5},
	}

	_, err := c.Solve(ctx, SolveInput{Board: raw})
	require.Error(t, err)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "INVALID_BOARD", opErr.Code)
}

func TestCoordinator_SolveRejectsIllFormedBoard(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	raw := [][]int{
		{1, 1, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}

	_, err := c.Solve(ctx, SolveInput{Board: raw})
	require.Error(t, err)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "INVALID_BOARD", opErr.Code)
}

func TestCoordinator_SolvePartitionsAndEnqueuesAmbiguousBoard(t *testing.T) {
	ctx := context.Background()
	c, disp, _ := newTestCoordinator(t)

	// Every blank here is genuinely ambiguous under naked-singles alone
	// (each blank's row, column, and block all have >= 2 blanks), so
	// Solve must partition and enqueue rather than solve at intake.
	raw := [][]int{
		{1, 2, 0, 0},
		{3, 4, 1, 2},
		{2, 1, 0, 0},
		{4, 3, 2, 1},
	}

	out, err := c.Solve(ctx, SolveInput{Board: raw, Strategy: partition.BlockStrategy})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, out.Status)
	require.NotEmpty(t, out.JobID)

	n, err := disp.QueueLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "both blocks with blanks should be queued")

	assert.Equal(t, 1, c.TotalJobs(ctx))
}

func TestCoordinator_PullSubJobRequiresWorkerID(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	_, err := c.PullSubJob(ctx, "")
	assert.ErrorIs(t, err, ErrMissingWorkerID)
}

func TestCoordinator_PullSubJobEmptyQueue(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	_, err := c.PullSubJob(ctx, "worker-1")
	assert.ErrorIs(t, err, ErrNoSubJobAvailable)
}

func TestCoordinator_HeartbeatRequiresWorkerID(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.Heartbeat(ctx, ""), ErrMissingWorkerID)
	assert.NoError(t, c.Heartbeat(ctx, "worker-1"))
}

func TestCoordinator_RoundTripPullSubmitCompletesJob(t *testing.T) {
	ctx := context.Background()
	c, _, sink := newTestCoordinator(t)

	raw := [][]int{
		{1, 2, 0, 0},
		{3, 4, 1, 2},
		{2, 1, 0, 0},
		{4, 3, 2, 1},
	}
	out, err := c.Solve(ctx, SolveInput{Board: raw, Strategy: partition.BlockStrategy})
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, out.Status)

	// block(0,1): cells (0,2),(0,3),(1,2),(1,3) -> values [0,0,1,2].
	sj1, err := c.PullSubJob(ctx, "worker-1")
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 1, 2}, sj1.PartitionValues)

	// block(1,1): cells (2,2),(2,3),(3,2),(3,3) -> values [0,0,2,1].
	sj2, err := c.PullSubJob(ctx, "worker-2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 2, 1}, sj2.PartitionValues)

	resOut, err := c.SubmitResult(ctx, SubmitResultInput{
		SubJobID:  sj1.SubJobID,
		Values:    []int{4, 3, 1, 2},
		SureMask:  []bool{true, true, true, true},
		Iteration: sj1.Iteration,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, resOut.Status)

	result, err := c.GetResult(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status, "resolving one coupled block forces the other via column uniqueness")
	require.NotNil(t, result.SolvedBoard)

	_, saved := sink.saved[out.JobID]
	assert.True(t, saved)

	// The second, now-stale sub-job is tolerated as a no-op.
	resOut2, err := c.SubmitResult(ctx, SubmitResultInput{
		SubJobID:  sj2.SubJobID,
		Values:    []int{3, 4, 2, 1},
		SureMask:  []bool{true, true, true, true},
		Iteration: sj2.Iteration,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, resOut2.Status)
}

func TestCoordinator_SubmitResultRejectsClueOverwrite(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	raw := [][]int{
		{1, 2, 0, 0},
		{3, 4, 1, 2},
		{2, 1, 0, 0},
		{4, 3, 2, 1},
	}
	_, err := c.Solve(ctx, SolveInput{Board: raw, Strategy: partition.BlockStrategy})
	require.NoError(t, err)

	sj, err := c.PullSubJob(ctx, "worker-1")
	require.NoError(t, err)

	_, err = c.SubmitResult(ctx, SubmitResultInput{
		SubJobID:  sj.SubJobID,
		Values:    []int{4, 3, 2 /* clue cell overwritten */, 2},
		SureMask:  []bool{true, true, true, true},
		Iteration: sj.Iteration,
	})
	require.Error(t, err)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "INVALID_RESULT", opErr.Code)
}

func TestCoordinator_SubmitResultRejectsMissingID(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	_, err := c.SubmitResult(ctx, SubmitResultInput{})
	require.Error(t, err)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "MISSING_ID", opErr.Code)
}

func TestCoordinator_GetGridAndResultUnknownJob(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	_, err := c.GetGrid(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = c.GetResult(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCoordinator_GetResultReportsProgressWhileActive(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	raw := [][]int{
		{1, 2, 0, 0},
		{3, 4, 1, 2},
		{2, 1, 0, 0},
		{4, 3, 2, 1},
	}
	out, err := c.Solve(ctx, SolveInput{Board: raw, Strategy: partition.BlockStrategy})
	require.NoError(t, err)

	result, err := c.GetResult(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, result.Status)
	assert.Equal(t, 75, result.Progress, "12 of 16 cells filled")
}

func TestCoordinator_TotalJobs(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCoordinator(t)

	assert.Equal(t, 0, c.TotalJobs(ctx))

	raw := [][]int{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 0},
	}
	_, err := c.Solve(ctx, SolveInput{Board: raw})
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalJobs(ctx))
}
