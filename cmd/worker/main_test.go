package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/application/dispatcher/memory"
	"github.com/distsudoku/master/internal/domain/registry"
	"github.com/distsudoku/master/internal/infrastructure/api/rest"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/internal/infrastructure/storage"
	"github.com/distsudoku/master/pkg/blocksolver"
	"github.com/distsudoku/master/pkg/workerclient"
)

// TestSolveAndSubmit_ReconstructsPartitionCellsAfterJSONRoundTrip drives
// a sub-job through the real HTTP transport — where PartitionCells is
// never on the wire — and into the real NakedSingleSolver, proving the
// worker rebuilds PartitionCells from Strategy + PartitionIndex rather
// than solving against a nil slice.
func TestSolveAndSubmit_ReconstructsPartitionCellsAfterJSONRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := registry.NewRegistry()
	disp := memory.New()
	sink := storage.NewMemorySink()
	log := logger.New(logger.Config{Level: "error", Format: "text"})
	agg := aggregator.New(reg, disp, sink, aggregator.DefaultConfig(), log)
	coord := coordinator.New(reg, disp, agg, sink, log)

	router := rest.NewRouter(coord, log, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	out, err := coord.Solve(ctx, coordinator.SolveInput{
		Board: [][]int{
			{1, 2, 0, 0},
			{3, 4, 1, 2},
			{2, 1, 0, 0},
			{4, 3, 2, 1},
		},
		Strategy: "BLOCK",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.JobID)

	client := workerclient.New(srv.URL)
	sj, err := client.PullSubJob(ctx, "worker-1")
	require.NoError(t, err)
	require.Nil(t, sj.PartitionCells, "PartitionCells is never sent over the wire")

	bs := blocksolver.NakedSingleSolver{}
	require.NoError(t, solveAndSubmit(ctx, client, bs, sj))

	// The board has two completions, so each partition's open cells
	// come back as unsure backtracking guesses; the job completes only
	// once both partitions are in and their guesses combine.
	sj2, err := client.PullSubJob(ctx, "worker-1")
	require.NoError(t, err)
	require.Nil(t, sj2.PartitionCells, "PartitionCells is never sent over the wire")
	require.NoError(t, solveAndSubmit(ctx, client, bs, sj2))

	res, err := coord.GetResult(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, coordinator.StatusCompleted, res.Status, "correctly-reconstructed partitions must combine into a solved board")
	assert.NotNil(t, res.SolvedBoard)
}
