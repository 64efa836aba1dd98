package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/distsudoku/master/internal/config"
	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/solver"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/pkg/blocksolver"
	"github.com/distsudoku/master/pkg/workerclient"
)

// pollInterval is how long a worker backs off after finding the queue
// empty, before trying /queue again.
const pollInterval = 500 * time.Millisecond

func main() {
	var (
		masterURL    = flag.String("master", "", "Master base URL (overrides MASTER_URL)")
		workerID     = flag.String("worker-id", "", "Worker id (defaults to a random uuid)")
		maxBacktrack = flag.Int("max-backtrack-steps", 0, "Backtracking step budget (0 = solver default)")
	)
	flag.Parse()

	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})
	logger.SetDefault(log)

	base := *masterURL
	if base == "" {
		base = config.MasterURL()
	}

	id := *workerID
	if id == "" {
		id = "worker-" + uuid.New().String()
	}

	client := workerclient.New(base)
	blockSolver := blocksolver.NakedSingleSolver{MaxBacktrackSteps: *maxBacktrack}

	log.Info("worker starting", "worker_id", id, "master_url", base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	heartbeatInterval := heartbeatIntervalFromEnv()
	go runHeartbeat(ctx, client, id, heartbeatInterval, log)

	runPullLoop(ctx, client, blockSolver, id, log)

	log.Info("worker stopped", "worker_id", id)
}

func runPullLoop(ctx context.Context, client *workerclient.Client, bs blocksolver.NakedSingleSolver, workerID string, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sj, err := client.PullSubJob(ctx, workerID)
		if err != nil {
			if errors.Is(err, workerclient.ErrNoSubJobAvailable) {
				sleep(ctx, pollInterval)
				continue
			}
			log.Error("pull sub-job failed", "worker_id", workerID, "err", err)
			sleep(ctx, pollInterval)
			continue
		}

		if err := solveAndSubmit(ctx, client, bs, sj); err != nil {
			log.Error("solve/submit failed", "worker_id", workerID, "sub_job_id", sj.SubJobID, "err", err)
		} else {
			log.Info("sub-job completed", "worker_id", workerID, "sub_job_id", sj.SubJobID)
		}
	}
}

func solveAndSubmit(ctx context.Context, client *workerclient.Client, bs blocksolver.NakedSingleSolver, sj *partition.SubJob) error {
	ctxBoard, err := board.ParseBoard(sj.ContextBlueprint)
	if err != nil {
		return client.SubmitResult(ctx, workerclient.SubmitResultRequest{
			SubJobID:   sj.SubJobID,
			Iteration:  sj.Iteration,
			Unsolvable: true,
		})
	}

	// PartitionCells is never transmitted over the wire (it is
	// reconstructible from Strategy + PartitionIndex), so every worker
	// rebuilds it against its own freshly-decoded context board.
	cells, err := sj.Cells(ctxBoard)
	if err != nil {
		return client.SubmitResult(ctx, workerclient.SubmitResultRequest{
			SubJobID:   sj.SubJobID,
			Iteration:  sj.Iteration,
			Unsolvable: true,
		})
	}

	req := solver.Request{
		PartitionValues: sj.PartitionValues,
		PartitionCells:  cells,
		ContextBoard:    ctxBoard,
		PartitionIndex:  sj.PartitionIndex,
		N:               ctxBoard.N,
	}

	res, err := bs.Solve(ctx, req)
	if err != nil {
		return client.SubmitResult(ctx, workerclient.SubmitResultRequest{
			SubJobID:   sj.SubJobID,
			Iteration:  sj.Iteration,
			Unsolvable: true,
		})
	}

	return client.SubmitResult(ctx, workerclient.SubmitResultRequest{
		SubJobID:  sj.SubJobID,
		Values:    res.Values,
		SureMask:  res.SureMask,
		Iteration: sj.Iteration,
	})
}

func runHeartbeat(ctx context.Context, client *workerclient.Client, workerID string, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(ctx, workerID); err != nil {
				log.Warn("heartbeat failed", "worker_id", workerID, "err", err)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	// jitter keeps a worker fleet from synchronizing its empty-queue
	// polling into a thundering herd against the master.
	jittered := d + time.Duration(rand.Int63n(int64(d/2)))
	t := time.NewTimer(jittered)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func heartbeatIntervalFromEnv() time.Duration {
	v := os.Getenv("DISPATCHER_HEARTBEAT_INTERVAL")
	if v == "" {
		return 30 * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 30 * time.Second
}
