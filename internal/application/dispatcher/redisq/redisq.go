// Package redisq is a go-redis-backed Dispatcher: the FIFO queue is a
// Redis list, pending assignments and worker heartbeats are Redis
// hashes, so a restarted master (or a second master replica) shares
// live dispatcher state. See the teacher's redis-backed rate limiter
// (internal/infrastructure/api/rest/middleware_ratelimit_redis_test.go
// in the retrieval pack) for the client-wrapping idiom this mirrors.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/domain/partition"
)

const (
	queueKey   = "sudoku:dispatcher:queue"
	pendingKey = "sudoku:dispatcher:pending"
	workersKey = "sudoku:dispatcher:workers"
)

type pendingEntry struct {
	SubJob     partition.SubJob `json:"subJob"`
	WorkerID   string           `json:"workerId"`
	AssignedAt time.Time        `json:"assignedAt"`
}

// Dispatcher is a dispatcher.Dispatcher backed by redis.UniversalClient,
// so both a real cluster/client and a miniredis-backed test client
// satisfy it.
type Dispatcher struct {
	client redis.UniversalClient
}

// New wraps an existing redis client. The caller owns the client's
// lifecycle (Close).
func New(client redis.UniversalClient) *Dispatcher {
	return &Dispatcher{client: client}
}

var _ dispatcher.Dispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) Enqueue(ctx context.Context, job partition.SubJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisq: marshal sub-job: %w", err)
	}
	return d.client.RPush(ctx, queueKey, raw).Err()
}

func (d *Dispatcher) Pull(ctx context.Context, workerID string) (partition.SubJob, error) {
	raw, err := d.client.LPop(ctx, queueKey).Result()
	if err == redis.Nil {
		return partition.SubJob{}, dispatcher.ErrQueueEmpty
	}
	if err != nil {
		return partition.SubJob{}, fmt.Errorf("redisq: pop queue: %w", err)
	}

	var job partition.SubJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return partition.SubJob{}, fmt.Errorf("redisq: unmarshal sub-job: %w", err)
	}

	entry := pendingEntry{SubJob: job, WorkerID: workerID, AssignedAt: time.Now()}
	entryRaw, err := json.Marshal(entry)
	if err != nil {
		return partition.SubJob{}, fmt.Errorf("redisq: marshal pending entry: %w", err)
	}

	pipe := d.client.TxPipeline()
	pipe.HSet(ctx, pendingKey, job.SubJobID, entryRaw)
	pipe.HSet(ctx, workersKey, workerID, time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return partition.SubJob{}, fmt.Errorf("redisq: record pending assignment: %w", err)
	}

	return job, nil
}

func (d *Dispatcher) Submit(ctx context.Context, subJobID string) error {
	n, err := d.client.HDel(ctx, pendingKey, subJobID).Result()
	if err != nil {
		return fmt.Errorf("redisq: clear pending assignment: %w", err)
	}
	if n == 0 {
		return dispatcher.ErrSubJobNotPending
	}
	return nil
}

func (d *Dispatcher) Heartbeat(ctx context.Context, workerID string) error {
	return d.client.HSet(ctx, workersKey, workerID, time.Now().Format(time.RFC3339Nano)).Err()
}

func (d *Dispatcher) Sweep(ctx context.Context, deadAfter time.Duration) ([]partition.SubJob, error) {
	workers, err := d.client.HGetAll(ctx, workersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redisq: list workers: %w", err)
	}

	now := time.Now()
	dead := make(map[string]bool)
	for workerID, lastRaw := range workers {
		last, err := time.Parse(time.RFC3339Nano, lastRaw)
		if err != nil || now.Sub(last) > deadAfter {
			dead[workerID] = true
		}
	}
	if len(dead) == 0 {
		return nil, nil
	}

	pending, err := d.client.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redisq: list pending assignments: %w", err)
	}

	var requeued []partition.SubJob
	for subJobID, raw := range pending {
		var entry pendingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if dead[entry.WorkerID] {
			requeued = append(requeued, entry.SubJob)
			if err := d.client.HDel(ctx, pendingKey, subJobID).Err(); err != nil {
				return nil, fmt.Errorf("redisq: clear pending assignment %s: %w", subJobID, err)
			}
		}
	}
	for workerID := range dead {
		if err := d.client.HDel(ctx, workersKey, workerID).Err(); err != nil {
			return nil, fmt.Errorf("redisq: forget worker %s: %w", workerID, err)
		}
	}

	for _, job := range requeued {
		if err := d.Enqueue(ctx, job); err != nil {
			return nil, fmt.Errorf("redisq: requeue sub-job %s: %w", job.SubJobID, err)
		}
	}

	return requeued, nil
}

func (d *Dispatcher) QueueLen(ctx context.Context) (int, error) {
	n, err := d.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redisq: queue length: %w", err)
	}
	return int(n), nil
}
