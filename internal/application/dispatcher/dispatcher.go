// Package dispatcher implements the FIFO job queue, worker pull, and
// heartbeat/dead-worker-sweep protocol of spec.md §4.3. Two
// implementations share the Dispatcher interface: memory (in-process,
// default) and redisq (go-redis backed, for a master that shares
// queue/worker state across restarts or replicas).
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/distsudoku/master/internal/domain/partition"
)

// ErrQueueEmpty is returned by Pull when no sub-job is available.
var ErrQueueEmpty = errors.New("dispatcher: queue is empty")

// ErrSubJobNotPending is returned by Submit when subJobID has no
// pending assignment (already submitted, or never assigned) —
// callers use this to implement the duplicate-submission tolerance
// of spec.md §4.3/§4.4.
var ErrSubJobNotPending = errors.New("dispatcher: sub-job not pending")

// Dispatcher is the FIFO queue + worker table described in spec.md §4.3.
type Dispatcher interface {
	// Enqueue appends a sub-job to the tail of the queue.
	Enqueue(ctx context.Context, job partition.SubJob) error

	// Pull pops the head of the queue and records a pending
	// assignment for workerID. Returns ErrQueueEmpty if nothing is
	// queued.
	Pull(ctx context.Context, workerID string) (partition.SubJob, error)

	// Submit removes subJobID's pending assignment. Returns
	// ErrSubJobNotPending if there is none (stale or duplicate
	// submission); callers should treat that as a no-op, not an
	// error surfaced to the client.
	Submit(ctx context.Context, subJobID string) error

	// Heartbeat records liveness for workerID.
	Heartbeat(ctx context.Context, workerID string) error

	// Sweep re-enqueues the pending assignments of any worker whose
	// last heartbeat is older than deadAfter, forgets that worker,
	// and returns the sub-jobs that were requeued.
	Sweep(ctx context.Context, deadAfter time.Duration) ([]partition.SubJob, error)

	// QueueLen reports the number of sub-jobs currently queued
	// (used by the Aggregator's stall-detection check: "queue is
	// empty").
	QueueLen(ctx context.Context) (int, error)
}
