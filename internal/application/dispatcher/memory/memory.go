// Package memory is the default in-process Dispatcher implementation:
// a mutex-guarded slice for the FIFO queue and a mutex-guarded map for
// pending assignments and worker liveness.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/domain/partition"
)

type pendingAssignment struct {
	subJob     partition.SubJob
	workerID   string
	assignedAt time.Time
}

// Dispatcher is a single-process, mutex-guarded implementation of
// dispatcher.Dispatcher.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []partition.SubJob
	pending map[string]pendingAssignment
	workers map[string]time.Time // workerID -> lastHeartbeatAt
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		pending: make(map[string]pendingAssignment),
		workers: make(map[string]time.Time),
	}
}

var _ dispatcher.Dispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) Enqueue(_ context.Context, job partition.SubJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, job)
	return nil
}

func (d *Dispatcher) Pull(_ context.Context, workerID string) (partition.SubJob, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return partition.SubJob{}, dispatcher.ErrQueueEmpty
	}

	job := d.queue[0]
	d.queue = d.queue[1:]

	d.pending[job.SubJobID] = pendingAssignment{
		subJob:     job,
		workerID:   workerID,
		assignedAt: time.Now(),
	}
	d.workers[workerID] = time.Now()

	return job, nil
}

func (d *Dispatcher) Submit(_ context.Context, subJobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[subJobID]; !ok {
		return dispatcher.ErrSubJobNotPending
	}
	delete(d.pending, subJobID)
	return nil
}

func (d *Dispatcher) Heartbeat(_ context.Context, workerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers[workerID] = time.Now()
	return nil
}

func (d *Dispatcher) Sweep(_ context.Context, deadAfter time.Duration) ([]partition.SubJob, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	dead := make(map[string]bool)
	for workerID, last := range d.workers {
		if now.Sub(last) > deadAfter {
			dead[workerID] = true
		}
	}
	if len(dead) == 0 {
		return nil, nil
	}

	var requeued []partition.SubJob
	for subJobID, assignment := range d.pending {
		if dead[assignment.workerID] {
			delete(d.pending, subJobID)
			requeued = append(requeued, assignment.subJob)
		}
	}
	for workerID := range dead {
		delete(d.workers, workerID)
	}

	// Requeue to the back, per spec.md §4.3 ("front or back is
	// unspecified; back is sufficient").
	d.queue = append(d.queue, requeued...)

	return requeued, nil
}

func (d *Dispatcher) QueueLen(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue), nil
}
