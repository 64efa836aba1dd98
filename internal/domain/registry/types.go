// Package registry holds per-job coordination state: the Job
// Registry of spec.md §3/§5 — a map of jobID to *Job, each guarded by
// its own mutex, with no process-wide globals.
package registry

import (
	"sync"
	"time"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
)

// State is a Job's lifecycle phase, per spec.md §3.
type State string

const (
	StateCreated    State = "created"
	StateActive     State = "active"
	StateSolved     State = "solved"
	StateUnsolvable State = "unsolvable"
	StateAbandoned  State = "abandoned"
)

// Terminal reports whether s is a terminal state.
func (s State) Terminal() bool {
	return s == StateSolved || s == StateUnsolvable || s == StateAbandoned
}

// Result is a completed sub-job submission, per spec.md §3.
type Result struct {
	SubJobID        string
	JobID           string
	PartitionIndex  partition.Index
	PartitionValues []int
	SureMask        []bool
	Iteration       int
	Unsolvable      bool
}

// WorkerRegistration tracks worker liveness, per spec.md §3.
type WorkerRegistration struct {
	WorkerID        string
	LastHeartbeatAt time.Time
}

// Job is the per-puzzle coordination state of spec.md §3. Only the
// holder of Lock may mutate CurrentBlueprint, Results,
// Iteration, or LastProgressAt (spec.md §5).
type Job struct {
	mu sync.Mutex

	JobID    string
	Strategy partition.Strategy

	InitialBlueprint *board.Board
	CurrentBlueprint *board.Board

	Iteration int
	SubJobs   map[string]partition.SubJob // every sub-job created for the current iteration, by SubJobID
	Results   map[string]Result           // completed for the current iteration, by SubJobID (outstanding = SubJobs - Results)

	State          State
	StartedAt      time.Time
	LastProgressAt time.Time

	// RoundsWithoutNewSureCells counts consecutive requeue rounds
	// that produced no new sure cell, for the abandonment rule of
	// spec.md §7.7 (K=10 default). Maintained by the Aggregator.
	RoundsWithoutNewSureCells int
}

// Lock/Unlock expose the per-job mutex to callers (Aggregator,
// Coordinator) that need to hold it across multiple field mutations.
func (j *Job) Lock()   { j.mu.Lock() }
func (j *Job) Unlock() { j.mu.Unlock() }

// NewJob creates a Job in the Created state from a validated initial
// board, per spec.md §3's lifecycle.
func NewJob(jobID string, strategy partition.Strategy, initial *board.Board, now time.Time) *Job {
	return &Job{
		JobID:            jobID,
		Strategy:         strategy,
		InitialBlueprint: initial,
		CurrentBlueprint: initial.Clone(),
		Iteration:        1,
		SubJobs:          make(map[string]partition.SubJob),
		Results:          make(map[string]Result),
		State:            StateCreated,
		StartedAt:        now,
		LastProgressAt:   now,
	}
}
