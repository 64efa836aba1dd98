// Package aggregator implements the Result-combining and
// conflict/requeue protocol of spec.md §4.4-§4.5 — the hardest
// engineering in this repository. It owns the per-job blueprint
// update, the completion check, conflict localisation, selective and
// full requeue, stall detection, and job abandonment.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
	"github.com/distsudoku/master/internal/domain/registry"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// SolutionSink persists a job's final solved board, the out-of-scope
// collaborator of spec.md §1. internal/infrastructure/storage provides
// both an in-memory and a bun/Postgres-backed implementation.
type SolutionSink interface {
	Save(ctx context.Context, jobID string, b *board.Board) error
}

// Config tunes the timers of spec.md §4.4 and the abandonment rule of
// §7.7.
type Config struct {
	// StallBaseline is T_stall at N = BaselineN; scaled linearly with
	// N/BaselineN for other board sizes, per spec.md §4.4.
	StallBaseline time.Duration
	BaselineN     int

	// AbandonAfterRounds is K: the number of consecutive requeue
	// rounds without a new sure cell before a job is abandoned.
	AbandonAfterRounds int

	// TickInterval is the Aggregator's own combine/stall check
	// frequency (1 Hz per spec.md §4.4).
	TickInterval time.Duration
}

// DefaultConfig matches spec.md §4.4/§7.7's stated defaults.
func DefaultConfig() Config {
	return Config{
		StallBaseline:      90 * time.Second,
		BaselineN:          9,
		AbandonAfterRounds: 10,
		TickInterval:       time.Second,
	}
}

// Aggregator consumes Results and runs the 1 Hz completion/stall
// sweep. It is safe for concurrent use; all per-job mutation happens
// under that job's own lock (spec.md §5).
type Aggregator struct {
	registry   *registry.Registry
	dispatcher dispatcher.Dispatcher
	sink       SolutionSink
	cfg        Config
	log        *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New wires an Aggregator. sink may be nil only in tests that never
// drive a job to completion.
func New(reg *registry.Registry, disp dispatcher.Dispatcher, sink SolutionSink, cfg Config, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Default()
	}
	return &Aggregator{registry: reg, dispatcher: disp, sink: sink, cfg: cfg, log: log}
}

// Intake registers newly partitioned sub-jobs against job and enqueues
// them on the Dispatcher. Used both for initial intake (by the
// Coordinator) and internally for requeues, so the two never diverge.
func (a *Aggregator) Intake(ctx context.Context, job *registry.Job, subJobs []partition.SubJob) error {
	job.Lock()
	for _, sj := range subJobs {
		job.SubJobs[sj.SubJobID] = sj
	}
	if len(job.SubJobs) > 0 {
		job.State = registry.StateActive
	}
	job.Unlock()

	for _, sj := range subJobs {
		if err := a.dispatcher.Enqueue(ctx, sj); err != nil {
			return err
		}
	}
	return nil
}

// Submit implements spec.md §4.4's per-Result protocol.
func (a *Aggregator) Submit(ctx context.Context, result registry.Result) error {
	job, ok := a.registry.Get(result.JobID)
	if !ok {
		return ErrJobNotFound
	}

	job.Lock()
	defer job.Unlock()

	if job.State.Terminal() {
		// The job already concluded; a late result from a swept or
		// slow worker is simply ignored.
		return nil
	}

	if result.Iteration != job.Iteration {
		a.log.Debug("dropping stale result", "job_id", job.JobID, "result_iteration", result.Iteration, "job_iteration", job.Iteration)
		return nil
	}

	if _, dup := job.Results[result.SubJobID]; dup {
		a.log.Debug("dropping duplicate result", "job_id", job.JobID, "sub_job_id", result.SubJobID)
		return nil
	}

	if _, ok := job.SubJobs[result.SubJobID]; !ok {
		return ErrSubJobNotFound
	}

	job.Results[result.SubJobID] = result

	if err := a.recomputeBlueprint(job); err != nil {
		a.log.Warn("blueprint recompute failed, forcing full requeue", "job_id", job.JobID, "err", err)
		return a.fullRequeue(ctx, job)
	}
	job.LastProgressAt = time.Now()

	return a.checkCompletion(ctx, job)
}

// recomputeBlueprint implements spec.md §4.4 step 3: start from
// initialBlueprint, overlay every current-iteration completion's sure
// cells, then propagate. Assigns the result to job.CurrentBlueprint.
func (a *Aggregator) recomputeBlueprint(job *registry.Job) error {
	updated := job.InitialBlueprint.Clone()
	for _, res := range job.Results {
		sj, ok := job.SubJobs[res.SubJobID]
		if !ok {
			continue
		}
		updated = updated.Overlay(sj.PartitionCells, res.PartitionValues, res.SureMask)
	}

	propagated, err := board.Propagate(updated, board.LevelNakedSingles)
	if err != nil {
		return err
	}
	job.CurrentBlueprint = propagated
	return nil
}

// checkCompletion implements spec.md §4.4's completion check. Caller
// must hold job's lock.
func (a *Aggregator) checkCompletion(ctx context.Context, job *registry.Job) error {
	if job.CurrentBlueprint.IsSolved() {
		return a.markSolved(ctx, job, job.CurrentBlueprint)
	}

	if len(job.Results) < len(job.SubJobs) {
		// Still waiting on outstanding sub-jobs for this iteration.
		return nil
	}

	tentative := tentativeBoard(job)
	if tentative.IsSolved() {
		return a.markSolved(ctx, job, tentative)
	}

	conflicts := conflictingPartitions(tentative, job.Strategy)
	if len(conflicts) > 0 {
		return a.selectiveRequeue(ctx, job, conflicts)
	}
	return a.fullRequeue(ctx, job)
}

// tentativeBoard composes job.CurrentBlueprint with the non-sure cells
// of every completion overlaid wherever the blueprint cell is still
// empty — sure cells always take precedence, per spec.md §4.4.
func tentativeBoard(job *registry.Job) *board.Board {
	tentative := job.CurrentBlueprint.Clone()
	for _, res := range job.Results {
		sj, ok := job.SubJobs[res.SubJobID]
		if !ok {
			continue
		}
		for i, cell := range sj.PartitionCells {
			if i >= len(res.PartitionValues) {
				break
			}
			if tentative.Get(cell.Row, cell.Col) == board.Empty {
				tentative.Set(cell.Row, cell.Col, res.PartitionValues[i])
			}
		}
	}
	return tentative
}

func (a *Aggregator) markSolved(ctx context.Context, job *registry.Job, solved *board.Board) error {
	job.CurrentBlueprint = solved
	job.State = registry.StateSolved
	job.LastProgressAt = time.Now()
	job.SubJobs = make(map[string]partition.SubJob)
	job.Results = make(map[string]registry.Result)

	a.log.Info("job solved", "job_id", job.JobID, "iteration", job.Iteration)

	if a.sink != nil {
		if err := a.sink.Save(ctx, job.JobID, solved); err != nil {
			a.log.Error("failed to persist solution", "job_id", job.JobID, "err", err)
			return err
		}
	}
	return nil
}

// selectiveRequeue implements spec.md §4.5's selective requeue.
// Caller must hold job's lock.
func (a *Aggregator) selectiveRequeue(ctx context.Context, job *registry.Job, conflicts map[partition.Index]bool) error {
	beforeSure := sureCellCount(job.CurrentBlueprint)
	job.Iteration++

	for id, sj := range job.SubJobs {
		if conflicts[sj.PartitionIndex] {
			delete(job.Results, id)
			delete(job.SubJobs, id)
		}
	}

	// The surviving sub-jobs from the prior iteration keep their
	// original "{jobID}.{seq}" ids, so the new batch must start past the
	// highest surviving seq or enqueueLocked will overwrite them.
	startSeq := 1
	for id := range job.SubJobs {
		if seq, ok := partition.SeqOf(id); ok && seq >= startSeq {
			startSeq = seq + 1
		}
	}

	zeroed := job.CurrentBlueprint.Clone()
	indices := make([]partition.Index, 0, len(conflicts))
	for idx := range conflicts {
		indices = append(indices, idx)
		for _, cell := range cellsOfPartition(zeroed, idx, job.Strategy) {
			if job.InitialBlueprint.Get(cell.Row, cell.Col) == board.Empty {
				zeroed.Set(cell.Row, cell.Col, board.Empty)
			}
		}
	}

	propagated, err := board.Propagate(zeroed, board.LevelNakedSingles)
	if err != nil {
		// Zeroing out the conflicting cells should only ever relax
		// constraints; a newly-infeasible board signals a deeper
		// problem no selective requeue can localise further.
		a.log.Warn("selective requeue produced an infeasible board, falling back to full requeue", "job_id", job.JobID, "err", err)
		return a.fullRequeue(ctx, job)
	}
	job.CurrentBlueprint = propagated

	if job.CurrentBlueprint.IsSolved() {
		return a.markSolved(ctx, job, job.CurrentBlueprint)
	}

	subJobs, err := partition.PartitionAt(job.CurrentBlueprint, job.Strategy, job.JobID, job.Iteration, indices, startSeq)
	if err != nil {
		return err
	}

	a.trackProgress(job, beforeSure)
	if job.State == registry.StateAbandoned {
		a.log.Info("job abandoned after repeated requeues without progress", "job_id", job.JobID)
		return nil
	}

	a.log.Info("selective requeue", "job_id", job.JobID, "iteration", job.Iteration, "conflicting_partitions", len(conflicts))
	return a.enqueueLocked(ctx, job, subJobs)
}

// fullRequeue implements spec.md §4.5's full requeue. Caller must hold
// job's lock. job.CurrentBlueprint already equals initialBlueprint
// overlaid with every sure cell accumulated so far (the invariant
// recomputeBlueprint maintains), so "reconstructing" it from the
// now-cleared results is a no-op beyond a defensive re-propagate.
func (a *Aggregator) fullRequeue(ctx context.Context, job *registry.Job) error {
	beforeSure := sureCellCount(job.CurrentBlueprint)
	job.Iteration++
	job.Results = make(map[string]registry.Result)
	job.SubJobs = make(map[string]partition.SubJob)

	propagated, err := board.Propagate(job.CurrentBlueprint, board.LevelNakedSingles)
	if err == nil {
		job.CurrentBlueprint = propagated
	}

	if job.CurrentBlueprint.IsSolved() {
		return a.markSolved(ctx, job, job.CurrentBlueprint)
	}

	subJobs, err := partition.Partition(job.CurrentBlueprint, job.Strategy, job.JobID, job.Iteration, true)
	if err != nil {
		return err
	}

	a.trackProgress(job, beforeSure)
	if job.State == registry.StateAbandoned {
		a.log.Info("job abandoned after repeated requeues without progress", "job_id", job.JobID)
		return nil
	}

	a.log.Info("full requeue", "job_id", job.JobID, "iteration", job.Iteration)
	return a.enqueueLocked(ctx, job, subJobs)
}

// trackProgress implements the abandonment rule of spec.md §7.7: K
// consecutive requeue rounds with no new sure cell abandons the job.
// Caller must hold job's lock.
func (a *Aggregator) trackProgress(job *registry.Job, beforeSure int) {
	afterSure := sureCellCount(job.CurrentBlueprint)
	if afterSure > beforeSure {
		job.RoundsWithoutNewSureCells = 0
		return
	}
	job.RoundsWithoutNewSureCells++
	if job.RoundsWithoutNewSureCells >= a.cfg.AbandonAfterRounds {
		job.State = registry.StateAbandoned
	}
}

func sureCellCount(b *board.Board) int {
	n := 0
	for r := 0; r < b.N; r++ {
		for c := 0; c < b.N; c++ {
			if b.Get(r, c) != board.Empty {
				n++
			}
		}
	}
	return n
}

// enqueueLocked registers subJobs against job (already locked) and
// enqueues them without re-acquiring the lock, then dispatches.
func (a *Aggregator) enqueueLocked(ctx context.Context, job *registry.Job, subJobs []partition.SubJob) error {
	for _, sj := range subJobs {
		job.SubJobs[sj.SubJobID] = sj
	}
	if len(subJobs) > 0 {
		job.State = registry.StateActive
	}
	for _, sj := range subJobs {
		if err := a.dispatcher.Enqueue(ctx, sj); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the 1 Hz completion/stall sweep across every job in
// the Registry, per spec.md §4.4. Stop cancels it.
func (a *Aggregator) Start(ctx context.Context) {
	a.stopCh = make(chan struct{})
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.tickAll(ctx)
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop blocks until the sweep goroutine has exited.
func (a *Aggregator) Stop() {
	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	a.wg.Wait()
}

func (a *Aggregator) tickAll(ctx context.Context) {
	for _, job := range a.registry.All() {
		a.tickOne(ctx, job)
	}
}

func (a *Aggregator) tickOne(ctx context.Context, job *registry.Job) {
	job.Lock()
	defer job.Unlock()

	if job.State.Terminal() {
		return
	}

	if err := a.checkCompletion(ctx, job); err != nil {
		a.log.Error("completion check failed", "job_id", job.JobID, "err", err)
	}
	if job.State.Terminal() {
		return
	}

	outstanding := len(job.SubJobs) - len(job.Results)
	if outstanding <= 0 {
		return
	}

	queueLen, err := a.dispatcher.QueueLen(ctx)
	if err != nil {
		a.log.Error("queue length check failed", "job_id", job.JobID, "err", err)
		return
	}
	if queueLen != 0 {
		return
	}

	tStall := stallThreshold(a.cfg, job.CurrentBlueprint.N)
	if time.Since(job.LastProgressAt) > tStall {
		a.log.Info("stall detected, forcing full requeue", "job_id", job.JobID, "stall_threshold", tStall)
		if err := a.fullRequeue(ctx, job); err != nil {
			a.log.Error("stall full requeue failed", "job_id", job.JobID, "err", err)
		}
	}
}

func stallThreshold(cfg Config, n int) time.Duration {
	if cfg.BaselineN <= 0 {
		return cfg.StallBaseline
	}
	return cfg.StallBaseline * time.Duration(n) / time.Duration(cfg.BaselineN)
}

// SweepTerminalJobs removes terminal jobs whose last progress is older
// than ttl from the Registry — the "periodic result cache sweep" of
// spec.md §5, registered as a robfig/cron entry by pkg/server rather
// than run on the Aggregator's own ticker (it is fleet-wide
// maintenance, not per-job combine logic).
func (a *Aggregator) SweepTerminalJobs(ttl time.Duration) int {
	n := 0
	for _, job := range a.registry.All() {
		job.Lock()
		expired := job.State.Terminal() && time.Since(job.LastProgressAt) > ttl
		jobID := job.JobID
		job.Unlock()

		if expired {
			a.registry.Remove(jobID)
			n++
		}
	}
	return n
}
