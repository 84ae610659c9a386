package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const jobsBucket = "scheduler:jobs"

// DefaultLease is how long a claim holds a job before it's considered
// abandoned and becomes claimable again.
const DefaultLease = 5 * time.Minute

// JobHandler executes the body of a claimed job.
type JobHandler func(ctx context.Context, payload []byte) error

// Store is the persistence half of Sched: job CRUD plus the claim scan.
// Grounded on the teacher's BoltStore CRUD pattern, generalized to a
// single entity (Job) instead of one method set per resource kind.
type Store struct {
	db *storage.DB
}

// NewStore prepares the jobs bucket on db.
func NewStore(db *storage.DB) (*Store, error) {
	if err := db.EnsureBuckets(jobsBucket); err != nil {
		return nil, fmt.Errorf("scheduler: ensure buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// JobID computes the deterministic identifier for a (name, payload)
// pair, so PutJob is idempotent: scheduling the same logical job twice
// updates the one row instead of creating a duplicate.
func JobID(name string, payload []byte) string {
	h := sha256.Sum256(append([]byte(name), payload...))
	return hex.EncodeToString(h[:])[:16]
}

// PutJob upserts a job by its deterministic ID. If the job already
// exists, its NextExecution and Interval are updated in place and its
// claim (if any) is left untouched, so re-scheduling a job that's
// currently executing doesn't interrupt it.
func (s *Store) PutJob(name string, payload []byte, nextExecution time.Time, interval *time.Duration) (types.Job, error) {
	id := JobID(name, payload)

	existing, err := s.getJob(id)
	if err != nil {
		return types.Job{}, err
	}

	job := types.Job{
		ID:            id,
		Name:          name,
		Payload:       payload,
		NextExecution: nextExecution,
		Interval:      interval,
	}
	if existing != nil {
		job.LastExecution = existing.LastExecution
		job.ClaimedAt = existing.ClaimedAt
	}

	if err := s.putJob(job); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

func (s *Store) getJob(id string) (*types.Job, error) {
	data, err := s.db.Get(jobsBucket, []byte(id))
	if err != nil {
		return nil, luterr.Transient("read job", err)
	}
	if data == nil {
		return nil, nil
	}
	var job types.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, luterr.Fatal("decode job", err)
	}
	return &job, nil
}

func (s *Store) putJob(job types.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return luterr.Validation("marshal job", err)
	}
	if err := s.db.Put(jobsBucket, []byte(job.ID), data); err != nil {
		return luterr.Transient("persist job", err)
	}
	return nil
}

// DeleteJob removes a job outright, used for one-shot jobs once they've
// run successfully.
func (s *Store) DeleteJob(id string) error {
	if err := s.db.Delete(jobsBucket, []byte(id)); err != nil {
		return luterr.Transient("delete job", err)
	}
	return nil
}

// ClaimDue scans for jobs whose NextExecution has passed and whose
// claim (if any) has expired, and claims up to limit of them by setting
// ClaimedAt to now.
func (s *Store) ClaimDue(now time.Time, lease time.Duration, limit int) ([]types.Job, error) {
	var due []types.Job
	err := s.db.ForEach(jobsBucket, func(key, value []byte) error {
		if len(due) >= limit {
			return nil
		}
		var job types.Job
		if err := json.Unmarshal(value, &job); err != nil {
			return err
		}
		if job.NextExecution.After(now) {
			return nil
		}
		if job.ClaimedAt != nil && now.Sub(*job.ClaimedAt) < lease {
			return nil
		}
		due = append(due, job)
		return nil
	})
	if err != nil {
		return nil, luterr.Transient("scan due jobs", err)
	}

	claimed := make([]types.Job, 0, len(due))
	for _, job := range due {
		claimedAt := now
		job.ClaimedAt = &claimedAt
		if err := s.putJob(job); err != nil {
			return claimed, err
		}
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// CompleteJob records a successful execution. Recurring jobs roll
// NextExecution forward by Interval and clear their claim; one-shot jobs
// are deleted. FailureCount resets, so a job that fails a few times and
// then succeeds doesn't carry stale backoff into its next failure.
func (s *Store) CompleteJob(job types.Job, at time.Time) error {
	if job.Interval == nil {
		return s.DeleteJob(job.ID)
	}
	job.LastExecution = &at
	next := at.Add(*job.Interval)
	job.NextExecution = next
	job.ClaimedAt = nil
	job.FailureCount = 0
	return s.putJob(job)
}

// ReleaseClaim clears a job's claim without advancing NextExecution, for
// the no-handler-registered case where the job isn't actually being
// retried, just waiting for an operator to register its handler.
func (s *Store) ReleaseClaim(jobID string) error {
	job, err := s.getJob(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	job.ClaimedAt = nil
	return s.putJob(*job)
}

// ReleaseClaimWithBackoff clears a job's claim on handler failure and
// schedules NextExecution = now + backoff(attempt), per spec.md §4.2 step
// 4, so a repeatedly failing job backs off instead of being re-claimed on
// the very next tick.
func (s *Store) ReleaseClaimWithBackoff(jobID string, policy luterr.Backoff, now time.Time) error {
	job, err := s.getJob(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	job.ClaimedAt = nil
	job.FailureCount++
	job.NextExecution = now.Add(policy.Duration(job.FailureCount - 1))
	return s.putJob(*job)
}

// ListJobs returns every job currently in the store, for operator
// visibility (SchedulerService.GetJobs).
func (s *Store) ListJobs() ([]types.Job, error) {
	var jobs []types.Job
	err := s.db.ForEach(jobsBucket, func(key, value []byte) error {
		var job types.Job
		if err := json.Unmarshal(value, &job); err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, luterr.Transient("list jobs", err)
	}
	return jobs, nil
}

// PendingCount reports how many jobs are currently due and unclaimed,
// for metrics and operational visibility.
func (s *Store) PendingCount() (int, error) {
	now := time.Now()
	count := 0
	err := s.db.ForEach(jobsBucket, func(key, value []byte) error {
		var job types.Job
		if err := json.Unmarshal(value, &job); err != nil {
			return err
		}
		if job.NextExecution.After(now) {
			return nil
		}
		if job.ClaimedAt != nil && now.Sub(*job.ClaimedAt) < DefaultLease {
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, luterr.Transient("count pending jobs", err)
	}
	return count, nil
}

// Scheduler drives the tick-based claim-dispatch loop over a Store,
// grounded on the teacher's ticker-driven Scheduler.run()/schedule()
// structure, generalized from reconciling container counts to claiming
// and executing named jobs.
type Scheduler struct {
	store        *Store
	lease        time.Duration
	tickInterval time.Duration
	claimBatch   int
	backoff      luterr.Backoff

	mu       sync.RWMutex
	handlers map[string]JobHandler

	stopCh chan struct{}
}

// New creates a Scheduler over store with the teacher's 5s tick cadence.
func New(store *Store) *Scheduler {
	return &Scheduler{
		store:        store,
		lease:        DefaultLease,
		tickInterval: 5 * time.Second,
		claimBatch:   20,
		backoff:      luterr.DefaultBackoff(),
		handlers:     make(map[string]JobHandler),
		stopCh:       make(chan struct{}),
	}
}

// RegisterHandler binds a job name to the function that executes it.
// Jobs scheduled under a name with no registered handler are left
// claimed-then-released so they retry once a handler is registered.
func (s *Scheduler) RegisterHandler(name string, handler JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = handler
}

// PendingCount implements metrics.SchedulerSource.
func (s *Scheduler) PendingCount() (int, error) {
	return s.store.PendingCount()
}

// Jobs returns every job currently registered, for SchedulerService.GetJobs.
func (s *Scheduler) Jobs() ([]types.Job, error) {
	return s.store.ListJobs()
}

// RegisteredProcessors lists the job names with a bound handler, for
// SchedulerService.GetRegisteredProcessors.
func (s *Scheduler) RegisteredProcessors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	return names
}

// PutJob upserts a job by (name, payload) through the Store, matching
// the deterministic-id coalescing behavior Sched.put specifies.
func (s *Scheduler) PutJob(name string, payload []byte, nextExecution time.Time, interval *time.Duration) (types.Job, error) {
	return s.store.PutJob(name, payload, nextExecution, interval)
}

// DeleteJob removes a job outright.
func (s *Scheduler) DeleteJob(id string) error {
	return s.store.DeleteJob(id)
}

// Start begins the scheduler's tick loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now()
	claimed, err := s.store.ClaimDue(now, s.lease, s.claimBatch)
	if err != nil {
		log.Logger.Error().Err(err).Msg("failed to claim due jobs")
		return
	}

	for _, job := range claimed {
		metrics.JobsClaimedTotal.WithLabelValues(job.Name).Inc()
		s.execute(job)
	}
}

func (s *Scheduler) execute(job types.Job) {
	s.mu.RLock()
	handler, ok := s.handlers[job.Name]
	s.mu.RUnlock()

	jobLog := log.WithJobID(job.ID)

	if !ok {
		jobLog.Warn().Str("job_name", job.Name).Msg("no handler registered, releasing claim")
		if err := s.store.ReleaseClaim(job.ID); err != nil {
			jobLog.Error().Err(err).Msg("failed to release claim")
		}
		return
	}

	timer := metrics.NewTimer()
	ctx, cancel := context.WithTimeout(context.Background(), s.lease)
	err := handler(ctx, job.Payload)
	cancel()
	timer.ObserveDurationVec(metrics.JobExecutionDuration, job.Name)

	if err != nil {
		jobLog.Error().Err(err).Str("job_name", job.Name).Msg("job execution failed")
		if releaseErr := s.store.ReleaseClaimWithBackoff(job.ID, s.backoff, time.Now()); releaseErr != nil {
			jobLog.Error().Err(releaseErr).Msg("failed to release claim after failure")
		}
		return
	}

	if err := s.store.CompleteJob(job, time.Now()); err != nil {
		jobLog.Error().Err(err).Msg("failed to complete job")
	}
}
