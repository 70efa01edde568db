// Package jobs tracks the asynchronous generation-job lifecycle. The
// backend is the only authority over job status: the tracker submits,
// polls and mirrors, but never guesses a transition. Every poll replaces
// the tracked set wholesale — jobs that disappeared server-side are
// dropped, jobs the agent never submitted are discovered.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/emergent/storyboard-agent/internal/backend"
)

// SnapshotStore persists the last reconciled job set so the agent has
// something to show right after a restart. Implemented by the store
// package; a nil store disables persistence.
type SnapshotStore interface {
	SaveJobs(ctx context.Context, jobs []*backend.Job) error
	LoadJobs(ctx context.Context) ([]*backend.Job, error)
}

// Tracker owns the in-memory mirror of the generation queue.
type Tracker struct {
	client backend.Client
	store  SnapshotStore
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*backend.Job
}

func NewTracker(client backend.Client, logger *slog.Logger) *Tracker {
	return &Tracker{
		client: client,
		logger: logger,
		jobs:   make(map[string]*backend.Job),
	}
}

// SetStore enables snapshot persistence.
func (t *Tracker) SetStore(store SnapshotStore) {
	t.store = store
}

// Restore loads the last persisted snapshot. Called once at startup,
// before the first poll; the next poll replaces whatever was restored.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	jobs, err := t.store.LoadJobs(ctx)
	if err != nil {
		return err
	}
	t.replace(jobs)
	t.logger.Info("restored job snapshot", "count", len(jobs))
	return nil
}

// Poll fetches the full queue and replaces the tracked set wholesale. This
// is a reconciliation pass, not an incremental patch.
func (t *Tracker) Poll(ctx context.Context) ([]*backend.Job, error) {
	jobs, err := t.client.ListJobs(ctx, "")
	if err != nil {
		return nil, err
	}
	t.replace(jobs)

	if t.store != nil {
		if serr := t.store.SaveJobs(ctx, jobs); serr != nil {
			t.logger.Warn("failed to persist job snapshot", "error", serr)
		}
	}
	return t.Jobs(""), nil
}

func (t *Tracker) replace(jobs []*backend.Job) {
	next := make(map[string]*backend.Job, len(jobs))
	for _, j := range jobs {
		next[j.ID] = j
	}
	t.mu.Lock()
	t.jobs = next
	t.mu.Unlock()
}

// Jobs returns the tracked set, optionally filtered by status, newest
// first. Ties break on id so the order is stable across calls.
func (t *Tracker) Jobs(status string) []*backend.Job {
	t.mu.RLock()
	out := make([]*backend.Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Job returns one tracked job, or nil.
func (t *Tracker) Job(id string) *backend.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.jobs[id]
}

// Counts returns the number of tracked jobs per status.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[string]int)
	for _, j := range t.jobs {
		counts[j.Status]++
	}
	return counts
}

// track registers freshly submitted job ids as pending placeholders until
// the next poll reports their true state.
func (t *Tracker) track(ids []string, generationType string, clipIDs []string) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if _, exists := t.jobs[id]; exists {
			continue
		}
		t.jobs[id] = &backend.Job{
			ID:             id,
			GenerationType: generationType,
			Status:         backend.JobStatusPending,
			ClipIDs:        clipIDs,
			CreatedAt:      now,
		}
	}
}

// Submit validates locally, submits one generation and tracks the returned
// job id. The ValidationError path never reaches the network.
func (t *Tracker) Submit(ctx context.Context, req backend.GenerateRequest) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	jobID, err := t.client.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	t.track([]string{jobID}, req.GenerationType, []string{req.ClipID})
	t.logger.Info("generation submitted", "job_id", jobID, "clip_id", req.ClipID, "generation_type", req.GenerationType)
	return jobID, nil
}

// Retry asks the backend for a new attempt of a terminal job. The original
// job is not mutated; the new id is tracked and the set is re-polled so
// the server stays authoritative for both records.
func (t *Tracker) Retry(ctx context.Context, jobID string) (string, error) {
	newID, err := t.client.RetryJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	generationType := ""
	var clipIDs []string
	if old := t.Job(jobID); old != nil {
		generationType = old.GenerationType
		clipIDs = old.ClipIDs
	}
	t.track([]string{newID}, generationType, clipIDs)
	t.logger.Info("job retried", "job_id", jobID, "new_job_id", newID)

	if _, perr := t.Poll(ctx); perr != nil {
		t.logger.Warn("re-poll after retry failed", "error", perr)
	}
	return newID, nil
}

// Cancel requests cancellation and re-polls; the resulting status is
// whatever the server reports, never a local guess.
func (t *Tracker) Cancel(ctx context.Context, jobID string) error {
	if err := t.client.CancelJob(ctx, jobID); err != nil {
		return err
	}
	if _, perr := t.Poll(ctx); perr != nil {
		t.logger.Warn("re-poll after cancel failed", "error", perr)
	}
	return nil
}

// Delete removes a job record. A job already gone server-side is treated
// as removed, not as a failure.
func (t *Tracker) Delete(ctx context.Context, jobID string) error {
	err := t.client.DeleteJob(ctx, jobID)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return err
	}
	t.mu.Lock()
	delete(t.jobs, jobID)
	t.mu.Unlock()

	if _, perr := t.Poll(ctx); perr != nil {
		t.logger.Warn("re-poll after delete failed", "error", perr)
	}
	return nil
}

// ClearByStatus bulk-deletes every job in the given status. The tracker
// does not restrict which statuses may be cleared; that is a UI guard.
func (t *Tracker) ClearByStatus(ctx context.Context, status string) (int, error) {
	deleted, err := t.client.ClearJobs(ctx, status)
	if err != nil {
		return 0, err
	}
	if _, perr := t.Poll(ctx); perr != nil {
		t.logger.Warn("re-poll after clear failed", "error", perr)
	}
	t.logger.Info("queue cleared", "status", status, "deleted", deleted)
	return deleted, nil
}
