package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emergent/storyboard-agent/internal/timeline"
	"github.com/emergent/storyboard-agent/internal/versions"
)

// StubClient is an in-memory backend used when no real backend is
// configured, so the agent runs standalone for UI development. It enforces
// the same move-conflict contract as the real backend (including the
// suggested-position remediation) and advances job statuses on a timer so
// polling consumers see realistic pending -> processing -> completed flows.
type StubClient struct {
	logger *slog.Logger

	mu     sync.Mutex
	scenes []*timeline.Scene
	jobs   map[string]*stubJob
}

type stubJob struct {
	job       *Job
	startedAt time.Time
	cancelled bool
}

const (
	stubProcessingAfter = 2 * time.Second
	stubCompletedAfter  = 6 * time.Second
)

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{
		logger: logger,
		scenes: seedScenes(),
		jobs:   make(map[string]*stubJob),
	}
}

// seedScenes gives the standalone agent something to render: one scene with
// two settled clips and an alternate take of the first clip.
func seedScenes() []*timeline.Scene {
	scene := &timeline.Scene{
		ID:       "scene-demo",
		Name:     "Verse 1",
		Duration: 12,
		Clips: []*timeline.Clip{
			{ID: "clip-1", SceneID: "scene-demo", Name: "Wide shot", Length: 5, TimelinePosition: 0},
			{ID: "clip-2", SceneID: "scene-demo", Name: "Close up", Length: 3, TimelinePosition: 5},
			{ID: "clip-1-alt", SceneID: "scene-demo", Name: "Wide shot (alt)", Length: 5, TimelinePosition: 0,
				ParentClipID: "clip-1", IsAlternate: true, AlternateNumber: 1},
		},
	}
	return []*timeline.Scene{scene}
}

func (c *StubClient) ListScenes(ctx context.Context, projectID string) ([]*timeline.Scene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*timeline.Scene, len(c.scenes))
	copy(out, c.scenes)
	return out, nil
}

func (c *StubClient) ListClips(ctx context.Context, sceneID string) ([]*timeline.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.scenes {
		if s.ID == sceneID {
			out := make([]*timeline.Clip, len(s.Clips))
			copy(out, s.Clips)
			return out, nil
		}
	}
	return nil, fmt.Errorf("scene %s: %w", sceneID, ErrNotFound)
}

func (c *StubClient) UpdateClipPosition(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.scenes {
		clip := s.FindClip(clipID)
		if clip == nil {
			continue
		}
		// Alternates share their family's interval; only the active member
		// of each family participates in collision checks.
		active := versions.Actives(s.Clips)
		if blocker := timeline.FindOverlap(active, clipID, position, clip.Length); blocker != nil {
			suggested := timeline.NextFreePosition(active, clipID, position, clip.Length)
			return nil, &ConflictError{
				Message:           fmt.Sprintf("position overlaps with clip %q", blocker.Name),
				SuggestedPosition: &suggested,
			}
		}
		clip.TimelinePosition = position
		copied := *clip
		return &copied, nil
	}
	return nil, fmt.Errorf("clip %s: %w", clipID, ErrNotFound)
}

func (c *StubClient) AnalyzeScene(ctx context.Context, sceneID string) (*timeline.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.scenes {
		if s.ID == sceneID {
			return timeline.Analyze(sceneID, versions.Actives(s.Clips)), nil
		}
	}
	return nil, fmt.Errorf("scene %s: %w", sceneID, ErrNotFound)
}

func (c *StubClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createJob(req.GenerationType, []string{req.ClipID}, req.Params), nil
}

func (c *StubClient) GenerateBatch(ctx context.Context, req BatchGenerateRequest) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(req.ClipIDs))
	for _, clipID := range req.ClipIDs {
		ids = append(ids, c.createJob(req.GenerationType, []string{clipID}, req.Params))
	}
	return ids, nil
}

// createJob must be called with the lock held.
func (c *StubClient) createJob(generationType string, clipIDs []string, params map[string]any) string {
	id := uuid.NewString()
	now := time.Now()
	c.jobs[id] = &stubJob{
		job: &Job{
			ID:             id,
			GenerationType: generationType,
			Status:         JobStatusPending,
			ClipIDs:        clipIDs,
			Params:         params,
			CreatedAt:      now,
		},
		startedAt: now,
	}
	c.logger.Info("backend stub: job created", "job_id", id, "generation_type", generationType)
	return id
}

// snapshot derives the job's current status from its age. Cancellation and
// terminal states stick.
func (s *stubJob) snapshot() *Job {
	job := *s.job
	if s.cancelled {
		job.Status = JobStatusCancelled
		return &job
	}
	age := time.Since(s.startedAt)
	switch {
	case age >= stubCompletedAfter:
		job.Status = JobStatusCompleted
		done := s.startedAt.Add(stubCompletedAfter)
		job.CompletedAt = &done
	case age >= stubProcessingAfter:
		job.Status = JobStatusProcessing
	}
	return &job
}

func (c *StubClient) ListJobs(ctx context.Context, status string) ([]*Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Job
	for _, s := range c.jobs {
		job := s.snapshot()
		if status == "" || job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

func (c *StubClient) RetryJob(ctx context.Context, jobID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.jobs[jobID]
	if !ok {
		return "", fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	old := s.snapshot()
	if !IsTerminal(old.Status) {
		return "", &APIError{StatusCode: 400, Body: "job is not in a terminal status"}
	}
	return c.createJob(old.GenerationType, old.ClipIDs, old.Params), nil
}

func (c *StubClient) CancelJob(ctx context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if IsTerminal(s.snapshot().Status) {
		return &APIError{StatusCode: 400, Body: "job already in a terminal status"}
	}
	s.cancelled = true
	return nil
}

func (c *StubClient) DeleteJob(ctx context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[jobID]; !ok {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	delete(c.jobs, jobID)
	return nil
}

func (c *StubClient) ClearJobs(ctx context.Context, status string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deleted := 0
	for id, s := range c.jobs {
		if s.snapshot().Status == status {
			delete(c.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (c *StubClient) ListPoolItems(ctx context.Context, query string, tags []string) ([]*PoolItem, error) {
	c.logger.Info("backend stub: pool search requested", "query", query, "tags", strings.Join(tags, ","))
	return nil, nil
}
