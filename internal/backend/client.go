// Package backend is the HTTP client for the storyboard backend. The agent
// treats the backend as the single source of truth: every successful fetch
// replaces the corresponding local collection wholesale, and errors are
// classified into the typed taxonomy in errors.go so callers can
// distinguish conflicts, validation failures and transient faults.
package backend

import (
	"context"

	"github.com/emergent/storyboard-agent/internal/timeline"
)

// Client is the backend contract the agent core drives. HTTPClient talks to
// a real backend; StubClient is a self-contained in-memory fake used when no
// backend is configured.
type Client interface {
	ListScenes(ctx context.Context, projectID string) ([]*timeline.Scene, error)
	ListClips(ctx context.Context, sceneID string) ([]*timeline.Clip, error)
	UpdateClipPosition(ctx context.Context, clipID string, position float64) (*timeline.Clip, error)
	AnalyzeScene(ctx context.Context, sceneID string) (*timeline.Report, error)

	Generate(ctx context.Context, req GenerateRequest) (string, error)
	GenerateBatch(ctx context.Context, req BatchGenerateRequest) ([]string, error)

	ListJobs(ctx context.Context, status string) ([]*Job, error)
	RetryJob(ctx context.Context, jobID string) (string, error)
	CancelJob(ctx context.Context, jobID string) error
	DeleteJob(ctx context.Context, jobID string) error
	ClearJobs(ctx context.Context, status string) (int, error)

	ListPoolItems(ctx context.Context, query string, tags []string) ([]*PoolItem, error)
}
