package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emergent/storyboard-agent/internal/backend"
)

// Batch is a client-side correlation of the job ids one batch submission
// produced. It is not a server-tracked entity and has no status of its own;
// each job progresses independently.
type Batch struct {
	ID          string    `json:"id"`
	JobIDs      []string  `json:"job_ids"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Dispatcher turns one batch-generation request into N tracked jobs. The
// fan-out happens server-side; the dispatcher's duties are the local
// fast-fail validation and registering every returned id with the tracker
// so subsequent polling covers the whole batch uniformly.
type Dispatcher struct {
	client  backend.Client
	tracker *Tracker
	logger  *slog.Logger
}

func NewDispatcher(client backend.Client, tracker *Tracker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, tracker: tracker, logger: logger}
}

// SubmitBatch issues one backend call carrying the full clip set and shared
// parameters, and returns the batch correlation.
func (d *Dispatcher) SubmitBatch(ctx context.Context, req backend.BatchGenerateRequest) (*Batch, error) {
	if err := ValidateBatch(req); err != nil {
		return nil, err
	}

	jobIDs, err := d.client.GenerateBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	d.tracker.track(jobIDs, req.GenerationType, req.ClipIDs)

	batch := &Batch{
		ID:          uuid.NewString(),
		JobIDs:      jobIDs,
		SubmittedAt: time.Now(),
	}
	d.logger.Info("batch submitted",
		"batch_id", batch.ID,
		"clip_count", len(req.ClipIDs),
		"job_count", len(jobIDs),
		"generation_type", req.GenerationType,
	)
	return batch, nil
}
