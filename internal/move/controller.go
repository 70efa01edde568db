// Package move orchestrates optimistic clip position changes against the
// backend. A move walks an explicit state machine:
//
//	Idle -> MoveProposed -> Accepted  -> Applied
//	                     -> Conflicted -> Retried (bounded, once) -> ...
//	                                   -> Reverted
//
// The proposed position is applied to local state immediately so the UI
// stays responsive, and is only treated as durable once the backend
// confirms it. On a conflict the server may suggest a non-overlapping
// position; the user is asked once, and at most one automatic retry is
// issued per user-initiated move. Everything else reverts to the last
// server-confirmed truth via a whole-collection re-fetch.
package move

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/timeline"
)

// ErrMoveInFlight rejects a second proposed move for a clip while one is
// pending. Interleaved moves would make the state machine ill-defined, so
// callers must wait or re-trigger.
var ErrMoveInFlight = errors.New("a move is already in flight for this clip")

// Status is the terminal outcome of one move.
type Status string

const (
	// StatusApplied: the backend confirmed the position.
	StatusApplied Status = "applied"
	// StatusReverted: the move was rejected or failed; local state was
	// restored from the server.
	StatusReverted Status = "reverted"
	// StatusDiscarded: the response arrived after the clip's generation
	// was invalidated and was not applied.
	StatusDiscarded Status = "discarded"
)

// Result is the typed outcome of a move. The presentation layer decides how
// to render it; the protocol itself fires no notifications.
type Result struct {
	Status   Status
	Clip     *timeline.Clip
	Report   *timeline.Report
	Conflict *backend.ConflictError
	Retried  bool
	Err      error
}

// ConflictPrompter answers the blocking question a conflict poses: retry at
// the server-suggested position, or give up and revert.
type ConflictPrompter interface {
	AcceptSuggestion(clip *timeline.Clip, conflict *backend.ConflictError) bool
}

// PromptFunc adapts a function to the ConflictPrompter interface.
type PromptFunc func(clip *timeline.Clip, conflict *backend.ConflictError) bool

func (f PromptFunc) AcceptSuggestion(clip *timeline.Clip, conflict *backend.ConflictError) bool {
	return f(clip, conflict)
}

// Controller owns the per-clip move state: the in-flight guard and a
// generation counter so a late response for an invalidated move is
// detected and discarded rather than misapplied.
type Controller struct {
	client backend.Client
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
	gen      map[string]uint64
}

func NewController(client backend.Client, logger *slog.Logger) *Controller {
	return &Controller{
		client:   client,
		logger:   logger,
		inflight: make(map[string]bool),
		gen:      make(map[string]uint64),
	}
}

// InFlight reports whether a move is currently pending for the clip.
func (c *Controller) InFlight(clipID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[clipID]
}

// Invalidate bumps the clip's generation so a response still in flight is
// discarded instead of applied. Used when the consumer abandons a move
// (for example a drag cancelled from the UI).
func (c *Controller) Invalidate(clipID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[clipID]++
}

func (c *Controller) begin(clipID string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[clipID] {
		return 0, ErrMoveInFlight
	}
	c.inflight[clipID] = true
	c.gen[clipID]++
	return c.gen[clipID], nil
}

func (c *Controller) end(clipID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, clipID)
}

func (c *Controller) stale(clipID string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[clipID] != gen
}

// Move proposes a new timeline position for a clip within scene. The
// scene's clip set is mutated optimistically and either confirmed, restored
// or replaced wholesale from the server, per the state machine above.
// The returned error is non-nil only for preconditions (unknown clip, move
// already in flight); protocol outcomes including transport failures are
// reported through the Result.
func (c *Controller) Move(ctx context.Context, scene *timeline.Scene, clipID string, position float64, prompter ConflictPrompter) (*Result, error) {
	gen, err := c.begin(clipID)
	if err != nil {
		return nil, err
	}
	defer c.end(clipID)

	clip := scene.FindClip(clipID)
	if clip == nil {
		return nil, fmt.Errorf("clip %s: %w", clipID, backend.ErrNotFound)
	}

	log := c.logger.With("clip_id", clipID, "scene_id", scene.ID)
	prev := clip.TimelinePosition
	result := &Result{}
	target := position

	for attempt := 0; ; attempt++ {
		clip.TimelinePosition = target // optimistic apply
		log.Info("move proposed", "position", target, "attempt", attempt)

		updated, err := c.client.UpdateClipPosition(ctx, clipID, target)

		if c.stale(clipID, gen) {
			clip.TimelinePosition = prev
			log.Info("move response discarded as stale")
			result.Status = StatusDiscarded
			result.Retried = attempt > 0
			return result, nil
		}

		if err == nil {
			*clip = *updated
			result.Status = StatusApplied
			result.Clip = clip
			result.Retried = attempt > 0
			// Re-fetch the scene's overlap report so cross-clip warnings
			// stay current. Failure here does not undo the accepted move.
			if report, rerr := c.client.AnalyzeScene(ctx, scene.ID); rerr == nil {
				result.Report = report
			} else {
				log.Warn("post-move analysis fetch failed", "error", rerr)
			}
			log.Info("move accepted", "position", clip.TimelinePosition, "retried", result.Retried)
			return result, nil
		}

		var conflict *backend.ConflictError
		if errors.As(err, &conflict) {
			result.Conflict = conflict
			if attempt == 0 && conflict.SuggestedPosition != nil && prompter != nil &&
				prompter.AcceptSuggestion(clip, conflict) {
				target = *conflict.SuggestedPosition
				log.Info("retrying move at suggested position", "position", target)
				continue
			}
			c.revert(ctx, scene, clip, prev, log)
			result.Status = StatusReverted
			result.Retried = attempt > 0
			log.Info("move reverted after conflict", "error", conflict.Message)
			return result, nil
		}

		// Transient or unknown failure: revert and surface, never retry.
		c.revert(ctx, scene, clip, prev, log)
		result.Status = StatusReverted
		result.Retried = attempt > 0
		result.Err = err
		log.Warn("move failed", "error", err)
		return result, nil
	}
}

// revert restores the pre-move position, then replaces the scene's clip set
// with the server's so the UI shows the last true state. When the re-fetch
// fails the restored optimistic state stands until the next refresh.
func (c *Controller) revert(ctx context.Context, scene *timeline.Scene, clip *timeline.Clip, prev float64, log *slog.Logger) {
	clip.TimelinePosition = prev
	clips, err := c.client.ListClips(ctx, scene.ID)
	if err != nil {
		log.Warn("post-revert clip refresh failed", "error", err)
		return
	}
	scene.Clips = clips
}
