package move

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/timeline"
)

// fakeBackend overrides the handful of Client methods the protocol drives.
// The embedded interface panics on anything a test did not expect to be
// called.
type fakeBackend struct {
	backend.Client

	updateFn  func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error)
	clipsFn   func(ctx context.Context, sceneID string) ([]*timeline.Clip, error)
	analyzeFn func(ctx context.Context, sceneID string) (*timeline.Report, error)

	mu          sync.Mutex
	updateCalls []float64
}

func (f *fakeBackend) UpdateClipPosition(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, position)
	f.mu.Unlock()
	return f.updateFn(ctx, clipID, position)
}

func (f *fakeBackend) ListClips(ctx context.Context, sceneID string) ([]*timeline.Clip, error) {
	if f.clipsFn == nil {
		return nil, &backend.APIError{StatusCode: 500, Body: "unexpected ListClips"}
	}
	return f.clipsFn(ctx, sceneID)
}

func (f *fakeBackend) AnalyzeScene(ctx context.Context, sceneID string) (*timeline.Report, error) {
	if f.analyzeFn == nil {
		return &timeline.Report{SceneID: sceneID}, nil
	}
	return f.analyzeFn(ctx, sceneID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScene() *timeline.Scene {
	return &timeline.Scene{
		ID: "s1",
		Clips: []*timeline.Clip{
			{ID: "a", SceneID: "s1", TimelinePosition: 0, Length: 5},
			{ID: "b", SceneID: "s1", TimelinePosition: 8, Length: 3},
		},
	}
}

func conflictWithSuggestion(pos float64) *backend.ConflictError {
	return &backend.ConflictError{Message: "position overlaps with another clip", SuggestedPosition: &pos}
}

func TestMove_Accepted(t *testing.T) {
	scene := testScene()
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			return &timeline.Clip{ID: clipID, SceneID: "s1", TimelinePosition: position, Length: 3}, nil
		},
	}
	ctrl := NewController(fake, testLogger())

	res, err := ctrl.Move(context.Background(), scene, "b", 5, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusApplied, res.Status)
	assert.False(t, res.Retried)
	assert.Equal(t, 5.0, scene.FindClip("b").TimelinePosition)
	require.NotNil(t, res.Report, "accepted move refreshes the overlap report")
}

func TestMove_ConflictAcceptedSuggestion(t *testing.T) {
	// Clip a occupies [0,5); moving b (length 3) to 2 conflicts and the
	// server suggests 5. The user accepts, b lands at 5 with no overlap.
	scene := testScene()
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			if position < 5 {
				return nil, conflictWithSuggestion(5)
			}
			return &timeline.Clip{ID: clipID, SceneID: "s1", TimelinePosition: position, Length: 3}, nil
		},
	}
	ctrl := NewController(fake, testLogger())

	prompted := 0
	prompter := PromptFunc(func(clip *timeline.Clip, conflict *backend.ConflictError) bool {
		prompted++
		return true
	})

	res, err := ctrl.Move(context.Background(), scene, "b", 2, prompter)
	require.NoError(t, err)

	assert.Equal(t, StatusApplied, res.Status)
	assert.True(t, res.Retried)
	assert.Equal(t, 1, prompted)
	assert.Equal(t, []float64{2, 5}, fake.updateCalls)
	assert.Equal(t, 5.0, scene.FindClip("b").TimelinePosition)
	assert.Nil(t, timeline.FindOverlap(scene.Clips, "b", 5, 3))
}

func TestMove_ConflictDeclined(t *testing.T) {
	scene := testScene()
	serverClips := []*timeline.Clip{
		{ID: "a", SceneID: "s1", TimelinePosition: 0, Length: 5},
		{ID: "b", SceneID: "s1", TimelinePosition: 8, Length: 3},
	}
	refetched := false
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			return nil, conflictWithSuggestion(5)
		},
		clipsFn: func(ctx context.Context, sceneID string) ([]*timeline.Clip, error) {
			refetched = true
			return serverClips, nil
		},
	}
	ctrl := NewController(fake, testLogger())

	res, err := ctrl.Move(context.Background(), scene, "b", 2,
		PromptFunc(func(*timeline.Clip, *backend.ConflictError) bool { return false }))
	require.NoError(t, err)

	assert.Equal(t, StatusReverted, res.Status)
	require.NotNil(t, res.Conflict)
	assert.True(t, refetched, "revert must re-fetch the clip list")
	assert.Equal(t, 8.0, scene.FindClip("b").TimelinePosition, "position restored to server truth")
	assert.Len(t, fake.updateCalls, 1, "declined suggestion must not re-issue the move")
}

func TestMove_ConflictWithoutSuggestionReverts(t *testing.T) {
	scene := testScene()
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			return nil, &backend.ConflictError{Message: "position overlaps with another clip"}
		},
	}
	ctrl := NewController(fake, testLogger())

	prompted := false
	res, err := ctrl.Move(context.Background(), scene, "b", 2,
		PromptFunc(func(*timeline.Clip, *backend.ConflictError) bool { prompted = true; return true }))
	require.NoError(t, err)

	assert.Equal(t, StatusReverted, res.Status)
	assert.False(t, prompted, "no suggestion means nothing to prompt about")
	assert.Equal(t, 8.0, scene.FindClip("b").TimelinePosition)
}

func TestMove_SuggestionConflictsAgain_NoInfiniteLoop(t *testing.T) {
	scene := testScene()
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			return nil, conflictWithSuggestion(position + 1)
		},
	}
	ctrl := NewController(fake, testLogger())

	res, err := ctrl.Move(context.Background(), scene, "b", 2,
		PromptFunc(func(*timeline.Clip, *backend.ConflictError) bool { return true }))
	require.NoError(t, err)

	assert.Equal(t, StatusReverted, res.Status)
	assert.True(t, res.Retried)
	assert.Len(t, fake.updateCalls, 2, "at most one automatic retry per user-initiated move")
}

func TestMove_TransientErrorReverts(t *testing.T) {
	scene := testScene()
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			return nil, &backend.APIError{StatusCode: 500, Body: "boom"}
		},
	}
	ctrl := NewController(fake, testLogger())

	res, err := ctrl.Move(context.Background(), scene, "b", 2, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusReverted, res.Status)
	require.Error(t, res.Err, "transient failure is surfaced, not swallowed")
	assert.Equal(t, 8.0, scene.FindClip("b").TimelinePosition)
	assert.Len(t, fake.updateCalls, 1, "5xx is never silently retried")
}

func TestMove_RejectsConcurrentMoveForSameClip(t *testing.T) {
	scene := testScene()
	release := make(chan struct{})
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			<-release
			return &timeline.Clip{ID: clipID, SceneID: "s1", TimelinePosition: position, Length: 3}, nil
		},
	}
	ctrl := NewController(fake, testLogger())

	done := make(chan *Result)
	go func() {
		res, _ := ctrl.Move(context.Background(), scene, "b", 5, nil)
		done <- res
	}()

	require.Eventually(t, func() bool { return ctrl.InFlight("b") },
		time.Second, time.Millisecond)

	_, err := ctrl.Move(context.Background(), scene, "b", 6, nil)
	require.ErrorIs(t, err, ErrMoveInFlight)

	close(release)
	res := <-done
	assert.Equal(t, StatusApplied, res.Status)
	assert.False(t, ctrl.InFlight("b"))
}

func TestMove_InvalidatedResponseIsDiscarded(t *testing.T) {
	scene := testScene()
	release := make(chan struct{})
	fake := &fakeBackend{
		updateFn: func(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
			<-release
			return &timeline.Clip{ID: clipID, SceneID: "s1", TimelinePosition: position, Length: 3}, nil
		},
	}
	ctrl := NewController(fake, testLogger())

	done := make(chan *Result)
	go func() {
		res, _ := ctrl.Move(context.Background(), scene, "b", 5, nil)
		done <- res
	}()

	require.Eventually(t, func() bool { return ctrl.InFlight("b") },
		time.Second, time.Millisecond)

	// The user abandons the move while the request is still in flight.
	ctrl.Invalidate("b")
	close(release)

	res := <-done
	assert.Equal(t, StatusDiscarded, res.Status)
	assert.Equal(t, 8.0, scene.FindClip("b").TimelinePosition, "stale success must not be applied")
}

func TestMove_UnknownClip(t *testing.T) {
	scene := testScene()
	ctrl := NewController(&fakeBackend{}, testLogger())

	_, err := ctrl.Move(context.Background(), scene, "nope", 1, nil)
	require.ErrorIs(t, err, backend.ErrNotFound)
}
