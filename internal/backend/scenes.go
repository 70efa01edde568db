package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/emergent/storyboard-agent/internal/timeline"
)

// ListScenes fetches all scenes of a project, including alternates, each
// with its full clip set and alternate-grouping fields.
func (c *HTTPClient) ListScenes(ctx context.Context, projectID string) ([]*timeline.Scene, error) {
	var wrapper struct {
		Scenes []*timeline.Scene `json:"scenes"`
	}
	path := "/api/projects/" + url.PathEscape(projectID) + "/scenes"
	if err := c.do(ctx, http.MethodGet, path, nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Scenes, nil
}

// ListClips fetches the full clip set of one scene. Used both for rendering
// and as the post-revert truth re-fetch after a rejected move.
func (c *HTTPClient) ListClips(ctx context.Context, sceneID string) ([]*timeline.Clip, error) {
	var wrapper struct {
		Clips []*timeline.Clip `json:"clips"`
	}
	path := "/api/scenes/" + url.PathEscape(sceneID) + "/clips"
	if err := c.do(ctx, http.MethodGet, path, nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Clips, nil
}

// UpdateClipPosition proposes a new timeline position for a clip. On success
// the persisted clip is returned; an overlap rejection surfaces as a
// *ConflictError carrying the optional server-suggested position.
func (c *HTTPClient) UpdateClipPosition(ctx context.Context, clipID string, position float64) (*timeline.Clip, error) {
	var clip timeline.Clip
	path := "/api/clips/" + url.PathEscape(clipID) + "/position"
	if err := c.do(ctx, http.MethodPut, path, movePayload{TimelinePosition: position}, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

// AnalyzeScene fetches the backend's overlap report for a scene. The report
// is a non-blocking warning surface, refreshed after every accepted move.
func (c *HTTPClient) AnalyzeScene(ctx context.Context, sceneID string) (*timeline.Report, error) {
	var report timeline.Report
	path := "/api/scenes/" + url.PathEscape(sceneID) + "/analysis"
	if err := c.do(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
