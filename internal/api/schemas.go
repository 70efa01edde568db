package api

import (
	"time"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State      string         `json:"state"`
	ProjectID  string         `json:"project_id,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	JobCounts  map[string]int `json:"job_counts"`
	JobsActive int            `json:"jobs_active"`
	Polling    bool           `json:"polling"`
}

type ScenesResponse struct {
	Scenes        []*timeline.Scene `json:"scenes"`
	TotalDuration float64           `json:"total_duration"`
}

type ClipsResponse struct {
	Clips []*timeline.Clip `json:"clips"`
}

type MoveRequest struct {
	SceneID          string  `json:"scene_id"`
	TimelinePosition float64 `json:"timeline_position"`
	AcceptSuggestion bool    `json:"accept_suggestion"`
}

type MoveResponse struct {
	Status            string           `json:"status"`
	Clip              *timeline.Clip   `json:"clip,omitempty"`
	Report            *timeline.Report `json:"report,omitempty"`
	Retried           bool             `json:"retried,omitempty"`
	Conflict          string           `json:"conflict,omitempty"`
	SuggestedPosition *float64         `json:"suggested_position,omitempty"`
	Clips             []*timeline.Clip `json:"clips,omitempty"`
}

type GenerateResponse struct {
	JobID string `json:"job_id"`
}

type BatchGenerateResponse struct {
	BatchID string   `json:"batch_id"`
	JobIDs  []string `json:"job_ids"`
}

type JobResponse struct {
	ID             string         `json:"id"`
	GenerationType string         `json:"generation_type"`
	Status         string         `json:"status"`
	ClipIDs        []string       `json:"clip_ids,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      string         `json:"created_at"`
	CompletedAt    string         `json:"completed_at,omitempty"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}

type PoolResponse struct {
	Items []*backend.PoolItem `json:"items"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func JobToResponse(j *backend.Job) JobResponse {
	resp := JobResponse{
		ID:             j.ID,
		GenerationType: j.GenerationType,
		Status:         j.Status,
		ClipIDs:        j.ClipIDs,
		Params:         j.Params,
		Error:          j.Error,
		CreatedAt:      j.CreatedAt.Format(time.RFC3339),
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
