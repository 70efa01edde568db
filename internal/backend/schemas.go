package backend

import "time"

// Generation types and job statuses as reported by the backend queue.
const (
	GenerationImage = "image"
	GenerationVideo = "video"

	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"

	ProviderComfyUI = "comfyui"
)

// IsTerminal reports whether a job status admits no further server-driven
// transitions. Only an explicit retry, which creates a new job, can produce
// progress past a terminal status.
func IsTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Job is one generation job as reported by the backend queue. The agent
// never mutates a job's status locally; the server is authoritative.
type Job struct {
	ID             string         `json:"id"`
	GenerationType string         `json:"generation_type"`
	Status         string         `json:"status"`
	ClipIDs        []string       `json:"clip_ids,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// GenerateRequest submits one generation for a single clip. ServerOnline is
// the caller's last known reachability of the selected ComfyUI server; it is
// part of the request so validation can fail fast without a round trip.
type GenerateRequest struct {
	ClipID         string         `json:"clip_id"`
	GenerationType string         `json:"generation_type"`
	Provider       string         `json:"provider,omitempty"`
	Server         string         `json:"server,omitempty"`
	ServerOnline   bool           `json:"server_online,omitempty"`
	Model          string         `json:"model"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
}

// BatchGenerateRequest submits one generation for N clips with shared
// parameters. The backend fans it out server-side; the agent only
// correlates the returned job ids.
type BatchGenerateRequest struct {
	ClipIDs        []string       `json:"clip_ids"`
	GenerationType string         `json:"generation_type"`
	Provider       string         `json:"provider,omitempty"`
	Server         string         `json:"server,omitempty"`
	ServerOnline   bool           `json:"server_online,omitempty"`
	Model          string         `json:"model"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
}

// PoolItem is a tagged, reusable generated artifact independent of any clip.
type PoolItem struct {
	ID          string   `json:"id"`
	ContentType string   `json:"content_type"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SourceType  string   `json:"source_type,omitempty"`
}

type generateResponse struct {
	JobID string `json:"job_id"`
}

type batchGenerateResponse struct {
	JobIDs []string `json:"job_ids"`
}

type jobsResponse struct {
	Jobs []*Job `json:"jobs"`
}

type retryResponse struct {
	JobID string `json:"job_id"`
}

type clearResponse struct {
	Deleted int `json:"deleted"`
}

type poolResponse struct {
	Items []*PoolItem `json:"items"`
}

// conflictDetail matches the backend's 409 body:
// {"detail": {"error": "...", "suggested_position": 5.0}}
type conflictDetail struct {
	Detail struct {
		Error             string   `json:"error"`
		SuggestedPosition *float64 `json:"suggested_position"`
	} `json:"detail"`
}

type movePayload struct {
	TimelinePosition float64 `json:"timeline_position"`
}
