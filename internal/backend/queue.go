package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Generate submits one generation job for a single clip and returns the
// backend job id. Field validation is the caller's concern (jobs package);
// this is a pure transport call.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// GenerateBatch submits one call carrying the full clip set and shared
// parameters; the backend fans it out into N jobs and returns their ids.
func (c *HTTPClient) GenerateBatch(ctx context.Context, req BatchGenerateRequest) ([]string, error) {
	var resp batchGenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate/batch", req, &resp); err != nil {
		return nil, err
	}
	return resp.JobIDs, nil
}

// ListJobs fetches the current queue, optionally filtered by status.
func (c *HTTPClient) ListJobs(ctx context.Context, status string) ([]*Job, error) {
	path := "/api/queue"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp jobsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// RetryJob asks the backend for a new attempt of a failed or cancelled job.
// The original job is left untouched; the returned id is a new job.
func (c *HTTPClient) RetryJob(ctx context.Context, jobID string) (string, error) {
	var resp retryResponse
	path := "/api/queue/" + url.PathEscape(jobID) + "/retry"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// CancelJob requests cancellation of a pending or processing job. The
// resulting status is server-confirmed on the next poll.
func (c *HTTPClient) CancelJob(ctx context.Context, jobID string) error {
	path := "/api/queue/" + url.PathEscape(jobID) + "/cancel"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// DeleteJob removes a job record from the queue.
func (c *HTTPClient) DeleteJob(ctx context.Context, jobID string) error {
	path := "/api/queue/" + url.PathEscape(jobID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ClearJobs bulk-deletes every job currently in the given status and
// returns how many were removed.
func (c *HTTPClient) ClearJobs(ctx context.Context, status string) (int, error) {
	var resp clearResponse
	path := "/api/queue?status=" + url.QueryEscape(status)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// ListPoolItems searches the reusable artifact pool by free-text query and
// tag set.
func (c *HTTPClient) ListPoolItems(ctx context.Context, query string, tags []string) ([]*PoolItem, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}
	path := "/api/pool"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp poolResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
