package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPClient is the real backend client. All requests carry the bearer
// token plus correlation headers; responses are classified into the typed
// error taxonomy before any payload decoding.
type HTTPClient struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// SetDeviceID attaches the agent's device identity to subsequent requests.
func (c *HTTPClient) SetDeviceID(id string) {
	c.deviceID = id
}

// do executes one JSON request. A nil out skips response decoding. Non-2xx
// statuses are mapped to ErrNotFound, ConflictError or APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Storyboard-Request-Id", uuid.NewString())
	if c.deviceID != "" {
		req.Header.Set("X-Storyboard-Device-Id", c.deviceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)

	case resp.StatusCode == http.StatusConflict:
		var detail conflictDetail
		if err := json.Unmarshal(respBody, &detail); err == nil && detail.Detail.Error != "" {
			return &ConflictError{
				Message:           detail.Detail.Error,
				SuggestedPosition: detail.Detail.SuggestedPosition,
			}
		}
		return &ConflictError{Message: string(respBody)}

	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}
