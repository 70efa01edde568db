package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_UpdateClipPosition_Success(t *testing.T) {
	var receivedAuth string
	var receivedBody movePayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clips/clip-1/position" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method: %s", r.Method)
		}

		receivedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &receivedBody)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "clip-1", "scene_id": "s1", "timeline_position": 5.0, "length": 3.0,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	clip, err := client.UpdateClipPosition(context.Background(), "clip-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want %q", receivedAuth, "Bearer test-token")
	}
	if receivedBody.TimelinePosition != 5 {
		t.Errorf("timeline_position = %v, want 5", receivedBody.TimelinePosition)
	}
	if clip.TimelinePosition != 5 {
		t.Errorf("clip position = %v, want 5", clip.TimelinePosition)
	}
}

func TestHTTPClient_UpdateClipPosition_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":{"error":"position overlaps with another clip","suggested_position":5.0}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	_, err := client.UpdateClipPosition(context.Background(), "clip-2", 2)
	if err == nil {
		t.Fatal("expected conflict error")
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if conflict.SuggestedPosition == nil || *conflict.SuggestedPosition != 5 {
		t.Fatalf("suggested_position = %v, want 5", conflict.SuggestedPosition)
	}
}

func TestHTTPClient_UpdateClipPosition_ConflictWithoutSuggestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":{"error":"position overlaps with another clip","suggested_position":null}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	_, err := client.UpdateClipPosition(context.Background(), "clip-2", 2)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if conflict.SuggestedPosition != nil {
		t.Fatalf("suggested_position = %v, want nil", *conflict.SuggestedPosition)
	}
}

func TestHTTPClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"clip not found"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	_, err := client.UpdateClipPosition(context.Background(), "gone", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClient_ServerError_IsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	_, err := client.ListJobs(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if !apiErr.IsRetryable() {
		t.Error("expected 5xx error to be retryable")
	}

	if (&APIError{StatusCode: http.StatusBadRequest}).IsRetryable() {
		t.Error("expected 4xx error to be permanent")
	}
}

func TestHTTPClient_GenerateBatch(t *testing.T) {
	var received BatchGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate/batch" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(batchGenerateResponse{JobIDs: []string{"j1", "j2", "j3"}})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	ids, err := client.GenerateBatch(context.Background(), BatchGenerateRequest{
		ClipIDs:        []string{"c1", "c2", "c3"},
		GenerationType: GenerationImage,
		Model:          "sdxl",
		Prompt:         "sunset",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("job ids = %d, want 3", len(ids))
	}
	if len(received.ClipIDs) != 3 || received.Prompt != "sunset" {
		t.Errorf("received batch = %+v, want 3 clips with prompt sunset", received)
	}
}

func TestHTTPClient_ClearJobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.URL.Query().Get("status"); got != "completed" {
			t.Errorf("status = %q, want completed", got)
		}
		json.NewEncoder(w).Encode(clearResponse{Deleted: 4})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	deleted, err := client.ClearJobs(context.Background(), "completed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 4 {
		t.Errorf("deleted = %d, want 4", deleted)
	}
}

func TestHTTPClient_SendsCorrelationHeaders(t *testing.T) {
	var requestID, deviceID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Storyboard-Request-Id")
		deviceID = r.Header.Get("X-Storyboard-Device-Id")
		json.NewEncoder(w).Encode(jobsResponse{})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())
	client.SetDeviceID("device-123")

	if _, err := client.ListJobs(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requestID == "" {
		t.Error("expected X-Storyboard-Request-Id header")
	}
	if deviceID != "device-123" {
		t.Errorf("device_id_header = %q, want %q", deviceID, "device-123")
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobsResponse{})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.ListJobs(ctx, ""); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHTTPClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*HTTPClient)(nil)
}

func TestStubClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*StubClient)(nil)
}

func TestStubClient_MoveConflictContract(t *testing.T) {
	stub := NewStubClient(testLogger())

	// clip-2 (length 3) proposed at 2 collides with clip-1 occupying [0,5)
	_, err := stub.UpdateClipPosition(context.Background(), "clip-2", 2)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.SuggestedPosition == nil || *conflict.SuggestedPosition != 5 {
		t.Fatalf("suggested_position = %v, want 5", conflict.SuggestedPosition)
	}

	clip, err := stub.UpdateClipPosition(context.Background(), "clip-2", *conflict.SuggestedPosition)
	if err != nil {
		t.Fatalf("retry at suggested position failed: %v", err)
	}
	if clip.TimelinePosition != 5 {
		t.Errorf("clip position = %v, want 5", clip.TimelinePosition)
	}
}
