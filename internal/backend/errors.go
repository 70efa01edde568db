package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a clip or job that no longer exists server-side.
// Callers treat it as "refresh and drop", not as a fatal failure.
var ErrNotFound = errors.New("resource not found")

// ValidationError is a local fast-fail raised before any network call when
// a required field is missing. It is never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ConflictError is the structured rejection of a clip move: the proposed
// position overlaps another clip. SuggestedPosition, when present, is a
// server-computed non-overlapping remediation.
type ConflictError struct {
	Message           string
	SuggestedPosition *float64
}

func (e *ConflictError) Error() string {
	if e.SuggestedPosition != nil {
		return fmt.Sprintf("position conflict: %s (suggested %.3f)", e.Message, *e.SuggestedPosition)
	}
	return "position conflict: " + e.Message
}

// APIError represents any other non-2xx backend response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx)
// are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}
