package mp

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned by NewClient without an API key.
	ErrMissingAPIKey = errors.New("mp: missing API key")
	// ErrSessionClosed is returned by queries on a closed session.
	ErrSessionClosed = errors.New("mp: session closed")
	// ErrNoResult is returned when the API has no document for an entry.
	ErrNoResult = errors.New("mp: no result")
)

// APIError is a non-2xx response or a response flagged invalid by the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mp: api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("mp: api error (status %d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the query may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// MalformedError is a response that does not have the expected shape.
type MalformedError struct {
	Property string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("mp: malformed %s: %v", e.Property, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
