package zru

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

var (
	// ErrInvalidRequest is returned when the API rejects the request data (HTTP 400).
	ErrInvalidRequest = errors.New("zru: invalid request")
	// ErrNotFound is returned when the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("zru: resource not found")
	// ErrUnauthorized is returned when the key or secret is rejected (HTTP 401/403).
	ErrUnauthorized = errors.New("zru: unauthorized")
	// ErrMissingID is returned before any request when an item call has no id.
	ErrMissingID = errors.New("zru: missing resource id")
)

// APIError is a non-2xx answer from the API. It unwraps to the sentinel
// matching its status code, so errors.Is(err, ErrNotFound) works.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zru: %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}

// isRetryable reports whether a failed call may succeed if sent again:
// server errors, timeouts and refused or reset connections.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
