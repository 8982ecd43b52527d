package client

import (
	"errors"
	"fmt"
)

// Configuration errors returned by New before any network activity.
var (
	// ErrMissingToken is returned when no API token is configured.
	ErrMissingToken = errors.New("api token is required")

	// ErrMissingTenant is returned when no tenant identifier is configured.
	ErrMissingTenant = errors.New("tenant id is required")
)

// APIError is a non-success, non-rate-limit response from the API. It
// is surfaced immediately and never retried by this layer.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("inventory api error (status %d): %s", e.StatusCode, e.Body)
}

// RateLimitError is an explicit rate-limit rejection that survived all
// retry attempts. It carries the final rejection's status and body.
type RateLimitError struct {
	StatusCode int
	Body       string
	Attempts   int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts (status %d): %s",
		e.Attempts, e.StatusCode, e.Body)
}

// DecodeError is a successful response whose body could not be decoded
// as expected. The transport succeeded but the contract was violated,
// so this is distinct from APIError.
type DecodeError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
