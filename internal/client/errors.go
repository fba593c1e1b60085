// Package client is the device-side SDK: it uploads meal photos through the
// signed-upload handshake, calls the verification endpoints, and drives the
// meal-session lifecycle off the verdicts.
package client

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by this package wraps exactly one of
// these, so callers can branch with errors.Is and decide whether a retry
// affordance makes sense.
var (
	// ErrClient covers validation, auth, ownership, payload-too-large and
	// unsupported-media failures. Never retried automatically.
	ErrClient = errors.New("client error")

	// ErrRateLimited is a 429 from the admission engine. Surfaced to the user
	// as "slow down / daily limit"; never retried automatically.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream is a 502 from the model provider or a malformed model
	// response. Safe to retry, bounded.
	ErrUpstream = errors.New("upstream error")

	// ErrNotFound means the referenced image expired or was never uploaded.
	// Not retried; the user must recapture.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is a call that exceeded its deadline. Treated as transient,
	// same retry policy as ErrUpstream.
	ErrTimeout = errors.New("timeout")
)

// Upload pre-check failures, both client errors.
var (
	// ErrTooLarge is returned before any network call when the photo exceeds
	// the upload cap.
	ErrTooLarge = fmt.Errorf("%w: image exceeds the 5 MB limit", ErrClient)

	// ErrUnsupportedMediaType is returned when the photo is not a JPEG.
	ErrUnsupportedMediaType = fmt.Errorf("%w: only JPEG images are supported", ErrClient)

	// ErrUnauthorized is a 401 that survived the single token refresh.
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrClient)
)

// APIError is a failure response from the server, tagged with its kind.
type APIError struct {
	kind       error
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.kind, e.StatusCode)
}

// Unwrap exposes the error kind so errors.Is works against the sentinels.
func (e *APIError) Unwrap() error {
	return e.kind
}

// Retryable reports whether a bounded retry is a reasonable reaction to err.
// Only transient failures qualify; business rejections never do.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstream) || errors.Is(err, ErrTimeout)
}
