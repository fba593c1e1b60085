package vision

import "errors"

// Common errors returned by the vision package
var (
	// ErrUpstreamFailure is returned when the model provider responds with a
	// non-success status or an otherwise failed call
	ErrUpstreamFailure = errors.New("vision model call failed")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed against the declared schema or contains no text payload
	ErrInvalidResponse = errors.New("invalid response from vision model")

	// ErrContentBlocked is returned when the model blocks the content due to
	// safety filters
	ErrContentBlocked = errors.New("content blocked by vision model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry
	ErrTransientFailure = errors.New("transient error during vision call")

	// ErrInvalidConfig is returned when the verifier configuration is invalid
	ErrInvalidConfig = errors.New("invalid verifier configuration")
)
