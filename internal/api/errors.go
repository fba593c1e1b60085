package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mealgate/mealgate-api/internal/quota"
	"github.com/mealgate/mealgate-api/internal/service/auth"
	"github.com/mealgate/mealgate-api/internal/storage"
	"github.com/mealgate/mealgate-api/internal/vision"
)

// Request-stage errors raised by the handlers themselves.
var (
	// ErrNotOwner is returned when a storage key does not belong to the
	// authenticated caller.
	ErrNotOwner = errors.New("storage key not owned by caller")

	// ErrPayloadTooLarge is returned when an image exceeds the upload cap.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnsupportedMedia is returned when an image is not a JPEG.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMalformedToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound

	// Payload errors
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType

	// Admission control: all four layers collapse to 429
	case quota.IsAdmissionDenied(err):
		return http.StatusTooManyRequests

	// Upload token errors
	case errors.Is(err, storage.ErrTokenExpired),
		errors.Is(err, storage.ErrTokenInvalid):
		return http.StatusForbidden

	// Model provider errors. Everything the verifier can fail with is an
	// upstream problem from the client's point of view.
	case errors.Is(err, vision.ErrUpstreamFailure),
		errors.Is(err, vision.ErrInvalidResponse),
		errors.Is(err, vision.ErrContentBlocked),
		errors.Is(err, vision.ErrTransientFailure):
		return http.StatusBadGateway

	// Default: unexpected errors collapse to 502 rather than leaking
	// internals as a 500 stack.
	default:
		return http.StatusBadGateway
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMalformedToken):
		return "Invalid token"

	case errors.Is(err, ErrNotOwner):
		return "You do not own this image"

	case errors.Is(err, storage.ErrObjectNotFound):
		return "Image not found"

	case errors.Is(err, ErrPayloadTooLarge):
		return "Image exceeds the 5 MB limit"

	case errors.Is(err, ErrUnsupportedMedia):
		return "Only JPEG images are accepted"

	case errors.Is(err, quota.ErrDailyQuotaExceeded):
		return "Daily limit reached. Try again tomorrow."

	case errors.Is(err, quota.ErrTooManyInFlight),
		errors.Is(err, quota.ErrBurstLimited):
		return "Too many requests. Slow down."

	case errors.Is(err, storage.ErrTokenExpired):
		return "Upload token expired"

	case errors.Is(err, storage.ErrTokenInvalid):
		return "Upload token invalid"

	case errors.Is(err, vision.ErrInvalidResponse),
		errors.Is(err, vision.ErrUpstreamFailure),
		errors.Is(err, vision.ErrContentBlocked),
		errors.Is(err, vision.ErrTransientFailure):
		return "AI error"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'VerifyFoodRequest.Key' Error:Field validation
		// for 'Key' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
