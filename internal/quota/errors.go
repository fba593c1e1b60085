package quota

import (
	"errors"
	"fmt"
)

// Admission errors. All of them map to HTTP 429 at the API boundary; the
// distinct sentinels exist so logs and tests can tell the layers apart.
var (
	// ErrAdmissionDenied is the base error every rejection wraps.
	ErrAdmissionDenied = errors.New("admission denied")

	// ErrDailyQuotaExceeded is returned when the authoritative persistent
	// daily quota (or the advisory in-memory counter) is exhausted.
	ErrDailyQuotaExceeded = fmt.Errorf("%w: daily quota exceeded", ErrAdmissionDenied)

	// ErrTooManyInFlight is returned when the caller already has the maximum
	// number of unfinished verification calls in the trailing window.
	ErrTooManyInFlight = fmt.Errorf("%w: too many concurrent requests", ErrAdmissionDenied)

	// ErrBurstLimited is returned when the per-user or per-IP sliding-window
	// burst limit rejects the request.
	ErrBurstLimited = fmt.Errorf("%w: too many requests, slow down", ErrAdmissionDenied)
)

// IsAdmissionDenied reports whether the error is any admission rejection.
func IsAdmissionDenied(err error) bool {
	return errors.Is(err, ErrAdmissionDenied)
}
