package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrInvalidMealType is returned when a meal type is not one of the
	// known values.
	ErrInvalidMealType = errors.New("invalid meal type")

	// ErrInvalidSessionStatus is returned when a status is not one of the
	// known values.
	ErrInvalidSessionStatus = errors.New("invalid session status")

	// ErrSessionAlreadyEnded is returned when attempting to end or mutate a
	// session that has already reached a terminal status.
	ErrSessionAlreadyEnded = errors.New("session has already ended")
)

// MinMealDuration is the minimum time a meal session must run before it can
// be ended by the "finish eating" action. This is a UX/business gate rather
// than a security control; it is evaluated from StartedAt on the device.
const MinMealDuration = 5 * time.Minute

// SessionStatus describes where a meal session is in its lifecycle. A session
// is created ACTIVE and moves to exactly one terminal status, never backward.
type SessionStatus string

const (
	SessionActive     SessionStatus = "ACTIVE"
	SessionVerified   SessionStatus = "VERIFIED"
	SessionPartial    SessionStatus = "PARTIAL"
	SessionFailed     SessionStatus = "FAILED"
	SessionIncomplete SessionStatus = "INCOMPLETE"
)

// IsValid reports whether the status is one of the known values.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionActive, SessionVerified, SessionPartial, SessionFailed, SessionIncomplete:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends a session's lifecycle.
func (s SessionStatus) IsTerminal() bool {
	return s.IsValid() && s != SessionActive
}

// MealType labels which meal a session covers.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// IsValid reports whether the meal type is one of the known values.
func (m MealType) IsValid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// SessionVerification collects the vision results gathered over a session's
// lifetime. Fields are nil until the corresponding call has succeeded.
type SessionVerification struct {
	PreCheck      *FoodCheckResult `json:"preCheck,omitempty"`
	PostCheck     *FoodCheckResult `json:"postCheck,omitempty"`
	CompareResult *CompareResult   `json:"compareResult,omitempty"`
}

// MealSession is one before-photo → blocking window → after-photo → verdict
// cycle for one meal. At most one session per user is ACTIVE at a time.
// BlockedApps is an immutable snapshot of the block-list taken at start.
type MealSession struct {
	ID           uuid.UUID           `json:"id"`
	StartedAt    time.Time           `json:"startedAt"`
	EndedAt      *time.Time          `json:"endedAt,omitempty"`
	MealType     MealType            `json:"mealType"`
	Strict       bool                `json:"strict"`
	PreImageKey  string              `json:"preImageKey,omitempty"`
	PostImageKey string              `json:"postImageKey,omitempty"`
	Verification SessionVerification `json:"verification"`
	Status       SessionStatus       `json:"status"`
	OverrideUsed bool                `json:"overrideUsed"`
	BlockedApps  []string            `json:"blockedAppsAtTime"`
}

// NewMealSession creates an ACTIVE session for the given meal, snapshotting
// the current block-list. Returns an error if validation fails.
func NewMealSession(mealType MealType, strict bool, blockedApps []string, now time.Time) (*MealSession, error) {
	if !mealType.IsValid() {
		return nil, ErrInvalidMealType
	}

	// Copy the block-list so later edits to the caller's slice cannot leak
	// into the snapshot.
	apps := make([]string, len(blockedApps))
	copy(apps, blockedApps)

	return &MealSession{
		ID:          uuid.New(),
		StartedAt:   now,
		MealType:    mealType,
		Strict:      strict,
		Status:      SessionActive,
		BlockedApps: apps,
	}, nil
}

// End finalizes the session with the given terminal status, stamping EndedAt.
// Ending an already-ended session is an error; the status transition is
// one-way.
func (s *MealSession) End(status SessionStatus, now time.Time) error {
	if s.Status.IsTerminal() {
		return ErrSessionAlreadyEnded
	}
	if !status.IsTerminal() {
		return ErrInvalidSessionStatus
	}

	ended := now
	s.EndedAt = &ended
	s.Status = status
	return nil
}

// CanFinishEating reports whether enough time has passed since the session
// started for the "finish eating" action to be allowed.
func (s *MealSession) CanFinishEating(now time.Time) bool {
	return now.Sub(s.StartedAt) >= MinMealDuration
}

// Validate checks the session's invariants.
func (s *MealSession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}
	if !s.MealType.IsValid() {
		return ErrInvalidMealType
	}
	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}
	return nil
}
