package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuotaScope names an independent daily bucket in the persistent quota store.
type QuotaScope string

const (
	// QuotaScopeVision covers verify-food and compare-meal calls.
	QuotaScopeVision QuotaScope = "vision"

	// QuotaScopeNutrition covers nutrition estimates, which carry a much
	// smaller daily allowance than general vision calls.
	QuotaScopeNutrition QuotaScope = "nutrition"
)

// QuotaRecord is the authoritative per-user daily usage record. It is keyed
// by (user, scope, day) in the persistent store, which must support an atomic
// increment-if-under-limit so that concurrent requests for the same user
// cannot both be admitted past the limit.
type QuotaRecord struct {
	UserID        uuid.UUID  `json:"user_id"`
	Scope         QuotaScope `json:"scope"`
	Count         int        `json:"count"`
	WindowResetAt time.Time  `json:"window_reset_at"`
}
