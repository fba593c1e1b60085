package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/redact"
)

// Limits carries the configured admission limits for one engine instance.
type Limits struct {
	// Daily is the authoritative per-user daily limit per scope, enforced by
	// the persistent store.
	Daily map[domain.QuotaScope]int

	// AdvisoryDaily is the per-process secondary daily limit per scope.
	AdvisoryDaily map[domain.QuotaScope]int

	// UserBurst / IPBurst / BurstWindow configure the sliding-window
	// limiters. The IP limit sits above the user limit because several users
	// can legitimately share an IP.
	UserBurst   int
	IPBurst     int
	BurstWindow time.Duration

	// MaxConcurrent / ConcurrentWindow configure the in-flight limiter.
	MaxConcurrent    int
	ConcurrentWindow time.Duration
}

// Engine runs the four admission checks in cheap-to-expensive order. See the
// package comment for the layering and authority model.
type Engine struct {
	store      DailyQuotaStore
	advisory   *AdvisoryCounter
	concurrent *ConcurrentLimiter
	burstUser  *BurstLimiter
	burstIP    *BurstLimiter
	limits     Limits
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates an admission-control engine. The store is the single
// authoritative layer; everything else is per-process. Pass nil for now to
// use time.Now.
func NewEngine(store DailyQuotaStore, limits Limits, logger *slog.Logger, now func() time.Time) *Engine {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Engine")
	}
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:      store,
		advisory:   NewAdvisoryCounter(now),
		concurrent: NewConcurrentLimiter(limits.MaxConcurrent, limits.ConcurrentWindow, now),
		burstUser:  NewBurstLimiter(limits.UserBurst, limits.BurstWindow, now),
		burstIP:    NewBurstLimiter(limits.IPBurst, limits.BurstWindow, now),
		limits:     limits,
		logger:     logger.With(slog.String("component", "quota_engine")),
		now:        now,
	}
}

// Admit runs all checks for one verification request. On success it returns
// a release function that the caller must invoke when the request finishes
// (success or failure) to free the in-flight slot. On rejection the error is
// one of the admission sentinels and no state is leaked.
func (e *Engine) Admit(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	clientIP string,
) (func(), error) {
	now := e.now().UTC()
	day := now.Truncate(24 * time.Hour)
	resetAt := day.Add(24 * time.Hour)

	// Layer 1: persistent daily quota. Authoritative, atomic, cross-instance.
	// A store failure fails open: blocking every user on an infrastructure
	// hiccup is worse than briefly trusting the advisory layers below.
	limit := e.limits.Daily[scope]
	admitted, err := e.store.ConsumeIfUnder(ctx, userID, scope, day, limit)
	if err != nil {
		e.logger.Warn("persistent quota check failed, failing open",
			slog.String("user_id", userID.String()),
			slog.String("scope", string(scope)),
			slog.String("error", redact.Error(err)))
	} else if !admitted {
		return nil, fmt.Errorf("%w: %s limit of %d per day", ErrDailyQuotaExceeded, scope, limit)
	}

	userKey := userID.String() + "|" + string(scope)

	// Layer 2: advisory in-memory counter. Non-authoritative by design.
	advisoryLimit := e.limits.AdvisoryDaily[scope]
	if !e.advisory.Allow(userKey, advisoryLimit, resetAt) {
		return nil, fmt.Errorf("%w: %s limit of %d per day", ErrDailyQuotaExceeded, scope, advisoryLimit)
	}

	// Layer 3: concurrent-active cap.
	release, ok := e.concurrent.Acquire(userID.String())
	if !ok {
		return nil, ErrTooManyInFlight
	}

	// Layer 4: burst windows, user first then IP. A burst rejection must
	// give back the in-flight slot claimed above.
	if !e.burstUser.Allow(userID.String()) {
		release()
		return nil, ErrBurstLimited
	}
	if !e.burstIP.Allow(clientIP) {
		release()
		return nil, ErrBurstLimited
	}

	return release, nil
}

// Remaining reports how many authoritative daily slots the user has left in
// the given scope. Store failures surface as an error here (unlike Admit,
// nothing needs to fail open for a read-only report).
func (e *Engine) Remaining(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
) (int, error) {
	day := e.now().UTC().Truncate(24 * time.Hour)

	record, err := e.store.Get(ctx, userID, scope, day)
	if err != nil {
		return 0, fmt.Errorf("failed to read quota record: %w", err)
	}

	limit := e.limits.Daily[scope]
	if record == nil {
		return limit, nil
	}

	remaining := limit - record.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
