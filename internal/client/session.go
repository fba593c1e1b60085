package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// Session lifecycle errors
var (
	// ErrSessionActive is returned when starting a session while one is
	// already active. The active session is never silently replaced.
	ErrSessionActive = errors.New("a meal session is already active")

	// ErrNoActiveSession is returned when an operation requires an active
	// session and none exists.
	ErrNoActiveSession = errors.New("no active meal session")

	// ErrMealTooShort is returned when the finish-eating action fires before
	// the minimum meal duration has passed.
	ErrMealTooShort = errors.New("meal has not run long enough to finish")
)

// SessionPatch is a shallow merge-patch against the active session. Nil
// fields are left untouched.
type SessionPatch struct {
	PreImageKey   *string
	PostImageKey  *string
	PreCheck      *domain.FoodCheckResult
	PostCheck     *domain.FoodCheckResult
	CompareResult *domain.CompareResult
	OverrideUsed  *bool
}

// BlockListSource supplies the current block-list. The controller snapshots
// it into each session at start; later edits never affect a running session.
type BlockListSource func() []string

// SessionController owns the device's single active meal session and advances
// it through its lifecycle using VisionGateway results.
type SessionController struct {
	store     SessionStore
	gateway   VisionGateway
	uploads   *UploadPipeline
	blockList BlockListSource
	now       func() time.Time
	logger    *slog.Logger
}

// NewSessionController creates a controller. Pass nil for now to use
// time.Now; pass nil for blockList to snapshot an empty list.
func NewSessionController(
	store SessionStore,
	gateway VisionGateway,
	uploads *UploadPipeline,
	blockList BlockListSource,
	now func() time.Time,
	logger *slog.Logger,
) *SessionController {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionController")
	}
	if now == nil {
		now = time.Now
	}
	if blockList == nil {
		blockList = func() []string { return nil }
	}

	return &SessionController{
		store:     store,
		gateway:   gateway,
		uploads:   uploads,
		blockList: blockList,
		now:       now,
		logger:    logger.With(slog.String("component", "session_controller")),
	}
}

// StartSession creates the active session for a meal. It fails with
// ErrSessionActive if one already exists. preImageKey and preCheck may carry
// results from calls made before the session formally started.
func (c *SessionController) StartSession(
	ctx context.Context,
	mealType domain.MealType,
	strict bool,
	preImageKey string,
	preCheck *domain.FoodCheckResult,
) (*domain.MealSession, error) {
	active, err := c.store.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	if active != nil {
		return nil, ErrSessionActive
	}

	session, err := domain.NewMealSession(mealType, strict, c.blockList(), c.now())
	if err != nil {
		return nil, err
	}
	session.PreImageKey = preImageKey
	session.Verification.PreCheck = preCheck

	if err := c.store.SaveActive(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	c.logger.Debug("session started",
		slog.String("session_id", session.ID.String()),
		slog.String("meal_type", string(mealType)),
		slog.Int("blocked_apps", len(session.BlockedApps)))
	return session, nil
}

// UpdateActive applies a merge-patch to the active session and persists it.
// Unlike EndSession, calling this with no active session is an error: a patch
// has nowhere to land.
func (c *SessionController) UpdateActive(ctx context.Context, patch SessionPatch) (*domain.MealSession, error) {
	session, err := c.store.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	if patch.PreImageKey != nil {
		session.PreImageKey = *patch.PreImageKey
	}
	if patch.PostImageKey != nil {
		session.PostImageKey = *patch.PostImageKey
	}
	if patch.PreCheck != nil {
		session.Verification.PreCheck = patch.PreCheck
	}
	if patch.PostCheck != nil {
		session.Verification.PostCheck = patch.PostCheck
	}
	if patch.CompareResult != nil {
		session.Verification.CompareResult = patch.CompareResult
	}
	if patch.OverrideUsed != nil {
		session.OverrideUsed = *patch.OverrideUsed
	}

	if err := c.store.SaveActive(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// EndSession finalizes the active session with the given terminal status,
// appends it to history and clears the active slot. A call with no active
// session is a no-op.
func (c *SessionController) EndSession(ctx context.Context, status domain.SessionStatus) error {
	session, err := c.store.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active session: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := session.End(status, c.now()); err != nil {
		return err
	}

	if err := c.store.AppendHistory(ctx, *session); err != nil {
		return fmt.Errorf("failed to append session history: %w", err)
	}
	if err := c.store.ClearActive(ctx); err != nil {
		return fmt.Errorf("failed to clear active session: %w", err)
	}

	c.logger.Debug("session ended",
		slog.String("session_id", session.ID.String()),
		slog.String("status", string(status)))
	return nil
}

// FinishEating runs the end-of-meal flow: enforce the minimum duration,
// upload the after photo, compare it against the before photo, and end the
// session with the status mapped from the verdict. A nutrition estimate is
// attempted on the after photo but never blocks the outcome.
func (c *SessionController) FinishEating(ctx context.Context, afterPhoto []byte) (*domain.MealSession, error) {
	session, err := c.store.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	if !session.CanFinishEating(c.now()) {
		remaining := domain.MinMealDuration - c.now().Sub(session.StartedAt)
		return nil, fmt.Errorf("%w: %s remaining", ErrMealTooShort, remaining.Round(time.Second))
	}

	postKey, err := c.uploads.Upload(ctx, "after", afterPhoto, "")
	if err != nil {
		return nil, err
	}

	compare, err := c.gateway.CompareMeal(ctx, session.PreImageKey, postKey)
	if err != nil {
		return nil, err
	}

	session, err = c.UpdateActive(ctx, SessionPatch{
		PostImageKey:  &postKey,
		CompareResult: compare,
	})
	if err != nil {
		return nil, err
	}

	if estimate := c.gateway.EstimateNutrition(ctx, postKey); estimate != nil {
		c.logger.Debug("nutrition estimate attached",
			slog.Int("calories_min", estimate.CaloriesMin),
			slog.Int("calories_max", estimate.CaloriesMax))
	}

	status := domain.StatusForVerdict(compare.Verdict)
	if err := c.EndSession(ctx, status); err != nil {
		return nil, err
	}

	session.Status = status
	ended := c.now()
	session.EndedAt = &ended
	return session, nil
}
