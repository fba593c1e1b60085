package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/quota"
)

// QuotaStore implements the quota.DailyQuotaStore interface using a
// PostgreSQL database as the storage backend.
//
// This is the only authoritative admission-control layer: the conditional
// upsert below is a single statement, so two concurrent requests for the same
// (user, scope, day) can never both consume the last remaining slot — one of
// them sees the incremented count and is rejected. The in-process limiters in
// the quota package carry no such guarantee.
type QuotaStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewQuotaStore creates a new PostgreSQL implementation of the
// DailyQuotaStore interface. It accepts a database connection that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewQuotaStore(db *sql.DB, logger *slog.Logger) *QuotaStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for QuotaStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuotaStore{
		db:     db,
		logger: logger.With(slog.String("component", "quota_store")),
	}
}

// Ensure QuotaStore implements quota.DailyQuotaStore interface
var _ quota.DailyQuotaStore = (*QuotaStore)(nil)

// ConsumeIfUnder implements quota.DailyQuotaStore.ConsumeIfUnder.
//
// The insert covers a user's first request of the day; on conflict the count
// is bumped only while it is still under the limit. Zero rows affected means
// the quota is exhausted.
func (s *QuotaStore) ConsumeIfUnder(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	day time.Time,
	limit int,
) (bool, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	resetAt := day.Add(24 * time.Hour)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quota_records (user_id, scope, day, count, window_reset_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (user_id, scope, day)
		DO UPDATE SET count = quota_records.count + 1
		WHERE quota_records.count < $5`,
		userID, string(scope), day, resetAt, limit,
	)
	if err != nil {
		return false, fmt.Errorf("failed to consume quota: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read quota result: %w", err)
	}

	return affected > 0, nil
}

// Get implements quota.DailyQuotaStore.Get. Returns nil (no error) when the
// user has no usage recorded for that day.
func (s *QuotaStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	day time.Time,
) (*domain.QuotaRecord, error) {
	day = day.UTC().Truncate(24 * time.Hour)

	record := domain.QuotaRecord{
		UserID: userID,
		Scope:  scope,
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT count, window_reset_at
		FROM quota_records
		WHERE user_id = $1 AND scope = $2 AND day = $3`,
		userID, string(scope), day,
	).Scan(&record.Count, &record.WindowResetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quota record: %w", err)
	}

	return &record, nil
}
