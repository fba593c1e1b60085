package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/domain"
)

// DailyQuotaStore is the persistence boundary for the authoritative daily
// quota. Implementations must make ConsumeIfUnder atomic: two concurrent
// calls for the same (user, scope, day) must never both be admitted when only
// one slot remains.
type DailyQuotaStore interface {
	// ConsumeIfUnder increments the usage counter for the given key if the
	// current count is below limit, returning whether the request was
	// admitted. The day parameter identifies the UTC day bucket.
	ConsumeIfUnder(
		ctx context.Context,
		userID uuid.UUID,
		scope domain.QuotaScope,
		day time.Time,
		limit int,
	) (bool, error)

	// Get returns the current record for the given key, or nil when the user
	// has no usage recorded for that day.
	Get(
		ctx context.Context,
		userID uuid.UUID,
		scope domain.QuotaScope,
		day time.Time,
	) (*domain.QuotaRecord, error)
}
