package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// fakeQuotaStore is an in-memory DailyQuotaStore with the same atomic
// semantics the postgres implementation provides, plus a switch to simulate
// infrastructure failure.
type fakeQuotaStore struct {
	counts map[string]int
	fail   bool
}

func newFakeQuotaStore() *fakeQuotaStore {
	return &fakeQuotaStore{counts: make(map[string]int)}
}

func (s *fakeQuotaStore) key(userID uuid.UUID, scope domain.QuotaScope, day time.Time) string {
	return userID.String() + "|" + string(scope) + "|" + day.Format("2006-01-02")
}

func (s *fakeQuotaStore) ConsumeIfUnder(
	_ context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	day time.Time,
	limit int,
) (bool, error) {
	if s.fail {
		return false, errors.New("store unavailable")
	}
	k := s.key(userID, scope, day)
	if s.counts[k] >= limit {
		return false, nil
	}
	s.counts[k]++
	return true, nil
}

func (s *fakeQuotaStore) Get(
	_ context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	day time.Time,
) (*domain.QuotaRecord, error) {
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	k := s.key(userID, scope, day)
	count, ok := s.counts[k]
	if !ok {
		return nil, nil
	}
	return &domain.QuotaRecord{
		UserID:        userID,
		Scope:         scope,
		Count:         count,
		WindowResetAt: day.Add(24 * time.Hour),
	}, nil
}

func testLimits() Limits {
	return Limits{
		Daily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    40,
			domain.QuotaScopeNutrition: 10,
		},
		AdvisoryDaily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    40,
			domain.QuotaScopeNutrition: 10,
		},
		UserBurst:        6,
		IPBurst:          20,
		BurstWindow:      time.Minute,
		MaxConcurrent:    3,
		ConcurrentWindow: time.Minute,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineAdmitsAndReleases(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := NewEngine(newFakeQuotaStore(), testLimits(), testLogger(), clock.Now)

	release, err := engine.Admit(context.Background(), uuid.New(), domain.QuotaScopeVision, "10.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}

// TestEngineDailyQuotaMonotonicity checks the headline property: across a
// day, the number of admitted requests never exceeds the configured limit,
// regardless of arrival pattern.
func TestEngineDailyQuotaMonotonicity(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.Daily[domain.QuotaScopeNutrition] = 10
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	userID := uuid.New()
	admitted := 0
	// Spread 30 attempts across the same day, well under every burst and
	// concurrency limit, so only the daily quota can reject.
	for i := 0; i < 30; i++ {
		release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeNutrition, "10.0.0.1")
		if err == nil {
			admitted++
			release()
		} else {
			assert.ErrorIs(t, err, ErrDailyQuotaExceeded)
		}
		clock.Advance(2 * time.Minute)
	}

	assert.Equal(t, 10, admitted)
}

func TestEngineNutritionScopeIsIndependent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.Daily[domain.QuotaScopeNutrition] = 1
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	userID := uuid.New()

	// Exhaust the nutrition bucket.
	release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeNutrition, "ip")
	require.NoError(t, err)
	release()
	clock.Advance(time.Minute)
	_, err = engine.Admit(context.Background(), userID, domain.QuotaScopeNutrition, "ip")
	require.ErrorIs(t, err, ErrDailyQuotaExceeded)

	// Vision calls are untouched.
	clock.Advance(time.Minute)
	release, err = engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	release()
}

func TestEngineFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeQuotaStore()
	store.fail = true
	engine := NewEngine(store, testLimits(), testLogger(), clock.Now)

	// The authoritative layer is down; the request still goes through on the
	// strength of the advisory layers.
	release, err := engine.Admit(context.Background(), uuid.New(), domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	release()
}

func TestEngineAdvisoryCounterHoldsWhenStoreFailsOpen(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeQuotaStore()
	store.fail = true
	limits := testLimits()
	limits.AdvisoryDaily[domain.QuotaScopeVision] = 2
	engine := NewEngine(store, limits, testLogger(), clock.Now)

	userID := uuid.New()
	for i := 0; i < 2; i++ {
		release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
		require.NoError(t, err)
		release()
		clock.Advance(time.Minute)
	}

	// Third request of the day: the advisory counter is all that stands, and
	// it holds.
	_, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	assert.ErrorIs(t, err, ErrDailyQuotaExceeded)
}

func TestEngineConcurrencyCap(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.MaxConcurrent = 2
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	userID := uuid.New()

	rel1, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)

	// Two calls in flight: the third is rejected on the concurrency cap.
	clock.Advance(time.Second)
	_, err = engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	assert.ErrorIs(t, err, ErrTooManyInFlight)

	// Completion frees a slot.
	rel1()
	clock.Advance(time.Second)
	rel, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	rel()
}

func TestEngineBurstByUser(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.UserBurst = 2
	limits.MaxConcurrent = 10
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	userID := uuid.New()
	var releases []func()
	for i := 0; i < 2; i++ {
		release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
		require.NoError(t, err)
		releases = append(releases, release)
	}

	_, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	assert.ErrorIs(t, err, ErrBurstLimited)

	for _, release := range releases {
		release()
	}

	// A burst rejection must not leak an in-flight slot: after the window,
	// the user can fill the burst again.
	clock.Advance(limits.BurstWindow + time.Second)
	release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	release()
}

func TestEngineBurstByIPCoversDistinctUsers(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.IPBurst = 3
	limits.UserBurst = 3
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	// Different users behind one IP share the IP window.
	for i := 0; i < 3; i++ {
		release, err := engine.Admit(context.Background(), uuid.New(), domain.QuotaScopeVision, "198.51.100.7")
		require.NoError(t, err)
		release()
	}

	_, err := engine.Admit(context.Background(), uuid.New(), domain.QuotaScopeVision, "198.51.100.7")
	assert.ErrorIs(t, err, ErrBurstLimited)

	// A different IP is unaffected.
	release, err := engine.Admit(context.Background(), uuid.New(), domain.QuotaScopeVision, "203.0.113.9")
	require.NoError(t, err)
	release()
}

func TestEngineRemaining(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limits := testLimits()
	limits.Daily[domain.QuotaScopeVision] = 5
	engine := NewEngine(newFakeQuotaStore(), limits, testLogger(), clock.Now)

	userID := uuid.New()

	remaining, err := engine.Remaining(context.Background(), userID, domain.QuotaScopeVision)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	release, err := engine.Admit(context.Background(), userID, domain.QuotaScopeVision, "ip")
	require.NoError(t, err)
	release()

	remaining, err = engine.Remaining(context.Background(), userID, domain.QuotaScopeVision)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}
