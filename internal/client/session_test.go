package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newController(gateway VisionGateway, clock *fakeClock, blockList BlockListSource) (*SessionController, *MemorySessionStore) {
	store := NewMemorySessionStore()
	ctrl := NewSessionController(store, gateway, nil, blockList, clock.Now, testLogger())
	return ctrl, store
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	t.Run("snapshots the block list at start", func(t *testing.T) {
		t.Parallel()

		apps := []string{"instagram", "tiktok"}
		ctrl, _ := newController(&MockGateway{}, newFakeClock(), func() []string { return apps })

		session, err := ctrl.StartSession(context.Background(), domain.MealLunch, true, "", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"instagram", "tiktok"}, session.BlockedApps)
		assert.Equal(t, domain.SessionActive, session.Status)

		// Mutating the source after start must not change the snapshot.
		apps[0] = "youtube"
		assert.Equal(t, "instagram", session.BlockedApps[0])
	})

	t.Run("rejects a second start while one session is active", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newController(&MockGateway{}, newFakeClock(), nil)

		first, err := ctrl.StartSession(context.Background(), domain.MealDinner, false, "", nil)
		require.NoError(t, err)

		_, err = ctrl.StartSession(context.Background(), domain.MealDinner, false, "", nil)
		assert.ErrorIs(t, err, ErrSessionActive)

		// The original session survives untouched.
		active, err := ctrl.store.Active(context.Background())
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, first.ID, active.ID)
	})

	t.Run("rejects an unknown meal type", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newController(&MockGateway{}, newFakeClock(), nil)

		_, err := ctrl.StartSession(context.Background(), domain.MealType("brunch"), false, "", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidMealType)
	})
}

func TestUpdateActive(t *testing.T) {
	t.Parallel()

	t.Run("merges only the set fields", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newController(&MockGateway{}, newFakeClock(), nil)

		_, err := ctrl.StartSession(context.Background(), domain.MealBreakfast, false, "meals/u/before/1.jpg", nil)
		require.NoError(t, err)

		postKey := "meals/u/after/2.jpg"
		session, err := ctrl.UpdateActive(context.Background(), SessionPatch{PostImageKey: &postKey})
		require.NoError(t, err)

		assert.Equal(t, postKey, session.PostImageKey)
		assert.Equal(t, "meals/u/before/1.jpg", session.PreImageKey, "unset fields stay put")
	})

	t.Run("errors when no session is active", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newController(&MockGateway{}, newFakeClock(), nil)

		key := "meals/u/after/2.jpg"
		_, err := ctrl.UpdateActive(context.Background(), SessionPatch{PostImageKey: &key})
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	t.Run("appends to history and clears the active slot", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		ctrl, store := newController(&MockGateway{}, clock, nil)

		started, err := ctrl.StartSession(context.Background(), domain.MealSnack, false, "", nil)
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)
		require.NoError(t, ctrl.EndSession(context.Background(), domain.SessionVerified))

		active, err := store.Active(context.Background())
		require.NoError(t, err)
		assert.Nil(t, active)

		history, err := store.History(context.Background())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, started.ID, history[0].ID)
		assert.Equal(t, domain.SessionVerified, history[0].Status)
		require.NotNil(t, history[0].EndedAt)
		assert.Equal(t, clock.Now(), *history[0].EndedAt)
	})

	t.Run("is a no-op when no session is active", func(t *testing.T) {
		t.Parallel()

		ctrl, store := newController(&MockGateway{}, newFakeClock(), nil)

		require.NoError(t, ctrl.EndSession(context.Background(), domain.SessionFailed))

		history, err := store.History(context.Background())
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestFinishEating(t *testing.T) {
	t.Parallel()

	t.Run("rejects before the minimum meal duration", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		gateway := &MockGateway{}
		ctrl, _ := newController(gateway, clock, nil)

		_, err := ctrl.StartSession(context.Background(), domain.MealLunch, true, "meals/u/before/1.jpg", nil)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		_, err = ctrl.FinishEating(context.Background(), nil)
		assert.ErrorIs(t, err, ErrMealTooShort)
		assert.Equal(t, 0, gateway.CompareCalls, "no network call before the gate passes")
	})

	t.Run("errors when no session is active", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newController(&MockGateway{}, newFakeClock(), nil)

		_, err := ctrl.FinishEating(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})

	t.Run("verdict mapping is total over all four verdicts", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			verdict domain.CompareVerdict
			want    domain.SessionStatus
		}{
			{domain.VerdictEaten, domain.SessionVerified},
			{domain.VerdictPartial, domain.SessionPartial},
			{domain.VerdictUnchanged, domain.SessionFailed},
			{domain.VerdictUnverifiable, domain.SessionIncomplete},
		}

		for _, tt := range tests {
			t.Run(string(tt.verdict), func(t *testing.T) {
				t.Parallel()

				clock := newFakeClock()
				gateway := &MockGateway{
					CompareResult: &domain.CompareResult{
						IsSameScene:     true,
						DuplicateScore:  0.1,
						FoodChangeScore: 0.5,
						Verdict:         tt.verdict,
						Confidence:      0.8,
						ReasonCode:      domain.ReasonOK,
					},
				}
				store := NewMemorySessionStore()
				ctrl := NewSessionController(store, gateway, stubUploadPipeline(t), nil, clock.Now, testLogger())

				_, err := ctrl.StartSession(context.Background(), domain.MealDinner, false, "meals/u/before/1.jpg", nil)
				require.NoError(t, err)

				clock.Advance(6 * time.Minute)
				ended, err := ctrl.FinishEating(context.Background(), makeJPEG(t, 64, 64))
				require.NoError(t, err)

				assert.Equal(t, tt.want, ended.Status)
				assert.True(t, ended.Status.IsTerminal())

				history, err := store.History(context.Background())
				require.NoError(t, err)
				require.Len(t, history, 1)
				assert.Equal(t, tt.want, history[0].Status)
			})
		}
	})
}

// stubUploadPipeline returns a pipeline backed by an httptest server that
// accepts any handshake and PUT.
func stubUploadPipeline(t *testing.T) *UploadPipeline {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("POST /api/storage/signed-upload", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SignedUpload{
			UploadURL:        server.URL + "/api/storage/upload/tok",
			Key:              "meals/u/after/" + uuid.NewString() + ".jpg",
			Method:           http.MethodPut,
			Headers:          map[string]string{"Content-Type": "image/jpeg"},
			ExpiresInSeconds: 300,
		})
	})
	mux.HandleFunc("PUT /api/storage/upload/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	api := NewAPIClient(server.URL, &staticTokens{current: "t", refreshed: "t"}, 0, testLogger())
	return NewUploadPipeline(api, testLogger())
}
