package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealgate/mealgate-api/internal/api"
	"github.com/mealgate/mealgate-api/internal/api/middleware"
	"github.com/mealgate/mealgate-api/internal/config"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/quota"
	"github.com/mealgate/mealgate-api/internal/service/auth"
	"github.com/mealgate/mealgate-api/internal/storage"
	"github.com/mealgate/mealgate-api/internal/vision"
)

const e2eSecret = "e2e-test-secret-key-32-characters!!!"

// e2eQuotaStore mirrors the persistent layer's conditional-increment
// semantics in memory.
type e2eQuotaStore struct {
	counts map[string]int
}

func (s *e2eQuotaStore) ConsumeIfUnder(
	_ context.Context,
	userID uuid.UUID,
	scope domain.QuotaScope,
	day time.Time,
	limit int,
) (bool, error) {
	key := userID.String() + "|" + string(scope) + "|" + day.Format("2006-01-02")
	if s.counts[key] >= limit {
		return false, nil
	}
	s.counts[key]++
	return true, nil
}

func (s *e2eQuotaStore) Get(
	_ context.Context, _ uuid.UUID, _ domain.QuotaScope, _ time.Time,
) (*domain.QuotaRecord, error) {
	return nil, nil
}

// startTestServer stands up the real HTTP surface: auth middleware, quota
// engine, storage handshake and the vision endpoints over a mock verifier.
func startTestServer(t *testing.T, verifier vision.Verifier) *httptest.Server {
	t.Helper()

	log := testLogger()
	objects := storage.NewMemoryObjectStore()
	signer := storage.NewUploadSigner([]byte(e2eSecret), nil)
	engine := quota.NewEngine(&e2eQuotaStore{counts: make(map[string]int)}, quota.Limits{
		Daily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    40,
			domain.QuotaScopeNutrition: 10,
		},
		AdvisoryDaily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    50,
			domain.QuotaScopeNutrition: 15,
		},
		UserBurst:        100,
		IPBurst:          200,
		BurstWindow:      time.Minute,
		MaxConcurrent:    100,
		ConcurrentWindow: time.Minute,
	}, log, nil)

	verifierSvc, err := auth.NewTokenVerifier(config.AuthConfig{JWTSecret: e2eSecret})
	require.NoError(t, err)
	authMW := middleware.NewAuthMiddleware(verifierSvc)

	const maxUploadBytes = 5 * 1024 * 1024
	visionHandler := api.NewVisionHandler(verifier, engine, objects, maxUploadBytes, log)
	nutritionHandler := api.NewNutritionHandler(verifier, engine, objects, maxUploadBytes, log)

	var server *httptest.Server
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Put("/storage/upload/{token}", func(w http.ResponseWriter, req *http.Request) {
			storageHandler(objects, signer, server.URL, log).Upload(w, req)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Post("/storage/signed-upload", func(w http.ResponseWriter, req *http.Request) {
				storageHandler(objects, signer, server.URL, log).SignedUpload(w, req)
			})
			r.Post("/vision/verify-food", visionHandler.VerifyFood)
			r.Post("/vision/compare-meal", visionHandler.CompareMeal)
			r.Post("/nutrition/estimate", nutritionHandler.Estimate)
		})
	})
	server = httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func storageHandler(
	objects storage.ObjectStore,
	signer *storage.UploadSigner,
	baseURL string,
	log *slog.Logger,
) *api.StorageHandler {
	return api.NewStorageHandler(objects, signer, baseURL, 5*time.Minute, 5*1024*1024, log)
}

// jwtTokens mints real HS256 tokens for the given user.
type jwtTokens struct {
	userID uuid.UUID
}

func (j *jwtTokens) Token(_ context.Context) (string, error) {
	return j.mint()
}

func (j *jwtTokens) Refresh(_ context.Context) (string, error) {
	return j.mint()
}

func (j *jwtTokens) mint() (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": j.userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}).SignedString([]byte(e2eSecret))
}

// TestMealFlow drives a full meal through the real HTTP surface: upload the
// before photo, verify it is food, start the session, wait out the minimum
// duration, then finish eating and verify the EATEN verdict lands as a
// VERIFIED session.
func TestMealFlow(t *testing.T) {
	t.Parallel()

	server := startTestServer(t, &vision.MockVerifier{})

	userID := uuid.New()
	apiClient := NewAPIClient(server.URL, &jwtTokens{userID: userID}, 0, testLogger())
	uploads := NewUploadPipeline(apiClient, testLogger())
	gateway := NewHTTPGateway(apiClient, testLogger())

	clock := newFakeClock()
	ctrl := NewSessionController(NewMemorySessionStore(), gateway, uploads,
		func() []string { return []string{"instagram"} }, clock.Now, testLogger())

	ctx := context.Background()

	// Before photo: upload and verify it shows food.
	preKey, err := uploads.Upload(ctx, "before", makeJPEG(t, 640, 480), "")
	require.NoError(t, err)

	preCheck, err := gateway.VerifyFood(ctx, preKey)
	require.NoError(t, err)
	require.True(t, preCheck.IsFood)

	session, err := ctrl.StartSession(ctx, domain.MealLunch, true, preKey, preCheck)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, session.Status)
	assert.Equal(t, []string{"instagram"}, session.BlockedApps)

	// Too early to finish.
	_, err = ctrl.FinishEating(ctx, makeJPEG(t, 640, 480))
	require.ErrorIs(t, err, ErrMealTooShort)

	clock.Advance(6 * time.Minute)

	ended, err := ctrl.FinishEating(ctx, makeJPEG(t, 640, 480))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionVerified, ended.Status)
	assert.NotEmpty(t, ended.PostImageKey)
	require.NotNil(t, ended.Verification.CompareResult)
	assert.Equal(t, domain.VerdictEaten, ended.Verification.CompareResult.Verdict)
}
