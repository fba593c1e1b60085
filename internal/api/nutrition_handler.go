package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/api/shared"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/platform/logger"
	"github.com/mealgate/mealgate-api/internal/quota"
	"github.com/mealgate/mealgate-api/internal/storage"
	"github.com/mealgate/mealgate-api/internal/vision"
)

// NutritionHandler handles the nutrition estimation endpoint. Estimates draw
// from a separate, smaller daily bucket than the verification calls.
type NutritionHandler struct {
	verifier       vision.Verifier
	engine         *quota.Engine
	objects        storage.ObjectStore
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewNutritionHandler creates a new NutritionHandler.
func NewNutritionHandler(
	verifier vision.Verifier,
	engine *quota.Engine,
	objects storage.ObjectStore,
	maxUploadBytes int64,
	logger *slog.Logger,
) *NutritionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NutritionHandler")
	}

	return &NutritionHandler{
		verifier:       verifier,
		engine:         engine,
		objects:        objects,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "nutrition_handler")),
	}
}

// Estimate handles POST /api/nutrition/estimate requests. The request body is
// decoded strictly: any unknown field is a 400, not silently ignored.
func (h *NutritionHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req EstimateNutritionRequest
	if err := shared.DecodeJSONStrict(r, &req); err != nil {
		if errors.Is(err, shared.ErrUnknownField) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown field in request body")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	release, err := h.engine.Admit(r.Context(), userID, domain.QuotaScopeNutrition, clientIP(r))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	defer release()

	img, err := fetchOwnedImage(r.Context(), h.objects, userID, req.Key, h.maxUploadBytes)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	estimate, err := h.verifier.EstimateNutrition(r.Context(), *img)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("nutrition estimate complete",
		slog.String("user_id", userID.String()),
		slog.Int("calories_min", estimate.CaloriesMin),
		slog.Int("calories_max", estimate.CaloriesMax))
	shared.RespondWithJSON(w, r, http.StatusOK, estimate)
}
