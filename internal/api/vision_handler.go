package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/api/shared"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/platform/logger"
	"github.com/mealgate/mealgate-api/internal/quota"
	"github.com/mealgate/mealgate-api/internal/storage"
	"github.com/mealgate/mealgate-api/internal/vision"
)

// VisionHandler handles the model-backed verification endpoints.
type VisionHandler struct {
	verifier       vision.Verifier
	engine         *quota.Engine
	objects        storage.ObjectStore
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewVisionHandler creates a new VisionHandler.
func NewVisionHandler(
	verifier vision.Verifier,
	engine *quota.Engine,
	objects storage.ObjectStore,
	maxUploadBytes int64,
	logger *slog.Logger,
) *VisionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for VisionHandler")
	}

	return &VisionHandler{
		verifier:       verifier,
		engine:         engine,
		objects:        objects,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "vision_handler")),
	}
}

// VerifyFood handles POST /api/vision/verify-food requests.
//
// Check order is fail-fast, cheapest first: auth (middleware), admission,
// ownership, object fetch, then the model call.
func (h *VisionHandler) VerifyFood(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req VerifyFoodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	release, err := h.engine.Admit(r.Context(), userID, domain.QuotaScopeVision, clientIP(r))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	defer release()

	img, err := h.fetchOwnedImage(r.Context(), userID, req.Key)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	result, err := h.verifier.VerifyFood(r.Context(), *img)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("food check complete",
		slog.String("user_id", userID.String()),
		slog.Bool("is_food", result.IsFood),
		slog.String("reason_code", string(result.ReasonCode)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// CompareMeal handles POST /api/vision/compare-meal requests. Both keys must
// belong to the caller; the before image is always passed to the model first.
func (h *VisionHandler) CompareMeal(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CompareMealRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	release, err := h.engine.Admit(r.Context(), userID, domain.QuotaScopeVision, clientIP(r))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	defer release()

	pre, err := h.fetchOwnedImage(r.Context(), userID, req.PreKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	post, err := h.fetchOwnedImage(r.Context(), userID, req.PostKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	result, err := h.verifier.CompareMeal(r.Context(), *pre, *post)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("meal comparison complete",
		slog.String("user_id", userID.String()),
		slog.String("verdict", string(result.Verdict)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// fetchOwnedImage resolves a storage key to image bytes, enforcing ownership
// before touching the object store and the size/type caps after.
func (h *VisionHandler) fetchOwnedImage(
	ctx context.Context,
	userID uuid.UUID,
	key string,
) (*vision.Image, error) {
	return fetchOwnedImage(ctx, h.objects, userID, key, h.maxUploadBytes)
}

func fetchOwnedImage(
	ctx context.Context,
	objects storage.ObjectStore,
	userID uuid.UUID,
	key string,
	maxBytes int64,
) (*vision.Image, error) {
	if !storage.KeyBelongsTo(key, userID) {
		return nil, ErrNotOwner
	}

	obj, err := objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if int64(len(obj.Data)) > maxBytes {
		return nil, ErrPayloadTooLarge
	}
	if obj.ContentType != "image/jpeg" {
		return nil, ErrUnsupportedMedia
	}

	return &vision.Image{
		ContentType: obj.ContentType,
		Data:        obj.Data,
	}, nil
}

// clientIP returns the caller's IP for the per-IP burst window. The RealIP
// middleware has already rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
