package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/api/shared"
	"github.com/mealgate/mealgate-api/internal/platform/logger"
	"github.com/mealgate/mealgate-api/internal/storage"
)

// StorageHandler implements the signed-upload handshake: an authenticated
// client requests a signed URL for a fresh key, then PUTs the image bytes to
// it. Tokens are self-contained, so the PUT endpoint needs no session state.
type StorageHandler struct {
	objects        storage.ObjectStore
	signer         *storage.UploadSigner
	publicBaseURL  string
	uploadExpiry   time.Duration
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(
	objects storage.ObjectStore,
	signer *storage.UploadSigner,
	publicBaseURL string,
	uploadExpiry time.Duration,
	maxUploadBytes int64,
	logger *slog.Logger,
) *StorageHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StorageHandler")
	}

	return &StorageHandler{
		objects:        objects,
		signer:         signer,
		publicBaseURL:  publicBaseURL,
		uploadExpiry:   uploadExpiry,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "storage_handler")),
	}
}

// SignedUpload handles POST /api/storage/signed-upload requests. It mints a
// fresh storage key namespaced under the caller's user ID and returns a
// signed URL authorizing one PUT to it.
func (h *StorageHandler) SignedUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SignedUploadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	key := storage.NewKey(userID, storage.UploadKind(req.Kind))

	token, err := h.signer.Sign(key, h.uploadExpiry)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create upload URL", err)
		return
	}

	log.Debug("signed upload issued",
		slog.String("user_id", userID.String()),
		slog.String("kind", req.Kind),
		slog.String("key", key))

	shared.RespondWithJSON(w, r, http.StatusOK, SignedUploadResponse{
		UploadURL:        fmt.Sprintf("%s/api/storage/upload/%s", h.publicBaseURL, token),
		Key:              key,
		Method:           http.MethodPut,
		Headers:          map[string]string{"Content-Type": "image/jpeg"},
		ExpiresInSeconds: int(h.uploadExpiry.Seconds()),
	})
}

// Upload handles PUT /api/storage/upload/{token} requests, the target of a
// signed URL. The token alone authorizes the write; there is no bearer auth
// on this route.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	key, err := h.signer.Verify(chi.URLParam(r, "token"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "image/jpeg" {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnsupportedMediaType,
			GetSafeErrorMessage(ErrUnsupportedMedia), ErrUnsupportedMedia)
		return
	}

	// Read one byte past the cap so an oversized body is detected without
	// buffering all of it.
	data, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadBytes+1))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read upload body", err)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image exceeds the %d MB limit", h.maxUploadBytes/(1024*1024)),
			ErrPayloadTooLarge)
		return
	}

	if err := h.objects.Put(r.Context(), key, "image/jpeg", data); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store upload", err)
		return
	}

	log.Debug("upload stored",
		slog.String("key", key),
		slog.Int("bytes", len(data)))

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"key": key})
}
