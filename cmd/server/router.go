package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mealgate/mealgate-api/internal/api"
	apiMiddleware "github.com/mealgate/mealgate-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenVerifier)

	visionHandler := api.NewVisionHandler(
		app.verifier, app.engine, app.objects, app.config.Storage.MaxUploadBytes, app.logger)
	nutritionHandler := api.NewNutritionHandler(
		app.verifier, app.engine, app.objects, app.config.Storage.MaxUploadBytes, app.logger)
	storageHandler := api.NewStorageHandler(
		app.objects,
		app.signer,
		app.config.Server.PublicBaseURL,
		time.Duration(app.config.Storage.UploadExpirySeconds)*time.Second,
		app.config.Storage.MaxUploadBytes,
		app.logger)

	r.Route("/api", func(r chi.Router) {
		// The signed upload PUT authenticates by token, not bearer auth.
		r.Put("/storage/upload/{token}", storageHandler.Upload)

		// Everything else requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/vision/verify-food", visionHandler.VerifyFood)
			r.Post("/vision/compare-meal", visionHandler.CompareMeal)
			r.Post("/nutrition/estimate", nutritionHandler.Estimate)
			r.Post("/storage/signed-upload", storageHandler.SignedUpload)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
