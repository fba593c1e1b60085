package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mealgate/mealgate-api/internal/config"
	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/platform/gemini"
	"github.com/mealgate/mealgate-api/internal/platform/postgres"
	"github.com/mealgate/mealgate-api/internal/quota"
	"github.com/mealgate/mealgate-api/internal/service/auth"
	"github.com/mealgate/mealgate-api/internal/storage"
	"github.com/mealgate/mealgate-api/internal/vision"
)

// application holds the server's wired dependencies.
type application struct {
	config        *config.Config
	logger        *slog.Logger
	db            *sql.DB
	tokenVerifier auth.TokenVerifier
	verifier      vision.Verifier
	engine        *quota.Engine
	objects       storage.ObjectStore
	signer        *storage.UploadSigner
}

// newApplication wires every dependency from configuration. The database
// connection is assumed open and migrated.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	tokenVerifier, err := auth.NewTokenVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	verifier, err := gemini.NewVerifier(ctx, logger, cfg.Vision)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision verifier: %w", err)
	}

	quotaStore := postgres.NewQuotaStore(db, logger)
	engine := quota.NewEngine(quotaStore, quota.Limits{
		Daily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    cfg.Quota.DailyLimit,
			domain.QuotaScopeNutrition: cfg.Quota.NutritionDailyLimit,
		},
		AdvisoryDaily: map[domain.QuotaScope]int{
			domain.QuotaScopeVision:    cfg.Quota.AdvisoryDailyLimit,
			domain.QuotaScopeNutrition: cfg.Quota.NutritionDailyLimit,
		},
		UserBurst:        cfg.Quota.UserBurstLimit,
		IPBurst:          cfg.Quota.IPBurstLimit,
		BurstWindow:      time.Duration(cfg.Quota.BurstWindowSeconds) * time.Second,
		MaxConcurrent:    cfg.Quota.MaxConcurrent,
		ConcurrentWindow: time.Duration(cfg.Quota.ConcurrentWindowSeconds) * time.Second,
	}, logger, nil)

	return &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		tokenVerifier: tokenVerifier,
		verifier:      verifier,
		engine:        engine,
		objects:       storage.NewMemoryObjectStore(),
		signer:        storage.NewUploadSigner([]byte(cfg.Storage.SigningSecret), nil),
	}, nil
}

// cleanup releases resources on shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
