package client

import (
	"context"
	"log/slog"

	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/redact"
)

// VisionGateway is the device-side view of the verification endpoints.
// Implementations are swappable between the real backend-calling gateway and
// a deterministic mock.
type VisionGateway interface {
	// VerifyFood checks that an uploaded photo shows food.
	VerifyFood(ctx context.Context, key string) (*domain.FoodCheckResult, error)

	// CompareMeal compares a before and after photo of the same meal.
	CompareMeal(ctx context.Context, preKey, postKey string) (*domain.CompareResult, error)

	// EstimateNutrition estimates the nutritional content of a photo. It is
	// supplementary, so it soft-fails to nil rather than returning an error.
	EstimateNutrition(ctx context.Context, key string) *domain.NutritionEstimate
}

// HTTPGateway calls the verification endpoints over an APIClient.
type HTTPGateway struct {
	api    *APIClient
	logger *slog.Logger
}

// Ensure HTTPGateway implements VisionGateway interface
var _ VisionGateway = (*HTTPGateway)(nil)

// NewHTTPGateway creates a gateway over the given API client.
func NewHTTPGateway(api *APIClient, logger *slog.Logger) *HTTPGateway {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for HTTPGateway")
	}

	return &HTTPGateway{
		api:    api,
		logger: logger.With(slog.String("component", "vision_gateway")),
	}
}

// VerifyFood implements VisionGateway.VerifyFood.
func (g *HTTPGateway) VerifyFood(ctx context.Context, key string) (*domain.FoodCheckResult, error) {
	var result domain.FoodCheckResult
	if err := g.api.PostJSON(ctx, "/api/vision/verify-food", map[string]string{"key": key}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompareMeal implements VisionGateway.CompareMeal.
func (g *HTTPGateway) CompareMeal(ctx context.Context, preKey, postKey string) (*domain.CompareResult, error) {
	var result domain.CompareResult
	err := g.api.PostJSON(ctx, "/api/vision/compare-meal",
		map[string]string{"preKey": preKey, "postKey": postKey}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// EstimateNutrition implements VisionGateway.EstimateNutrition. Failures are
// logged and swallowed; the estimate is a nice-to-have, never a blocker.
func (g *HTTPGateway) EstimateNutrition(ctx context.Context, key string) *domain.NutritionEstimate {
	var estimate domain.NutritionEstimate
	if err := g.api.PostJSON(ctx, "/api/nutrition/estimate", map[string]string{"key": key}, &estimate); err != nil {
		g.logger.Debug("nutrition estimate failed, continuing without it",
			slog.String("error", redact.Error(err)))
		return nil
	}
	return &estimate
}

// MockGateway is a deterministic VisionGateway for tests and local
// development. Unset results fall back to benign defaults; Err short-circuits
// the hard-failing methods.
type MockGateway struct {
	FoodResult      *domain.FoodCheckResult
	CompareResult   *domain.CompareResult
	NutritionResult *domain.NutritionEstimate
	Err             error

	VerifyCalls    int
	CompareCalls   int
	NutritionCalls int
}

// Ensure MockGateway implements VisionGateway interface
var _ VisionGateway = (*MockGateway)(nil)

// VerifyFood implements VisionGateway.VerifyFood.
func (m *MockGateway) VerifyFood(_ context.Context, _ string) (*domain.FoodCheckResult, error) {
	m.VerifyCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FoodResult != nil {
		return m.FoodResult, nil
	}
	return &domain.FoodCheckResult{
		IsFood:         true,
		Confidence:     0.9,
		HasPlateOrBowl: true,
		Quality:        domain.PhotoQuality{Brightness: 0.8, Blur: 0.1, Framing: 0.8},
		ReasonCode:     domain.ReasonOK,
	}, nil
}

// CompareMeal implements VisionGateway.CompareMeal.
func (m *MockGateway) CompareMeal(_ context.Context, _, _ string) (*domain.CompareResult, error) {
	m.CompareCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.CompareResult != nil {
		return m.CompareResult, nil
	}
	return &domain.CompareResult{
		IsSameScene:     true,
		DuplicateScore:  0.1,
		FoodChangeScore: 0.9,
		Verdict:         domain.VerdictEaten,
		Confidence:      0.9,
		ReasonCode:      domain.ReasonOK,
	}, nil
}

// EstimateNutrition implements VisionGateway.EstimateNutrition.
func (m *MockGateway) EstimateNutrition(_ context.Context, _ string) *domain.NutritionEstimate {
	m.NutritionCalls++
	return m.NutritionResult
}
