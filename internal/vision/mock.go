package vision

import (
	"context"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// MockVerifier is a deterministic Verifier for tests and local development.
// Fixed results can be injected per call; unset fields fall back to benign
// defaults, and Err short-circuits every method.
type MockVerifier struct {
	FoodResult      *domain.FoodCheckResult
	CompareResult   *domain.CompareResult
	NutritionResult *domain.NutritionEstimate
	Err             error

	// Call counters for asserting admission control short-circuits before
	// the model is reached.
	VerifyCalls    int
	CompareCalls   int
	NutritionCalls int
}

// Ensure MockVerifier implements Verifier interface
var _ Verifier = (*MockVerifier)(nil)

// VerifyFood implements Verifier.VerifyFood.
func (m *MockVerifier) VerifyFood(_ context.Context, _ Image) (*domain.FoodCheckResult, error) {
	m.VerifyCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FoodResult != nil {
		return m.FoodResult, nil
	}
	return &domain.FoodCheckResult{
		IsFood:         true,
		Confidence:     0.95,
		HasPlateOrBowl: true,
		Quality:        domain.PhotoQuality{Brightness: 0.8, Blur: 0.1, Framing: 0.9},
		ReasonCode:     domain.ReasonOK,
		RoastLine:      "That actually looks edible. Well done.",
		RetakeHint:     "",
	}, nil
}

// CompareMeal implements Verifier.CompareMeal.
func (m *MockVerifier) CompareMeal(_ context.Context, _, _ Image) (*domain.CompareResult, error) {
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
		RoastLine:       "Plate cleaned. Respect.",
		RetakeHint:      "",
	}, nil
}

// EstimateNutrition implements Verifier.EstimateNutrition.
func (m *MockVerifier) EstimateNutrition(_ context.Context, _ Image) (*domain.NutritionEstimate, error) {
	m.NutritionCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.NutritionResult != nil {
		return m.NutritionResult, nil
	}
	return &domain.NutritionEstimate{
		Items:       []string{"rice", "chicken"},
		CaloriesMin: 450,
		CaloriesMax: 700,
		ProteinG:    35,
		CarbsG:      60,
		FatG:        18,
		Confidence:  0.55,
		Notes:       "Portion size partially occluded; range widened.",
	}, nil
}
