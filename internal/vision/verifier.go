package vision

import (
	"context"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// Image is one retrieved meal photo handed to the verifier.
type Image struct {
	ContentType string
	Data        []byte
}

// Verifier defines the interface for the external vision model. This
// interface is the boundary between the verification endpoints and the model
// provider: handlers depend on it, the gemini package implements it, and
// tests substitute the MockVerifier.
type Verifier interface {
	// VerifyFood classifies a single photo: is it food, is the plate
	// visible, is the photo usable.
	VerifyFood(ctx context.Context, img Image) (*domain.FoodCheckResult, error)

	// CompareMeal compares the before and after photos of one session and
	// produces the consumption verdict.
	CompareMeal(ctx context.Context, pre, post Image) (*domain.CompareResult, error)

	// EstimateNutrition produces a conservative calorie/macro estimate for a
	// meal photo.
	EstimateNutrition(ctx context.Context, img Image) (*domain.NutritionEstimate, error)
}
