package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/mealgate/mealgate-api/internal/config"
	"github.com/mealgate/mealgate-api/internal/redact"
	"github.com/mealgate/mealgate-api/internal/vision"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// Verifier implements the vision.Verifier interface using Google's Gemini
// API to classify and compare meal photos.
type Verifier struct {
	logger *slog.Logger
	config config.VisionConfig
	client *genai.Client
	model  string
}

// Ensure Verifier implements vision.Verifier interface
var _ vision.Verifier = (*Verifier)(nil)

// NewVerifier creates a new Gemini-backed verifier with the provided
// dependencies.
func NewVerifier(ctx context.Context, logger *slog.Logger, cfg config.VisionConfig) (*Verifier, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", vision.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", vision.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", vision.ErrInvalidConfig, err)
	}

	return &Verifier{
		logger: logger.With(slog.String("component", "gemini_verifier")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// VerifyFood implements vision.Verifier.VerifyFood.
func (v *Verifier) VerifyFood(ctx context.Context, img vision.Image) (*domain.FoodCheckResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(verifyFoodPrompt),
		genai.NewPartFromBytes(img.Data, img.ContentType),
	}

	text, err := v.callWithRetry(ctx, "verify_food", parts, foodCheckSchema())
	if err != nil {
		return nil, err
	}
	return decodeFoodCheck(text)
}

// CompareMeal implements vision.Verifier.CompareMeal. The before photo is
// always the first image part so the prompt's ordering assumption holds.
func (v *Verifier) CompareMeal(ctx context.Context, pre, post vision.Image) (*domain.CompareResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(compareMealPrompt),
		genai.NewPartFromBytes(pre.Data, pre.ContentType),
		genai.NewPartFromBytes(post.Data, post.ContentType),
	}

	text, err := v.callWithRetry(ctx, "compare_meal", parts, compareSchema())
	if err != nil {
		return nil, err
	}
	return decodeCompare(text)
}

// EstimateNutrition implements vision.Verifier.EstimateNutrition.
func (v *Verifier) EstimateNutrition(ctx context.Context, img vision.Image) (*domain.NutritionEstimate, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(estimateNutritionPrompt),
		genai.NewPartFromBytes(img.Data, img.ContentType),
	}

	text, err := v.callWithRetry(ctx, "estimate_nutrition", parts, nutritionSchema())
	if err != nil {
		return nil, err
	}
	return decodeNutrition(text)
}

// callWithRetry makes a structured-output call to the Gemini API with
// exponential backoff for transient provider errors. Permanent errors (safety
// blocks, malformed responses) are returned immediately without retrying; the
// endpoints perform no retries of their own on top of this.
func (v *Verifier) callWithRetry(
	ctx context.Context,
	operation string,
	parts []*genai.Part,
	schema *genai.Schema,
) (string, error) {
	maxRetries := v.config.MaxRetries
	baseDelaySeconds := v.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		v.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		v.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		v.logger.InfoContext(ctx, "making Gemini API call",
			"operation", operation,
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		text, err := v.callOnce(ctx, contents, genConfig)
		if err == nil {
			v.logger.InfoContext(ctx, "Gemini API call successful",
				"operation", operation,
				"attempt", attemptNum)
			return text, nil
		}

		v.logger.ErrorContext(ctx, "Gemini API call failed",
			"operation", operation,
			"attempt", attemptNum,
			"error", redact.Error(err))

		// Safety blocks and schema violations will not get better on retry.
		if errors.Is(err, vision.ErrContentBlocked) || errors.Is(err, vision.ErrInvalidResponse) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				vision.ErrTransientFailure, maxRetries)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		v.logger.InfoContext(ctx, "retrying after delay",
			"operation", operation,
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", vision.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single model call under the configured timeout and
// extracts the text payload from the response envelope. Any missing piece of
// the envelope (no candidates, no content, no text part) is an invalid
// response: the declared schema guarantees a text payload on success, so its
// absence means the provider misbehaved.
func (v *Verifier) callOnce(
	ctx context.Context,
	contents []*genai.Content,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	callCtx := ctx
	if v.config.CallTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(v.config.CallTimeoutSeconds)*time.Second)
		defer cancel()
	}

	resp, err := v.client.Models.GenerateContent(callCtx, v.model, contents, genConfig)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: call timed out: %v", vision.ErrTransientFailure, err)
		}
		return "", fmt.Errorf("%w: %v", vision.ErrUpstreamFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", vision.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked", vision.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", vision.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text in response", vision.ErrInvalidResponse)
	}

	return text, nil
}
