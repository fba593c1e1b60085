package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/mealgate/mealgate-api/internal/domain"
	"github.com/mealgate/mealgate-api/internal/vision"
)

// Response schemas declared to the model. These are the wire contract: every
// field is required and additional properties are rejected on our side by the
// strict decoder, so the shapes here must stay in lockstep with the domain
// result structs.

func qualitySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"brightness": {Type: genai.TypeNumber},
			"blur":       {Type: genai.TypeNumber},
			"framing":    {Type: genai.TypeNumber},
		},
		Required: []string{"brightness", "blur", "framing"},
	}
}

func foodCheckSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isFood":         {Type: genai.TypeBoolean},
			"confidence":     {Type: genai.TypeNumber},
			"hasPlateOrBowl": {Type: genai.TypeBoolean},
			"quality":        qualitySchema(),
			"reasonCode": {
				Type: genai.TypeString,
				Enum: []string{"OK", "NOT_FOOD", "TOO_DARK", "TOO_BLURRY", "BAD_FRAMING", "NO_PLATE", "LOW_CONFIDENCE"},
			},
			"roastLine":  {Type: genai.TypeString},
			"retakeHint": {Type: genai.TypeString},
		},
		Required: []string{
			"isFood", "confidence", "hasPlateOrBowl", "quality",
			"reasonCode", "roastLine", "retakeHint",
		},
	}
}

func compareSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isSameScene":     {Type: genai.TypeBoolean},
			"duplicateScore":  {Type: genai.TypeNumber},
			"foodChangeScore": {Type: genai.TypeNumber},
			"verdict": {
				Type: genai.TypeString,
				Enum: []string{"EATEN", "PARTIAL", "UNCHANGED", "UNVERIFIABLE"},
			},
			"confidence": {Type: genai.TypeNumber},
			"reasonCode": {
				Type: genai.TypeString,
				Enum: []string{"OK", "DUPLICATE_PHOTO", "DIFFERENT_SCENE", "TOO_DARK", "TOO_BLURRY", "BAD_FRAMING", "LOW_CONFIDENCE"},
			},
			"roastLine":  {Type: genai.TypeString},
			"retakeHint": {Type: genai.TypeString},
		},
		Required: []string{
			"isSameScene", "duplicateScore", "foodChangeScore", "verdict",
			"confidence", "reasonCode", "roastLine", "retakeHint",
		},
	}
}

func nutritionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"caloriesMin": {Type: genai.TypeInteger},
			"caloriesMax": {Type: genai.TypeInteger},
			"proteinG":    {Type: genai.TypeInteger},
			"carbsG":      {Type: genai.TypeInteger},
			"fatG":        {Type: genai.TypeInteger},
			"confidence":  {Type: genai.TypeNumber},
			"notes":       {Type: genai.TypeString},
		},
		Required: []string{
			"items", "caloriesMin", "caloriesMax", "proteinG",
			"carbsG", "fatG", "confidence", "notes",
		},
	}
}

// decodeStrict parses text as JSON into v, failing closed: unknown fields or
// trailing content are treated as an invalid model response rather than
// silently ignored.
func decodeStrict(text string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", vision.ErrInvalidResponse, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing content after JSON response", vision.ErrInvalidResponse)
	}
	return nil
}

// decodeFoodCheck parses and validates a food-check payload.
func decodeFoodCheck(text string) (*domain.FoodCheckResult, error) {
	var result domain.FoodCheckResult
	if err := decodeStrict(text, &result); err != nil {
		return nil, err
	}
	if err := validateUnit("confidence", result.Confidence); err != nil {
		return nil, err
	}
	if result.ReasonCode == "" {
		return nil, fmt.Errorf("%w: missing reasonCode", vision.ErrInvalidResponse)
	}
	return &result, nil
}

// decodeCompare parses and validates a comparison payload. The verdict must
// be one of the four known values; the schema constrains the model, but the
// decoder still fails closed if the provider drifts.
func decodeCompare(text string) (*domain.CompareResult, error) {
	var result domain.CompareResult
	if err := decodeStrict(text, &result); err != nil {
		return nil, err
	}
	switch result.Verdict {
	case domain.VerdictEaten, domain.VerdictPartial, domain.VerdictUnchanged, domain.VerdictUnverifiable:
	default:
		return nil, fmt.Errorf("%w: unknown verdict %q", vision.ErrInvalidResponse, result.Verdict)
	}
	if err := validateUnit("confidence", result.Confidence); err != nil {
		return nil, err
	}
	if err := validateUnit("duplicateScore", result.DuplicateScore); err != nil {
		return nil, err
	}
	if err := validateUnit("foodChangeScore", result.FoodChangeScore); err != nil {
		return nil, err
	}
	return &result, nil
}

// decodeNutrition parses and validates a nutrition payload.
func decodeNutrition(text string) (*domain.NutritionEstimate, error) {
	var result domain.NutritionEstimate
	if err := decodeStrict(text, &result); err != nil {
		return nil, err
	}
	if result.CaloriesMin < 0 || result.CaloriesMax < result.CaloriesMin {
		return nil, fmt.Errorf("%w: inverted calorie range", vision.ErrInvalidResponse)
	}
	if err := validateUnit("confidence", result.Confidence); err != nil {
		return nil, err
	}
	return &result, nil
}

// validateUnit checks that a score the model must emit in [0,1] actually is.
func validateUnit(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v outside [0,1]", vision.ErrInvalidResponse, field, v)
	}
	return nil
}
