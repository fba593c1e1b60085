package domain

// ReasonCode is a stable machine-readable explanation attached to vision
// results. The model is instructed to emit exactly one of these values.
type ReasonCode string

const (
	ReasonOK             ReasonCode = "OK"
	ReasonNotFood        ReasonCode = "NOT_FOOD"
	ReasonTooDark        ReasonCode = "TOO_DARK"
	ReasonTooBlurry      ReasonCode = "TOO_BLURRY"
	ReasonBadFraming     ReasonCode = "BAD_FRAMING"
	ReasonNoPlate        ReasonCode = "NO_PLATE"
	ReasonDuplicatePhoto ReasonCode = "DUPLICATE_PHOTO"
	ReasonDifferentScene ReasonCode = "DIFFERENT_SCENE"
	ReasonLowConfidence  ReasonCode = "LOW_CONFIDENCE"
)

// PhotoQuality scores a photo on the axes the retake hints are built from.
// All values are in [0,1].
type PhotoQuality struct {
	Brightness float64 `json:"brightness"`
	Blur       float64 `json:"blur"`
	Framing    float64 `json:"framing"`
}

// FoodCheckResult is the model's classification of a single meal photo.
// This struct is the wire contract: the response schema sent to the model is
// closed and every field is required, so the JSON shape here must not drift.
type FoodCheckResult struct {
	IsFood         bool         `json:"isFood"`
	Confidence     float64      `json:"confidence"`
	HasPlateOrBowl bool         `json:"hasPlateOrBowl"`
	Quality        PhotoQuality `json:"quality"`
	ReasonCode     ReasonCode   `json:"reasonCode"`
	RoastLine      string       `json:"roastLine"`
	RetakeHint     string       `json:"retakeHint"`
}

// CompareVerdict classifies how much food was consumed between the before and
// after photos of one session.
type CompareVerdict string

const (
	VerdictEaten        CompareVerdict = "EATEN"
	VerdictPartial      CompareVerdict = "PARTIAL"
	VerdictUnchanged    CompareVerdict = "UNCHANGED"
	VerdictUnverifiable CompareVerdict = "UNVERIFIABLE"
)

// CompareResult is the model's before/after comparison. Same wire-contract
// rules as FoodCheckResult.
type CompareResult struct {
	IsSameScene     bool           `json:"isSameScene"`
	DuplicateScore  float64        `json:"duplicateScore"`
	FoodChangeScore float64        `json:"foodChangeScore"`
	Verdict         CompareVerdict `json:"verdict"`
	Confidence      float64        `json:"confidence"`
	ReasonCode      ReasonCode     `json:"reasonCode"`
	RoastLine       string         `json:"roastLine"`
	RetakeHint      string         `json:"retakeHint"`
}

// NutritionEstimate is the model's conservative calorie/macro estimate for a
// meal photo. Ranges widen under portion-size ambiguity rather than guessing.
type NutritionEstimate struct {
	Items       []string `json:"items"`
	CaloriesMin int      `json:"caloriesMin"`
	CaloriesMax int      `json:"caloriesMax"`
	ProteinG    int      `json:"proteinG"`
	CarbsG      int      `json:"carbsG"`
	FatG        int      `json:"fatG"`
	Confidence  float64  `json:"confidence"`
	Notes       string   `json:"notes"`
}

// StatusForVerdict maps a comparison verdict to the terminal session status
// it produces. The mapping is total: every known verdict has exactly one
// status, and unknown verdicts conservatively yield INCOMPLETE.
func StatusForVerdict(verdict CompareVerdict) SessionStatus {
	switch verdict {
	case VerdictEaten:
		return SessionVerified
	case VerdictPartial:
		return SessionPartial
	case VerdictUnchanged:
		return SessionFailed
	case VerdictUnverifiable:
		return SessionIncomplete
	default:
		return SessionIncomplete
	}
}
