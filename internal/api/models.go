// Package api implements the HTTP boundary: request models, handlers for the
// vision, nutrition and storage endpoints, and the error-to-status mapping.
package api

// VerifyFoodRequest asks for a food check on a previously uploaded image.
type VerifyFoodRequest struct {
	Key string `json:"key" validate:"required"`
}

// CompareMealRequest asks for a before/after comparison of two uploaded
// images.
type CompareMealRequest struct {
	PreKey  string `json:"preKey"  validate:"required"`
	PostKey string `json:"postKey" validate:"required"`
}

// EstimateNutritionRequest asks for a nutrition estimate on an uploaded
// image. The body is decoded strictly: unknown fields are rejected.
type EstimateNutritionRequest struct {
	Key string `json:"key" validate:"required"`
}

// SignedUploadRequest starts the signed-upload handshake.
type SignedUploadRequest struct {
	Kind string `json:"kind" validate:"required,oneof=before after"`
}

// SignedUploadResponse is the handshake result. The client PUTs the image
// bytes to UploadURL before ExpiresInSeconds elapses and then references the
// object by Key.
type SignedUploadResponse struct {
	UploadURL        string            `json:"uploadUrl"`
	Key              string            `json:"key"`
	Method           string            `json:"method"`
	Headers          map[string]string `json:"headers"`
	ExpiresInSeconds int               `json:"expiresInSeconds"`
}
