package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	"golang.org/x/image/draw"
)

// Compression parameters. The transform is deterministic: the same input
// bytes always produce the same output bytes.
const (
	// maxDimension is the longest side after downscaling.
	maxDimension = 768

	// jpegQuality is the fixed lossy re-encode quality.
	jpegQuality = 65

	// maxUploadBytes is the server's upload cap, checked before any network
	// call so an oversized photo fails fast.
	maxUploadBytes = 5 * 1024 * 1024
)

// SignedUpload is the server's half of the upload handshake.
type SignedUpload struct {
	UploadURL        string            `json:"uploadUrl"`
	Key              string            `json:"key"`
	Method           string            `json:"method"`
	Headers          map[string]string `json:"headers"`
	ExpiresInSeconds int               `json:"expiresInSeconds"`
}

// UploadPipeline compresses a photo and exchanges it for an opaque storage
// key via the signed-upload handshake.
type UploadPipeline struct {
	api    *APIClient
	logger *slog.Logger
}

// NewUploadPipeline creates a pipeline over the given API client.
func NewUploadPipeline(api *APIClient, logger *slog.Logger) *UploadPipeline {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UploadPipeline")
	}

	return &UploadPipeline{
		api:    api,
		logger: logger.With(slog.String("component", "upload_pipeline")),
	}
}

// Upload runs the full pipeline: compress, handshake, PUT, return the key.
// If existingKey is non-empty it is reused and no upload happens; otherwise
// every call produces a fresh key, even for byte-identical content (uploads
// are not content-addressed).
func (p *UploadPipeline) Upload(ctx context.Context, kind string, photo []byte, existingKey string) (string, error) {
	if existingKey != "" {
		p.logger.Debug("reusing existing storage key", slog.String("key", existingKey))
		return existingKey, nil
	}

	compressed, err := p.Compress(photo)
	if err != nil {
		return "", err
	}
	if len(compressed) > maxUploadBytes {
		return "", ErrTooLarge
	}

	handshake, err := p.RequestSignedUpload(ctx, kind)
	if err != nil {
		return "", err
	}

	if err := p.Put(ctx, handshake.UploadURL, compressed); err != nil {
		return "", err
	}

	p.logger.Debug("upload complete",
		slog.String("kind", kind),
		slog.String("key", handshake.Key),
		slog.Int("bytes", len(compressed)))
	return handshake.Key, nil
}

// Compress decodes a JPEG, downscales it so the longest side is at most
// maxDimension, and re-encodes at the fixed quality. Photos already small
// enough are still re-encoded so the output is uniform.
func (p *UploadPipeline) Compress(photo []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(photo))
	if err != nil || format != "jpeg" {
		return nil, ErrUnsupportedMediaType
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	longest := width
	if height > longest {
		longest = height
	}
	if longest > maxDimension {
		scale := float64(maxDimension) / float64(longest)
		newWidth := int(float64(width) * scale)
		newHeight := int(float64(height) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: failed to encode image: %v", ErrClient, err)
	}
	return buf.Bytes(), nil
}

// RequestSignedUpload asks the server for a fresh key and a signed URL
// authorizing one PUT to it. kind is "before" or "after" and only affects key
// namespacing, never limits.
func (p *UploadPipeline) RequestSignedUpload(ctx context.Context, kind string) (*SignedUpload, error) {
	var handshake SignedUpload
	err := p.api.PostJSON(ctx, "/api/storage/signed-upload", map[string]string{"kind": kind}, &handshake)
	if err != nil {
		return nil, err
	}
	return &handshake, nil
}

// Put uploads the image bytes to a signed URL. The call carries its own
// timeout and follows the single 401-refresh-replay rule like every other
// call the SDK makes.
func (p *UploadPipeline) Put(ctx context.Context, uploadURL string, data []byte) error {
	return p.api.PutBytes(ctx, uploadURL, "image/jpeg", data)
}
