package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Signer errors
var (
	// ErrTokenInvalid is returned for tokens that are malformed or carry a
	// bad signature.
	ErrTokenInvalid = errors.New("invalid upload token")

	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("upload token expired")
)

// uploadClaims is the payload signed into an upload token.
type uploadClaims struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"exp"`
}

// UploadSigner mints and verifies the opaque tokens embedded in signed
// upload URLs. Tokens are self-contained (HMAC-SHA256 over the claims), so
// the PUT endpoint can verify them without shared state.
type UploadSigner struct {
	secret []byte
	now    func() time.Time
}

// NewUploadSigner creates a signer with the given secret. Pass nil for now
// to use time.Now.
func NewUploadSigner(secret []byte, now func() time.Time) *UploadSigner {
	if now == nil {
		now = time.Now
	}
	return &UploadSigner{secret: secret, now: now}
}

// Sign creates a token authorizing one PUT to the given storage key for the
// next expiresIn.
func (s *UploadSigner) Sign(key string, expiresIn time.Duration) (string, error) {
	claims := uploadClaims{
		Key:       key,
		ExpiresAt: s.now().Add(expiresIn).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal upload claims: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.signature(encoded), nil
}

// Verify checks a token's signature and expiry, returning the storage key it
// authorizes.
func (s *UploadSigner) Verify(token string) (string, error) {
	var encoded, sig string
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			encoded, sig = token[:i], token[i+1:]
			break
		}
	}
	if encoded == "" || sig == "" {
		return "", ErrTokenInvalid
	}

	if !hmac.Equal([]byte(sig), []byte(s.signature(encoded))) {
		return "", ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrTokenInvalid
	}

	var claims uploadClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrTokenInvalid
	}

	if s.now().Unix() > claims.ExpiresAt {
		return "", ErrTokenExpired
	}

	return claims.Key, nil
}

// signature computes the base64url-encoded HMAC-SHA256 of the encoded payload.
func (s *UploadSigner) signature(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
