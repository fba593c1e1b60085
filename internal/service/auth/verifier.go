// Package auth resolves bearer tokens to user identities. The verification
// endpoints only ever see a uuid; everything about the token format lives
// here.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Token verification errors
var (
	// ErrMalformedToken is returned for tokens that are not even
	// structurally a JWT (three dot-separated segments). These are rejected
	// before any signature work or network call.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidToken is returned for structurally valid tokens that fail
	// signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when token validation fails due to the
	// token being expired.
	ErrExpiredToken = errors.New("token expired")
)

// TokenVerifier resolves a bearer token to the authenticated user's ID.
type TokenVerifier interface {
	// VerifyToken validates the given token and returns the user ID it
	// identifies, or one of the package's sentinel errors.
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}
