package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mealgate/mealgate-api/internal/config"
	"github.com/mealgate/mealgate-api/internal/platform/logger"
)

// hmacTokenVerifier is an implementation of TokenVerifier using HMAC-SHA
// signing, sharing a secret with the identity provider that issues tokens.
type hmacTokenVerifier struct {
	signingKey []byte
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration    // Allowed time difference to handle clock drift
}

// tokenClaims defines the structure of the JWT claims we accept.
type tokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// Ensure hmacTokenVerifier implements TokenVerifier interface
var _ TokenVerifier = (*hmacTokenVerifier)(nil)

// NewTokenVerifier creates a TokenVerifier that validates HMAC-SHA256 signed
// tokens against the configured shared secret.
func NewTokenVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	skew := time.Duration(cfg.ClockSkewSeconds) * time.Second

	return &hmacTokenVerifier{
		signingKey: []byte(cfg.JWTSecret),
		timeFunc:   time.Now,
		clockSkew:  skew,
	}, nil
}

// VerifyToken validates a bearer token and returns the user ID it carries.
//
// The structural precheck runs first: a token that is not three dot-separated
// segments can never validate, so it is rejected before any parsing or
// signature work.
func (v *hmacTokenVerifier) VerifyToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	if strings.Count(tokenString, ".") != 2 {
		log.Debug("token rejected by structural precheck")
		return uuid.Nil, ErrMalformedToken
	}

	now := v.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(func() time.Time {
			return now
		}),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("token validation failed: token expired")
			return uuid.Nil, ErrExpiredToken
		}
		log.Debug("token validation failed",
			"error_type", fmt.Sprintf("%T", err))
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return uuid.Nil, ErrInvalidToken
	}

	if claims.UserID == uuid.Nil {
		log.Debug("token validation failed: missing user ID claim")
		return uuid.Nil, ErrInvalidToken
	}

	return claims.UserID, nil
}
