// Package auth provides JWT bearer authentication for agrovista-engine.
// Tokens are validated against the platform's JWKS endpoints; validated
// claims are stored in the request context for downstream services.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agrovista/agrovista-engine/pkg/apperrors"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims represents the JWT claims issued by the platform auth server.
// It embeds RegisteredClaims for standard fields (sub, iss, exp, etc.).
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims stores validated claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext extracts the user ID from JWT claims in the context.
// Returns empty string if not authenticated. Use this when empty string can
// be handled gracefully.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}

// RequireUserIDFromContext extracts the user ID from context, failing with
// apperrors.ErrUnauthenticated when absent. Every write path calls this
// before touching storage.
func RequireUserIDFromContext(ctx context.Context) (string, error) {
	userID := GetUserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("%w: no user in context", apperrors.ErrUnauthenticated)
	}
	return userID, nil
}
