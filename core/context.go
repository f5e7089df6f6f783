package core

import (
	"context"
	"fmt"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves claims from the context with type safety.
//
//	claims, err := core.GetClaims[*validator.Claims](ctx)
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: claims are %T, not %T", ErrClaimsNotFound, val, zero)
	}

	return claims, nil
}

// SetClaims stores claims in the context.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
