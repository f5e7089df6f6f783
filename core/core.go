// Package core provides the transport-agnostic part of bearer token
// authentication: turning an extracted token into verified claims.
//
// The Core type is wrapped by transport-specific adapters (net/http, Gin,
// Echo, gRPC) which only differ in how they extract tokens and report
// failures.
package core

import (
	"context"
	"time"

	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/validator"
)

// TokenValidator validates a raw token. *validator.Validator implements it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) validator.Result
}

// Core is the framework-agnostic authentication engine.
type Core struct {
	validator           TokenValidator
	credentialsOptional bool
	logger              logging.Logger
}

// CheckToken validates token and returns its verified claims.
//
//   - If token is empty and credentials are optional, returns (nil, nil)
//   - If token is empty and credentials are required, returns ErrJWTMissing
//   - Otherwise the token is validated and a rejection is returned as a
//     *validator.ValidationError
func (c *Core) CheckToken(ctx context.Context, token string) (*validator.Claims, error) {
	if token == "" {
		if c.credentialsOptional {
			c.logger.Debug("No token provided, but credentials are optional")
			return nil, nil
		}

		c.logger.Warn("No token provided and credentials are required")
		return nil, ErrJWTMissing
	}

	start := time.Now()
	result := c.validator.Validate(ctx, token)
	duration := time.Since(start)

	if !result.Valid() {
		c.logger.Info("Token validation failed",
			"reason", string(result.Reason),
			"duration", duration)
		return nil, result.Err()
	}

	c.logger.Debug("Token validated successfully",
		"sub", result.Claims.Subject,
		"duration", duration)

	return result.Claims, nil
}
