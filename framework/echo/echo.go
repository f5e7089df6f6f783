// Package jwtechohandler adapts core.Core to Echo.
package jwtechohandler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	jwksguard "github.com/auth0/go-jwks-guard"
	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/validator"
)

// DefaultClaimsKey is the echo.Context key the verified claims are stored
// under.
const DefaultClaimsKey = "jwt"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler   func(echo.Context, error) error
	contextKey     string
	tokenExtractor jwksguard.TokenExtractor
}

// NewEchoMiddleware returns an Echo middleware that authenticates requests
// with c.
func NewEchoMiddleware(c *core.Core, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler:   defaultEchoErrorHandler,
		contextKey:     DefaultClaimsKey,
		tokenExtractor: jwksguard.AuthHeaderTokenExtractor,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()

			token, err := config.tokenExtractor(req)
			if err != nil {
				return config.errorHandler(ctx, fmt.Errorf("%w: %w", jwksguard.ErrTokenExtraction, err))
			}

			claims, err := c.CheckToken(req.Context(), token)
			if err != nil {
				return config.errorHandler(ctx, err)
			}

			if claims != nil {
				ctx.Set(config.contextKey, claims)
				ctx.SetRequest(req.WithContext(core.SetClaims(req.Context(), claims)))
			}

			return next(ctx)
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status, body := jwksguard.ErrorResponse(err)
	return c.JSON(status, body)
}

// GetClaims extracts the verified claims from the Echo context. An empty
// contextKey means DefaultClaimsKey.
func GetClaims(c echo.Context, contextKey string) (*validator.Claims, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, ok := c.Get(contextKey).(*validator.Claims)
	return claims, ok
}
