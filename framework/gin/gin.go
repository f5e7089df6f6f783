// Package jwtginhandler adapts core.Core to Gin.
package jwtginhandler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	jwksguard "github.com/auth0/go-jwks-guard"
	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/validator"
)

// DefaultClaimsKey is the gin.Context key the verified claims are stored
// under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type ginMiddlewareConfig struct {
	errorHandler   func(*gin.Context, error)
	contextKey     string
	tokenExtractor jwksguard.TokenExtractor
}

// NewGinMiddleware creates a Gin middleware that authenticates requests with
// c. Verified claims are stored both under the context key and in the
// request context, so jwksguard.GetClaims works in handlers too.
func NewGinMiddleware(c *core.Core, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler:   defaultGinErrorHandler,
		contextKey:     DefaultClaimsKey,
		tokenExtractor: jwksguard.AuthHeaderTokenExtractor,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(ctx *gin.Context) {
		token, err := config.tokenExtractor(ctx.Request)
		if err != nil {
			config.errorHandler(ctx, fmt.Errorf("%w: %w", jwksguard.ErrTokenExtraction, err))
			ctx.Abort()
			return
		}

		claims, err := c.CheckToken(ctx.Request.Context(), token)
		if err != nil {
			config.errorHandler(ctx, err)
			ctx.Abort()
			return
		}

		if claims != nil {
			ctx.Set(config.contextKey, claims)
			ctx.Request = ctx.Request.WithContext(core.SetClaims(ctx.Request.Context(), claims))
		}

		ctx.Next()
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	status, body := jwksguard.ErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// GetClaims returns the claims stored by the middleware under contextKey,
// or DefaultClaimsKey when contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (*validator.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	validated, ok := claims.(*validator.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return validated, nil
}

// GetIdentity returns the caller identity derived from the stored claims.
func GetIdentity(c *gin.Context) (core.Identity, error) {
	claims, err := GetClaims(c, "")
	if err != nil {
		return core.Identity{}, err
	}
	return core.IdentityFromClaims(claims), nil
}
