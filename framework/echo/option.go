package jwtechohandler

import (
	"github.com/labstack/echo/v4"

	jwksguard "github.com/auth0/go-jwks-guard"
)

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig)

// WithErrorHandler sets a custom error handler. Its return value is returned
// from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store claims
func WithContextKey(key string) Option {
	return func(config *echoMiddlewareConfig) {
		config.contextKey = key
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor jwksguard.TokenExtractor) Option {
	return func(config *echoMiddlewareConfig) {
		config.tokenExtractor = extractor
	}
}
