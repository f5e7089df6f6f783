package jwtginhandler

import (
	"github.com/gin-gonic/gin"

	jwksguard "github.com/auth0/go-jwks-guard"
)

// Option defines a functional option for configuring the middleware.
type Option func(*ginMiddlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware. The
// handler is expected to write the response; the chain is aborted after it.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *ginMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets the gin.Context key the claims are stored under.
func WithContextKey(key string) Option {
	return func(config *ginMiddlewareConfig) {
		config.contextKey = key
	}
}

// WithTokenExtractor sets the function that pulls the token from a request.
func WithTokenExtractor(extractor jwksguard.TokenExtractor) Option {
	return func(config *ginMiddlewareConfig) {
		config.tokenExtractor = extractor
	}
}
