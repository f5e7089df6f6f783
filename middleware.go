package jwksguard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/validator"
)

// Guard is net/http middleware that only lets requests with a valid bearer
// token through.
type Guard struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              logging.Logger

	// Temporary fields used during construction
	validator           core.TokenValidator
	credentialsOptional bool
}

// ExclusionURLHandler reports whether a request skips token validation.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a Guard with the supplied options.
//
// Example:
//
//	guard, err := jwksguard.New(
//	    jwksguard.WithValidator(v),
//	    jwksguard.WithExclusionURLs("/health"),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/api/", guard.CheckJWT(apiHandler))
func New(opts ...Option) (*Guard, error) {
	m := &Guard{
		validateOnOptions:   true,
		credentialsOptional: false,
		errorHandler:        DefaultErrorHandler,
		tokenExtractor:      AuthHeaderTokenExtractor,
		logger:              logging.Nop(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.validator == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
	}

	c, err := core.New(
		core.WithValidator(m.validator),
		core.WithCredentialsOptional(m.credentialsOptional),
		core.WithLogger(m.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}
	m.core = c

	return m, nil
}

// GetClaims retrieves the verified claims set by CheckJWT.
//
//	claims, err := jwksguard.GetClaims(r.Context())
func GetClaims(ctx context.Context) (*validator.Claims, error) {
	return core.GetClaims[*validator.Claims](ctx)
}

// MustGetClaims retrieves the verified claims or panics. Use only behind
// CheckJWT with credentials required.
func MustGetClaims(ctx context.Context) *validator.Claims {
	claims, err := GetClaims(ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// GetIdentity returns the caller identity derived from the verified claims.
func GetIdentity(ctx context.Context) (core.Identity, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return core.Identity{}, err
	}
	return core.IdentityFromClaims(claims), nil
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}

// CheckJWT wraps next so that it only runs for requests carrying a valid
// token, with the claims stored in the request context.
func (m *Guard) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			m.logger.Debug("skipping JWT validation for excluded URL",
				"method", r.Method,
				"path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		if !m.validateOnOptions && r.Method == http.MethodOptions {
			m.logger.Debug("skipping JWT validation for OPTIONS request")
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// An extractor error means a token was offered in a bad shape,
			// not that it was missing.
			m.logger.Warn("failed to extract token from request",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
			m.errorHandler(w, r, fmt.Errorf("%w: %w", ErrTokenExtraction, err))
			return
		}

		claims, err := m.core.CheckToken(r.Context(), token)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		if claims == nil {
			m.logger.Debug("no credentials provided, continuing without claims")
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}
