package jwksguard

import (
	"errors"
	"net/http"

	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/logging"
)

var (
	// ErrValidatorNil is returned when no validator is configured.
	ErrValidatorNil = errors.New("validator cannot be nil")

	// ErrErrorHandlerNil is returned when WithErrorHandler receives nil.
	ErrErrorHandlerNil = errors.New("error handler cannot be nil")

	// ErrTokenExtractorNil is returned when WithTokenExtractor receives nil.
	ErrTokenExtractorNil = errors.New("token extractor cannot be nil")

	// ErrExclusionURLsEmpty is returned when WithExclusionURLs receives no URLs.
	ErrExclusionURLsEmpty = errors.New("exclusion URLs list cannot be empty")

	// ErrLoggerNil is returned when WithLogger receives nil.
	ErrLoggerNil = errors.New("logger cannot be nil")
)

// Option configures the Guard.
type Option func(*Guard) error

// WithValidator sets the token validator (REQUIRED). *validator.Validator
// satisfies core.TokenValidator.
func WithValidator(v core.TokenValidator) Option {
	return func(m *Guard) error {
		if v == nil {
			return ErrValidatorNil
		}
		m.validator = v
		return nil
	}
}

// WithCredentialsOptional sets whether requests without a token pass
// through without claims.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(m *Guard) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are validated.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *Guard) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request is rejected.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Guard) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function that pulls the token from a request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Guard) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs skips validation for requests whose full URL or path
// equals one of exclusions.
func WithExclusionURLs(exclusions ...string) Option {
	return func(m *Guard) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			for _, exclusion := range exclusions {
				if r.URL.String() == exclusion || r.URL.Path == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets the logger used by the middleware and its core.
func WithLogger(logger logging.Logger) Option {
	return func(m *Guard) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}
