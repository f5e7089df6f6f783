package grpcjwt

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
)

// Option configures a JWTInterceptor.
type Option func(*JWTInterceptor) error

// WithTokenExtractor sets the token extractor.
//
// Default: MetadataTokenExtractor
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithExclusionMethods skips authentication for the given full method names.
func WithExclusionMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return WithExclusionChecker(func(method string) bool {
		_, ok := methodSet[method]
		return ok
	})
}

// WithExclusionChecker sets a custom exclusion checker.
func WithExclusionChecker(checker ExclusionChecker) Option {
	return func(i *JWTInterceptor) error {
		i.exclusionChecker = checker
		return nil
	}
}

// WithErrorHandler sets the function that turns an authentication failure
// into the returned gRPC error.
//
// Default: DefaultErrorHandler
func WithErrorHandler(handler func(ctx context.Context, err error) error) Option {
	return func(i *JWTInterceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(i *JWTInterceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithMetrics sets the recorder for per-method authentication outcomes.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(i *JWTInterceptor) error {
		if recorder == nil {
			return errors.New("metrics recorder cannot be nil")
		}
		i.metrics = recorder
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *JWTInterceptor) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		i.tracer = tracer
		return nil
	}
}
