package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeySetProvider sets where verification keys come from, usually a
// *jwks.Cache. This is a required option.
func WithKeySetProvider(provider KeySetProvider) Option {
	return func(v *Validator) error {
		if provider == nil {
			return errors.New("key set provider cannot be nil")
		}
		v.keySets = provider
		return nil
	}
}

// WithIssuer sets the expected issuer claim (iss). This is a required option.
func WithIssuer(issuer string) Option {
	return func(v *Validator) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuer); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuer
		return nil
	}
}

// WithAudience sets the accepted audiences. A token must carry at least one
// of them in its aud claim. This is a required option.
func WithAudience(audiences ...string) Option {
	return func(v *Validator) error {
		if len(audiences) == 0 {
			return errors.New("audience cannot be empty")
		}
		for i, aud := range audiences {
			if aud == "" {
				return fmt.Errorf("audience at index %d cannot be empty", i)
			}
		}
		v.audience = audiences
		return nil
	}
}

// WithAllowedAlgorithms replaces the algorithm allow-list.
//
// Default: RS256 only.
func WithAllowedAlgorithms(algorithms ...SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algorithms) == 0 {
			return errors.New("allowed algorithms cannot be empty")
		}
		allowed := make(map[SignatureAlgorithm]bool, len(algorithms))
		for _, alg := range algorithms {
			if !alg.IsSupported() {
				return fmt.Errorf("unsupported signature algorithm: %s", alg)
			}
			allowed[alg] = true
		}
		v.allowedAlgorithms = allowed
		return nil
	}
}

// WithDefaultAlgorithm sets the algorithm assumed for headers without alg.
// The result is still checked against the allow-list.
//
// Default: RS256.
func WithDefaultAlgorithm(alg SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if !alg.IsSupported() {
			return fmt.Errorf("unsupported signature algorithm: %s", alg)
		}
		v.defaultAlgorithm = alg
		return nil
	}
}

// WithKidFallback makes the validator use the first key of the set when the
// token's kid is absent or unknown. See the package documentation before
// enabling it.
//
// Default: false.
func WithKidFallback(enabled bool) Option {
	return func(v *Validator) error {
		v.kidFallback = enabled
		return nil
	}
}

// WithStaleKeySet controls whether a previously fetched key set is used
// when refreshing it fails.
//
// Default: true.
func WithStaleKeySet(enabled bool) Option {
	return func(v *Validator) error {
		v.staleKeySet = enabled
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to exp and nbf.
//
// Default: 0.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithLogger sets the logger used to report rejections.
func WithLogger(logger logging.Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithMetrics sets the recorder for validation outcomes and durations.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(v *Validator) error {
		if recorder == nil {
			return errors.New("metrics recorder cannot be nil")
		}
		v.metrics = recorder
		return nil
	}
}

// WithTracer sets the tracer used to create a span per validation.
//
// Default: the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(v *Validator) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		v.tracer = tracer
		return nil
	}
}

// WithClock overrides the clock used for exp and nbf checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
