package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/auth0/go-jwks-guard/jwks"
	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
)

const tracerName = "github.com/auth0/go-jwks-guard/validator"

// KeySetProvider supplies the key set tokens are verified against.
// *jwks.Cache implements it.
type KeySetProvider interface {
	GetKeySet(ctx context.Context, forceRefresh bool) (*jwks.KeySet, error)
}

// snapshotProvider is implemented by providers that can hand out their last
// known key set without I/O.
type snapshotProvider interface {
	Current() *jwks.KeySet
}

// Validator verifies tokens against a KeySetProvider. It is safe for
// concurrent use.
type Validator struct {
	keySets           KeySetProvider
	issuer            string
	audience          []string
	allowedAlgorithms map[SignatureAlgorithm]bool
	defaultAlgorithm  SignatureAlgorithm
	kidFallback       bool
	staleKeySet       bool
	allowedClockSkew  time.Duration

	logger  logging.Logger
	metrics metrics.Recorder
	tracer  trace.Tracer
	now     func() time.Time
}

// New sets up a Validator.
//
// Required options: WithKeySetProvider, WithIssuer, WithAudience.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		allowedAlgorithms: map[SignatureAlgorithm]bool{RS256: true},
		defaultAlgorithm:  DefaultAlgorithm,
		kidFallback:       false,
		staleKeySet:       true,
		logger:            logging.Nop(),
		metrics:           metrics.Noop{},
		tracer:            otel.Tracer(tracerName),
		now:               time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.keySets == nil {
		return nil, errors.New("key set provider is required (use WithKeySetProvider)")
	}
	if v.issuer == "" {
		return nil, errors.New("issuer is required (use WithIssuer)")
	}
	if len(v.audience) == 0 {
		return nil, errors.New("audience is required (use WithAudience)")
	}

	return v, nil
}

// Validate checks token and reports the outcome. It never panics on input
// and never returns a partially verified result.
func (v *Validator) Validate(ctx context.Context, token string) Result {
	start := time.Now()
	ctx, span := v.tracer.Start(ctx, "validator.Validate")
	defer span.End()

	result := v.validate(ctx, token)

	outcome := "valid"
	if result.Valid() {
		v.logger.Debug("token validated", "sub", result.Claims.Subject)
	} else {
		outcome = string(result.Reason)
		span.SetStatus(otelcodes.Error, result.Reason.Message())
		v.logger.Warn("token rejected", "reason", outcome, "error", result.Cause)
	}
	span.SetAttributes(attribute.String("jwt.result", outcome))

	tags := map[string]string{"result": outcome}
	v.metrics.IncCounter(metrics.ValidationsTotal, tags)
	v.metrics.ObserveHistogram(metrics.ValidationDuration, time.Since(start).Seconds(), tags)

	return result
}

// ValidateToken is Validate for callers that want claims and an error.
// The error is a *ValidationError.
func (v *Validator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	result := v.Validate(ctx, token)
	if !result.Valid() {
		return nil, result.Err()
	}
	return result.Claims, nil
}

func (v *Validator) validate(ctx context.Context, token string) Result {
	segs, err := splitToken(token)
	if err != nil {
		return invalid(ReasonMalformedToken, err)
	}

	header, err := parseHeader(segs.header)
	if err != nil {
		return invalid(ReasonMalformedToken, err)
	}

	alg := header.Algorithm
	if alg == "" {
		alg = v.defaultAlgorithm
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("jwt.alg", string(alg)),
		attribute.String("jwt.kid", header.KeyID),
	)

	if !v.allowedAlgorithms[alg] {
		return invalid(ReasonAlgorithmNotAllowed, fmt.Errorf("algorithm %q is not allowed", alg))
	}

	set, err := v.keySet(ctx)
	if err != nil {
		return invalid(ReasonKeySetUnavailable, err)
	}

	selected, err := v.selectKey(set, header.KeyID)
	if err != nil {
		return invalid(ReasonKeyNotFound, err)
	}

	key, err := convertKey(selected, alg)
	if err != nil {
		return invalid(ReasonUnsupportedKey, err)
	}

	payload, err := jws.Verify([]byte(token), jws.WithKey(jwa.SignatureAlgorithm(alg), key))
	if err != nil {
		return invalid(ReasonBadSignature, err)
	}

	claims, err := parseClaims(payload)
	if err != nil {
		return invalid(ReasonMalformedToken, err)
	}

	if reason, err := v.checkClaims(claims); err != nil {
		return invalid(reason, err)
	}

	return Result{Claims: claims}
}

// keySet returns the provider's key set, or its last known set when the
// refresh fails and stale sets are allowed.
func (v *Validator) keySet(ctx context.Context) (*jwks.KeySet, error) {
	set, err := v.keySets.GetKeySet(ctx, false)
	if err == nil {
		return set, nil
	}

	if v.staleKeySet {
		if snapshots, ok := v.keySets.(snapshotProvider); ok {
			if stale := snapshots.Current(); stale.Len() > 0 {
				v.logger.Warn("key set refresh failed, using previously fetched key set",
					"fetched_at", stale.FetchedAt,
					"error", err)
				return stale, nil
			}
		}
	}

	return nil, err
}

func (v *Validator) selectKey(set *jwks.KeySet, kid string) (jwks.JWK, error) {
	if key, ok := jwks.FindByKid(set, kid); ok {
		return key, nil
	}

	if !v.kidFallback {
		if kid == "" {
			return jwks.JWK{}, errors.New("token has no kid")
		}
		return jwks.JWK{}, fmt.Errorf("no key with kid %q", kid)
	}

	key, ok := set.First()
	if !ok {
		return jwks.JWK{}, jwks.ErrNoKeys
	}
	v.logger.Warn("no key matched the token kid, falling back to the first key",
		"kid", kid,
		"fallback_kid", key.KeyID)
	return key, nil
}

func (v *Validator) checkClaims(claims *Claims) (Reason, error) {
	now := v.now()

	if claims.Expiry != nil && !now.Before(claims.Expiry.Time().Add(v.allowedClockSkew)) {
		return ReasonExpired, fmt.Errorf("token expired at %s", claims.Expiry.Time().UTC().Format(time.RFC3339))
	}

	if claims.NotBefore != nil && now.Add(v.allowedClockSkew).Before(claims.NotBefore.Time()) {
		return ReasonNotYetValid, fmt.Errorf("token not valid before %s", claims.NotBefore.Time().UTC().Format(time.RFC3339))
	}

	if claims.Issuer != v.issuer {
		return ReasonBadIssuer, fmt.Errorf("expected issuer %q, got %q", v.issuer, claims.Issuer)
	}

	if !claims.Audience.ContainsAny(v.audience...) {
		return ReasonBadAudience, fmt.Errorf("expected audience %q, got %q", v.audience, []string(claims.Audience))
	}

	return "", nil
}
