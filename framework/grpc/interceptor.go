package grpcjwt

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jwksguard "github.com/auth0/go-jwks-guard"
	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
	"github.com/auth0/go-jwks-guard/validator"
)

const tracerName = "github.com/auth0/go-jwks-guard/framework/grpc"

// ExclusionChecker reports whether a full method name skips authentication.
type ExclusionChecker func(method string) bool

// JWTInterceptor provides configurable JWT authentication for gRPC.
type JWTInterceptor struct {
	core             *core.Core
	tokenExtractor   TokenExtractor
	exclusionChecker ExclusionChecker
	errorHandler     func(ctx context.Context, err error) error
	logger           logging.Logger
	metrics          metrics.Recorder
	tracer           trace.Tracer
}

// New creates a JWTInterceptor around c. Credentials-optional behavior is
// configured on c.
func New(c *core.Core, opts ...Option) (*JWTInterceptor, error) {
	if c == nil {
		return nil, errors.New("core cannot be nil")
	}

	i := &JWTInterceptor{
		core:           c,
		tokenExtractor: MetadataTokenExtractor,
		errorHandler:   DefaultErrorHandler,
		logger:         logging.Nop(),
		metrics:        metrics.Noop{},
		tracer:         otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return i, nil
}

// authenticate returns ctx carrying the verified claims, or the error
// produced by the error handler.
func (i *JWTInterceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	ctx, span := i.tracer.Start(ctx, "grpcjwt.authenticate", trace.WithAttributes(
		attribute.String("rpc.method", method),
	))
	defer span.End()

	outcome := "authenticated"
	defer func() {
		span.SetAttributes(attribute.String("auth.status", outcome))
		i.metrics.IncCounter(metrics.GRPCAuthTotal, map[string]string{"method": method, "status": outcome})
	}()

	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		i.logger.Debug("Method excluded from JWT validation", "method", method)
		outcome = "excluded"
		return ctx, nil
	}

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		i.logger.Warn("Error extracting token", "method", method, "error", err)
		outcome = "extraction_error"
		span.SetStatus(otelcodes.Error, outcome)
		return nil, i.errorHandler(ctx, fmt.Errorf("%w: %w", jwksguard.ErrTokenExtraction, err))
	}

	claims, err := i.core.CheckToken(ctx, token)
	if err != nil {
		outcome = "rejected"
		span.SetStatus(otelcodes.Error, outcome)
		return nil, i.errorHandler(ctx, err)
	}

	if claims == nil {
		outcome = "anonymous"
		return ctx, nil
	}

	return core.SetClaims(ctx, claims), nil
}

// UnaryServerInterceptor returns a gRPC unary server interceptor for JWT authentication.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor for JWT authentication.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// DefaultErrorHandler maps authentication failures to codes.Unauthenticated
// with the same wording as the HTTP error bodies, and anything else to
// codes.Internal.
func DefaultErrorHandler(_ context.Context, err error) error {
	code, body := jwksguard.ErrorResponse(err)
	msg := body.Error
	if body.Details != "" {
		msg += ": " + body.Details
	}
	if code >= 500 {
		return status.Error(codes.Internal, msg)
	}
	return status.Error(codes.Unauthenticated, msg)
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// GetClaims returns the verified claims of the call.
func GetClaims(ctx context.Context) (*validator.Claims, error) {
	return core.GetClaims[*validator.Claims](ctx)
}

// RequireClaims returns the verified claims or a codes.Unauthenticated
// status error.
func RequireClaims(ctx context.Context) (*validator.Claims, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "failed to get validated JWT claims: %v", err)
	}
	return claims, nil
}
