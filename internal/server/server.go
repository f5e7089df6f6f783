// Package server runs the sample protected resource server: a gin router
// whose /api routes are guarded by a JWKS-backed token validator.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/auth0/go-jwks-guard/core"
	jwtginhandler "github.com/auth0/go-jwks-guard/framework/gin"
	"github.com/auth0/go-jwks-guard/internal/config"
	"github.com/auth0/go-jwks-guard/internal/oidc"
	"github.com/auth0/go-jwks-guard/jwks"
	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
	"github.com/auth0/go-jwks-guard/validator"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "jwks-guard-resource-server"

// Server is the protected resource server.
type Server struct {
	cfg       *config.Config
	logger    logging.Logger
	client    *http.Client
	registry  *prometheus.Registry
	now       func() time.Time
	cache     *jwks.Cache
	validator *validator.Validator
	engine    *gin.Engine
}

// New builds the key set cache, validator and router described by cfg. When
// cfg.Auth.DiscoverJWKS is set and no JWKS URL is configured, the URL is
// discovered from the issuer, which requires network access.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	s := &Server{
		cfg:    cfg,
		logger: logging.Nop(),
		client: &http.Client{Timeout: cfg.Auth.FetchTimeout},
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if err := s.buildValidator(ctx); err != nil {
		return nil, err
	}

	c, err := core.New(
		core.WithValidator(s.validator),
		core.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up token checks: %w", err)
	}

	s.engine = s.router(jwtginhandler.NewGinMiddleware(c))
	return s, nil
}

func (s *Server) jwksURL(ctx context.Context) (*url.URL, error) {
	if s.cfg.Auth.JWKSURL != "" {
		u, err := url.Parse(s.cfg.Auth.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jwks url: %w", err)
		}
		return u, nil
	}

	if !s.cfg.Auth.DiscoverJWKS {
		return nil, errors.New("no jwks url configured and discovery is disabled")
	}

	u, err := oidc.DiscoverJWKSURL(ctx, s.client, s.cfg.Auth.Issuer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Discovered JWKS URL", "issuer", s.cfg.Auth.Issuer, "jwks_url", u.String())
	return u, nil
}

func (s *Server) buildValidator(ctx context.Context) error {
	jwksURL, err := s.jwksURL(ctx)
	if err != nil {
		return err
	}

	recorder := metrics.NewPrometheus(s.registry)

	s.cache, err = jwks.New(
		jwks.WithURL(jwksURL),
		jwks.WithFreshness(s.cfg.Auth.CacheFreshness),
		jwks.WithFetchTimeout(s.cfg.Auth.FetchTimeout),
		jwks.WithHTTPClient(s.client),
		jwks.WithLogger(s.logger),
		jwks.WithMetrics(recorder),
		jwks.WithClock(s.now),
	)
	if err != nil {
		return fmt.Errorf("failed to set up key set cache: %w", err)
	}

	s.validator, err = validator.New(
		validator.WithKeySetProvider(s.cache),
		validator.WithIssuer(s.cfg.Auth.Issuer),
		validator.WithAudience(s.cfg.Auth.Audience...),
		validator.WithAllowedAlgorithms(s.cfg.Auth.AllowedAlgorithms...),
		validator.WithDefaultAlgorithm(s.cfg.Auth.DefaultAlgorithm),
		validator.WithKidFallback(s.cfg.Auth.AllowKidFallback),
		validator.WithStaleKeySet(s.cfg.Auth.StaleKeySet),
		validator.WithAllowedClockSkew(s.cfg.Auth.ClockSkew),
		validator.WithLogger(s.logger),
		validator.WithMetrics(recorder),
		validator.WithClock(s.now),
	)
	if err != nil {
		return fmt.Errorf("failed to set up token validator: %w", err)
	}

	return nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Validator returns the token validator used by the protected routes.
func (s *Server) Validator() *validator.Validator {
	return s.validator
}

// KeySetCache returns the cache backing the validator.
func (s *Server) KeySetCache() *jwks.Cache {
	return s.cache
}

// Run serves on cfg.Server.Addr() until ctx is cancelled, then shuts down
// gracefully within cfg.Server.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting resource server",
			"addr", srv.Addr,
			"issuer", s.cfg.Auth.Issuer,
			"jwks_url", s.cache.URL(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down resource server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
