package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/auth0/go-jwks-guard/logging"
)

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger shared by the server, cache and validator.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithHTTPClient sets the client used for discovery and JWKS fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		s.client = client
		return nil
	}
}

// WithRegistry sets the Prometheus registry that metrics are recorded in and
// served from. By default a fresh registry with Go and process collectors is
// used.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) error {
		if registry == nil {
			return errors.New("registry cannot be nil")
		}
		s.registry = registry
		return nil
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}
