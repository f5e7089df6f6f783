package jwks

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
)

const (
	// DefaultFreshness is how long a fetched key set is served before the
	// next call refetches it.
	DefaultFreshness = 3600 * time.Second

	// DefaultFetchTimeout bounds a single JWKS fetch.
	DefaultFetchTimeout = 10 * time.Second

	// maxBodySize caps the JWKS response body; real documents are a few KB.
	maxBodySize = 1 << 20
)

// Option configures a Cache. Options return errors to enable validation
// during construction.
type Option func(*Cache) error

// WithURL sets the JWKS URL to fetch. This is a required option.
func WithURL(jwksURL *url.URL) Option {
	return func(c *Cache) error {
		if jwksURL == nil {
			return errors.New("jwks URL cannot be nil")
		}
		if jwksURL.Scheme != "https" && jwksURL.Scheme != "http" {
			return errors.New("jwks URL must be an http or https URL")
		}
		c.url = jwksURL.String()
		return nil
	}
}

// WithFreshness sets how long a fetched key set is served from memory.
// Zero restores DefaultFreshness.
func WithFreshness(d time.Duration) Option {
	return func(c *Cache) error {
		if d < 0 {
			return errors.New("freshness cannot be negative")
		}
		if d == 0 {
			d = DefaultFreshness
		}
		c.freshness = d
		return nil
	}
}

// WithFetchTimeout bounds each JWKS fetch. Zero restores DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		if d < 0 {
			return errors.New("fetch timeout cannot be negative")
		}
		if d == 0 {
			d = DefaultFetchTimeout
		}
		c.fetchTimeout = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for fetching.
// If not specified, a client with a 10s timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.client = client
		return nil
	}
}

// WithLogger sets the logger for fetch activity.
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the recorder for fetch counts, durations and key set size.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(c *Cache) error {
		if recorder == nil {
			return errors.New("metrics recorder cannot be nil")
		}
		c.metrics = recorder
		return nil
	}
}

// WithClock overrides the clock used for freshness decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}
