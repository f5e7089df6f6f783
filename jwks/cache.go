package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/auth0/go-jwks-guard/logging"
	"github.com/auth0/go-jwks-guard/metrics"
)

// Cache fetches the JWKS document and serves it from memory until it is
// older than the configured freshness.
//
// The zero value is not usable; create one with New.
type Cache struct {
	url          string
	freshness    time.Duration
	fetchTimeout time.Duration
	client       *http.Client
	logger       logging.Logger
	metrics      metrics.Recorder
	now          func() time.Time

	current    atomic.Pointer[KeySet]
	refreshing atomic.Bool
}

// New builds a Cache.
//
// Required options:
//   - WithURL: the JWKS URL
//
// Optional options:
//   - WithFreshness (default 3600s)
//   - WithFetchTimeout (default 10s)
//   - WithHTTPClient, WithLogger, WithMetrics, WithClock
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		freshness:    DefaultFreshness,
		fetchTimeout: DefaultFetchTimeout,
		client:       &http.Client{Timeout: DefaultFetchTimeout},
		logger:       logging.Nop(),
		metrics:      metrics.Noop{},
		now:          time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.url == "" {
		return nil, fmt.Errorf("jwks URL is required (use WithURL)")
	}

	return c, nil
}

// URL returns the JWKS URL the cache fetches from.
func (c *Cache) URL() string {
	return c.url
}

// Current returns the last successfully fetched key set without any I/O.
// It returns nil before the first successful fetch.
func (c *Cache) Current() *KeySet {
	return c.current.Load()
}

// GetKeySet returns the cached key set while it is fresh and forceRefresh is
// false. Otherwise it fetches the document, swaps it in and returns it.
//
// On failure it returns a *FetchError and the previously cached set stays
// in place for other callers.
func (c *Cache) GetKeySet(ctx context.Context, forceRefresh bool) (*KeySet, error) {
	snapshot := c.current.Load()

	if !forceRefresh && snapshot != nil {
		if c.isFresh(snapshot) {
			return snapshot, nil
		}

		// Somebody else is already refreshing; keep serving the old set.
		if !c.refreshing.CompareAndSwap(false, true) {
			return snapshot, nil
		}
		defer c.refreshing.Store(false)
	}

	return c.refresh(ctx)
}

func (c *Cache) isFresh(set *KeySet) bool {
	return c.now().Sub(set.FetchedAt) < c.freshness
}

func (c *Cache) refresh(ctx context.Context) (*KeySet, error) {
	c.logger.Debug("fetching key set", "url", c.url)

	start := time.Now()
	set, err := c.fetch(ctx)
	c.metrics.ObserveHistogram(metrics.FetchDuration, time.Since(start).Seconds(), map[string]string{})

	if err != nil {
		c.metrics.IncCounter(metrics.FetchesTotal, map[string]string{"result": "error"})
		c.logger.Error("failed to fetch key set", "url", c.url, "error", err)
		return nil, err
	}

	c.current.Store(set)
	c.metrics.IncCounter(metrics.FetchesTotal, map[string]string{"result": "success"})
	c.metrics.SetGauge(metrics.KeySetSize, float64(set.Len()), map[string]string{})
	c.logger.Info("fetched key set", "url", c.url, "keys", set.Len())

	return set, nil
}

func (c *Cache) fetch(ctx context.Context) (*KeySet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Op: OpRequest, URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Op: OpRequest, URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Op: OpStatus, URL: c.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Op: OpRequest, URL: c.url, Err: err}
	}

	set, err := ParseKeySet(body, c.now())
	if err != nil {
		return nil, &FetchError{Op: OpDecode, URL: c.url, Err: err}
	}

	return set, nil
}
