// Package metrics records validation and key set fetch outcomes.
package metrics

import (
	"errors"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names emitted by this module.
const (
	ValidationsTotal   = "jwks_guard_validations_total"
	ValidationDuration = "jwks_guard_validation_duration_seconds"
	FetchesTotal       = "jwks_guard_jwks_fetches_total"
	FetchDuration      = "jwks_guard_jwks_fetch_duration_seconds"
	KeySetSize         = "jwks_guard_jwks_keys"
	GRPCAuthTotal      = "jwks_guard_grpc_auth_total"
)

var help = map[string]string{
	ValidationsTotal:   "Number of token validations by result.",
	ValidationDuration: "Time spent validating a token.",
	FetchesTotal:       "Number of JWKS fetches by result.",
	FetchDuration:      "Time spent fetching the JWKS document.",
	KeySetSize:         "Number of keys in the cached key set.",
	GRPCAuthTotal:      "Number of gRPC authentication decisions by method and status.",
}

// Recorder is a generic metrics interface.
type Recorder interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// Noop is a Recorder that does nothing.
type Noop struct{}

func (Noop) IncCounter(string, map[string]string)                {}
func (Noop) ObserveHistogram(string, float64, map[string]string) {}
func (Noop) SetGauge(string, float64, map[string]string)         {}

// Prometheus implements Recorder with Prometheus collectors that are
// created and registered on first use.
type Prometheus struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheus returns a Recorder registering its collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Prometheus{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *Prometheus) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: helpFor(name, "counter")}, keys(tags))
		vec = register(m.registerer, vec)
		m.counters[name] = vec
	}
	m.mu.Unlock()
	if c, err := vec.GetMetricWith(tags); err == nil {
		c.Inc()
	}
}

func (m *Prometheus) ObserveHistogram(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpFor(name, "histogram"),
			Buckets: prometheus.DefBuckets,
		}, keys(tags))
		vec = register(m.registerer, vec)
		m.histograms[name] = vec
	}
	m.mu.Unlock()
	if o, err := vec.GetMetricWith(tags); err == nil {
		o.Observe(value)
	}
}

func (m *Prometheus) SetGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: helpFor(name, "gauge")}, keys(tags))
		vec = register(m.registerer, vec)
		m.gauges[name] = vec
	}
	m.mu.Unlock()
	if g, err := vec.GetMetricWith(tags); err == nil {
		g.Set(value)
	}
}

// register registers c, or returns the collector already registered under
// the same descriptor so recorders can share a registerer. Any other
// registration error leaves c unregistered; recording never panics.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}

func helpFor(name, kind string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name + " " + kind
}

func keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
