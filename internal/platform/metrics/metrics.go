// Package metrics owns the prometheus collectors exposed on /metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/dogadopt-api/internal/events"
)

const namespace = "dogadopt"

// Metrics holds the HTTP and domain collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	rateLimited prometheus.Counter
	domain      *prometheus.CounterVec
}

// New creates a private registry with the Go and process collectors plus
// the application collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the application collectors with reg and serves
// them from gatherer. Collectors that are already registered are reused.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests partitioned by method, route pattern and status code.",
	}, []string{"method", "route", "status"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds partitioned by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"}))
	if err != nil {
		return nil, err
	}

	inFlight, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being served.",
	}))
	if err != nil {
		return nil, err
	}

	rateLimited, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the per-client rate limit.",
	}))
	if err != nil {
		return nil, err
	}

	domain, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Domain events partitioned by type.",
	}, []string{"type"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:    gatherer,
		requests:    requests,
		duration:    duration,
		inFlight:    inFlight,
		rateLimited: rateLimited,
		domain:      domain,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("existing collector has wrong type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge and returns the func that
// decrements it.
func (m *Metrics) RequestStarted() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// ObserveRequest records one finished request. route is the matched route
// pattern, never the raw path, so ids do not explode label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// HandleEvent implements events.EventHandler by counting domain events.
func (m *Metrics) HandleEvent(_ context.Context, event *events.Event) error {
	m.domain.WithLabelValues(string(event.Type)).Inc()
	return nil
}

var _ events.EventHandler = (*Metrics)(nil)
