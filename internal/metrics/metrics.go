// Package metrics exposes prometheus collectors for source clients, the resolver and the relay.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listenup_addon"

// Source call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

// Resolution outcomes.
const (
	ResolutionComplete    = "complete"
	ResolutionPartial     = "partial"
	ResolutionUnavailable = "unavailable"
)

// Metrics holds the add-on collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	sourceRequests *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	relayRequests  *prometheus.CounterVec
	relayBytes     *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry that
// also carries the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "requests_total",
			Help:      "Upstream source calls by source and outcome.",
		}, []string{"source", "outcome"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_duration_seconds",
			Help:      "Upstream source call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		}, []string{"source"}),
		relayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Relay responses by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		relayBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "bytes_total",
			Help:      "Bytes copied from upstream to clients.",
		}, []string{"endpoint"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Audiobook resolutions by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sourceRequests,
		m.sourceDuration,
		m.relayRequests,
		m.relayBytes,
		m.resolutions,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSource records one upstream call.
func (m *Metrics) ObserveSource(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sourceRequests.WithLabelValues(source, outcome).Inc()
	m.sourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRelay records one relay response and the bytes copied for it.
func (m *Metrics) ObserveRelay(endpoint string, status int, written int64) {
	if m == nil {
		return
	}
	m.relayRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	if written > 0 {
		m.relayBytes.WithLabelValues(endpoint).Add(float64(written))
	}
}

// ObserveResolution records the outcome of one resolver run.
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}
