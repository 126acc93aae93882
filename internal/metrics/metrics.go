package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docextract"

// Metrics holds the Prometheus collectors for extraction and HTTP traffic.
// All record methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	attemptsTotal      *prometheus.CounterVec
	attemptDuration    *prometheus.HistogramVec
	extractionsTotal   *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	usageFailures      *prometheus.CounterVec
	usageResets        prometheus.Counter

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "attempts_total",
				Help:      "Provider attempts by outcome.",
			},
			[]string{"provider", "outcome"},
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "attempt_duration_seconds",
				Help:      "Provider attempt duration in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
			},
			[]string{"provider"},
		),
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "results_total",
				Help:      "Extraction calls by final status and provider used.",
			},
			[]string{"status", "provider"},
		),
		extractionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "duration_seconds",
				Help:      "End-to-end extraction duration in seconds.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120, 240},
			},
		),
		usageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "usage",
				Name:      "record_failures_total",
				Help:      "Usage increments that failed after a successful extraction.",
			},
			[]string{"provider"},
		),
		usageResets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "usage",
				Name:      "resets_total",
				Help:      "Completed monthly usage resets.",
			},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Number of in-flight HTTP requests.",
			},
		),
	}

	registry.MustRegister(
		m.attemptsTotal,
		m.attemptDuration,
		m.extractionsTotal,
		m.extractionDuration,
		m.usageFailures,
		m.usageResets,
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveAttempt(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(provider, outcome).Inc()
	m.attemptDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) ObserveExtraction(success bool, provider string, d time.Duration) {
	if m == nil {
		return
	}
	status := "failure"
	if success {
		status = "success"
	}
	m.extractionsTotal.WithLabelValues(status, provider).Inc()
	m.extractionDuration.Observe(d.Seconds())
}

func (m *Metrics) UsageRecordFailed(provider string) {
	if m == nil {
		return
	}
	m.usageFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) UsageReset() {
	if m == nil {
		return
	}
	m.usageResets.Inc()
}

// RequestStarted marks an in-flight HTTP request and returns its completion callback.
func (m *Metrics) RequestStarted() func(method, path string, status int, d time.Duration) {
	if m == nil {
		return func(string, string, int, time.Duration) {}
	}
	m.requestInFlight.Inc()
	return func(method, path string, status int, d time.Duration) {
		m.requestInFlight.Dec()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	}
}
