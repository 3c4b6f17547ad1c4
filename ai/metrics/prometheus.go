// Package metrics exports formatter pipeline metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/sbotchat/ai/format"
)

const namespace = "sbotchat"

// PrometheusExporter records formatter, enhancer, cache and HTTP metrics.
// It implements format.Observer.
type PrometheusExporter struct {
	registry *prometheus.Registry

	formatLatency  *prometheus.HistogramVec
	formatRequests *prometheus.CounterVec

	enhancements       *prometheus.CounterVec
	enhancementLatency prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var _ format.Observer = (*PrometheusExporter)(nil)

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.formatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "latency_seconds",
			Help:      "Response formatting latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"content_type"},
	)

	e.formatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "requests_total",
			Help:      "Total number of formatted responses",
		},
		[]string{"content_type", "message_type", "status"},
	)

	e.enhancements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enhancer",
			Name:      "runs_total",
			Help:      "Scenario enhancement attempts by outcome",
		},
		[]string{"outcome"},
	)

	e.enhancementLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enhancer",
			Name:      "latency_seconds",
			Help:      "Scenario enhancement latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		e.formatLatency,
		e.formatRequests,
		e.enhancements,
		e.enhancementLatency,
		e.cacheHits,
		e.cacheMisses,
		e.httpRequests,
		e.httpLatency,
	)

	return e
}

// ObserveFormat implements format.Observer.
func (e *PrometheusExporter) ObserveFormat(ct format.ContentType, messageType string, d time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	label := string(ct)
	if label == "" {
		label = "none"
	}
	e.formatRequests.WithLabelValues(label, messageType, status).Inc()
	e.formatLatency.WithLabelValues(label).Observe(d.Seconds())
}

// ObserveEnhancement implements format.Observer.
func (e *PrometheusExporter) ObserveEnhancement(outcome format.EnhancementOutcome, d time.Duration) {
	e.enhancements.WithLabelValues(string(outcome)).Inc()
	e.enhancementLatency.Observe(d.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (e *PrometheusExporter) RecordHTTPRequest(method, route string, code int, latency time.Duration) {
	e.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	e.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}
