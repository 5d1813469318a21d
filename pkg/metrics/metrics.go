// Package metrics defines the Prometheus metric collectors used across the
// word-cloud services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report kinds used as the "kind" label.
const (
	KindFrequency = "frequency"
	KindTopWords  = "top_words"
	KindCloud     = "cloud"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	DocumentsLoadedTotal  prometheus.Counter
	TokensCountedTotal    prometheus.Counter
	VocabularySize        prometheus.Gauge
	ReportsTotal          *prometheus.CounterVec
	ReportLatency         *prometheus.HistogramVec
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	AnalyticsDroppedTotal prometheus.Counter
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocumentsLoadedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordcloud_documents_loaded_total",
				Help: "Total documents loaded into a frequency table.",
			},
		),
		TokensCountedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordcloud_tokens_counted_total",
				Help: "Total tokens counted across loaded documents.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordcloud_vocabulary_size",
				Help: "Distinct words in the most recently loaded document.",
			},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordcloud_reports_total",
				Help: "Reports produced by kind (frequency, top_words, cloud) and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		ReportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordcloud_report_latency_seconds",
				Help:    "Report generation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordcloud_cache_hits_total",
				Help: "Total number of report cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordcloud_cache_misses_total",
				Help: "Total number of report cache misses.",
			},
		),
		AnalyticsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordcloud_analytics_dropped_total",
				Help: "Query events dropped because the collector buffer was full.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocumentsLoadedTotal,
		m.TokensCountedTotal,
		m.VocabularySize,
		m.ReportsTotal,
		m.ReportLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.AnalyticsDroppedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
