package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the summarization pipeline and
// the HTTP surface. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	GenerationCalls   *prometheus.CounterVec
	GenerationLatency *prometheus.HistogramVec
	Documents         *prometheus.CounterVec
	ChunksPerDocument prometheus.Histogram

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry, so several
// instances (one per test) never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GenerationCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synopsis_generation_calls_total",
				Help: "Text-generation calls by phase (single, map, reduce) and outcome.",
			},
			[]string{"phase", "outcome"},
		),
		GenerationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "synopsis_generation_duration_seconds",
				Help:    "Latency of text-generation calls.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"phase"},
		),
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synopsis_documents_total",
				Help: "Documents seen by the batch coordinator by outcome.",
			},
			[]string{"outcome"},
		),
		ChunksPerDocument: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synopsis_chunks_per_document",
				Help:    "Number of chunks produced per summarized document.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "HTTP requests currently being served.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GenerationCalls,
		m.GenerationLatency,
		m.Documents,
		m.ChunksPerDocument,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)
	return m
}

// ObserveGeneration records one generation call.
func (m *Metrics) ObserveGeneration(phase string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GenerationCalls.WithLabelValues(phase, outcome).Inc()
	m.GenerationLatency.WithLabelValues(phase).Observe(took.Seconds())
}

// Document outcomes.
const (
	DocSummarized  = "summarized"
	DocFailed      = "failed"
	DocUnsupported = "skipped_unsupported"
	DocEmpty       = "skipped_empty"
)

func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveChunks(n int) {
	if m == nil {
		return
	}
	m.ChunksPerDocument.Observe(float64(n))
}

// Registry exposes the private registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
