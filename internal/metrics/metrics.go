package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector exported by the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	FetchDuration       *prometheus.HistogramVec
	SeriesCache         *prometheus.CounterVec
	ComputeDuration     prometheus.Histogram
	InsufficientHistory *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Upstream price fetch latency by source and outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source", "outcome"}),
		SeriesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "series_cache_total",
			Help: "Price series cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicator_compute_duration_seconds",
			Help:    "Time spent computing all indicators for one series.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		InsufficientHistory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insufficient_history_total",
			Help: "Computations where an indicator lacked the history to produce values.",
		}, []string{"indicator"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.FetchDuration,
		m.SeriesCache,
		m.ComputeDuration,
		m.InsufficientHistory,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(source string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.WithLabelValues(source, outcome).Observe(elapsed.Seconds())
}

// CacheResult counts a cache lookup.
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.SeriesCache.WithLabelValues(result).Inc()
}

// ObserveCompute records one indicator computation and its history warnings.
func (m *Metrics) ObserveCompute(elapsed time.Duration, shortIndicators []string) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(elapsed.Seconds())
	for _, name := range shortIndicators {
		m.InsufficientHistory.WithLabelValues(name).Inc()
	}
}
