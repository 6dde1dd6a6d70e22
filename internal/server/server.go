package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vermu490/crypto-dashboard/internal/collector"
	"github.com/vermu490/crypto-dashboard/internal/logger"
	"github.com/vermu490/crypto-dashboard/internal/metrics"
	"github.com/vermu490/crypto-dashboard/internal/recorder"
)

// Options holds the request defaults applied to blank form fields.
type Options struct {
	DefaultSymbol string
	DefaultStart  time.Time
}

// Server serves the dashboard page, the CSV download and the chart API.
type Server struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics // nil disables /metrics

	opts    Options
	started time.Time
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a Server. A nil recorder is replaced by a no-op one.
func New(col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics, opts Options) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{
		Collector: col,
		Recorder:  rec,
		Metrics:   m,
		opts:      opts,
		started:   time.Now(),
		now:       time.Now,
		log:       logger.Component("server"),
	}
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /{$}", s.handleDashboard)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /api/chart", s.handleChartAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	return s.middleware(mux)
}
