package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vermu490/crypto-dashboard/internal/collector"
	"github.com/vermu490/crypto-dashboard/internal/logger"
	"github.com/vermu490/crypto-dashboard/internal/model"
	"github.com/vermu490/crypto-dashboard/internal/notifier"
	"github.com/vermu490/crypto-dashboard/internal/recorder"
)

// Scheduler manages the cache warm-up and digest cron jobs.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier // nil disables the digest
	Recorder  recorder.Recorder
	Ctx       context.Context

	Symbols      []string
	DefaultStart time.Time

	now func() time.Time
	log zerolog.Logger
	mu  sync.Mutex // serializes job runs
}

// NewScheduler creates a new Scheduler for the given watch list.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, symbols []string, defaultStart time.Time) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Notifier:     n,
		Recorder:     rec,
		Ctx:          ctx,
		Symbols:      symbols,
		DefaultStart: defaultStart,
		now:          time.Now,
		log:          logger.Component("scheduler"),
	}
}

// RegisterAll registers the warm-up job and, when a notifier is configured, the digest job.
// An empty expression skips the corresponding job.
func (s *Scheduler) RegisterAll(warmupCron, digestCron string) error {
	if warmupCron != "" {
		if _, err := s.Cron.AddFunc(warmupCron, s.warmupTask); err != nil {
			return fmt.Errorf("register warmup task: %w", err)
		}
	}
	if digestCron != "" && s.Notifier != nil {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWarmupNow executes the warm-up immediately (RUN_ON_START).
func (s *Scheduler) RunWarmupNow() {
	s.warmupTask()
}

// RunDigestNow executes the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) request(symbol string) model.ChartRequest {
	return model.DefaultRequest(symbol, s.DefaultStart, s.now())
}

func (s *Scheduler) warmupTask() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Strs("symbols", s.Symbols).Msg("running warmup")
	for _, sym := range s.Symbols {
		if s.Ctx.Err() != nil {
			return
		}
		started := time.Now()
		n, err := s.Collector.Prefetch(s.Ctx, s.request(sym))
		evt := &recorder.WarmupEvent{Symbol: sym, Bars: n, Duration: time.Since(started)}
		if err != nil {
			evt.Err = err.Error()
			s.log.Error().Err(err).Str("symbol", sym).Msg("warmup failed")
		} else {
			s.log.Debug().Str("symbol", sym).Int("bars", n).Msg("warmed")
		}
		if err := s.Recorder.RecordWarmup(evt); err != nil {
			s.log.Error().Err(err).Msg("record warmup")
		}
	}
}

func (s *Scheduler) digestTask() {
	if s.Notifier == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Msg("running digest")
	var analyses []*model.Analysis
	for _, sym := range s.Symbols {
		a, err := s.Collector.Analyze(s.Ctx, s.request(sym))
		if err != nil {
			s.log.Error().Err(err).Str("symbol", sym).Msg("digest analyze")
			s.trySend(notifier.FormatFailure(sym, err))
			continue
		}
		analyses = append(analyses, a)
	}
	if len(analyses) == 0 {
		return
	}
	s.trySend(notifier.FormatDigest(analyses, s.now()))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
