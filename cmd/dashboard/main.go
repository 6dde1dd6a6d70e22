package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vermu490/crypto-dashboard/internal/collector"
	"github.com/vermu490/crypto-dashboard/internal/config"
	"github.com/vermu490/crypto-dashboard/internal/logger"
	"github.com/vermu490/crypto-dashboard/internal/metrics"
	"github.com/vermu490/crypto-dashboard/internal/notifier"
	"github.com/vermu490/crypto-dashboard/internal/recorder"
	"github.com/vermu490/crypto-dashboard/internal/scheduler"
	"github.com/vermu490/crypto-dashboard/internal/server"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Init("crypto-dashboard", "info", true)
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("crypto-dashboard", cfg.Log.Level, cfg.Log.Console)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("crypto dashboard starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(collector.NewHTTPClient(collector.ClientOptions{
			Timeout:         cfg.DataSource.Timeout,
			RequestsPerSec:  cfg.DataSource.RequestsPerSec,
			MaxRetryElapsed: cfg.DataSource.MaxRetryElapsed,
			Proxy:           cfg.Proxy,
		}))
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init cache
	var cache collector.SeriesCache = collector.NewMemoryCache()
	if cfg.Cache.RedisAddr != "" {
		rc, err := collector.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		} else {
			cache = rc
			defer rc.Close()
		}
	}
	col := collector.NewCollector(fetcher, cache, cfg.Cache.TTL, m)

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	// Init Telegram notifier
	var tn notifier.Notifier
	if cfg.Telegram.BotToken != "" {
		chatID, _ := cfg.TelegramChatID()
		n, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, chatID, cfg.Proxy)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, digest disabled")
		} else {
			tn = n
		}
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, tn, rec, cfg.Schedule.Symbols, cfg.DefaultStart())
	if err := sched.RegisterAll(cfg.Schedule.WarmupCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, warming cache now")
		go sched.RunWarmupNow()
	}

	srv := server.New(col, rec, m, server.Options{
		DefaultSymbol: cfg.DataSource.DefaultSymbol,
		DefaultStart:  cfg.DefaultStart(),
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("crypto dashboard stopped")
}
