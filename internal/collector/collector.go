package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vermu490/crypto-dashboard/internal/calculator"
	"github.com/vermu490/crypto-dashboard/internal/logger"
	"github.com/vermu490/crypto-dashboard/internal/metrics"
	"github.com/vermu490/crypto-dashboard/internal/model"
)

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Cache   SeriesCache // nil disables caching
	TTL     time.Duration
	Params  calculator.Params
	Metrics *metrics.Metrics

	log zerolog.Logger
}

// NewCollector creates a new Collector with the default indicator parameters.
func NewCollector(fetcher Fetcher, cache SeriesCache, ttl time.Duration, m *metrics.Metrics) *Collector {
	if ttl <= 0 {
		cache = nil
	}
	return &Collector{
		Fetcher: fetcher,
		Cache:   cache,
		TTL:     ttl,
		Params:  calculator.DefaultParams(),
		Metrics: m,
		log:     logger.Component("collector"),
	}
}

// Series returns the price series for req, from the cache when possible.
func (c *Collector) Series(ctx context.Context, req model.ChartRequest) (*model.PriceSeries, error) {
	key := req.Key()
	if c.Cache != nil {
		bars, ok, err := c.Cache.Get(ctx, key)
		switch {
		case err != nil:
			c.Metrics.CacheResult("error")
			c.log.Warn().Err(err).Str("cache", c.Cache.Name()).Str("key", key).Msg("cache read failed, fetching")
		case ok:
			c.Metrics.CacheResult("hit")
			return &model.PriceSeries{Symbol: req.Symbol, Bars: bars, FetchedAt: time.Now()}, nil
		default:
			c.Metrics.CacheResult("miss")
		}
	}
	return c.fetch(ctx, req)
}

// Prefetch fetches req from the data source and refreshes its cache entry.
func (c *Collector) Prefetch(ctx context.Context, req model.ChartRequest) (int, error) {
	series, err := c.fetch(ctx, req)
	if err != nil {
		return 0, err
	}
	return series.Len(), nil
}

func (c *Collector) fetch(ctx context.Context, req model.ChartRequest) (*model.PriceSeries, error) {
	started := time.Now()
	bars, err := c.Fetcher.FetchBars(ctx, req.Symbol, req.Start, req.End)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), err, time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Symbol, err)
	}
	c.log.Debug().
		Str("source", c.Fetcher.Name()).
		Str("key", req.Key()).
		Int("bars", len(bars)).
		Dur("elapsed", time.Since(started)).
		Msg("fetched bars")

	if c.Cache != nil && len(bars) > 0 {
		if err := c.Cache.Set(ctx, req.Key(), bars, c.TTL); err != nil {
			c.log.Warn().Err(err).Str("cache", c.Cache.Name()).Msg("cache write failed")
		}
	}
	return &model.PriceSeries{Symbol: req.Symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

// Analyze fetches the series for req and computes every indicator over it.
// A *calculator.DataError is returned unchanged when the series is unusable.
func (c *Collector) Analyze(ctx context.Context, req model.ChartRequest) (*model.Analysis, error) {
	series, err := c.Series(ctx, req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	set, warnings, err := calculator.Compute(series, c.Params)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(warnings))
	notes := make([]string, len(warnings))
	for i, w := range warnings {
		names[i] = w.Indicator
		notes[i] = w.String()
		c.log.Debug().Str("symbol", req.Symbol).Str("indicator", w.Indicator).
			Int("required", w.Required).Int("available", w.Available).Msg("insufficient history")
	}
	c.Metrics.ObserveCompute(time.Since(started), names)

	return &model.Analysis{
		Request:    req,
		Series:     series,
		Indicators: set,
		Warnings:   notes,
	}, nil
}
