package collector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV // when set, returned (range-filtered) instead of generated bars
	Err   error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchBars ran.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchBars(ctx context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		var out []model.OHLCV
		for _, b := range m.Bars {
			if !b.Time.Before(start) && b.Time.Before(end) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	price := m.Price
	if price == 0 {
		price = 40000
	}
	return generateMockBars(price, start, end), nil
}

// generateMockBars produces one deterministic daily bar per day in [start, end).
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		day = day.AddDate(0, 0, 1)
	}
	var bars []model.OHLCV
	for i := 0; day.Before(end); i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/9) + 0.001*float64(i))
		bars = append(bars, model.OHLCV{
			Time:   day,
			Open:   p * 0.995,
			High:   p * 1.01,
			Low:    p * 0.985,
			Close:  p,
			Volume: 1000000 + float64(i%7)*25000,
		})
		day = day.AddDate(0, 0, 1)
	}
	return bars
}
