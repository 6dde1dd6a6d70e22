package calculator

import (
	"errors"

	"github.com/guregu/null/v6"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing simple moving average of closes over window w.
// out[i] is undefined for i < w-1.
func MovingAverage(closes []float64, w int) model.IndicatorSeries {
	out := make(model.IndicatorSeries, len(closes))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(closes); i++ {
		if v, err := CalculateSMA(closes[:i+1], w); err == nil {
			out[i] = null.FloatFrom(v)
		}
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
