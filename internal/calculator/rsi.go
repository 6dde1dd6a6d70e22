package calculator

import (
	"github.com/guregu/null/v6"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// RSI computes the relative strength index using trailing simple means of gains and losses
// over the last period price changes. The first change exists at index 1, so out[i] is
// undefined for i < period. A window without losses yields exactly 100.
func RSI(closes []float64, period int) model.IndicatorSeries {
	out := make(model.IndicatorSeries, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	for i := period; i < len(closes); i++ {
		var sumGain, sumLoss float64
		for j := i - period + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)

		if avgLoss == 0 {
			out[i] = null.FloatFrom(100)
			continue
		}
		rs := avgGain / avgLoss
		out[i] = null.FloatFrom(100.0 - 100.0/(1.0+rs))
	}
	return out
}
