package calculator

import (
	"github.com/guregu/null/v6"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// EMA returns the exponentially weighted moving average with alpha = 2/(span+1),
// seeded with the first value and without bias adjustment. Every position is defined.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the fast-minus-slow EMA line and its signal EMA. Both are defined from
// index 0, where the line is exactly 0.
func MACD(closes []float64, fast, slow, signal int) (line, sig model.IndicatorSeries) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	raw := make([]float64, len(closes))
	for i := range closes {
		raw[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := EMA(raw, signal)

	line = make(model.IndicatorSeries, len(closes))
	sig = make(model.IndicatorSeries, len(closes))
	for i := range raw {
		line[i] = null.FloatFrom(raw[i])
		sig[i] = null.FloatFrom(signalEMA[i])
	}
	return line, sig
}
