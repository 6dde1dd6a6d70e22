package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// Bands is a Bollinger envelope aligned with the input closes.
type Bands struct {
	Mid   model.IndicatorSeries
	Upper model.IndicatorSeries
	Lower model.IndicatorSeries
}

// Bollinger computes the window-w moving average and the bands k sample standard
// deviations above and below it. All three series are undefined for i < w-1.
func Bollinger(closes []float64, w int, k float64) Bands {
	bands := Bands{
		Mid:   make(model.IndicatorSeries, len(closes)),
		Upper: make(model.IndicatorSeries, len(closes)),
		Lower: make(model.IndicatorSeries, len(closes)),
	}
	// sample deviation needs at least two points
	if w < 2 {
		return bands
	}
	for i := w - 1; i < len(closes); i++ {
		window := closes[i-w+1 : i+1]
		mid, err := CalculateSMA(window, w)
		if err != nil {
			continue
		}
		sd := sampleStdDev(window, mid)
		bands.Mid[i] = null.FloatFrom(mid)
		bands.Upper[i] = null.FloatFrom(mid + k*sd)
		bands.Lower[i] = null.FloatFrom(mid - k*sd)
	}
	return bands
}

func sampleStdDev(window []float64, mean float64) float64 {
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(window)-1))
}
