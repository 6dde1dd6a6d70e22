package calculator

import (
	"math"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// ValidateSeries rejects empty or malformed series. A single bar is valid.
func ValidateSeries(series *model.PriceSeries) error {
	if series.Len() == 0 {
		return &DataError{Index: -1, Reason: "no bars", Err: ErrEmptySeries}
	}
	for i, b := range series.Bars {
		if b.Time.IsZero() {
			return &DataError{Index: i, Reason: "missing timestamp"}
		}
		if i > 0 && !b.Time.After(series.Bars[i-1].Time) {
			return &DataError{Index: i, Reason: "timestamps not strictly increasing"}
		}
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close},
		} {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return &DataError{Index: i, Reason: "missing " + f.name}
			}
			if f.value <= 0 {
				return &DataError{Index: i, Reason: "non-positive " + f.name}
			}
		}
		if math.IsNaN(b.Volume) || b.Volume < 0 {
			return &DataError{Index: i, Reason: "invalid volume"}
		}
	}
	return nil
}
