package calculator

import (
	"fmt"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// Params holds the lookback settings of every indicator.
type Params struct {
	MAShort         int
	MALong          int
	RSIPeriod       int
	BollingerWindow int
	BollingerK      float64
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
}

// DefaultParams returns MA 30/50, RSI 14, Bollinger 20/2 and MACD 12/26/9.
func DefaultParams() Params {
	return Params{
		MAShort:         30,
		MALong:          50,
		RSIPeriod:       14,
		BollingerWindow: 20,
		BollingerK:      2,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
	}
}

// Validate checks that every window is usable.
func (p Params) Validate() error {
	for name, v := range map[string]int{
		"ma_short":    p.MAShort,
		"ma_long":     p.MALong,
		"rsi_period":  p.RSIPeriod,
		"macd_fast":   p.MACDFast,
		"macd_slow":   p.MACDSlow,
		"macd_signal": p.MACDSignal,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if p.BollingerWindow < 2 {
		return fmt.Errorf("bollinger_window must be at least 2, got %d", p.BollingerWindow)
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("bollinger_k must be positive, got %g", p.BollingerK)
	}
	return nil
}

// Compute validates the series and derives every indicator from its closes.
// The input is only read. Indicators whose lookback exceeds the series length are
// reported as warnings and left undefined.
func Compute(series *model.PriceSeries, p Params) (*model.IndicatorSet, []InsufficientHistoryWarning, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, fmt.Errorf("indicator params: %w", err)
	}
	if err := ValidateSeries(series); err != nil {
		return nil, nil, err
	}

	closes := extractCloses(series.Bars)
	n := len(closes)

	bands := Bollinger(closes, p.BollingerWindow, p.BollingerK)
	macd, signal := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	set := &model.IndicatorSet{
		MA30:           MovingAverage(closes, p.MAShort),
		MA50:           MovingAverage(closes, p.MALong),
		RSI:            RSI(closes, p.RSIPeriod),
		BollingerMid:   bands.Mid,
		BollingerUpper: bands.Upper,
		BollingerLower: bands.Lower,
		MACD:           macd,
		MACDSignal:     signal,
	}

	var warnings []InsufficientHistoryWarning
	for _, lb := range []struct {
		name     string
		required int
	}{
		{fmt.Sprintf("MA%d", p.MAShort), p.MAShort},
		{fmt.Sprintf("MA%d", p.MALong), p.MALong},
		{fmt.Sprintf("RSI%d", p.RSIPeriod), p.RSIPeriod + 1},
		{fmt.Sprintf("Bollinger%d", p.BollingerWindow), p.BollingerWindow},
	} {
		if n < lb.required {
			warnings = append(warnings, InsufficientHistoryWarning{Indicator: lb.name, Required: lb.required, Available: n})
		}
	}
	return set, warnings, nil
}
