package model

import "github.com/guregu/null/v6"

// IndicatorSeries is aligned 1:1 with PriceSeries.Bars.
// Positions inside an indicator's lookback window are invalid (undefined), not zero.
type IndicatorSeries []null.Float

// Last returns the final value of the series, which may be undefined.
func (s IndicatorSeries) Last() null.Float {
	if len(s) == 0 {
		return null.Float{}
	}
	return s[len(s)-1]
}

// Defined counts the positions holding a value.
func (s IndicatorSeries) Defined() int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}

// IndicatorSet holds every derived series computed for one request.
type IndicatorSet struct {
	MA30           IndicatorSeries `json:"ma30"`
	MA50           IndicatorSeries `json:"ma50"`
	RSI            IndicatorSeries `json:"rsi"`
	BollingerMid   IndicatorSeries `json:"bollinger_mid"`
	BollingerUpper IndicatorSeries `json:"bollinger_upper"`
	BollingerLower IndicatorSeries `json:"bollinger_lower"`
	MACD           IndicatorSeries `json:"macd"`
	MACDSignal     IndicatorSeries `json:"macd_signal"`
}
