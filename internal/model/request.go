package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date form used on forms, query strings and CSV rows.
const DateLayout = "2006-01-02"

// ChartRequest selects a symbol and a half-open date range [Start, End).
type ChartRequest struct {
	Symbol string    `json:"symbol"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Key identifies the request for caching and logging.
func (r ChartRequest) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.Symbol, r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// Analysis is the fetched series together with its derived indicators.
type Analysis struct {
	Request    ChartRequest
	Series     *PriceSeries
	Indicators *IndicatorSet
	Warnings   []string
}

// Today truncates now to midnight UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultRequest covers symbol from start up to, but excluding, the current UTC day.
func DefaultRequest(symbol string, start, now time.Time) ChartRequest {
	return ChartRequest{Symbol: symbol, Start: start, End: Today(now)}
}
