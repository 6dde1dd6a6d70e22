package recorder

import "time"

// RequestEvent describes one served dashboard, API or download request.
type RequestEvent struct {
	RequestID string
	Route     string
	Symbol    string
	Start     time.Time
	End       time.Time
	Bars      int
	Status    int
	Duration  time.Duration
	Err       string
}

// WarmupEvent describes one scheduled cache refresh.
type WarmupEvent struct {
	Symbol   string
	Bars     int
	Duration time.Duration
	Err      string
}

// Recorder keeps an operational history of requests and scheduled jobs.
// It never stores price data.
type Recorder interface {
	RecordRequest(evt *RequestEvent) error
	RecordWarmup(evt *WarmupEvent) error
	Close() error
}
