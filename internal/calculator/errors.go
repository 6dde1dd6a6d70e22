package calculator

import (
	"errors"
	"fmt"
)

// ErrEmptySeries is wrapped by the DataError returned for a series without bars.
var ErrEmptySeries = errors.New("empty price series")

// DataError reports an input series that cannot be used at all. No indicator output is
// produced when it is returned.
type DataError struct {
	Index  int // offending bar, -1 when the series as a whole is rejected
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("data error: %s", e.Reason)
	}
	return fmt.Sprintf("data error: bar %d: %s", e.Index, e.Reason)
}

func (e *DataError) Unwrap() error { return e.Err }

// IsDataError reports whether err is, or wraps, a *DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// InsufficientHistoryWarning notes an indicator whose lookback exceeds the series length.
// It is never returned as an error; the indicator's positions are simply undefined.
type InsufficientHistoryWarning struct {
	Indicator string
	Required  int
	Available int
}

func (w InsufficientHistoryWarning) String() string {
	return fmt.Sprintf("%s needs %d bars, have %d", w.Indicator, w.Required, w.Available)
}
