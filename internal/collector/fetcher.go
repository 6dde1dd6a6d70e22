package collector

import (
	"context"
	"errors"
	"time"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// ErrSymbolNotFound is returned when the data source does not know the symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Fetcher defines the interface for fetching market data.
// FetchBars returns daily bars with start <= Time < end in chronological order.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}
