package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// DefaultFileName is the attachment name used for the default request.
const DefaultFileName = "crypto_data.csv"

// Header is the first row of every export.
var Header = []string{"timestamp", "open", "high", "low", "close", "volume"}

// WriteCSV writes the raw price bars, one row per bar. Indicators are not exported.
func WriteCSV(w io.Writer, series *model.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if series != nil {
		for i, b := range series.Bars {
			row := []string{
				b.Time.UTC().Format(model.DateLayout),
				formatDecimal(b.Open),
				formatDecimal(b.High),
				formatDecimal(b.Low),
				formatDecimal(b.Close),
				formatDecimal(b.Volume),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatDecimal prints the shortest exact decimal form, never in exponent notation.
func formatDecimal(v float64) string {
	return decimal.NewFromFloat(v).String()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the attachment name for req.
func FileName(req model.ChartRequest) string {
	symbol := strings.Trim(unsafeName.ReplaceAllString(req.Symbol, "_"), "_")
	if symbol == "" {
		return DefaultFileName
	}
	return fmt.Sprintf("%s_%s_%s.csv", symbol, req.Start.Format(model.DateLayout), req.End.Format(model.DateLayout))
}
