package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// FormatDigest summarizes the latest bar and indicator values of each analysis.
func FormatDigest(analyses []*model.Analysis, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Indicator digest</b> | %s\n", now.UTC().Format("2006-01-02")))

	for _, a := range analyses {
		n := a.Series.Len()
		if n == 0 {
			continue
		}
		last := a.Series.Bars[n-1]
		ind := a.Indicators

		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%s)\n", html.EscapeString(a.Request.Symbol), last.Time.UTC().Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("Close: %s", price(last.Close)))
		if n > 1 {
			prev := a.Series.Bars[n-2].Close
			b.WriteString(fmt.Sprintf(" (%+.2f%%)", (last.Close-prev)/prev*100))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("MA30: %s | MA50: %s\n", value(ind.MA30.Last()), value(ind.MA50.Last())))
		b.WriteString(fmt.Sprintf("Bollinger: %s / %s\n", value(ind.BollingerLower.Last()), value(ind.BollingerUpper.Last())))
		b.WriteString(fmt.Sprintf("RSI(14): %s%s\n", value(ind.RSI.Last()), rsiNote(ind.RSI.Last())))
		b.WriteString(fmt.Sprintf("MACD: %s | Signal: %s\n", value(ind.MACD.Last()), value(ind.MACDSignal.Last())))
	}
	return b.String()
}

// FormatFailure reports a symbol that could not be refreshed.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b> refresh failed: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func value(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return price(v.Float64)
}

func rsiNote(v null.Float) string {
	switch {
	case !v.Valid:
		return ""
	case v.Float64 >= 70:
		return " overbought"
	case v.Float64 <= 30:
		return " oversold"
	}
	return ""
}
