package calculator

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// ════════════════════════════════════════════════════════════════
//  Helpers
// ════════════════════════════════════════════════════════════════

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func seriesFromCloses(closes []float64) *model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

// wave is a deterministic, non-monotonic price path around 100.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5) + 3*math.Cos(float64(i)/2) + float64(i)*0.1
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ════════════════════════════════════════════════════════════════
//  Moving average
// ════════════════════════════════════════════════════════════════

func TestMovingAverage_Window(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ma := MovingAverage(closes, 3)

	if len(ma) != len(closes) {
		t.Fatalf("expected %d values, got %d", len(closes), len(ma))
	}
	for i := 0; i < 2; i++ {
		if ma[i].Valid {
			t.Errorf("ma[%d] should be undefined, got %v", i, ma[i].Float64)
		}
	}
	// (1+2+3)/3 = 2 ... (8+9+10)/3 = 9
	for i := 2; i < len(closes); i++ {
		if !ma[i].Valid {
			t.Fatalf("ma[%d] should be defined", i)
		}
		assertClose(t, "ma", ma[i].Float64, float64(i), 1e-12)
	}
}

func TestMovingAverage_MatchesTalib(t *testing.T) {
	closes := wave(120)
	for _, w := range []int{30, 50} {
		ours := MovingAverage(closes, w)
		ref := talib.Sma(closes, w)
		for i := w - 1; i < len(closes); i++ {
			assertClose(t, "sma vs talib", ours[i].Float64, ref[i], 1e-9)
		}
		if got := ours.Defined(); got != len(closes)-w+1 {
			t.Errorf("w=%d: expected %d defined values, got %d", w, len(closes)-w+1, got)
		}
	}
}

func TestMovingAverage_ShortSeries(t *testing.T) {
	ma := MovingAverage([]float64{1, 2, 3}, 30)
	if ma.Defined() != 0 {
		t.Errorf("expected all undefined, got %d defined", ma.Defined())
	}
}

func TestCalculateSMA_Errors(t *testing.T) {
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
	if _, err := CalculateSMA([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for short input")
	}
}

// ════════════════════════════════════════════════════════════════
//  RSI
// ════════════════════════════════════════════════════════════════

func TestRSI_HandCalculated(t *testing.T) {
	// deltas:  -, +1, +1, -1, +2
	// i=3: avgGain=2/3 avgLoss=1/3 rs=2 -> 66.6667
	// i=4: avgGain=3/3 avgLoss=1/3 rs=3 -> 75
	closes := []float64{10, 11, 12, 11, 13}
	rsi := RSI(closes, 3)

	for i := 0; i < 3; i++ {
		if rsi[i].Valid {
			t.Errorf("rsi[%d] should be undefined", i)
		}
	}
	assertClose(t, "rsi[3]", rsi[3].Float64, 100-100.0/3, 1e-9)
	assertClose(t, "rsi[4]", rsi[4].Float64, 75, 1e-9)
}

func TestRSI_NoLossesIsHundred(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)
	for i := 14; i < len(closes); i++ {
		if rsi[i].Float64 != 100 {
			t.Errorf("rsi[%d] = %.4f, want 100", i, rsi[i].Float64)
		}
	}
}

func TestRSI_NoGainsIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	rsi := RSI(closes, 14)
	assertClose(t, "rsi all losses", rsi.Last().Float64, 0, 1e-12)
}

func TestRSI_Bounded(t *testing.T) {
	rsi := RSI(wave(300), 14)
	for i, v := range rsi {
		if !v.Valid {
			continue
		}
		if v.Float64 < 0 || v.Float64 > 100 {
			t.Errorf("rsi[%d] = %.4f out of [0,100]", i, v.Float64)
		}
	}
	if rsi.Defined() != 300-14 {
		t.Errorf("expected %d defined values, got %d", 300-14, rsi.Defined())
	}
}

// ════════════════════════════════════════════════════════════════
//  Bollinger
// ════════════════════════════════════════════════════════════════

func TestBollinger_HandCalculated(t *testing.T) {
	// window [1,2,3]: mean 2, sample sd 1 -> 4 / 0
	// window [3,4,5]: mean 4, sample sd 1 -> 6 / 2
	b := Bollinger([]float64{1, 2, 3, 4, 5}, 3, 2)

	if b.Mid[1].Valid || b.Upper[1].Valid || b.Lower[1].Valid {
		t.Error("bands should be undefined before the window fills")
	}
	assertClose(t, "mid[2]", b.Mid[2].Float64, 2, 1e-12)
	assertClose(t, "upper[2]", b.Upper[2].Float64, 4, 1e-12)
	assertClose(t, "lower[2]", b.Lower[2].Float64, 0, 1e-12)
	assertClose(t, "upper[4]", b.Upper[4].Float64, 6, 1e-12)
	assertClose(t, "lower[4]", b.Lower[4].Float64, 2, 1e-12)
}

func TestBollinger_OrderingAndWidth(t *testing.T) {
	closes := wave(200)
	const w, k = 20, 2.0
	b := Bollinger(closes, w, k)

	// talib reports population deviation; rescale to the sample form
	popSD := talib.StdDev(closes, w, 1)
	scale := math.Sqrt(float64(w) / float64(w-1))

	for i := w - 1; i < len(closes); i++ {
		up, mid, lo := b.Upper[i].Float64, b.Mid[i].Float64, b.Lower[i].Float64
		if !(up >= mid && mid >= lo) {
			t.Errorf("i=%d: expected upper >= mid >= lower, got %.4f %.4f %.4f", i, up, mid, lo)
		}
		assertClose(t, "band width", up-lo, 2*k*popSD[i]*scale, 1e-6)
	}
}

func TestBollinger_WindowTooSmall(t *testing.T) {
	b := Bollinger([]float64{1, 2, 3}, 1, 2)
	if b.Mid.Defined() != 0 {
		t.Error("a one-point window has no sample deviation")
	}
}

// ════════════════════════════════════════════════════════════════
//  EMA / MACD
// ════════════════════════════════════════════════════════════════

func TestEMA_SeededWithFirstValue(t *testing.T) {
	// span 3 -> alpha 0.5: 1, 1.5, 2.25
	got := EMA([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		assertClose(t, "ema", got[i], want[i], 1e-12)
	}
	if len(EMA(nil, 3)) != 0 {
		t.Error("expected empty EMA for empty input")
	}
}

func TestMACD_DefinedFromZero(t *testing.T) {
	line, sig := MACD(wave(60), 12, 26, 9)
	if line.Defined() != 60 || sig.Defined() != 60 {
		t.Fatalf("expected all 60 positions defined, got %d / %d", line.Defined(), sig.Defined())
	}
	if line[0].Float64 != 0 || sig[0].Float64 != 0 {
		t.Errorf("expected MACD and signal to be 0 at index 0, got %v / %v", line[0].Float64, sig[0].Float64)
	}
}

func TestMACD_RisingPricesPositive(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	line, _ := MACD(closes, 12, 26, 9)
	for i := 1; i < len(closes); i++ {
		if line[i].Float64 <= 0 {
			t.Errorf("macd[%d] = %.6f, expected > 0 for rising prices", i, line[i].Float64)
		}
	}
}

// ════════════════════════════════════════════════════════════════
//  Engine
// ════════════════════════════════════════════════════════════════

func TestCompute_ConstantSeries(t *testing.T) {
	set, warnings, err := Compute(seriesFromCloses(constant(60, 10)), DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for 60 bars, got %v", warnings)
	}

	for name, s := range map[string]model.IndicatorSeries{
		"ma30": set.MA30, "ma50": set.MA50,
		"mid": set.BollingerMid, "upper": set.BollingerUpper, "lower": set.BollingerLower,
	} {
		for i, v := range s {
			if v.Valid && v.Float64 != 10 {
				t.Errorf("%s[%d] = %v, want 10", name, i, v.Float64)
			}
		}
	}
	if set.MA30.Defined() != 31 || set.MA50.Defined() != 11 {
		t.Errorf("unexpected defined counts: ma30=%d ma50=%d", set.MA30.Defined(), set.MA50.Defined())
	}
	// no gains and no losses resolves to 100
	for i := 14; i < 60; i++ {
		if set.RSI[i].Float64 != 100 {
			t.Errorf("rsi[%d] = %v, want 100", i, set.RSI[i].Float64)
		}
	}
	for i, v := range set.MACD {
		assertClose(t, "flat macd", v.Float64, 0, 1e-12)
		assertClose(t, "flat signal", set.MACDSignal[i].Float64, 0, 1e-12)
	}
}

func TestCompute_RisingSeries(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	set, _, err := Compute(seriesFromCloses(closes), DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.RSI.Last().Float64 != 100 {
		t.Errorf("expected RSI to saturate at 100, got %v", set.RSI.Last().Float64)
	}
	if set.MACD.Last().Float64 <= 0 {
		t.Errorf("expected positive MACD, got %v", set.MACD.Last().Float64)
	}
}

func TestCompute_SingleBar(t *testing.T) {
	set, warnings, err := Compute(seriesFromCloses([]float64{42}), DefaultParams())
	if err != nil {
		t.Fatalf("a single bar must not be rejected: %v", err)
	}
	for name, s := range map[string]model.IndicatorSeries{
		"ma30": set.MA30, "ma50": set.MA50, "rsi": set.RSI,
		"mid": set.BollingerMid, "upper": set.BollingerUpper, "lower": set.BollingerLower,
	} {
		if s.Defined() != 0 {
			t.Errorf("%s should be entirely undefined", name)
		}
	}
	if !set.MACD[0].Valid || set.MACD[0].Float64 != 0 {
		t.Errorf("expected MACD[0] = 0, got %+v", set.MACD[0])
	}
	if len(warnings) != 4 {
		t.Errorf("expected 4 insufficient-history warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestCompute_EmptySeries(t *testing.T) {
	for _, s := range []*model.PriceSeries{nil, {Symbol: "X"}} {
		set, _, err := Compute(s, DefaultParams())
		if err == nil {
			t.Fatal("expected DataError for empty series")
		}
		if !IsDataError(err) || !errors.Is(err, ErrEmptySeries) {
			t.Errorf("expected DataError wrapping ErrEmptySeries, got %v", err)
		}
		if set != nil {
			t.Error("no output expected on DataError")
		}
	}
}

func TestCompute_MalformedSeries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *model.PriceSeries)
		index  int
	}{
		{"duplicate timestamp", func(s *model.PriceSeries) { s.Bars[2].Time = s.Bars[1].Time }, 2},
		{"decreasing timestamp", func(s *model.PriceSeries) { s.Bars[3].Time = s.Bars[0].Time.AddDate(0, 0, -1) }, 3},
		{"missing timestamp", func(s *model.PriceSeries) { s.Bars[0].Time = time.Time{} }, 0},
		{"missing close", func(s *model.PriceSeries) { s.Bars[4].Close = math.NaN() }, 4},
		{"zero open", func(s *model.PriceSeries) { s.Bars[1].Open = 0 }, 1},
		{"negative volume", func(s *model.PriceSeries) { s.Bars[2].Volume = -5 }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seriesFromCloses(wave(10))
			tt.mutate(s)
			_, _, err := Compute(s, DefaultParams())
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DataError, got %v", err)
			}
			if de.Index != tt.index {
				t.Errorf("expected bar index %d, got %d (%v)", tt.index, de.Index, de)
			}
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	series := seriesFromCloses(wave(150))
	before := append([]model.OHLCV(nil), series.Bars...)

	a, _, err := Compute(series, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := Compute(series, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two computations over the same series differ")
	}
	if !reflect.DeepEqual(before, series.Bars) {
		t.Error("input series was modified")
	}
}

func TestCompute_AlignedLengths(t *testing.T) {
	set, warnings, err := Compute(seriesFromCloses(wave(40)), DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range []model.IndicatorSeries{set.MA30, set.MA50, set.RSI, set.BollingerMid,
		set.BollingerUpper, set.BollingerLower, set.MACD, set.MACDSignal} {
		if len(s) != 40 {
			t.Errorf("expected 40 aligned values, got %d", len(s))
		}
	}
	// only MA50 lacks history at 40 bars
	if len(warnings) != 1 || warnings[0].Indicator != "MA50" {
		t.Errorf("expected a single MA50 warning, got %v", warnings)
	}
}

func TestParams_Validate(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	p.BollingerWindow = 1
	if err := p.Validate(); err == nil {
		t.Error("expected error for bollinger window 1")
	}
	p = DefaultParams()
	p.RSIPeriod = 0
	if _, _, err := Compute(seriesFromCloses(wave(5)), p); err == nil || IsDataError(err) {
		t.Errorf("expected a params error, got %v", err)
	}
}
