package chart

import (
	"encoding/json"
	"fmt"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// Figure is a Plotly figure: the traces plus the layout, serialized as-is for Plotly.newPlot.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Line styles a scatter trace or a candlestick direction.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Direction styles the increasing or decreasing candles.
type Direction struct {
	Line Line `json:"line"`
}

// Trace covers the two trace kinds the dashboard draws: candlestick and scatter.
type Trace struct {
	Type  string   `json:"type"`
	Name  string   `json:"name"`
	X     []string `json:"x"`
	YAxis string   `json:"yaxis,omitempty"`

	// scatter
	Y    model.IndicatorSeries `json:"y,omitempty"`
	Mode string                `json:"mode,omitempty"`
	Line *Line                 `json:"line,omitempty"`

	// candlestick
	Open       []float64  `json:"open,omitempty"`
	High       []float64  `json:"high,omitempty"`
	Low        []float64  `json:"low,omitempty"`
	Close      []float64  `json:"close,omitempty"`
	Increasing *Direction `json:"increasing,omitempty"`
	Decreasing *Direction `json:"decreasing,omitempty"`
}

// Title is a Plotly title object.
type Title struct {
	Text string `json:"text"`
}

// RangeSlider toggles the x-axis range slider.
type RangeSlider struct {
	Visible bool `json:"visible"`
}

// Axis is a Plotly axis.
type Axis struct {
	Title       *Title       `json:"title,omitempty"`
	Type        string       `json:"type,omitempty"`
	Domain      []float64    `json:"domain,omitempty"`
	Range       []float64    `json:"range,omitempty"`
	Anchor      string       `json:"anchor,omitempty"`
	RangeSlider *RangeSlider `json:"rangeslider,omitempty"`
}

// Shape is a layout shape; used for the RSI 30/70 guides.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

// Layout is the subset of Plotly layout attributes the dashboard sets.
type Layout struct {
	Title        Title   `json:"title"`
	Height       int     `json:"height"`
	XAxis        Axis    `json:"xaxis"`
	YAxis        Axis    `json:"yaxis"`
	YAxis2       Axis    `json:"yaxis2"`
	YAxis3       Axis    `json:"yaxis3"`
	Shapes       []Shape `json:"shapes,omitempty"`
	PaperBGColor string  `json:"paper_bgcolor"`
	PlotBGColor  string  `json:"plot_bgcolor"`
	Font         Font    `json:"font"`
}

// Font is a Plotly font object.
type Font struct {
	Color string `json:"color"`
}

// Trace names as shown in the chart legend.
const (
	NameCandles    = "Candlesticks"
	NameMA30       = "30 Day Moving Average"
	NameMA50       = "50 Day Moving Average"
	NameUpperBand  = "Bollinger Upper Band"
	NameLowerBand  = "Bollinger Lower Band"
	NameRSI        = "RSI (14)"
	NameMACD       = "MACD"
	NameMACDSignal = "MACD Signal"
)

// BuildFigure composes the price, RSI and MACD panels for a on one shared date axis.
func BuildFigure(a *model.Analysis) Figure {
	bars := a.Series.Bars
	x := make([]string, len(bars))
	open := make([]float64, len(bars))
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		x[i] = b.Time.UTC().Format(model.DateLayout)
		open[i], high[i], low[i], closes[i] = b.Open, b.High, b.Low, b.Close
	}

	ind := a.Indicators
	line := func(name string, y model.IndicatorSeries, axis string, l Line) Trace {
		return Trace{Type: "scatter", Name: name, X: x, Y: y, Mode: "lines", YAxis: axis, Line: &l}
	}

	data := []Trace{
		{
			Type: "candlestick", Name: NameCandles, X: x,
			Open: open, High: high, Low: low, Close: closes,
			Increasing: &Direction{Line: Line{Color: "cyan"}},
			Decreasing: &Direction{Line: Line{Color: "orange"}},
		},
		line(NameMA30, ind.MA30, "", Line{Color: "lightgreen", Width: 2}),
		line(NameMA50, ind.MA50, "", Line{Color: "gold", Width: 2}),
		line(NameUpperBand, ind.BollingerUpper, "", Line{Color: "red", Width: 1, Dash: "dash"}),
		line(NameLowerBand, ind.BollingerLower, "", Line{Color: "blue", Width: 1, Dash: "dash"}),
		line(NameRSI, ind.RSI, "y2", Line{Color: "teal", Width: 1.5}),
		line(NameMACD, ind.MACD, "y3", Line{Color: "purple", Width: 2}),
		line(NameMACDSignal, ind.MACDSignal, "y3", Line{Color: "orange", Width: 2}),
	}

	guide := func(level float64, color string) Shape {
		return Shape{Type: "line", XRef: "paper", YRef: "y2", X0: 0, X1: 1, Y0: level, Y1: level,
			Line: Line{Color: color, Width: 1, Dash: "dot"}}
	}

	return Figure{
		Data: data,
		Layout: Layout{
			Title:  Title{Text: fmt.Sprintf("%s Price Graph Analysis", a.Request.Symbol)},
			Height: 900,
			XAxis:  Axis{Type: "date", RangeSlider: &RangeSlider{Visible: false}},
			YAxis:  Axis{Title: &Title{Text: "Price (USD)"}, Domain: []float64{0.45, 1}},
			YAxis2: Axis{Title: &Title{Text: "RSI"}, Domain: []float64{0.25, 0.4}, Range: []float64{0, 100}, Anchor: "x"},
			YAxis3: Axis{Title: &Title{Text: "MACD"}, Domain: []float64{0, 0.2}, Anchor: "x"},
			Shapes: []Shape{guide(70, "red"), guide(30, "green")},

			PaperBGColor: "white",
			PlotBGColor:  "white",
			Font:         Font{Color: "black"},
		},
	}
}

// JSON encodes the figure. Undefined indicator positions become null, which Plotly draws as gaps.
func (f Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}
