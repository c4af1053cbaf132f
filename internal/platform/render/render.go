// Package render turns candle series into what the chart layer consumes:
// the candlestick JSON payload and a close-price PNG.
package render

import (
	"errors"
	"time"

	"github.com/vicanso/go-charts/v2"

	"bubble_backend/internal/feature/candles/domain/entity"
)

// ErrNotEnoughData is returned when a chart needs at least two points.
var ErrNotEnoughData = errors.New("render: not enough data points")

// Point is one candlestick in the chart layer's format: x is epoch
// milliseconds, y is [open, high, low, close].
type Point struct {
	X int64      `json:"x"`
	Y [4]float64 `json:"y"`
}

// Payload is what the chart layer draws.
type Payload struct {
	Title  string  `json:"title"`
	Symbol string  `json:"symbol"`
	Series []Point `json:"series"`
}

// Points converts candles to chart points, keeping order.
func Points(cs []entity.Candle) []Point {
	out := make([]Point, 0, len(cs))
	for _, c := range cs {
		out = append(out, Point{X: c.Timestamp, Y: [4]float64{c.Open, c.High, c.Low, c.Close}})
	}
	return out
}

// NewPayload builds the chart payload for a series.
func NewPayload(title, symbol string, cs []entity.Candle) Payload {
	return Payload{Title: title, Symbol: symbol, Series: Points(cs)}
}

// ClosePNG draws the close prices of cs as a line chart and returns PNG bytes.
func ClosePNG(title string, cs []entity.Candle) ([]byte, error) {
	if len(cs) < 2 {
		return nil, ErrNotEnoughData
	}

	x := make([]string, len(cs))
	cl := make([]float64, len(cs))
	yMin, yMax := cs[0].Close, cs[0].Close
	for i, c := range cs {
		x[i] = c.Time().Format(labelLayout(cs))
		cl[i] = c.Close
		yMin = min(yMin, c.Close)
		yMax = max(yMax, c.Close)
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin = max(yMin-pad, 0)
	yMax += pad

	painter, err := charts.LineRender([][]float64{cl},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: x, BoundaryGap: charts.FalseFlag(), SplitNumber: 8}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// labelLayout picks a coarser label for long series.
func labelLayout(cs []entity.Candle) string {
	span := cs[len(cs)-1].Time().Sub(cs[0].Time())
	if span > 2*365*24*time.Hour {
		return "2006-01"
	}
	return "Jan 02"
}
