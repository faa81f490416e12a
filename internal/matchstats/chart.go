package matchstats

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
	barWidth    = 40
)

var barColor = color.RGBA{R: 66, G: 133, B: 244, A: 255}

// ErrInvalidValue is returned for NaN, infinite or negative bar values
var ErrInvalidValue = errors.New("chart value must be a finite non-negative number")

// Bar is one labelled category of a chart
type Bar struct {
	Label string
	Value float64
}

// ChartImage is a rendered PNG plus the data it was drawn from
type ChartImage struct {
	PNG        []byte    `json:"-"`
	Encoded    string    `json:"image"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
	Labels     []string  `json:"labels"`
}

// ComparisonBars builds the fixed-order series for a participant: for each
// tracked metric the match average followed by the participant's own value
func ComparisonBars(p Participant, avg Averages) ([]Bar, error) {
	bars := make([]Bar, 0, 2*len(TrackedMetrics))
	for _, m := range TrackedMetrics {
		mean, ok := avg.Value(m)
		if !ok {
			return nil, fmt.Errorf("averages missing metric %s", m)
		}
		bars = append(bars,
			Bar{Label: "Average " + string(m), Value: mean},
			Bar{Label: p.Name + " " + string(m), Value: p.Value(m)},
		)
	}
	return bars, nil
}

// RenderComparison draws the average-vs-participant chart for p
func RenderComparison(p Participant, avg Averages) (*ChartImage, error) {
	bars, err := ComparisonBars(p, avg)
	if err != nil {
		return nil, err
	}
	return RenderBars(p.Name+" vs match average", bars)
}

// RenderBars draws a bar chart with every bar labelled by its integer value.
// Each call builds its own plot, so concurrent calls share no drawing state.
func RenderBars(title string, bars []Bar) (*ChartImage, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to render")
	}

	values := make(plotter.Values, len(bars))
	categories := make([]string, len(bars))
	labels := make([]string, len(bars))
	xys := make(plotter.XYs, len(bars))
	maxValue := 0.0

	for i, b := range bars {
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) || b.Value < 0 {
			return nil, fmt.Errorf("bar %q: %w", b.Label, ErrInvalidValue)
		}
		values[i] = b.Value
		categories[i] = b.Label
		labels[i] = valueLabel(b.Value)
		xys[i] = plotter.XY{X: float64(i), Y: b.Value}
		maxValue = math.Max(maxValue, b.Value)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Min = 0
	p.Y.Label.Text = "value"

	chart, err := plotter.NewBarChart(values, vg.Points(barWidth))
	if err != nil {
		return nil, fmt.Errorf("error building bar chart: %w", err)
	}
	chart.Color = barColor
	chart.LineStyle.Width = 0
	p.Add(chart)

	valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("error building bar labels: %w", err)
	}
	for i := range valueLabels.TextStyle {
		valueLabels.TextStyle[i].XAlign = text.XCenter
	}
	valueLabels.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(valueLabels)

	p.NominalX(categories...)
	// Leave headroom so the label above the tallest bar stays on the canvas.
	if maxValue == 0 {
		maxValue = 1
	}
	p.Y.Max = maxValue * 1.15

	w, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("error creating png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error encoding chart: %w", err)
	}

	raw := buf.Bytes()
	return &ChartImage{
		PNG:        raw,
		Encoded:    base64.URLEncoding.EncodeToString(raw),
		Categories: categories,
		Values:     []float64(values),
		Labels:     labels,
	}, nil
}

// valueLabel truncates toward zero, matching int(value). Formatting the
// float keeps values past the int64 range exact instead of wrapping.
func valueLabel(v float64) string {
	t := math.Trunc(v)
	if t == 0 {
		// also covers -0
		return "0"
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}
