package surface

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raterudder/solarkiosk/pkg/daygrid"
	"github.com/raterudder/solarkiosk/pkg/view"
)

// ErrNoChart is returned when no chart has been rendered yet.
var ErrNoChart = errors.New("no chart rendered yet")

const (
	chartWidth  = 1280
	chartHeight = 480
	// a label every 3 hours
	tickEvery = 3 * 60 / daygrid.BucketMinutes
)

var chartSeries = []struct {
	name  string
	color drawing.Color
}{
	{"Produção", drawing.ColorFromHex("f5a623")},
	{"Consumo", drawing.ColorFromHex("d0021b")},
	{"Autoconsumo", drawing.ColorFromHex("7ed321")},
	{"Excedente", drawing.ColorFromHex("4a90e2")},
}

// WriteChartPNG renders the last chart as a PNG.
func (h *Hub) WriteChartPNG(w io.Writer) error {
	h.mu.Lock()
	c := h.state.Chart
	h.mu.Unlock()
	if c == nil {
		return ErrNoChart
	}
	return renderChart(*c, w)
}

// segment is an unbroken run of readings.
type segment struct {
	xs, ys []float64
}

// segments splits values at every bucket with no data so gaps stay visible.
func segments(values []*float64) []segment {
	var out []segment
	var cur segment
	for x, v := range values {
		if v == nil {
			if len(cur.xs) > 0 {
				out = append(out, cur)
				cur = segment{}
			}
			continue
		}
		cur.xs = append(cur.xs, float64(x))
		cur.ys = append(cur.ys, *v)
	}
	if len(cur.xs) > 0 {
		out = append(out, cur)
	}
	return out
}

func renderChart(c view.Chart, w io.Writer) error {
	var series []chart.Series
	minY, maxY := 0.0, 1.0
	for i, values := range c.Series() {
		for j, seg := range segments(values) {
			for _, y := range seg.ys {
				minY = min(minY, y)
				maxY = max(maxY, y)
			}
			style := chart.Style{
				StrokeColor: chartSeries[i].color,
				StrokeWidth: 2,
			}
			if len(seg.xs) == 1 {
				// a lone reading has no line to draw
				style.DotColor = chartSeries[i].color
				style.DotWidth = 2
			}
			cs := chart.ContinuousSeries{
				XValues: seg.xs,
				YValues: seg.ys,
				Style:   style,
			}
			// the legend skips unnamed series
			if j == 0 {
				cs.Name = chartSeries[i].name
			}
			series = append(series, cs)
		}
	}
	if len(series) == 0 {
		return ErrNoChart
	}

	var ticks []chart.Tick
	for i := 0; i < len(c.Labels); i += tickEvery {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: c.Labels[i]})
	}

	ch := chart.Chart{
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(daygrid.Buckets - 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "kW",
			Range: &chart.ContinuousRange{Min: minY * 1.1, Max: maxY * 1.1},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
