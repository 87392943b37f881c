// Package render draws plotmap figures with the go-chart backend and owns
// the legend description table, including the encoding reconciliation step
// applied between the initial render pass and the final one.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pkplot/internal/plotmap"
)

// DefaultPalette assigns colors per group encoding index. Observed and
// simulated series of one group arrive with the same index, so they share
// a color without further bookkeeping.
var DefaultPalette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorCyan,
	{R: 128, G: 0, B: 128, A: 255},
	{R: 139, G: 69, B: 19, A: 255},
	chart.ColorAlternateGray,
}

// ChartRenderer renders figures to PNG using go-chart.
type ChartRenderer struct {
	logger  *slog.Logger
	width   int
	height  int
	palette []drawing.Color
	legend  []LegendEntry
}

// NewChartRenderer creates a renderer with the default size and palette.
func NewChartRenderer(logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartRenderer{
		logger:  logger,
		width:   900,
		height:  600,
		palette: DefaultPalette,
	}
}

// SetSize overrides the output image size.
func (r *ChartRenderer) SetSize(width, height int) {
	r.width = width
	r.height = height
}

// SetLegend installs a (typically reconciled) legend table to use instead
// of the one derived from the figure. Entries are matched to series by name.
func (r *ChartRenderer) SetLegend(entries []LegendEntry) {
	r.legend = entries
}

// Render implements plotmap.Renderer.
func (r *ChartRenderer) Render(ctx context.Context, fig *plotmap.Figure) ([]byte, error) {
	if len(fig.Series) == 0 {
		return nil, fmt.Errorf("figure %q has no series", fig.Title)
	}

	legend := r.legend
	if legend == nil {
		legend = BuildLegend(fig, r.palette)
	}
	byName := make(map[string]LegendEntry, len(legend))
	for _, e := range legend {
		byName[e.Name] = e
	}

	ch := chart.Chart{
		Title:      fig.Title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: fig.X.Label, Range: axisRange(fig.X)},
		YAxis:      chart.YAxis{Name: fig.Y.Label, Range: axisRange(fig.Y)},
	}

	for _, s := range fig.Series {
		entry, ok := byName[s.Label]
		if !ok {
			entry = LegendEntry{Name: s.Label, Label: s.Label, Color: r.color(s.EncodingIndex), Visible: true}
		}

		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = p.X
			ys[i] = p.Y
		}

		cs := chart.ContinuousSeries{
			XValues: xs,
			YValues: ys,
			Style:   seriesStyle(s.Kind, entry.Color),
		}
		// Series without a legend name render but stay out of the legend;
		// this is how duplicate observed/simulated rows are suppressed.
		if entry.Visible {
			cs.Name = entry.Label
		}
		ch.Series = append(ch.Series, cs)

		if len(s.Band) == len(s.Points) && len(s.Band) > 0 {
			ch.Series = append(ch.Series, bandSeries(xs, s.Band, entry.Color)...)
		}
	}

	if anyVisible(legend) {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("render cancelled: %w", ctx.Err())
	default:
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render figure %q: %w", fig.Title, err)
	}
	r.logger.DebugContext(ctx, "rendered figure",
		"title", fig.Title,
		"series", len(fig.Series),
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

func (r *ChartRenderer) color(encodingIndex int) drawing.Color {
	return r.palette[encodingIndex%len(r.palette)]
}

func seriesStyle(kind plotmap.SeriesKind, col drawing.Color) chart.Style {
	if kind == plotmap.KindObserved {
		// Observed data draws as markers only.
		return chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    col,
		}
	}
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
}

// bandSeries draws the (yMin, yMax) bounds as faint unnamed lines in the
// series color.
func bandSeries(xs []float64, band []plotmap.Band, col drawing.Color) []chart.Series {
	lower := make([]float64, len(band))
	upper := make([]float64, len(band))
	for i, b := range band {
		lower[i] = b.Lower
		upper[i] = b.Upper
	}
	faint := col.WithAlpha(90)
	style := chart.Style{StrokeColor: faint, StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
	return []chart.Series{
		chart.ContinuousSeries{XValues: xs, YValues: lower, Style: style},
		chart.ContinuousSeries{XValues: xs, YValues: upper, Style: style},
	}
}

func axisRange(spec plotmap.AxisSpec) chart.Range {
	if spec.Scale == plotmap.ScaleLog {
		r := &chart.LogarithmicRange{}
		if spec.Limits != nil {
			r.Min = spec.Limits.Min
			r.Max = spec.Limits.Max
		}
		return r
	}
	if spec.Limits != nil {
		return &chart.ContinuousRange{Min: spec.Limits.Min, Max: spec.Limits.Max}
	}
	return nil
}

func anyVisible(entries []LegendEntry) bool {
	for _, e := range entries {
		if e.Visible {
			return true
		}
	}
	return false
}
