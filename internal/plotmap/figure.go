package plotmap

import (
	"context"
)

// AxisSpec is the resolved display configuration of one axis as handed to
// the render backend.
type AxisSpec struct {
	Label  string    `json:"label"`
	Scale  ScaleMode `json:"scale"`
	Limits *Range    `json:"limits,omitempty"`
}

// FigureSeries is one resolved series: display-transformed points plus the
// metadata the backend needs to draw and legend it. EncodingIndex is shared
// by every series of one group, so an observed series and its matched
// simulated series get the same visual encoding.
type FigureSeries struct {
	ID            SeriesID   `json:"id"`
	Label         string     `json:"label"`
	Group         string     `json:"group"`
	Kind          SeriesKind `json:"kind"`
	Path          string     `json:"path,omitempty"`
	Points        []Point    `json:"points"`
	Band          []Band     `json:"band,omitempty"`
	EncodingIndex int        `json:"encoding_index"`
}

// Figure is the immutable snapshot a Plot call passes to the renderer.
// Building a fresh snapshot per render call keeps configuration edits
// between calls from leaking into an in-flight render.
type Figure struct {
	Title  string         `json:"title"`
	X      AxisSpec       `json:"x"`
	Y      AxisSpec       `json:"y"`
	Series []FigureSeries `json:"series"`
}

// Renderer renders a resolved Figure to an image. Implemented by the chart
// backend; the mapping itself knows nothing about drawing.
type Renderer interface {
	Render(ctx context.Context, fig *Figure) ([]byte, error)
}

// PlotOptions configures a single Plot call.
type PlotOptions struct {
	Title string
}

// Snapshot resolves the mapping into a Figure: display transforms applied,
// axis configuration copied, encodings assigned per group.
func (m *DataMapping) Snapshot(opts PlotOptions) (*Figure, error) {
	// Log axes are validated again here: data appended after SetAxisScale
	// may have introduced non-positive values.
	if m.x.scale == ScaleLog {
		if err := m.checkLogPositivity(AxisX); err != nil {
			return nil, err
		}
	}
	if m.y.scale == ScaleLog {
		if err := m.checkLogPositivity(AxisY); err != nil {
			return nil, err
		}
	}

	fig := &Figure{
		Title: opts.Title,
		X:     AxisSpec{Label: m.x.label, Scale: m.x.scale},
		Y:     AxisSpec{Label: m.y.label, Scale: m.y.scale},
	}
	if m.x.limits != nil {
		r := *m.x.limits
		fig.X.Limits = &r
	}
	if m.y.limits != nil {
		r := *m.y.limits
		fig.Y.Limits = &r
	}

	for _, id := range m.order {
		s := m.byID[id]
		fs := FigureSeries{
			ID:            s.id,
			Label:         s.label,
			Group:         s.group,
			Kind:          s.kind,
			Path:          s.path,
			Points:        displayPoints(s),
			EncodingIndex: m.groupIndex(s.group),
		}
		if len(s.band) > 0 {
			fs.Band = displayBand(s)
		}
		fig.Series = append(fig.Series, fs)
	}
	return fig, nil
}

// Plot resolves the mapping and delegates rendering to the backend.
func (m *DataMapping) Plot(ctx context.Context, r Renderer, opts PlotOptions) ([]byte, error) {
	fig, err := m.Snapshot(opts)
	if err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "rendering figure",
		"title", opts.Title,
		"series", len(fig.Series),
		"x_scale", fig.X.Scale,
		"y_scale", fig.Y.Scale,
	)
	return r.Render(ctx, fig)
}
