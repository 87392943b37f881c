package render

import (
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pkplot/internal/plotmap"
)

// LegendEntry is one row of the legend description table: the internal
// series name, the displayed label, the visual encoding and a visibility
// flag. The table is consumable and editable between render passes.
type LegendEntry struct {
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Color   drawing.Color `json:"color"`
	Visible bool          `json:"visible"`
}

// LegendOverride describes the adjustment applied to one entry by name.
// CopyColorFrom names another entry whose current encoding is copied over;
// Color sets it directly; Visible toggles the row.
type LegendOverride struct {
	CopyColorFrom string
	Color         *drawing.Color
	Visible       *bool
}

// BuildLegend derives the initial legend table from a figure, one entry per
// series in figure order, colored by the group encoding index.
func BuildLegend(fig *plotmap.Figure, palette []drawing.Color) []LegendEntry {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	entries := make([]LegendEntry, 0, len(fig.Series))
	for _, s := range fig.Series {
		entries = append(entries, LegendEntry{
			Name:    s.Label,
			Label:   s.Label,
			Color:   palette[s.EncodingIndex%len(palette)],
			Visible: true,
		})
	}
	return entries
}

// ReconcileLegend applies per-entry overrides and returns the adjusted
// table. The usual move is copying the color of a simulated entry onto its
// observed counterpart and hiding one of the two rows, so a group appears
// once in the legend with a single encoding. Applying the same mapping
// twice yields the same table (idempotent): CopyColorFrom reads from the
// input table, not the partially adjusted one.
func ReconcileLegend(entries []LegendEntry, overrides map[string]LegendOverride) []LegendEntry {
	colorByName := make(map[string]drawing.Color, len(entries))
	for _, e := range entries {
		colorByName[e.Name] = e.Color
	}

	out := make([]LegendEntry, len(entries))
	copy(out, entries)
	for i := range out {
		ov, ok := overrides[out[i].Name]
		if !ok {
			continue
		}
		if ov.CopyColorFrom != "" {
			if c, found := colorByName[ov.CopyColorFrom]; found {
				out[i].Color = c
			}
		}
		if ov.Color != nil {
			out[i].Color = *ov.Color
		}
		if ov.Visible != nil {
			out[i].Visible = *ov.Visible
		}
	}
	return out
}
