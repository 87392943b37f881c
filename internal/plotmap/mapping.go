// Package plotmap aggregates named, grouped XY series for display. A
// DataMapping owns the series storage plus the axis configuration (labels,
// limits, linear/log scale, per-series display transforms) and hands a
// resolved Figure to a render backend.
package plotmap

import (
	"fmt"
	"log/slog"

	ploterrors "pkplot/internal/errors"
)

// Axis names an axis of the mapping.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// ScaleMode is the axis scale.
type ScaleMode string

const (
	ScaleLinear ScaleMode = "linear"
	ScaleLog    ScaleMode = "log"
)

// Range is a closed numeric axis range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// axisConfig carries per-axis display configuration.
type axisConfig struct {
	label  string
	limits *Range
	scale  ScaleMode
}

// DataMapping is an ordered collection of named series plus display
// configuration. Created empty, populated incrementally by the add
// operations. Not safe for concurrent use.
type DataMapping struct {
	logger *slog.Logger

	order   []SeriesID
	byID    map[SeriesID]*series
	byLabel map[string]SeriesID

	x axisConfig
	y axisConfig

	// groups in first-seen order; the position doubles as the visual
	// encoding index so observed and simulated series of one group share
	// an encoding.
	groupOrder []string
}

// New creates an empty DataMapping.
func New(logger *slog.Logger) *DataMapping {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataMapping{
		logger:  logger,
		byID:    make(map[SeriesID]*series),
		byLabel: make(map[string]SeriesID),
		x:       axisConfig{scale: ScaleLinear},
		y:       axisConfig{scale: ScaleLinear},
	}
}

// AddObservedSeries appends a new observed series tagged with group and
// label. A label collision fails with DuplicateLabelError; overwriting goes
// through ReplaceSeries explicitly.
func (m *DataMapping) AddObservedSeries(points []Point, group, label string) (SeriesID, error) {
	if _, exists := m.byLabel[label]; exists {
		return "", &ploterrors.DuplicateLabelError{Label: label}
	}
	id := m.insert(&series{
		id:     newSeriesID(),
		label:  label,
		group:  group,
		kind:   KindObserved,
		points: clonePoints(points),
		xform:  Identity(),
		yform:  Identity(),
	})
	m.logger.Debug("added observed series", "label", label, "group", group, "points", len(points))
	return id, nil
}

// AddModelOutputSeries appends one series per partition of simulation
// output. paths, partitions, labels and groups are parallel lists; a length
// mismatch fails with ArityMismatchError and leaves the mapping untouched,
// as does any label collision.
func (m *DataMapping) AddModelOutputSeries(paths []string, partitions [][]Point, labels, groups []string) ([]SeriesID, error) {
	n := len(partitions)
	if len(paths) != n || len(labels) != n || len(groups) != n {
		return nil, &ploterrors.ArityMismatchError{
			Operation: "AddModelOutputSeries",
			Counts: map[string]int{
				"paths":      len(paths),
				"partitions": n,
				"labels":     len(labels),
				"groups":     len(groups),
			},
		}
	}

	// All-or-nothing: check every label before inserting any series.
	seen := make(map[string]bool, n)
	for _, label := range labels {
		if _, exists := m.byLabel[label]; exists || seen[label] {
			return nil, &ploterrors.DuplicateLabelError{Label: label}
		}
		seen[label] = true
	}

	ids := make([]SeriesID, 0, n)
	for i := 0; i < n; i++ {
		id := m.insert(&series{
			id:     newSeriesID(),
			label:  labels[i],
			group:  groups[i],
			kind:   KindModelOutput,
			path:   paths[i],
			points: clonePoints(partitions[i]),
			xform:  Identity(),
			yform:  Identity(),
		})
		ids = append(ids, id)
	}
	m.logger.Debug("added model output series", "count", n)
	return ids, nil
}

// ReplaceSeries swaps the stored points of an existing series, keeping its
// identity, label, group and transforms. This is the explicit overwrite
// path; the add operations never replace silently.
func (m *DataMapping) ReplaceSeries(label string, points []Point) error {
	id, ok := m.byLabel[label]
	if !ok {
		return ploterrors.NewNotFoundError(fmt.Sprintf("series %q", label))
	}
	s := m.byID[id]
	s.points = clonePoints(points)
	s.band = nil
	return nil
}

// RenameSeries changes the display label of a series. Internal references
// use the SeriesID, so renaming never invalidates them.
func (m *DataMapping) RenameSeries(id SeriesID, label string) error {
	s, ok := m.byID[id]
	if !ok {
		return ploterrors.NewNotFoundError(fmt.Sprintf("series %s", id))
	}
	if existing, exists := m.byLabel[label]; exists && existing != id {
		return &ploterrors.DuplicateLabelError{Label: label}
	}
	delete(m.byLabel, s.label)
	s.label = label
	m.byLabel[label] = id
	return nil
}

// AppendPoints extends the raw data of a series. Display transforms are
// applied at render time, so a later Plot reflects appended data.
func (m *DataMapping) AppendPoints(id SeriesID, points ...Point) error {
	s, ok := m.byID[id]
	if !ok {
		return ploterrors.NewNotFoundError(fmt.Sprintf("series %s", id))
	}
	s.points = append(s.points, points...)
	if len(s.band) > 0 {
		// A band must cover every point; extending data invalidates it.
		s.band = nil
	}
	return nil
}

// SetSeriesBand attaches (yMin, yMax) bounds to a series, one per point.
func (m *DataMapping) SetSeriesBand(id SeriesID, band []Band) error {
	s, ok := m.byID[id]
	if !ok {
		return ploterrors.NewNotFoundError(fmt.Sprintf("series %s", id))
	}
	if len(band) != len(s.points) {
		return &ploterrors.ArityMismatchError{
			Operation: "SetSeriesBand",
			Counts:    map[string]int{"points": len(s.points), "band": len(band)},
		}
	}
	s.band = make([]Band, len(band))
	copy(s.band, band)
	return nil
}

// SetAxisTransform sets the display transform y' = y*factor + offset for the
// named series on the given axis. factors defaults to 1 and offsets to 0
// when nil; otherwise all lists must have matching lengths. Raw points are
// never mutated, only the display mapping changes.
func (m *DataMapping) SetAxisTransform(axis Axis, labels []string, factors, offsets []float64) error {
	n := len(labels)
	if factors == nil {
		factors = repeat(1, n)
	}
	if offsets == nil {
		offsets = repeat(0, n)
	}
	if len(factors) != n || len(offsets) != n {
		return &ploterrors.ArityMismatchError{
			Operation: "SetAxisTransform",
			Counts:    map[string]int{"labels": n, "factors": len(factors), "offsets": len(offsets)},
		}
	}

	ids := make([]SeriesID, n)
	for i, label := range labels {
		id, ok := m.byLabel[label]
		if !ok {
			return ploterrors.NewNotFoundError(fmt.Sprintf("series %q", label))
		}
		ids[i] = id
	}
	for i, id := range ids {
		t := Transform{Factor: factors[i], Offset: offsets[i]}
		switch axis {
		case AxisX:
			m.byID[id].xform = t
		case AxisY:
			m.byID[id].yform = t
		default:
			return ploterrors.NewValidationError(fmt.Sprintf("unknown axis %q", axis))
		}
	}
	return nil
}

// SetAxisScale switches an axis between linear and log scale. Log scale is
// rejected with NonPositiveLogValueError when any current display value on
// that axis is zero or negative; values are never silently clipped. Plot
// re-checks, since data appended afterwards can reintroduce the problem.
func (m *DataMapping) SetAxisScale(axis Axis, mode ScaleMode) error {
	cfg, err := m.axis(axis)
	if err != nil {
		return err
	}
	if mode != ScaleLinear && mode != ScaleLog {
		return ploterrors.NewValidationError(fmt.Sprintf("unknown scale mode %q", mode))
	}
	if mode == ScaleLog {
		if err := m.checkLogPositivity(axis); err != nil {
			return err
		}
	}
	cfg.scale = mode
	return nil
}

// SetAxisLabel sets the display label of an axis.
func (m *DataMapping) SetAxisLabel(axis Axis, label string) error {
	cfg, err := m.axis(axis)
	if err != nil {
		return err
	}
	cfg.label = label
	return nil
}

// SetAxisLimits sets the display range of an axis.
func (m *DataMapping) SetAxisLimits(axis Axis, min, max float64) error {
	cfg, err := m.axis(axis)
	if err != nil {
		return err
	}
	if min >= max {
		return ploterrors.NewValidationError(fmt.Sprintf("%s axis limits [%g, %g] are not an increasing range", axis, min, max))
	}
	cfg.limits = &Range{Min: min, Max: max}
	return nil
}

// Clone deep-copies the mapping. Mutating the clone's series or
// configuration never affects the original; this is how the same data gets
// rendered as a different plot type. A shallow clone that aliases series
// storage is deliberately not offered.
func (m *DataMapping) Clone() *DataMapping {
	dup := New(m.logger)
	dup.x = m.x
	dup.y = m.y
	if m.x.limits != nil {
		r := *m.x.limits
		dup.x.limits = &r
	}
	if m.y.limits != nil {
		r := *m.y.limits
		dup.y.limits = &r
	}
	dup.groupOrder = append([]string(nil), m.groupOrder...)
	for _, id := range m.order {
		s := m.byID[id].clone()
		dup.order = append(dup.order, s.id)
		dup.byID[s.id] = s
		dup.byLabel[s.label] = s.id
	}
	return dup
}

// Labels returns the series labels in insertion order.
func (m *DataMapping) Labels() []string {
	labels := make([]string, 0, len(m.order))
	for _, id := range m.order {
		labels = append(labels, m.byID[id].label)
	}
	return labels
}

// Len returns the number of series.
func (m *DataMapping) Len() int {
	return len(m.order)
}

// Lookup returns the ID of the series with the given label.
func (m *DataMapping) Lookup(label string) (SeriesID, bool) {
	id, ok := m.byLabel[label]
	return id, ok
}

// RawPoints returns a copy of the stored (untransformed) points of a series.
func (m *DataMapping) RawPoints(id SeriesID) ([]Point, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ploterrors.NewNotFoundError(fmt.Sprintf("series %s", id))
	}
	return clonePoints(s.points), nil
}

// DisplayPoints returns the points of a series with its display transforms
// applied. The stored raw values stay untouched.
func (m *DataMapping) DisplayPoints(id SeriesID) ([]Point, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ploterrors.NewNotFoundError(fmt.Sprintf("series %s", id))
	}
	return displayPoints(s), nil
}

func displayPoints(s *series) []Point {
	out := make([]Point, len(s.points))
	for i, p := range s.points {
		out[i] = Point{X: s.xform.Apply(p.X), Y: s.yform.Apply(p.Y)}
	}
	return out
}

// displayBand returns the band bounds with the y display transform applied;
// band values live on the y axis.
func displayBand(s *series) []Band {
	out := make([]Band, len(s.band))
	for i, b := range s.band {
		out[i] = Band{Lower: s.yform.Apply(b.Lower), Upper: s.yform.Apply(b.Upper)}
	}
	return out
}

func (m *DataMapping) insert(s *series) SeriesID {
	m.order = append(m.order, s.id)
	m.byID[s.id] = s
	m.byLabel[s.label] = s.id
	m.noteGroup(s.group)
	return s.id
}

func (m *DataMapping) noteGroup(group string) {
	for _, g := range m.groupOrder {
		if g == group {
			return
		}
	}
	m.groupOrder = append(m.groupOrder, group)
}

func (m *DataMapping) groupIndex(group string) int {
	for i, g := range m.groupOrder {
		if g == group {
			return i
		}
	}
	return 0
}

func (m *DataMapping) axis(axis Axis) (*axisConfig, error) {
	switch axis {
	case AxisX:
		return &m.x, nil
	case AxisY:
		return &m.y, nil
	default:
		return nil, ploterrors.NewValidationError(fmt.Sprintf("unknown axis %q", axis))
	}
}

func (m *DataMapping) checkLogPositivity(axis Axis) error {
	for _, id := range m.order {
		s := m.byID[id]
		for _, p := range displayPoints(s) {
			v := p.Y
			if axis == AxisX {
				v = p.X
			}
			if v <= 0 {
				return &ploterrors.NonPositiveLogValueError{Axis: string(axis), Series: s.label, Value: v}
			}
		}
		if axis != AxisY {
			continue
		}
		// Band bounds render on the y axis too.
		for _, b := range displayBand(s) {
			if b.Lower <= 0 {
				return &ploterrors.NonPositiveLogValueError{Axis: string(axis), Series: s.label, Value: b.Lower}
			}
			if b.Upper <= 0 {
				return &ploterrors.NonPositiveLogValueError{Axis: string(axis), Series: s.label, Value: b.Upper}
			}
		}
	}
	return nil
}

func clonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
