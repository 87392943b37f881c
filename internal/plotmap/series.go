package plotmap

import (
	"github.com/google/uuid"
)

// SeriesID is the immutable opaque identifier assigned to a series at
// creation. All internal references use the ID; the display label is just a
// mutable attribute, so renaming a series never breaks lookups.
type SeriesID string

func newSeriesID() SeriesID {
	return SeriesID(uuid.NewString())
}

// SeriesKind distinguishes observed data from simulation output so the
// renderer can pick the matching drawing convention (markers vs lines).
type SeriesKind string

const (
	KindObserved    SeriesKind = "observed"
	KindModelOutput SeriesKind = "model_output"
)

// Point is a single XY pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Band is an optional (yMin, yMax) bound attached to a point.
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Transform is a display-time affine transform, y' = y*Factor + Offset.
// The identity transform has Factor 1 and Offset 0.
type Transform struct {
	Factor float64 `json:"factor"`
	Offset float64 `json:"offset"`
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Factor: 1, Offset: 0}
}

// Apply applies the transform to a value.
func (t Transform) Apply(v float64) float64 {
	return v*t.Factor + t.Offset
}

// series is the aggregator-owned storage for one named XY sequence. Raw
// points are never mutated by display transforms.
type series struct {
	id     SeriesID
	label  string
	group  string
	kind   SeriesKind
	path   string // model-output quantity path, empty for observed series
	points []Point
	band   []Band // empty, or one entry per point
	xform  Transform
	yform  Transform
}

func (s *series) clone() *series {
	dup := &series{
		id:    s.id,
		label: s.label,
		group: s.group,
		kind:  s.kind,
		path:  s.path,
		xform: s.xform,
		yform: s.yform,
	}
	dup.points = make([]Point, len(s.points))
	copy(dup.points, s.points)
	if len(s.band) > 0 {
		dup.band = make([]Band, len(s.band))
		copy(dup.band, s.band)
	}
	return dup
}
