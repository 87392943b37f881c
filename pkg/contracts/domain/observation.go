package domain

import (
	"fmt"
)

// TimeUnit tags the unit of a time axis. Nearest-neighbor matching between
// observed and simulated points is only meaningful when both sides carry the
// same unit, so loaders must tag every dataset explicitly.
type TimeUnit string

const (
	UnitMinute TimeUnit = "min"
	UnitHour   TimeUnit = "h"
)

// Factor returns the conversion factor from the unit to minutes.
func (u TimeUnit) Factor() (float64, error) {
	switch u {
	case UnitMinute:
		return 1, nil
	case UnitHour:
		return 60, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", string(u))
	}
}

// ConvertTime converts a time value between units.
func ConvertTime(value float64, from, to TimeUnit) (float64, error) {
	if from == to {
		return value, nil
	}
	ff, err := from.Factor()
	if err != nil {
		return 0, err
	}
	tf, err := to.Factor()
	if err != nil {
		return 0, err
	}
	return value * ff / tf, nil
}

// Observation is one measured data point from an observed dataset.
// ErrorBar is the reported uncertainty; rows with no uncertainty are
// normalized to 0 at load time so downstream group handling never sees a gap.
type Observation struct {
	Group    string   `json:"group" validate:"required"`
	Time     float64  `json:"time" validate:"gte=0"`
	Value    float64  `json:"value"`
	ErrorBar float64  `json:"error_bar,omitempty" validate:"gte=0"`
	TimeUnit TimeUnit `json:"time_unit" validate:"required"`
}

// SimulationSample is one simulated output point.
type SimulationSample struct {
	IndividualID string   `json:"individual_id"`
	Group        string   `json:"group" validate:"required"`
	Time         float64  `json:"time" validate:"gte=0"`
	Value        float64  `json:"value"`
	TimeUnit     TimeUnit `json:"time_unit" validate:"required"`
}

// MatchedObservation is an Observation with the alignment-derived fields
// populated: the in-group simulated sample closest in time, and the residual
// (simulated minus observed).
type MatchedObservation struct {
	Observation
	MatchedTime  float64 `json:"matched_time"`
	MatchedValue float64 `json:"matched_value"`
	Residual     float64 `json:"residual"`
}
