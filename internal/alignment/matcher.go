// Package alignment matches observed data points against simulated time
// series. For every observation it finds the simulated sample in the same
// group whose time is closest in absolute difference and derives the
// residual (simulated minus observed).
package alignment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	ploterrors "pkplot/internal/errors"
	"pkplot/pkg/contracts/domain"
)

// Matcher performs nearest-neighbor time alignment per group.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a new matcher
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Match aligns every observation against the simulated samples of its group.
// Inputs are not mutated; the result carries the matched sample time/value
// and the residual per observation, in input order.
//
// A group that has observations but no simulated samples fails the whole
// call with a NoMatchError; silently matching across groups would produce
// plausible-looking but wrong comparisons. Groups that only appear on the
// simulated side are ignored.
func (m *Matcher) Match(ctx context.Context, observations []domain.Observation, samples []domain.SimulationSample) ([]domain.MatchedObservation, error) {
	m.logger.InfoContext(ctx, "starting time alignment",
		"observations", len(observations),
		"samples", len(samples),
	)

	if err := m.validateUnits(observations, samples); err != nil {
		m.logger.ErrorContext(ctx, "unit validation failed", "error", err)
		return nil, err
	}

	samplesByGroup := make(map[string][]domain.SimulationSample)
	for _, s := range samples {
		samplesByGroup[s.Group] = append(samplesByGroup[s.Group], s)
	}

	obsCountByGroup := make(map[string]int)
	for _, o := range observations {
		obsCountByGroup[o.Group]++
	}
	for group, count := range obsCountByGroup {
		if len(samplesByGroup[group]) == 0 {
			return nil, &ploterrors.NoMatchError{Group: group, Observations: count}
		}
	}

	matched := make([]domain.MatchedObservation, 0, len(observations))
	for _, obs := range observations {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("alignment cancelled: %w", ctx.Err())
		default:
		}

		best := nearestSample(obs.Time, samplesByGroup[obs.Group])
		matched = append(matched, domain.MatchedObservation{
			Observation:  obs,
			MatchedTime:  best.Time,
			MatchedValue: best.Value,
			Residual:     best.Value - obs.Value,
		})
	}

	m.logger.InfoContext(ctx, "time alignment complete",
		"matched", len(matched),
		"groups", len(obsCountByGroup),
	)
	return matched, nil
}

// nearestSample returns the sample minimizing |sample.Time - t|. Ties keep
// the earliest sample in sequence order (stable argmin). Callers guarantee
// the slice is non-empty.
func nearestSample(t float64, group []domain.SimulationSample) domain.SimulationSample {
	best := group[0]
	bestDiff := math.Abs(best.Time - t)
	for _, s := range group[1:] {
		if diff := math.Abs(s.Time - t); diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}
	return best
}

// validateUnits rejects mixed time units before any matching happens.
// Nearest-neighbor search over mismatched units produces silently wrong
// matches, so it is checked up front instead of left to the caller.
func (m *Matcher) validateUnits(observations []domain.Observation, samples []domain.SimulationSample) error {
	sampleUnit := make(map[string]domain.TimeUnit)
	for _, s := range samples {
		if unit, ok := sampleUnit[s.Group]; ok && unit != s.TimeUnit {
			return &ploterrors.UnitMismatchError{Group: s.Group, Observed: string(unit), Simulated: string(s.TimeUnit)}
		}
		sampleUnit[s.Group] = s.TimeUnit
	}
	for _, o := range observations {
		if unit, ok := sampleUnit[o.Group]; ok && unit != o.TimeUnit {
			return &ploterrors.UnitMismatchError{Group: o.Group, Observed: string(o.TimeUnit), Simulated: string(unit)}
		}
	}
	return nil
}
