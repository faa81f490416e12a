// Package matchstats reduces a match's participants to per-metric averages
// and renders "average vs player" comparison charts.
package matchstats

import (
	"encoding/json"
	"errors"
)

// Metric names a tracked per-participant number
type Metric string

const (
	MetricGold   Metric = "gold"
	MetricDamage Metric = "damage"
)

// TrackedMetrics lists the metrics Aggregate computes, in chart order
var TrackedMetrics = []Metric{MetricGold, MetricDamage}

// ErrEmptyMatch is returned when there are no participants to average
var ErrEmptyMatch = errors.New("cannot compute averages over an empty match")

// Participant is one player's numbers within a match
type Participant struct {
	Name   string
	Gold   float64
	Damage float64
}

// Value returns the participant's value for m
func (p Participant) Value(m Metric) float64 {
	switch m {
	case MetricGold:
		return p.Gold
	case MetricDamage:
		return p.Damage
	default:
		return 0
	}
}

// Averages holds the mean of each tracked metric over one match.
// The zero value is empty; build one with Aggregate.
type Averages struct {
	values map[Metric]float64
	count  int
}

// Value returns the mean for m and whether it was computed
func (a Averages) Value(m Metric) (float64, bool) {
	v, ok := a.values[m]
	return v, ok
}

// Count is the number of participants the means were computed over
func (a Averages) Count() int {
	return a.count
}

func (a Averages) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(a.values))
	for m, v := range a.values {
		out[string(m)] = v
	}
	return json.Marshal(out)
}

// Aggregate computes the arithmetic mean of every tracked metric across
// participants in a single pass
func Aggregate(participants []Participant) (Averages, error) {
	if len(participants) == 0 {
		return Averages{}, ErrEmptyMatch
	}

	sums := make(map[Metric]float64, len(TrackedMetrics))
	for _, p := range participants {
		for _, m := range TrackedMetrics {
			sums[m] += p.Value(m)
		}
	}

	n := float64(len(participants))
	values := make(map[Metric]float64, len(sums))
	for m, sum := range sums {
		values[m] = sum / n
	}

	return Averages{values: values, count: len(participants)}, nil
}
