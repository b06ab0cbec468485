// Package analytics records finished trips and compares them against a
// prebaked baseline run of the same scenario.
// This package has no dependencies on sim/; times are simulated durations.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Mode is how a trip was travelled.
type Mode string

const (
	ModeDrive Mode = "drive"
	ModeWalk  Mode = "walk"
)

// TripRecord is one finished trip.
type TripRecord struct {
	Agent    int           `json:"agent"`
	Mode     Mode          `json:"mode"`
	Departed time.Duration `json:"departed"`
	Finished time.Duration `json:"finished"`
	// Retired is set for cars that arrived without a free parking spot.
	Retired bool `json:"retired,omitempty"`
}

// Duration is the simulated time the trip took.
func (r TripRecord) Duration() time.Duration { return r.Finished - r.Departed }

// Analytics accumulates finished trips in completion order.
type Analytics struct {
	Trips []TripRecord `json:"trips"`
}

// NewAnalytics creates an empty Analytics.
func NewAnalytics() *Analytics {
	return &Analytics{Trips: make([]TripRecord, 0)}
}

// RecordTrip appends a finished trip.
func (a *Analytics) RecordTrip(r TripRecord) {
	a.Trips = append(a.Trips, r)
}

// FinishedTrips summarizes the trips of the given mode finished at or before now.
func (a *Analytics) FinishedTrips(now time.Duration, mode Mode) DurationStats {
	trips := lo.Filter(a.Trips, func(r TripRecord, _ int) bool {
		return r.Mode == mode && r.Finished <= now
	})
	return newDurationStats(lo.Map(trips, func(r TripRecord, _ int) time.Duration { return r.Duration() }))
}

// Statistic selects one summary value of a DurationStats.
type Statistic int

const (
	Min Statistic = iota
	Mean
	P50
	P90
	P99
	Max
)

// AllStatistics lists every Statistic in display order.
var AllStatistics = []Statistic{Min, Mean, P50, P90, P99, Max}

func (s Statistic) String() string {
	switch s {
	case Min:
		return "min"
	case Mean:
		return "mean"
	case P50:
		return "50%ile"
	case P90:
		return "90%ile"
	case P99:
		return "99%ile"
	case Max:
		return "max"
	}
	return fmt.Sprintf("Statistic(%d)", int(s))
}

// DurationStats holds the sorted trip durations of one mode.
type DurationStats struct {
	sorted []time.Duration
}

func newDurationStats(durations []time.Duration) DurationStats {
	slices.Sort(durations)
	return DurationStats{sorted: durations}
}

// Count returns the number of trips.
func (d DurationStats) Count() int { return len(d.sorted) }

// Select returns the requested statistic. Panics on an empty set.
func (d DurationStats) Select(s Statistic) time.Duration {
	if len(d.sorted) == 0 {
		panic("analytics: Select on empty DurationStats")
	}
	switch s {
	case Min:
		return d.sorted[0]
	case Max:
		return d.sorted[len(d.sorted)-1]
	case Mean:
		return lo.Sum(d.sorted) / time.Duration(len(d.sorted))
	case P50:
		return d.percentile(50)
	case P90:
		return d.percentile(90)
	case P99:
		return d.percentile(99)
	}
	panic(fmt.Sprintf("analytics: unknown statistic %d", int(s)))
}

// percentile interpolates linearly between the two closest ranks.
func (d DurationStats) percentile(p float64) time.Duration {
	n := len(d.sorted)
	rank := p / 100.0 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return d.sorted[lower]
	}
	frac := rank - float64(lower)
	return d.sorted[lower] + time.Duration(float64(d.sorted[upper]-d.sorted[lower])*frac)
}

// Compare describes how live trips finished by now differ from the baseline's
// trips finished by the same time. Duration lines are omitted when either
// side has no trips.
func Compare(now time.Duration, mode Mode, live, baseline *Analytics) []string {
	a := live.FinishedTrips(now, mode)
	b := baseline.FinishedTrips(now, mode)

	var lines []string
	switch diff := a.Count() - b.Count(); {
	case diff > 0:
		lines = append(lines, fmt.Sprintf("%d %s trips finished (+%d more than baseline)", a.Count(), mode, diff))
	case diff < 0:
		lines = append(lines, fmt.Sprintf("%d %s trips finished (%d fewer than baseline)", a.Count(), mode, -diff))
	default:
		lines = append(lines, fmt.Sprintf("%d %s trips finished (same as baseline)", a.Count(), mode))
	}
	if a.Count() == 0 || b.Count() == 0 {
		return lines
	}

	for _, stat := range AllStatistics {
		mine, theirs := a.Select(stat), b.Select(stat)
		switch {
		case mine < theirs:
			lines = append(lines, fmt.Sprintf("  %s: %s (%s faster)", stat, mine, theirs-mine))
		case mine > theirs:
			lines = append(lines, fmt.Sprintf("  %s: %s (%s slower)", stat, mine, mine-theirs))
		default:
			lines = append(lines, fmt.Sprintf("  %s: %s (same)", stat, mine))
		}
	}
	return lines
}

// SaveBaseline writes analytics as a prebaked JSON baseline.
func SaveBaseline(a *Analytics, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding baseline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// LoadBaseline reads a prebaked JSON baseline.
func LoadBaseline(path string) (*Analytics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}
	a := NewAnalytics()
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
	}
	return a, nil
}
