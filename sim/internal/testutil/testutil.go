// Package testutil provides shared test infrastructure for the simulator:
// small road networks and assertion helpers used across sim/ and its
// sub-package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/roadsim/roadsim/sim/roadnet"
)

// Grid builds a rows x cols grid city with default dimensions.
func Grid(t testing.TB, rows, cols int) *roadnet.Map {
	t.Helper()
	m, err := roadnet.NewGrid(roadnet.GridConfig{Rows: rows, Cols: cols})
	if err != nil {
		t.Fatalf("Failed to build %dx%d grid: %v", rows, cols, err)
	}
	return m
}

// TwoBlocks is the 1x2 grid: one road between two dead ends. Lanes 0-2 are
// the forward driving, parking and sidewalk lanes, 3-5 the backward ones.
func TwoBlocks(t testing.TB) *roadnet.Map {
	return Grid(t, 1, 2)
}

// FirstLaneOfType returns the lowest lane id of the given type.
func FirstLaneOfType(t testing.TB, m *roadnet.Map, lt roadnet.LaneType) roadnet.LaneID {
	t.Helper()
	ids := m.LanesOfType(lt)
	if len(ids) == 0 {
		t.Fatalf("%s has no %s lane", m.Name, lt)
	}
	return ids[0]
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t testing.TB, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
