package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsim/roadsim/sim/analytics"
)

func saveTrips(t *testing.T, name string, trips ...analytics.TripRecord) string {
	t.Helper()
	a := analytics.NewAnalytics()
	for _, r := range trips {
		a.RecordTrip(r)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, analytics.SaveBaseline(a, path))
	return path
}

func TestCompareBaselines_DefaultsToLastFinish(t *testing.T) {
	// GIVEN a live run with one fast drive trip and a baseline with one slow one
	live := saveTrips(t, "live.json",
		analytics.TripRecord{Agent: 0, Mode: analytics.ModeDrive, Departed: 0, Finished: 30 * time.Second})
	baseline := saveTrips(t, "baseline.json",
		analytics.TripRecord{Agent: 0, Mode: analytics.ModeDrive, Departed: 0, Finished: 50 * time.Second})

	// WHEN compared without --at
	var out bytes.Buffer
	require.NoError(t, compareBaselines(&out, live, baseline, 0))

	// THEN both trips count and the live one is faster
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines[0], "at 50s")
	assert.Equal(t, "1 drive trips finished (same as baseline)", lines[1])
	assert.Contains(t, out.String(), "  mean: 30s (20s faster)")
	assert.Contains(t, out.String(), "0 walk trips finished (same as baseline)")
}

func TestCompareBaselines_AtCutsOffLaterTrips(t *testing.T) {
	live := saveTrips(t, "live.json",
		analytics.TripRecord{Agent: 0, Mode: analytics.ModeWalk, Departed: 0, Finished: 10 * time.Second},
		analytics.TripRecord{Agent: 1, Mode: analytics.ModeWalk, Departed: 0, Finished: 90 * time.Second})
	baseline := saveTrips(t, "baseline.json")

	var out bytes.Buffer
	require.NoError(t, compareBaselines(&out, live, baseline, 20*time.Second))

	assert.Contains(t, out.String(), "1 walk trips finished (+1 more than baseline)")
	assert.NotContains(t, out.String(), "mean")
}

func TestCompareBaselines_MissingFile(t *testing.T) {
	live := saveTrips(t, "live.json")

	err := compareBaselines(&bytes.Buffer{}, live, filepath.Join(t.TempDir(), "none.json"), 0)

	assert.Error(t, err)
}
