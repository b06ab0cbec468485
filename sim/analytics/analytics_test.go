package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trip(agent int, mode Mode, departed, finished time.Duration) TripRecord {
	return TripRecord{Agent: agent, Mode: mode, Departed: departed, Finished: finished}
}

func TestFinishedTrips_FiltersByModeAndTime(t *testing.T) {
	// GIVEN drive and walk trips finishing at different times
	a := NewAnalytics()
	a.RecordTrip(trip(1, ModeDrive, 0, 10*time.Second))
	a.RecordTrip(trip(2, ModeDrive, 0, 30*time.Second))
	a.RecordTrip(trip(3, ModeWalk, 0, 5*time.Second))

	// WHEN only trips up to 20s are considered
	drive := a.FinishedTrips(20*time.Second, ModeDrive)
	walk := a.FinishedTrips(20*time.Second, ModeWalk)

	// THEN the later drive trip is excluded
	assert.Equal(t, 1, drive.Count())
	assert.Equal(t, 1, walk.Count())
	assert.Equal(t, 10*time.Second, drive.Select(Max))
}

func TestDurationStats_Select(t *testing.T) {
	a := NewAnalytics()
	for i := 1; i <= 5; i++ {
		a.RecordTrip(trip(i, ModeDrive, 0, time.Duration(i)*time.Second))
	}
	stats := a.FinishedTrips(time.Hour, ModeDrive)

	tests := []struct {
		stat Statistic
		want time.Duration
	}{
		{Min, time.Second},
		{Max, 5 * time.Second},
		{Mean, 3 * time.Second},
		{P50, 3 * time.Second},
		{P90, 4600 * time.Millisecond},
		{P99, 4960 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.stat.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, stats.Select(tt.stat))
		})
	}
}

func TestDurationStats_SelectEmptyPanics(t *testing.T) {
	stats := NewAnalytics().FinishedTrips(time.Hour, ModeWalk)
	assert.Panics(t, func() { stats.Select(Mean) })
}

func TestCompare_MoreAndFaster(t *testing.T) {
	// GIVEN a live run that finished more trips, all quicker than the baseline
	live := NewAnalytics()
	live.RecordTrip(trip(1, ModeDrive, 0, 10*time.Second))
	live.RecordTrip(trip(2, ModeDrive, 0, 10*time.Second))
	baseline := NewAnalytics()
	baseline.RecordTrip(trip(1, ModeDrive, 0, 15*time.Second))

	// WHEN compared
	lines := Compare(time.Minute, ModeDrive, live, baseline)

	// THEN the count line reports the surplus and each stat is faster
	require.Len(t, lines, 1+len(AllStatistics))
	assert.Equal(t, "2 drive trips finished (+1 more than baseline)", lines[0])
	assert.Equal(t, "  min: 10s (5s faster)", lines[1])
	for _, l := range lines[1:] {
		assert.Contains(t, l, "faster")
	}
}

func TestCompare_FewerAndSlower(t *testing.T) {
	live := NewAnalytics()
	live.RecordTrip(trip(1, ModeWalk, 0, 20*time.Second))
	baseline := NewAnalytics()
	baseline.RecordTrip(trip(1, ModeWalk, 0, 10*time.Second))
	baseline.RecordTrip(trip(2, ModeWalk, 0, 10*time.Second))

	lines := Compare(time.Minute, ModeWalk, live, baseline)

	assert.Equal(t, "1 walk trips finished (1 fewer than baseline)", lines[0])
	assert.Equal(t, "  max: 20s (10s slower)", lines[len(lines)-1])
}

func TestCompare_SameAndEmptySide(t *testing.T) {
	live := NewAnalytics()
	live.RecordTrip(trip(1, ModeDrive, 0, 10*time.Second))
	same := NewAnalytics()
	same.RecordTrip(trip(1, ModeDrive, 0, 10*time.Second))

	lines := Compare(time.Minute, ModeDrive, live, same)
	assert.Equal(t, "1 drive trips finished (same as baseline)", lines[0])
	assert.Equal(t, "  mean: 10s (same)", lines[2])

	// AND an empty baseline yields only the count line
	lines = Compare(time.Minute, ModeDrive, live, NewAnalytics())
	assert.Equal(t, []string{"1 drive trips finished (+1 more than baseline)"}, lines)
}

func TestSaveAndLoadBaseline_RoundTrip(t *testing.T) {
	a := NewAnalytics()
	a.RecordTrip(trip(4, ModeDrive, time.Second, 9*time.Second))
	a.RecordTrip(TripRecord{Agent: 5, Mode: ModeDrive, Finished: 3 * time.Second, Retired: true})
	path := filepath.Join(t.TempDir(), "baseline.json")

	require.NoError(t, SaveBaseline(a, path))
	loaded, err := LoadBaseline(path)

	require.NoError(t, err)
	assert.Equal(t, a, loaded)
}

func TestLoadBaseline_MissingFile(t *testing.T) {
	_, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
