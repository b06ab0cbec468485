package sim

import (
	"testing"

	"github.com/roadsim/roadsim/sim/analytics"
	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/internal/testutil"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptySummary(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))

	assert.Equal(t, Tick(0), s.Time())
	assert.Equal(t, "Time: 0.0s, 0 / 0 active cars waiting, 0 cars parked, 0 pedestrians", s.Summary())
}

func TestNew_NilSeedUsesEntropy(t *testing.T) {
	m := testutil.TwoBlocks(t)
	a := New(m, SimConfig{})
	b := New(m, SimConfig{})
	// two entropy seeds colliding is astronomically unlikely
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestStep_AdvancesClockByOneTick(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	controls := control.NewControlMap(m)

	for i := 1; i <= 5; i++ {
		s.Step(m, controls)
		assert.Equal(t, Tick(i), s.Time())
	}
	assert.Equal(t, "Time: 0.5s, 0 / 0 active cars waiting, 0 cars parked, 0 pedestrians", s.Summary())
}

func TestDeterminism_SameSeedSameRun(t *testing.T) {
	// GIVEN two simulations built with the same seed and the same calls
	a, m, controls := populated(t, 42)
	b, _, _ := populated(t, 42)

	// WHEN both are stepped
	for i := 0; i < 300; i++ {
		a.Step(m, controls)
		b.Step(m, controls)
		// THEN their summaries agree on every tick
		require.Equal(t, a.Summary(), b.Summary(), "tick %d", i)
	}

	// AND their full state, random stream included, is identical
	assert.Equal(t, saved(t, a, m), saved(t, b, m))
	for _, id := range a.driving.CarIDs() {
		da, _ := a.DrawCar(id, m)
		db, _ := b.DrawCar(id, m)
		assert.Equal(t, da, db)
	}
	assert.Equal(t, a.rng.Int63(), b.rng.Int63())
}

func TestDeterminism_DifferentSeedsDiverge(t *testing.T) {
	a, m, _ := populated(t, 1)
	b, _, _ := populated(t, 2)
	assert.NotEqual(t, saved(t, a, m), saved(t, b, m))
}

func TestMutualExclusion_EveryTick(t *testing.T) {
	s, m, controls := populated(t, 7)
	assertExclusiveOwnership(t, s)
	runTicks(t, s, m, controls, 1500)
}

func TestOwnershipViolations_CarOwnedByNeither(t *testing.T) {
	// GIVEN a parked car
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(3))
	car := parkNewCar(t, s, 1)
	require.Empty(t, ownershipViolations(s))

	// WHEN it vanishes from Parking without entering Driving
	s.parking.RemoveLastParkedCar(1, car)

	// THEN the car is reported as lost
	v := ownershipViolations(s)
	require.Len(t, v, 1)
	assert.Contains(t, v[0], "neither driving nor parked")
}

func TestCarTrip_ParkedToParked(t *testing.T) {
	// GIVEN a single parked car on the forward parking lane of a one-road map
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(3))
	controls := control.NewControlMap(m)
	car := parkNewCar(t, s, 1)
	require.Equal(t, Parked, s.CarState(car))

	// WHEN it starts from the forward driving lane
	require.True(t, s.StartAgent(m, 0))

	// THEN it left Parking for Driving
	assert.Equal(t, Moving, s.CarState(car))
	assert.Equal(t, 0, s.parking.TotalCount())
	assert.Contains(t, s.CarTooltip(car)[0], "Lane #0")

	// AND after driving the U-turn at the dead end it parks on the other side
	runTicks(t, s, m, controls, 400)
	assert.Equal(t, Parked, s.CarState(car))
	last, ok := s.parking.LastParkedCar(4)
	require.True(t, ok)
	assert.Equal(t, car, last)
	assert.Equal(t, []string{"Car #0 is parked"}, s.CarTooltip(car))

	stats := s.Analytics().FinishedTrips(s.Time().AsDuration(), analytics.ModeDrive)
	require.Equal(t, 1, stats.Count())
	assert.False(t, s.Analytics().Trips[0].Retired)
}

func TestCarTrip_RetiredWhenNoSpotFree(t *testing.T) {
	// GIVEN the goal side's parking lane is full
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(3))
	controls := control.NewControlMap(m)
	car := parkNewCar(t, s, 1)
	for i := 0; i < 11; i++ {
		parkNewCar(t, s, 4)
	}
	require.True(t, s.StartAgent(m, 0))

	// WHEN the car arrives
	runTicks(t, s, m, controls, 400)

	// THEN it no longer exists anywhere and its trip is recorded as retired
	assert.False(t, s.driving.Has(car))
	assert.False(t, s.parking.Has(car))
	require.Len(t, s.Analytics().Trips, 1)
	assert.True(t, s.Analytics().Trips[0].Retired)
}

func TestPedestrianTrip_FinishesAcrossCrosswalk(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(5))
	controls := control.NewControlMap(m)

	require.True(t, s.StartAgent(m, 2))
	assert.Contains(t, s.Summary(), "1 pedestrians")
	peds := s.DrawPedsOnLane(2, m)
	require.Len(t, peds, 1)
	assert.Equal(t, []string{"Hello to Pedestrian #0"}, s.PedTooltip(peds[0].ID))

	runTicks(t, s, m, controls, 2000)

	assert.Contains(t, s.Summary(), "0 pedestrians")
	assert.Equal(t, 1, s.Analytics().FinishedTrips(s.Time().AsDuration(), analytics.ModeWalk).Count())
}

func TestEditLaneType_RoundTripLeavesNoResidue(t *testing.T) {
	// GIVEN an empty driving lane
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	const lane = roadnet.LaneID(0)

	// WHEN it becomes a parking lane
	old := m.EditLaneType(lane, roadnet.Parking)
	s.EditLaneType(lane, old, m)

	// THEN Parking owns it and Driving no longer does
	assert.NotContains(t, s.driving.EmptyLanes(m), lane)
	assert.False(t, s.driving.StartCar(s.time, 100, []roadnet.LaneID{lane}))

	// WHEN it turns back into a driving lane
	old = m.EditLaneType(lane, roadnet.Driving)
	s.EditLaneType(lane, old, m)

	// THEN Parking holds nothing for it and Driving accepts cars on it again
	assert.False(t, s.parking.ParkCar(lane, 99))
	assert.Equal(t, 0, s.parking.TotalCount())
	assert.Contains(t, s.driving.EmptyLanes(m), lane)
}

func TestEditLaneType_BikingIsNoOp(t *testing.T) {
	m, err := roadnet.NewGrid(roadnet.GridConfig{Rows: 1, Cols: 2, BikeLanes: true})
	require.NoError(t, err)
	s := New(m, seeded(1))
	bike := testutil.FirstLaneOfType(t, m, roadnet.Biking)
	before := saved(t, s, m)

	old := m.EditLaneType(bike, roadnet.Biking)
	s.EditLaneType(bike, old, m)

	assert.Equal(t, before, saved(t, s, m))
}

func TestEditRemoveTurn_RoutesByTurnKind(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))

	// turn 1 is a crosswalk, turn 2 the dead-end U-turn
	require.True(t, m.Turn(1).BetweenSidewalks)
	require.False(t, m.Turn(2).BetweenSidewalks)

	assert.NotPanics(t, func() {
		s.EditRemoveTurn(1, m)
		s.EditAddTurn(1, m)
		s.EditRemoveTurn(2, m)
		s.EditAddTurn(2, m)
	})
}

func TestEditRemoveLane_WithCarsPanics(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	parkNewCar(t, s, 1)
	require.True(t, s.StartAgent(m, 0))

	old := m.EditLaneType(0, roadnet.Parking)
	assert.Panics(t, func() { s.EditLaneType(0, old, m) })
}

func TestDrawCarsOnLane_ByLaneType(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	parkNewCar(t, s, 1)
	parkNewCar(t, s, 1)

	parked := s.DrawCarsOnLane(1, m)
	require.Len(t, parked, 2)
	assert.True(t, parked[0].Parked)
	assert.Empty(t, s.DrawCarsOnLane(0, m))
	assert.Empty(t, s.DrawCarsOnLane(2, m))

	d, ok := s.DrawCar(parked[1].ID, m)
	require.True(t, ok)
	assert.Equal(t, parked[1], d)
	_, ok = s.DrawCar(1234, m)
	assert.False(t, ok)
}

func TestToggleDebug_AtMostOneCar(t *testing.T) {
	m := testutil.Grid(t, 3, 3)
	s := New(m, seeded(9))
	s.SeedParkedCars(1.0)
	_, started := s.StartManyParkedCars(m, 2)
	require.Equal(t, 2, started)
	ids := s.driving.CarIDs()
	a, b := ids[0], ids[1]

	s.ToggleDebug(a)
	got, ok := s.DebuggedCar()
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.True(t, s.driving.IsDebugging(a))

	s.ToggleDebug(b)
	got, _ = s.DebuggedCar()
	assert.Equal(t, b, got)
	assert.False(t, s.driving.IsDebugging(a))

	s.ToggleDebug(b)
	_, ok = s.DebuggedCar()
	assert.False(t, ok)
	assert.False(t, s.driving.IsDebugging(b))
}

func TestToggleDebug_ParkedCarIsIgnored(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	car := parkNewCar(t, s, 1)

	s.ToggleDebug(car)

	_, ok := s.DebuggedCar()
	assert.False(t, ok)
}

func TestTrace_RecordsSpawnOutcomes(t *testing.T) {
	m := testutil.TwoBlocks(t)
	cfg := seeded(1)
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevelSpawns}
	s := New(m, cfg)

	// no parked car next to lane 0 yet
	assert.False(t, s.StartAgent(m, 0))
	parkNewCar(t, s, 1)
	assert.True(t, s.StartAgent(m, 0))

	summary := trace.Summarize(s.Trace())
	assert.Equal(t, 2, summary.TotalDecisions)
	assert.Equal(t, 1, summary.SpawnedCount)
	assert.Equal(t, 1, summary.FailureReasons[trace.ReasonNoParkedCar])
}
