package sim

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/roadsim/roadsim/sim/analytics"
	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func seeded(seed int64) SimConfig {
	return SimConfig{Seed: &seed, Workers: 4}
}

// parkNewCar mints a car id and parks it on lane, bypassing the random stream.
func parkNewCar(t *testing.T, s *Sim, lane roadnet.LaneID) CarID {
	t.Helper()
	id := CarID(s.carIDCounter)
	s.carIDCounter++
	require.True(t, s.parking.ParkCar(lane, id), "no free spot on %s", lane)
	return id
}

// runTicks steps s n times, checking after every tick that every car is
// owned by exactly one of Driving and Parking, or has been retired.
func runTicks(t *testing.T, s *Sim, m *roadnet.Map, controls *control.ControlMap, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		s.Step(m, controls)
		assertExclusiveOwnership(t, s)
	}
}

func assertExclusiveOwnership(t *testing.T, s *Sim) {
	t.Helper()
	if v := ownershipViolations(s); len(v) > 0 {
		t.Fatalf("[tick %d] %s", s.time, strings.Join(v, "; "))
	}
}

// ownershipViolations lists every minted car not owned by exactly one of
// Driving and Parking. Retired cars must be owned by neither.
func ownershipViolations(s *Sim) []string {
	retired := lo.SliceToMap(
		lo.Filter(s.analytics.Trips, func(r analytics.TripRecord, _ int) bool {
			return r.Mode == analytics.ModeDrive && r.Retired
		}),
		func(r analytics.TripRecord) (CarID, bool) { return CarID(r.Agent), true })
	var violations []string
	for id := 0; id < s.carIDCounter; id++ {
		car := CarID(id)
		driving, parked := s.driving.Has(car), s.parking.Has(car)
		switch {
		case driving && parked:
			violations = append(violations, fmt.Sprintf("%s is both driving and parked", car))
		case !driving && !parked && !retired[car]:
			violations = append(violations, fmt.Sprintf("%s is neither driving nor parked", car))
		case retired[car] && (driving || parked):
			violations = append(violations, fmt.Sprintf("%s was retired but is still owned", car))
		}
	}
	return violations
}

func saved(t *testing.T, s *Sim, m *roadnet.Map) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf, m))
	return buf.Bytes()
}

// populated builds a 3x3 grid sim with parked cars, moving cars and pedestrians.
func populated(t *testing.T, seed int64) (*Sim, *roadnet.Map, *control.ControlMap) {
	t.Helper()
	m, err := roadnet.NewGrid(roadnet.GridConfig{Rows: 3, Cols: 3})
	require.NoError(t, err)
	s := New(m, seeded(seed))
	s.SeedParkedCars(0.5)
	s.StartManyParkedCars(m, 10)
	s.SeedPedestrians(m, 10)
	return s, m, control.NewControlMap(m)
}
