package sim

import (
	"math/rand"
	"time"

	"github.com/roadsim/roadsim/sim/pathfind"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// StartAgent spawns one agent starting on lane, heading to a random other
// lane of the same type. Sidewalks spawn pedestrians; driving and parking
// lanes start a parked car from the road's parking lane. Returns false on a
// soft failure, which is logged.
func (s *Sim) StartAgent(m *roadnet.Map, lane roadnet.LaneID) bool {
	switch m.Lane(lane).Type {
	case roadnet.Sidewalk:
		goal := pickGoal(s.rng, m.LanesOfType(roadnet.Sidewalk), lane)
		steps, ok := s.findPath(m, lane, goal)
		if !ok {
			s.spawnFailed(trace.KindPedestrian, lane, goal, trace.ReasonNoPath)
			return false
		}
		s.spawnPedestrian(m, steps)
		return true
	case roadnet.Driving:
		return s.startCarFrom(m, lane)
	case roadnet.Parking:
		driving, ok := m.FindDrivingLane(lane)
		if !ok {
			logrus.Warnf("[tick %07d] %s has no driving lane to start a car on", s.time, lane)
			return false
		}
		return s.startCarFrom(m, driving)
	default:
		logrus.Warnf("[tick %07d] Can't start an agent on %s: %s lanes are not supported", s.time, lane, m.Lane(lane).Type)
		s.trace.RecordSpawn(trace.SpawnRecord{
			Tick: int64(s.time), Kind: trace.KindCar, Start: int(lane), Goal: -1,
			Outcome: trace.OutcomeFailed, Reason: trace.ReasonUnsupported,
		})
		return false
	}
}

// pickGoal draws one lane uniformly from lanes other than start.
// Panics when there is no other lane.
func pickGoal(rng *rand.Rand, lanes []roadnet.LaneID, start roadnet.LaneID) roadnet.LaneID {
	return chooseOne(rng, lo.Without(lanes, start))
}

func (s *Sim) startCarFrom(m *roadnet.Map, start roadnet.LaneID) bool {
	goal := pickGoal(s.rng, m.LanesOfType(roadnet.Driving), start)
	steps, ok := s.findPath(m, start, goal)
	if !ok {
		s.spawnFailed(trace.KindCar, start, goal, trace.ReasonNoPath)
		return false
	}
	return s.startParkedCar(m, steps)
}

// startParkedCar moves the most recently parked car next to steps[0] into
// Driving along steps. Ownership moves from Parking to Driving only when
// Driving accepts the car.
func (s *Sim) startParkedCar(m *roadnet.Map, steps []roadnet.LaneID) bool {
	start, goal := steps[0], steps[len(steps)-1]
	parking, ok := m.FindParkingLane(start)
	if !ok {
		s.spawnFailed(trace.KindCar, start, goal, trace.ReasonNoParkingLane)
		return false
	}
	car, ok := s.parking.LastParkedCar(parking)
	if !ok {
		s.spawnFailed(trace.KindCar, start, goal, trace.ReasonNoParkedCar)
		return false
	}
	if !s.driving.StartCar(s.time, car, steps) {
		s.spawnFailed(trace.KindCar, start, goal, trace.ReasonLaneOccupied)
		return false
	}
	s.parking.RemoveLastParkedCar(parking, car)
	logrus.Debugf("[tick %07d] Started %s on %s, heading to %s", s.time, car, start, goal)
	s.trace.RecordSpawn(trace.SpawnRecord{
		Tick: int64(s.time), Kind: trace.KindCar, Start: int(start), Goal: int(goal),
		Outcome: trace.OutcomeSpawned, AgentID: lo.ToPtr(int(car)),
	})
	return true
}

func (s *Sim) spawnPedestrian(m *roadnet.Map, steps []roadnet.LaneID) PedestrianID {
	start, goal := steps[0], steps[len(steps)-1]
	ped := s.walking.SeedPedestrian(s.time, m, steps)
	logrus.Debugf("[tick %07d] Spawned %s on %s, heading to %s", s.time, ped, start, goal)
	s.trace.RecordSpawn(trace.SpawnRecord{
		Tick: int64(s.time), Kind: trace.KindPedestrian, Start: int(start), Goal: int(goal),
		Outcome: trace.OutcomeSpawned, AgentID: lo.ToPtr(int(ped)),
	})
	return ped
}

func (s *Sim) spawnFailed(kind trace.AgentKind, start, goal roadnet.LaneID, reason string) {
	logrus.Warnf("[tick %07d] Couldn't start %s from %s to %s: %s", s.time, kind, start, goal, reason)
	s.trace.RecordSpawn(trace.SpawnRecord{
		Tick: int64(s.time), Kind: kind, Start: int(start), Goal: int(goal),
		Outcome: trace.OutcomeFailed, Reason: reason,
	})
}

// StartManyParkedCars starts up to count parked cars from distinct empty
// driving lanes, each to a random other empty driving lane. Routes are computed
// in parallel; everything else happens in request order on this goroutine.
// Returns how many starts were attempted and how many succeeded.
func (s *Sim) StartManyParkedCars(m *roadnet.Map, count int) (attempted, succeeded int) {
	if count <= 0 {
		return 0, 0
	}
	pool := s.driving.EmptyLanes(m)
	shuffle(s.rng, pool)
	if len(pool) == 0 {
		logrus.Warnf("[tick %07d] No empty driving lanes to start %d cars on", s.time, count)
		return 0, 0
	}
	starts := pool[:min(count, len(pool))]
	requests := make([]pathfind.Request, len(starts))
	for i, start := range starts {
		requests[i] = pathfind.Request{Start: start, Goal: chooseDifferent(s.rng, pool, start)}
	}

	results := s.findPaths(m, requests, "cars")

	for _, r := range results {
		if !r.Found {
			s.spawnFailed(trace.KindCar, r.Start, r.Goal, trace.ReasonNoPath)
			continue
		}
		if s.startParkedCar(m, r.Path) {
			succeeded++
		}
	}
	logrus.Infof("[tick %07d] Started %d of %d parked cars", s.time, succeeded, len(requests))
	return len(requests), succeeded
}

// SeedPedestrians spawns count pedestrians, each between two random distinct
// sidewalks. Returns how many spawns were attempted and how many succeeded;
// every failure is logged on its own.
func (s *Sim) SeedPedestrians(m *roadnet.Map, count int) (attempted, succeeded int) {
	if count <= 0 {
		return 0, 0
	}
	sidewalks := m.LanesOfType(roadnet.Sidewalk)
	requests := make([]pathfind.Request, count)
	for i := range requests {
		start := chooseOne(s.rng, sidewalks)
		requests[i] = pathfind.Request{Start: start, Goal: chooseDifferent(s.rng, sidewalks, start)}
	}

	results := s.findPaths(m, requests, "pedestrians")

	for _, r := range results {
		if !r.Found {
			s.spawnFailed(trace.KindPedestrian, r.Start, r.Goal, trace.ReasonNoPath)
			continue
		}
		s.spawnPedestrian(m, r.Path)
		succeeded++
	}
	logrus.Infof("[tick %07d] Spawned %d of %d pedestrians", s.time, succeeded, len(requests))
	return len(requests), succeeded
}

func (s *Sim) findPaths(m *roadnet.Map, requests []pathfind.Request, what string) []pathfind.Result {
	began := time.Now()
	results := pathfind.FindPaths(m, requests, s.workers, s.findPath)
	logrus.Infof("[tick %07d] Calculating %d paths for %s took %s", s.time, len(requests), what, time.Since(began))
	return results
}

// SeedParkedCars fills every parking spot with a new car with probability
// percent (0 to 1). Returns the number of cars created.
func (s *Sim) SeedParkedCars(percent float64) int {
	n := s.parking.SeedRandomCars(s.rng, percent, &s.carIDCounter)
	logrus.Infof("[tick %07d] Seeded %d parked cars", s.time, n)
	return n
}
