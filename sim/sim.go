package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/roadsim/roadsim/sim/analytics"
	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/pathfind"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"
	"github.com/sirupsen/logrus"
)

// CarLength is the length of every vehicle in meters.
const CarLength = 4.5

// SimConfig groups the construction parameters of a Sim.
type SimConfig struct {
	// Seed makes the run reproducible. Nil draws a seed from the OS and logs it.
	Seed *int64
	// Workers bounds the pathfinding fan-out of bulk spawns (GOMAXPROCS when < 1).
	Workers int
	Trace   trace.TraceConfig
	// PathFinder overrides pathfind.FindPath.
	PathFinder pathfind.Finder
}

// Sim is the simulation orchestrator. It owns the random stream, the clock,
// the car id counter and the four sub-simulators, and is the only place
// where sub-simulator state is mutated.
//
// A live car is always owned by exactly one of Driving and Parking.
//
// Thread-safety: NOT thread-safe. All methods must be called from one goroutine.
type Sim struct {
	key    SimulationKey
	stream *RandomStream
	rng    *rand.Rand

	time         Tick
	carIDCounter int
	debug        *CarID

	driving       DrivingSim
	parking       ParkingSim
	walking       WalkingSim
	intersections IntersectionSim

	analytics *analytics.Analytics
	trace     *trace.SpawnTrace

	findPath pathfind.Finder
	workers  int
	now      func() time.Time
}

// New creates a simulation over m. Panics if the sub-simulator packages
// have not been imported.
func New(m *roadnet.Map, cfg SimConfig) *Sim {
	mustBeRegistered()
	var key SimulationKey
	if cfg.Seed != nil {
		key = NewSimulationKey(*cfg.Seed)
	} else {
		key = EntropyKey()
		logrus.Infof("No seed given, seeding from entropy: %d", int64(key))
	}
	s := newSim(key, cfg)
	s.driving = NewDrivingSimFunc(m)
	s.parking = NewParkingSimFunc(m)
	s.walking = NewWalkingSimFunc(m)
	s.intersections = NewIntersectionSimFunc(m)
	logrus.Infof("Created simulation on %s (%d lanes, %d turns), seed %d",
		m.Name, len(m.Lanes), len(m.Turns), int64(key))
	return s
}

func newSim(key SimulationKey, cfg SimConfig) *Sim {
	stream := NewRandomStream(key)
	s := &Sim{
		key:       key,
		stream:    stream,
		rng:       rand.New(stream),
		analytics: analytics.NewAnalytics(),
		trace:     trace.NewSpawnTrace(cfg.Trace),
		findPath:  cfg.PathFinder,
		workers:   cfg.Workers,
		now:       time.Now,
	}
	if s.findPath == nil {
		s.findPath = pathfind.FindPath
	}
	return s
}

// Key returns the seed of this run.
func (s *Sim) Key() SimulationKey { return s.key }

// Time returns the current tick.
func (s *Sim) Time() Tick { return s.time }

// Analytics returns the finished-trip records.
func (s *Sim) Analytics() *analytics.Analytics { return s.analytics }

// Trace returns the spawn decision trace.
func (s *Sim) Trace() *trace.SpawnTrace { return s.trace }

// Step advances the simulation by one tick: Driving, then Walking, then
// Intersection, then the arrivals are committed in id order.
func (s *Sim) Step(m *roadnet.Map, controls *control.ControlMap) {
	s.time++
	arrivals := s.driving.Step(s.time, m, s.intersections)
	finished := s.walking.Step(s.time, Timestep, m, s.intersections)
	s.intersections.Step(s.time, m, controls)

	for _, a := range arrivals {
		s.commitCarArrival(m, a)
	}
	for _, p := range finished {
		s.analytics.RecordTrip(analytics.TripRecord{
			Agent:    int(p.Ped),
			Mode:     analytics.ModeWalk,
			Departed: p.Departed.AsDuration(),
			Finished: s.time.AsDuration(),
		})
		logrus.Debugf("[tick %07d] %s reached %s", s.time, p.Ped, p.Lane)
	}
}

// commitCarArrival hands an arrived car to Parking, or retires it when the
// goal road has no free spot.
func (s *Sim) commitCarArrival(m *roadnet.Map, a CarArrival) {
	if s.debug != nil && *s.debug == a.Car {
		s.debug = nil
	}
	record := analytics.TripRecord{
		Agent:    int(a.Car),
		Mode:     analytics.ModeDrive,
		Departed: a.Departed.AsDuration(),
		Finished: s.time.AsDuration(),
	}
	if lane, ok := m.FindParkingLane(a.Lane); ok && s.parking.ParkCar(lane, a.Car) {
		logrus.Debugf("[tick %07d] %s parked on %s", s.time, a.Car, lane)
	} else {
		record.Retired = true
		logrus.Infof("[tick %07d] %s reached %s but found no parking; retiring it", s.time, a.Car, a.Lane)
	}
	s.analytics.RecordTrip(record)
}

// === Map edits ===

// EditLaneType moves a lane from the sub-simulator owning oldType to the one
// owning its current type in m. The caller edits m first.
func (s *Sim) EditLaneType(lane roadnet.LaneID, oldType roadnet.LaneType, m *roadnet.Map) {
	switch oldType {
	case roadnet.Driving:
		s.driving.EditRemoveLane(lane)
	case roadnet.Parking:
		s.parking.EditRemoveLane(lane)
	case roadnet.Sidewalk:
		s.walking.EditRemoveLane(lane)
	}
	l := m.Lane(lane)
	switch l.Type {
	case roadnet.Driving:
		s.driving.EditAddLane(lane)
	case roadnet.Parking:
		s.parking.EditAddLane(l)
	case roadnet.Sidewalk:
		s.walking.EditAddLane(lane)
	}
}

// EditRemoveTurn stops simulating a turn. Panics if agents are on it.
func (s *Sim) EditRemoveTurn(turn roadnet.TurnID, m *roadnet.Map) {
	if m.Turn(turn).BetweenSidewalks {
		s.walking.EditRemoveTurn(turn)
	} else {
		s.driving.EditRemoveTurn(turn)
	}
}

// EditAddTurn starts simulating a turn.
func (s *Sim) EditAddTurn(turn roadnet.TurnID, m *roadnet.Map) {
	if m.Turn(turn).BetweenSidewalks {
		s.walking.EditAddTurn(turn)
	} else {
		s.driving.EditAddTurn(turn, m)
	}
}

// === Queries ===

// CarState derives the state of a car: Parked when Driving does not own it,
// Stuck when it waits for a turn, Moving otherwise.
func (s *Sim) CarState(car CarID) CarState {
	if !s.driving.Has(car) {
		return Parked
	}
	if _, waiting := s.driving.WaitingFor(car); waiting {
		return Stuck
	}
	return Moving
}

// DrawCar returns the render projection of a car, looking in Driving first.
func (s *Sim) DrawCar(car CarID, m *roadnet.Map) (DrawCar, bool) {
	if d, ok := s.driving.DrawCar(car, m); ok {
		return d, true
	}
	return s.parking.DrawCar(car, m)
}

func (s *Sim) DrawPed(ped PedestrianID, m *roadnet.Map) (DrawPedestrian, bool) {
	return s.walking.DrawPed(ped, m)
}

// DrawCarsOnLane returns the cars on a driving or parking lane.
func (s *Sim) DrawCarsOnLane(lane roadnet.LaneID, m *roadnet.Map) []DrawCar {
	switch m.Lane(lane).Type {
	case roadnet.Driving:
		return s.driving.DrawCarsOnLane(lane, m)
	case roadnet.Parking:
		return s.parking.DrawCars(lane, m)
	}
	return nil
}

func (s *Sim) DrawCarsOnTurn(turn roadnet.TurnID, m *roadnet.Map) []DrawCar {
	return s.driving.DrawCarsOnTurn(turn, m)
}

func (s *Sim) DrawPedsOnLane(lane roadnet.LaneID, m *roadnet.Map) []DrawPedestrian {
	return s.walking.DrawPedsOnLane(lane, m)
}

func (s *Sim) DrawPedsOnTurn(turn roadnet.TurnID, m *roadnet.Map) []DrawPedestrian {
	return s.walking.DrawPedsOnTurn(turn, m)
}

// CarTooltip returns the tooltip lines of a car.
func (s *Sim) CarTooltip(car CarID) []string {
	if lines, ok := s.driving.Tooltip(car); ok {
		return lines
	}
	return []string{fmt.Sprintf("%s is parked", car)}
}

// PedTooltip returns the tooltip lines of a pedestrian.
func (s *Sim) PedTooltip(ped PedestrianID) []string {
	return []string{fmt.Sprintf("Hello to %s", ped)}
}

// Summary is a one-line status of the whole simulation.
func (s *Sim) Summary() string {
	return fmt.Sprintf("Time: %s, %d / %d active cars waiting, %d cars parked, %d pedestrians",
		s.time, s.driving.WaitingCount(), s.driving.ActiveCount(), s.parking.TotalCount(), s.walking.TotalCount())
}

// DebuggedCar returns the car currently being debugged, if any.
func (s *Sim) DebuggedCar() (CarID, bool) {
	if s.debug == nil {
		return 0, false
	}
	return *s.debug, true
}

// ToggleDebug turns debugging of a car on or off. At most one car is
// debugged at a time; enabling a new one disables the previous one.
func (s *Sim) ToggleDebug(car CarID) {
	if !s.driving.Has(car) {
		logrus.Infof("%s is parked somewhere", car)
		return
	}
	if s.debug != nil {
		prev := *s.debug
		if !s.driving.SetDebug(prev, false) {
			panic(fmt.Sprintf("sim: debugged %s is not driving", prev))
		}
		s.debug = nil
		if prev == car {
			logrus.Infof("No longer debugging %s", car)
			return
		}
	}
	s.driving.SetDebug(car, true)
	s.debug = &car
	if state, ok := s.driving.DebugJSON(car); ok {
		logrus.Infof("Debugging %s:\n%s", car, state)
	}
}

// DebugPed logs the full state of a pedestrian.
func (s *Sim) DebugPed(ped PedestrianID) {
	state, ok := s.walking.DebugJSON(ped)
	if !ok {
		logrus.Infof("%s is not walking", ped)
		return
	}
	logrus.Infof("Debugging %s:\n%s", ped, state)
}
