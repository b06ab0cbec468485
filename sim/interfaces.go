package sim

import (
	"math/rand"
	"time"

	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/roadnet"
)

// IntersectionSim arbitrates turn requests. Driving and Walking post
// requests during their step; Step resolves them afterwards in the same tick.
type IntersectionSim interface {
	Step(now Tick, m *roadnet.Map, controls *control.ControlMap)
	RequestTurn(agent AgentID, turn roadnet.TurnID)
	IsAccepted(agent AgentID, turn roadnet.TurnID) bool
	OnExit(agent AgentID, turn roadnet.TurnID)
	AcceptedCount() int
}

// DrivingSim owns every moving vehicle.
type DrivingSim interface {
	// Step advances all cars by one tick and returns the cars that finished
	// their route, in ascending id order. Finished cars are no longer owned.
	Step(now Tick, m *roadnet.Map, intersections IntersectionSim) []CarArrival

	EditAddLane(l roadnet.LaneID)
	EditRemoveLane(l roadnet.LaneID)
	EditAddTurn(t roadnet.TurnID, m *roadnet.Map)
	EditRemoveTurn(t roadnet.TurnID)

	// StartCar places a car at the start of path[0]. It returns false when
	// the lane cannot take another car right now.
	StartCar(now Tick, car CarID, path []roadnet.LaneID) bool
	// EmptyLanes returns the driving lanes without any car, in id order.
	EmptyLanes(m *roadnet.Map) []roadnet.LaneID

	Has(car CarID) bool
	CarIDs() []CarID
	WaitingFor(car CarID) (roadnet.TurnID, bool)
	ActiveCount() int
	WaitingCount() int

	SetDebug(car CarID, on bool) bool
	IsDebugging(car CarID) bool
	DebugJSON(car CarID) (string, bool)
	Tooltip(car CarID) ([]string, bool)

	DrawCar(car CarID, m *roadnet.Map) (DrawCar, bool)
	DrawCarsOnLane(l roadnet.LaneID, m *roadnet.Map) []DrawCar
	DrawCarsOnTurn(t roadnet.TurnID, m *roadnet.Map) []DrawCar
}

// ParkingSim owns every parked vehicle.
type ParkingSim interface {
	EditAddLane(l *roadnet.Lane)
	EditRemoveLane(l roadnet.LaneID)

	// SeedRandomCars fills free spots with new cars, minting ids from
	// idCounter, and returns how many cars were created.
	SeedRandomCars(rng *rand.Rand, percent float64, idCounter *int) int
	LastParkedCar(l roadnet.LaneID) (CarID, bool)
	RemoveLastParkedCar(l roadnet.LaneID, car CarID)
	ParkCar(l roadnet.LaneID, car CarID) bool

	Has(car CarID) bool
	CarIDs() []CarID
	TotalCount() int

	DrawCar(car CarID, m *roadnet.Map) (DrawCar, bool)
	DrawCars(l roadnet.LaneID, m *roadnet.Map) []DrawCar
}

// WalkingSim owns every pedestrian.
type WalkingSim interface {
	// Step advances all pedestrians by dt and returns the pedestrians that
	// finished their route, in ascending id order.
	Step(now Tick, dt time.Duration, m *roadnet.Map, intersections IntersectionSim) []PedArrival

	EditAddLane(l roadnet.LaneID)
	EditRemoveLane(l roadnet.LaneID)
	EditAddTurn(t roadnet.TurnID)
	EditRemoveTurn(t roadnet.TurnID)

	SeedPedestrian(now Tick, m *roadnet.Map, path []roadnet.LaneID) PedestrianID

	Has(ped PedestrianID) bool
	TotalCount() int
	DebugJSON(ped PedestrianID) (string, bool)

	DrawPed(ped PedestrianID, m *roadnet.Map) (DrawPedestrian, bool)
	DrawPedsOnLane(l roadnet.LaneID, m *roadnet.Map) []DrawPedestrian
	DrawPedsOnTurn(t roadnet.TurnID, m *roadnet.Map) []DrawPedestrian
}

// Sub-packages register their implementations here from init(); importing
// sim/driving, sim/parking, sim/walking and sim/intersection wires them up.
// Restore functions rebuild a sub-simulator from its JSON snapshot.
var (
	NewIntersectionSimFunc     func(m *roadnet.Map) IntersectionSim
	RestoreIntersectionSimFunc func(data []byte) (IntersectionSim, error)

	NewDrivingSimFunc     func(m *roadnet.Map) DrivingSim
	RestoreDrivingSimFunc func(data []byte) (DrivingSim, error)

	NewParkingSimFunc     func(m *roadnet.Map) ParkingSim
	RestoreParkingSimFunc func(data []byte) (ParkingSim, error)

	NewWalkingSimFunc     func(m *roadnet.Map) WalkingSim
	RestoreWalkingSimFunc func(data []byte) (WalkingSim, error)
)

func mustBeRegistered() {
	switch {
	case NewIntersectionSimFunc == nil || RestoreIntersectionSimFunc == nil:
		panic("sim: intersection simulator not registered; import sim/intersection")
	case NewDrivingSimFunc == nil || RestoreDrivingSimFunc == nil:
		panic("sim: driving simulator not registered; import sim/driving")
	case NewParkingSimFunc == nil || RestoreParkingSimFunc == nil:
		panic("sim: parking simulator not registered; import sim/parking")
	case NewWalkingSimFunc == nil || RestoreWalkingSimFunc == nil:
		panic("sim: walking simulator not registered; import sim/walking")
	}
}
