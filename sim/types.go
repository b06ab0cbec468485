package sim

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roadsim/roadsim/sim/roadnet"
)

// Timestep is the simulated time covered by one tick.
const Timestep = 100 * time.Millisecond

// Tick counts fixed time-steps since the start of the simulation.
type Tick int64

// AsDuration converts a tick count into simulated time.
func (t Tick) AsDuration() time.Duration { return time.Duration(t) * Timestep }

// Seconds returns the simulated time in seconds.
func (t Tick) Seconds() float64 { return t.AsDuration().Seconds() }

func (t Tick) String() string { return fmt.Sprintf("%.1fs", t.Seconds()) }

// CarID identifies a vehicle for the whole run.
type CarID int

// PedestrianID identifies a pedestrian for the whole run.
type PedestrianID int

func (id CarID) String() string        { return fmt.Sprintf("Car #%d", int(id)) }
func (id PedestrianID) String() string { return fmt.Sprintf("Pedestrian #%d", int(id)) }

// AgentKind tags an AgentID.
type AgentKind int

const (
	AgentCar AgentKind = iota
	AgentPedestrian
)

// AgentID names any agent that can request a turn.
type AgentID struct {
	Kind AgentKind
	ID   int
}

func CarAgent(id CarID) AgentID               { return AgentID{Kind: AgentCar, ID: int(id)} }
func PedestrianAgent(id PedestrianID) AgentID { return AgentID{Kind: AgentPedestrian, ID: int(id)} }

// Less orders cars before pedestrians, then by id.
func (a AgentID) Less(b AgentID) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func (a AgentID) String() string {
	if a.Kind == AgentCar {
		return CarID(a.ID).String()
	}
	return PedestrianID(a.ID).String()
}

// MarshalText encodes an agent as "car:<id>" or "ped:<id>" so it can key JSON maps.
func (a AgentID) MarshalText() ([]byte, error) {
	switch a.Kind {
	case AgentCar:
		return []byte("car:" + strconv.Itoa(a.ID)), nil
	case AgentPedestrian:
		return []byte("ped:" + strconv.Itoa(a.ID)), nil
	}
	return nil, fmt.Errorf("unknown agent kind %d", a.Kind)
}

func (a *AgentID) UnmarshalText(text []byte) error {
	kind, id, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("malformed agent id %q", string(text))
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("malformed agent id %q: %w", string(text), err)
	}
	switch kind {
	case "car":
		*a = AgentID{Kind: AgentCar, ID: n}
	case "ped":
		*a = AgentID{Kind: AgentPedestrian, ID: n}
	default:
		return fmt.Errorf("unknown agent kind %q", kind)
	}
	return nil
}

// Traversable is where an agent currently is: a lane or a turn.
type Traversable struct {
	OnTurn bool `json:"on_turn"`
	ID     int  `json:"id"`
}

func OnLane(l roadnet.LaneID) Traversable { return Traversable{ID: int(l)} }
func OnTurn(t roadnet.TurnID) Traversable { return Traversable{OnTurn: true, ID: int(t)} }

// Lane returns the lane id and true when the agent is on a lane.
func (tr Traversable) Lane() (roadnet.LaneID, bool) { return roadnet.LaneID(tr.ID), !tr.OnTurn }

// Turn returns the turn id and true when the agent is on a turn.
func (tr Traversable) Turn() (roadnet.TurnID, bool) { return roadnet.TurnID(tr.ID), tr.OnTurn }

func (tr Traversable) String() string {
	if tr.OnTurn {
		return roadnet.TurnID(tr.ID).String()
	}
	return roadnet.LaneID(tr.ID).String()
}

// CarState classifies a vehicle. It is derived on demand, never stored.
type CarState int

const (
	Moving CarState = iota
	Stuck
	Parked
)

func (s CarState) String() string {
	switch s {
	case Moving:
		return "moving"
	case Stuck:
		return "stuck"
	case Parked:
		return "parked"
	}
	return fmt.Sprintf("CarState(%d)", int(s))
}

// DrawCar is the render projection of one vehicle.
type DrawCar struct {
	ID     CarID
	On     Traversable
	Pos    roadnet.Point
	Angle  float64
	Length float64
	Stuck  bool
	Parked bool
	Debug  bool
}

// DrawPedestrian is the render projection of one pedestrian.
type DrawPedestrian struct {
	ID      PedestrianID
	On      Traversable
	Pos     roadnet.Point
	Angle   float64
	Waiting bool
}

// CarArrival reports a car that reached the end of its route this tick.
type CarArrival struct {
	Car      CarID
	Lane     roadnet.LaneID
	Departed Tick
}

// PedArrival reports a pedestrian that reached the end of its route this tick.
type PedArrival struct {
	Ped      PedestrianID
	Lane     roadnet.LaneID
	Departed Tick
}
