// Package roadnet holds the road-network topology the simulation runs on:
// lanes, roads, turns and intersections, plus YAML persistence and a grid
// generator. The simulation core only queries a Map; edits are made by the
// caller, who then notifies the simulation.
package roadnet

import (
	"fmt"
	"slices"
)

// minTurnLength keeps turns between touching lanes traversable.
const minTurnLength = 1.0

// Lane is a directed strip of road between two intersections.
type Lane struct {
	ID         LaneID         `yaml:"id"`
	Type       LaneType       `yaml:"type"`
	Road       RoadID         `yaml:"road"`
	Forward    bool           `yaml:"forward"` // true when the lane runs from the road's Src to Dst
	Src        IntersectionID `yaml:"src"`
	Dst        IntersectionID `yaml:"dst"`
	Start      Point          `yaml:"start"`
	End        Point          `yaml:"end"`
	SpeedLimit float64        `yaml:"speed_limit"` // meters per second
}

// Length returns the lane length in meters.
func (l *Lane) Length() float64 { return l.Start.DistTo(l.End) }

// Road groups the lanes running between two intersections.
type Road struct {
	ID    RoadID         `yaml:"id"`
	Src   IntersectionID `yaml:"src"`
	Dst   IntersectionID `yaml:"dst"`
	Lanes []LaneID       `yaml:"lanes"`
}

// Turn connects the end of one lane to the start of another at an intersection.
type Turn struct {
	ID               TurnID         `yaml:"id"`
	Parent           IntersectionID `yaml:"parent"`
	Src              LaneID         `yaml:"src"`
	Dst              LaneID         `yaml:"dst"`
	BetweenSidewalks bool           `yaml:"between_sidewalks"`
	Banned           bool           `yaml:"banned,omitempty"`
}

// Intersection is a node of the road graph.
type Intersection struct {
	ID    IntersectionID `yaml:"id"`
	Point Point          `yaml:"point"`
	Roads []RoadID       `yaml:"roads"`
	Turns []TurnID       `yaml:"turns"`
}

// Map is the full road network. Lanes, Roads, Turns and Intersections are
// indexed by their ids. A Map is safe for concurrent reads once built.
type Map struct {
	Name          string         `yaml:"name"`
	Lanes         []Lane         `yaml:"lanes"`
	Roads         []Road         `yaml:"roads"`
	Turns         []Turn         `yaml:"turns"`
	Intersections []Intersection `yaml:"intersections"`

	turnsFrom map[LaneID][]TurnID
	turnIndex map[[2]LaneID]TurnID
}

// New validates the given network and builds its lookup indices.
func New(name string, lanes []Lane, roads []Road, turns []Turn, intersections []Intersection) (*Map, error) {
	m := &Map{
		Name:          name,
		Lanes:         lanes,
		Roads:         roads,
		Turns:         turns,
		Intersections: intersections,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.buildIndex()
	return m, nil
}

// Validate checks that every id matches its slice position and that all
// references point at existing elements.
func (m *Map) Validate() error {
	for i, l := range m.Lanes {
		if int(l.ID) != i {
			return fmt.Errorf("lanes[%d] has id %d", i, l.ID)
		}
		if !m.validRoad(l.Road) {
			return fmt.Errorf("%s references unknown %s", l.ID, l.Road)
		}
		if !m.validIntersection(l.Src) || !m.validIntersection(l.Dst) {
			return fmt.Errorf("%s references unknown intersection", l.ID)
		}
		if l.SpeedLimit <= 0 {
			return fmt.Errorf("%s: speed_limit must be positive, got %f", l.ID, l.SpeedLimit)
		}
	}
	for i, r := range m.Roads {
		if int(r.ID) != i {
			return fmt.Errorf("roads[%d] has id %d", i, r.ID)
		}
		for _, l := range r.Lanes {
			if !m.validLane(l) {
				return fmt.Errorf("%s references unknown %s", r.ID, l)
			}
			if m.Lanes[l].Road != r.ID {
				return fmt.Errorf("%s lists %s which belongs to %s", r.ID, l, m.Lanes[l].Road)
			}
		}
	}
	for i, t := range m.Turns {
		if int(t.ID) != i {
			return fmt.Errorf("turns[%d] has id %d", i, t.ID)
		}
		if !m.validLane(t.Src) || !m.validLane(t.Dst) {
			return fmt.Errorf("%s references unknown lane", t.ID)
		}
		if !m.validIntersection(t.Parent) {
			return fmt.Errorf("%s references unknown %s", t.ID, t.Parent)
		}
		if m.Lanes[t.Src].Dst != t.Parent || m.Lanes[t.Dst].Src != t.Parent {
			return fmt.Errorf("%s does not connect lanes meeting at %s", t.ID, t.Parent)
		}
	}
	for i, in := range m.Intersections {
		if int(in.ID) != i {
			return fmt.Errorf("intersections[%d] has id %d", i, in.ID)
		}
	}
	return nil
}

func (m *Map) validLane(id LaneID) bool { return id >= 0 && int(id) < len(m.Lanes) }
func (m *Map) validRoad(id RoadID) bool { return id >= 0 && int(id) < len(m.Roads) }
func (m *Map) validIntersection(id IntersectionID) bool {
	return id >= 0 && int(id) < len(m.Intersections)
}

func (m *Map) buildIndex() {
	m.turnsFrom = make(map[LaneID][]TurnID)
	m.turnIndex = make(map[[2]LaneID]TurnID, len(m.Turns))
	for _, t := range m.Turns {
		m.turnsFrom[t.Src] = append(m.turnsFrom[t.Src], t.ID)
		m.turnIndex[[2]LaneID{t.Src, t.Dst}] = t.ID
	}
	for _, ids := range m.turnsFrom {
		slices.Sort(ids)
	}
}

// Lane returns the lane with the given id. Panics on an unknown id.
func (m *Map) Lane(id LaneID) *Lane {
	if !m.validLane(id) {
		panic(fmt.Sprintf("roadnet: unknown %s", id))
	}
	return &m.Lanes[id]
}

// Road returns the road with the given id. Panics on an unknown id.
func (m *Map) Road(id RoadID) *Road {
	if !m.validRoad(id) {
		panic(fmt.Sprintf("roadnet: unknown %s", id))
	}
	return &m.Roads[id]
}

// Turn returns the turn with the given id. Panics on an unknown id.
func (m *Map) Turn(id TurnID) *Turn {
	if id < 0 || int(id) >= len(m.Turns) {
		panic(fmt.Sprintf("roadnet: unknown %s", id))
	}
	return &m.Turns[id]
}

// Intersection returns the intersection with the given id. Panics on an unknown id.
func (m *Map) Intersection(id IntersectionID) *Intersection {
	if !m.validIntersection(id) {
		panic(fmt.Sprintf("roadnet: unknown %s", id))
	}
	return &m.Intersections[id]
}

// AllLanes returns every lane in id order.
func (m *Map) AllLanes() []Lane { return m.Lanes }

// LanesOfType returns the ids of all lanes currently of type t, in id order.
func (m *Map) LanesOfType(t LaneType) []LaneID {
	var ids []LaneID
	for _, l := range m.Lanes {
		if l.Type == t {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// LaneAndParent returns a lane together with the road it belongs to.
func (m *Map) LaneAndParent(id LaneID) (*Lane, *Road) {
	l := m.Lane(id)
	return l, m.Road(l.Road)
}

// FindParkingLane returns the parking lane serving the given driving lane:
// a lane of the same road running in the same direction.
func (m *Map) FindParkingLane(driving LaneID) (LaneID, bool) {
	return m.findSibling(driving, Parking)
}

// FindDrivingLane returns the driving lane next to the given parking lane.
func (m *Map) FindDrivingLane(parking LaneID) (LaneID, bool) {
	return m.findSibling(parking, Driving)
}

func (m *Map) findSibling(id LaneID, want LaneType) (LaneID, bool) {
	l, r := m.LaneAndParent(id)
	for _, sibling := range r.Lanes {
		other := &m.Lanes[sibling]
		if other.Type == want && other.Forward == l.Forward {
			return sibling, true
		}
	}
	return 0, false
}

// TurnsFrom returns the turns leaving the end of a lane, in id order,
// skipping banned turns.
func (m *Map) TurnsFrom(id LaneID) []TurnID {
	var out []TurnID
	for _, t := range m.turnsFrom[id] {
		if !m.Turns[t].Banned {
			out = append(out, t)
		}
	}
	return out
}

// TurnBetween returns the non-banned turn connecting src to dst.
func (m *Map) TurnBetween(src, dst LaneID) (TurnID, bool) {
	t, ok := m.turnIndex[[2]LaneID{src, dst}]
	if !ok || m.Turns[t].Banned {
		return 0, false
	}
	return t, true
}

// TurnLength returns the length of a turn in meters.
func (m *Map) TurnLength(id TurnID) float64 {
	t := m.Turn(id)
	return max(minTurnLength, m.Lanes[t.Src].End.DistTo(m.Lanes[t.Dst].Start))
}

// LanePoint returns the position dist meters along a lane and the lane heading.
func (m *Map) LanePoint(id LaneID, dist float64) (Point, float64) {
	l := m.Lane(id)
	return lerp(l.Start, l.End, dist), l.Start.AngleTo(l.End)
}

// TurnPoint returns the position dist meters along a turn and the turn heading.
func (m *Map) TurnPoint(id TurnID, dist float64) (Point, float64) {
	t := m.Turn(id)
	from, to := m.Lanes[t.Src].End, m.Lanes[t.Dst].Start
	if from == to {
		return from, m.Lanes[t.Dst].Start.AngleTo(m.Lanes[t.Dst].End)
	}
	return lerp(from, to, dist), from.AngleTo(to)
}

// EditLaneType changes a lane's type in place and returns the previous
// type. Callers must notify the simulation afterwards.
func (m *Map) EditLaneType(id LaneID, t LaneType) LaneType {
	l := m.Lane(id)
	old := l.Type
	l.Type = t
	return old
}

// SetTurnBanned bans or restores a turn. Banned turns are skipped by
// TurnsFrom and TurnBetween.
func (m *Map) SetTurnBanned(id TurnID, banned bool) {
	m.Turn(id).Banned = banned
}
