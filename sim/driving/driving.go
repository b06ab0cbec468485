// Package driving simulates moving vehicles. Cars queue on lanes and turns,
// drive at the speed limit, keep FollowingDistance behind their leader and
// wait at the end of a lane until the intersection accepts their turn.
package driving

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// FollowingDistance is the gap kept between a car's front and its leader's back.
const FollowingDistance = 1.0

// Car is a vehicle owned by Driving.
type Car struct {
	ID sim.CarID `json:"id"`
	// Path is the full route; Leg indexes the current lane. While on a turn,
	// the car is between Path[Leg] and Path[Leg+1].
	Path []roadnet.LaneID `json:"path"`
	Leg  int              `json:"leg"`
	On   sim.Traversable  `json:"on"`
	// Dist is the position of the car's front along On, in meters.
	Dist       float64         `json:"dist"`
	WaitingFor *roadnet.TurnID `json:"waiting_for,omitempty"`
	Departed   sim.Tick        `json:"departed"`
	Debug      bool            `json:"debug,omitempty"`
}

// DrivingSim owns cars and the queues of every driving lane and vehicle turn.
// Queues are ordered front first.
type DrivingSim struct {
	Cars  map[sim.CarID]*Car             `json:"cars"`
	Lanes map[roadnet.LaneID][]sim.CarID `json:"lanes"`
	Turns map[roadnet.TurnID][]sim.CarID `json:"turns"`
}

// NewDrivingSim creates an empty DrivingSim tracking every driving lane of m
// and every turn leaving one.
func NewDrivingSim(m *roadnet.Map) *DrivingSim {
	d := &DrivingSim{
		Cars:  make(map[sim.CarID]*Car),
		Lanes: make(map[roadnet.LaneID][]sim.CarID),
		Turns: make(map[roadnet.TurnID][]sim.CarID),
	}
	for _, l := range m.LanesOfType(roadnet.Driving) {
		d.Lanes[l] = []sim.CarID{}
	}
	for _, t := range m.Turns {
		if !t.BetweenSidewalks && m.Lane(t.Src).Type == roadnet.Driving {
			d.Turns[t.ID] = []sim.CarID{}
		}
	}
	return d
}

// === Edits ===

func (d *DrivingSim) EditAddLane(l roadnet.LaneID) {
	d.Lanes[l] = []sim.CarID{}
}

// EditRemoveLane stops tracking a lane. Panics if cars are on it.
func (d *DrivingSim) EditRemoveLane(l roadnet.LaneID) {
	if n := len(d.Lanes[l]); n > 0 {
		panic(fmt.Sprintf("driving: can't remove %s, %d cars are on it", l, n))
	}
	delete(d.Lanes, l)
}

// EditAddTurn starts tracking a vehicle turn. Panics on a crosswalk.
func (d *DrivingSim) EditAddTurn(t roadnet.TurnID, m *roadnet.Map) {
	if m.Turn(t).BetweenSidewalks {
		panic(fmt.Sprintf("driving: %s is a crosswalk", t))
	}
	d.Turns[t] = []sim.CarID{}
}

// EditRemoveTurn stops tracking a turn. Panics if cars are on it.
func (d *DrivingSim) EditRemoveTurn(t roadnet.TurnID) {
	if n := len(d.Turns[t]); n > 0 {
		panic(fmt.Sprintf("driving: can't remove %s, %d cars are on it", t, n))
	}
	delete(d.Turns, t)
}

// === Spawning ===

// roomAtStart reports whether a car can appear at the start of lane l.
func (d *DrivingSim) roomAtStart(l roadnet.LaneID) bool {
	queue, ok := d.Lanes[l]
	if !ok {
		return false
	}
	if len(queue) == 0 {
		return true
	}
	last := d.Cars[queue[len(queue)-1]]
	return last.Dist >= sim.CarLength+FollowingDistance
}

// StartCar places car at the start of path[0]. Returns false when the lane
// is not tracked or has no room at its start.
func (d *DrivingSim) StartCar(now sim.Tick, car sim.CarID, path []roadnet.LaneID) bool {
	if len(path) == 0 {
		panic(fmt.Sprintf("driving: %s started with an empty path", car))
	}
	if _, exists := d.Cars[car]; exists {
		panic(fmt.Sprintf("driving: %s is already driving", car))
	}
	start := path[0]
	if !d.roomAtStart(start) {
		return false
	}
	d.Cars[car] = &Car{
		ID:       car,
		Path:     slices.Clone(path),
		On:       sim.OnLane(start),
		Departed: now,
	}
	d.Lanes[start] = append(d.Lanes[start], car)
	return true
}

// EmptyLanes returns the tracked driving lanes of m without any car, in id order.
func (d *DrivingSim) EmptyLanes(m *roadnet.Map) []roadnet.LaneID {
	return lo.Filter(m.LanesOfType(roadnet.Driving), func(l roadnet.LaneID, _ int) bool {
		queue, ok := d.Lanes[l]
		return ok && len(queue) == 0
	})
}

// === Stepping ===

// Step advances every car by one tick. Turns are processed before lanes,
// each in id order, and every queue front to back.
func (d *DrivingSim) Step(now sim.Tick, m *roadnet.Map, is sim.IntersectionSim) []sim.CarArrival {
	dt := sim.Timestep.Seconds()

	turns := lo.Keys(d.Turns)
	slices.Sort(turns)
	for _, t := range turns {
		d.stepTurn(now, t, m, is, dt)
	}

	var arrivals []sim.CarArrival
	lanes := lo.Keys(d.Lanes)
	slices.Sort(lanes)
	for _, l := range lanes {
		arrivals = append(arrivals, d.stepLane(now, l, m, is, dt)...)
	}
	slices.SortFunc(arrivals, func(a, b sim.CarArrival) int { return int(a.Car) - int(b.Car) })
	return arrivals
}

func (d *DrivingSim) stepTurn(now sim.Tick, t roadnet.TurnID, m *roadnet.Map, is sim.IntersectionSim, dt float64) {
	turn := m.Turn(t)
	length := m.TurnLength(t)
	speed := m.Lane(turn.Dst).SpeedLimit
	var remaining []sim.CarID
	for i, id := range d.Turns[t] {
		car := d.Cars[id]
		limit := length
		if i > 0 {
			leader := d.Cars[d.Turns[t][i-1]]
			if leader.On.OnTurn && leader.On.ID == int(t) {
				limit = leader.Dist - sim.CarLength - FollowingDistance
			}
		}
		car.Dist = max(car.Dist, min(car.Dist+speed*dt, limit))
		if car.Dist >= length && len(remaining) == 0 && d.roomAtStart(turn.Dst) {
			is.OnExit(sim.CarAgent(id), t)
			car.Leg++
			car.On = sim.OnLane(turn.Dst)
			car.Dist = 0
			d.Lanes[turn.Dst] = append(d.Lanes[turn.Dst], id)
			d.logDebug(now, car, "entered %s", turn.Dst)
			continue
		}
		remaining = append(remaining, id)
	}
	d.Turns[t] = remaining
}

func (d *DrivingSim) stepLane(now sim.Tick, l roadnet.LaneID, m *roadnet.Map, is sim.IntersectionSim, dt float64) []sim.CarArrival {
	lane := m.Lane(l)
	length := lane.Length()
	var arrivals []sim.CarArrival
	var remaining []sim.CarID
	for _, id := range d.Lanes[l] {
		car := d.Cars[id]
		limit := length
		if len(remaining) > 0 {
			leader := d.Cars[remaining[len(remaining)-1]]
			limit = leader.Dist - sim.CarLength - FollowingDistance
		}
		car.Dist = max(car.Dist, min(car.Dist+lane.SpeedLimit*dt, limit))
		if len(remaining) > 0 || car.Dist < length {
			remaining = append(remaining, id)
			continue
		}

		// front car at the end of the lane
		if car.Leg == len(car.Path)-1 {
			arrivals = append(arrivals, sim.CarArrival{Car: id, Lane: l, Departed: car.Departed})
			delete(d.Cars, id)
			d.logDebug(now, car, "reached the end of its route")
			continue
		}
		agent := sim.CarAgent(id)
		next := car.Path[car.Leg+1]
		t, ok := m.TurnBetween(l, next)
		if !ok {
			logrus.Warnf("[tick %07d] %s has no turn from %s to %s; ending its trip early", now, id, l, next)
			// the turn may have been granted before it disappeared
			if car.WaitingFor != nil && is.IsAccepted(agent, *car.WaitingFor) {
				is.OnExit(agent, *car.WaitingFor)
			}
			arrivals = append(arrivals, sim.CarArrival{Car: id, Lane: l, Departed: car.Departed})
			delete(d.Cars, id)
			continue
		}
		if turnQueue, tracked := d.Turns[t]; tracked && is.IsAccepted(agent, t) && d.roomOnTurn(turnQueue) {
			car.WaitingFor = nil
			car.On = sim.OnTurn(t)
			car.Dist = 0
			d.Turns[t] = append(d.Turns[t], id)
			d.logDebug(now, car, "entered %s", t)
			continue
		}
		if !is.IsAccepted(agent, t) {
			is.RequestTurn(agent, t)
		}
		if car.WaitingFor == nil {
			d.logDebug(now, car, "waiting for %s", t)
		}
		car.WaitingFor = &t
		remaining = append(remaining, id)
	}
	d.Lanes[l] = remaining
	return arrivals
}

// roomOnTurn reports whether the back of a turn queue is clear of its start.
func (d *DrivingSim) roomOnTurn(queue []sim.CarID) bool {
	if len(queue) == 0 {
		return true
	}
	return d.Cars[queue[len(queue)-1]].Dist >= sim.CarLength+FollowingDistance
}

func (d *DrivingSim) logDebug(now sim.Tick, car *Car, format string, args ...any) {
	if car.Debug {
		logrus.Infof("[tick %07d] %s %s", now, car.ID, fmt.Sprintf(format, args...))
	}
}

// === Queries ===

func (d *DrivingSim) Has(car sim.CarID) bool {
	_, ok := d.Cars[car]
	return ok
}

// CarIDs returns every driving car in id order.
func (d *DrivingSim) CarIDs() []sim.CarID {
	ids := lo.Keys(d.Cars)
	slices.Sort(ids)
	return ids
}

func (d *DrivingSim) WaitingFor(car sim.CarID) (roadnet.TurnID, bool) {
	c, ok := d.Cars[car]
	if !ok || c.WaitingFor == nil {
		return 0, false
	}
	return *c.WaitingFor, true
}

func (d *DrivingSim) ActiveCount() int { return len(d.Cars) }

func (d *DrivingSim) WaitingCount() int {
	return lo.CountBy(lo.Values(d.Cars), func(c *Car) bool { return c.WaitingFor != nil })
}

// SetDebug flags a car for per-tick logging. Returns false for unknown cars.
func (d *DrivingSim) SetDebug(car sim.CarID, on bool) bool {
	c, ok := d.Cars[car]
	if !ok {
		return false
	}
	c.Debug = on
	return true
}

func (d *DrivingSim) IsDebugging(car sim.CarID) bool {
	c, ok := d.Cars[car]
	return ok && c.Debug
}

func (d *DrivingSim) DebugJSON(car sim.CarID) (string, bool) {
	c, ok := d.Cars[car]
	if !ok {
		return "", false
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (d *DrivingSim) Tooltip(car sim.CarID) ([]string, bool) {
	c, ok := d.Cars[car]
	if !ok {
		return nil, false
	}
	lines := []string{
		fmt.Sprintf("%s on %s, %.1fm along", c.ID, c.On, c.Dist),
		fmt.Sprintf("Lane %d of %d on its route to %s", c.Leg+1, len(c.Path), c.Path[len(c.Path)-1]),
		fmt.Sprintf("Departed at %s", c.Departed),
	}
	if c.WaitingFor != nil {
		lines = append(lines, fmt.Sprintf("Waiting for %s", *c.WaitingFor))
	}
	return lines, true
}

func (d *DrivingSim) DrawCar(car sim.CarID, m *roadnet.Map) (sim.DrawCar, bool) {
	c, ok := d.Cars[car]
	if !ok {
		return sim.DrawCar{}, false
	}
	return d.draw(c, m), true
}

func (d *DrivingSim) DrawCarsOnLane(l roadnet.LaneID, m *roadnet.Map) []sim.DrawCar {
	return lo.Map(d.Lanes[l], func(id sim.CarID, _ int) sim.DrawCar { return d.draw(d.Cars[id], m) })
}

func (d *DrivingSim) DrawCarsOnTurn(t roadnet.TurnID, m *roadnet.Map) []sim.DrawCar {
	return lo.Map(d.Turns[t], func(id sim.CarID, _ int) sim.DrawCar { return d.draw(d.Cars[id], m) })
}

func (d *DrivingSim) draw(c *Car, m *roadnet.Map) sim.DrawCar {
	var pos roadnet.Point
	var angle float64
	if t, onTurn := c.On.Turn(); onTurn {
		pos, angle = m.TurnPoint(t, c.Dist)
	} else {
		l, _ := c.On.Lane()
		pos, angle = m.LanePoint(l, c.Dist)
	}
	return sim.DrawCar{
		ID:     c.ID,
		On:     c.On,
		Pos:    pos,
		Angle:  angle,
		Length: sim.CarLength,
		Stuck:  c.WaitingFor != nil,
		Debug:  c.Debug,
	}
}
