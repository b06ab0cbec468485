// Package walking simulates pedestrians on sidewalks and crosswalks.
// Pedestrians do not block each other; they only wait for crosswalk turns.
package walking

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Speed is the walking speed in meters per second.
const Speed = 1.34

// Pedestrian is an agent owned by Walking.
type Pedestrian struct {
	ID         sim.PedestrianID `json:"id"`
	Path       []roadnet.LaneID `json:"path"`
	Leg        int              `json:"leg"`
	On         sim.Traversable  `json:"on"`
	Dist       float64          `json:"dist"`
	WaitingFor *roadnet.TurnID  `json:"waiting_for,omitempty"`
	Departed   sim.Tick         `json:"departed"`
}

// WalkingSim owns pedestrians and mints their ids.
type WalkingSim struct {
	Peds map[sim.PedestrianID]*Pedestrian `json:"peds"`
	// Lanes and Turns list who is on each sidewalk and crosswalk, in id order.
	Lanes     map[roadnet.LaneID][]sim.PedestrianID `json:"lanes"`
	Turns     map[roadnet.TurnID][]sim.PedestrianID `json:"turns"`
	IDCounter int                                   `json:"id_counter"`
}

// NewWalkingSim creates an empty WalkingSim tracking every sidewalk and
// crosswalk of m.
func NewWalkingSim(m *roadnet.Map) *WalkingSim {
	w := &WalkingSim{
		Peds:  make(map[sim.PedestrianID]*Pedestrian),
		Lanes: make(map[roadnet.LaneID][]sim.PedestrianID),
		Turns: make(map[roadnet.TurnID][]sim.PedestrianID),
	}
	for _, l := range m.LanesOfType(roadnet.Sidewalk) {
		w.Lanes[l] = []sim.PedestrianID{}
	}
	for _, t := range m.Turns {
		if t.BetweenSidewalks {
			w.Turns[t.ID] = []sim.PedestrianID{}
		}
	}
	return w
}

// === Edits ===

func (w *WalkingSim) EditAddLane(l roadnet.LaneID) {
	w.Lanes[l] = []sim.PedestrianID{}
}

// EditRemoveLane stops tracking a sidewalk. Panics if pedestrians are on it.
func (w *WalkingSim) EditRemoveLane(l roadnet.LaneID) {
	if n := len(w.Lanes[l]); n > 0 {
		panic(fmt.Sprintf("walking: can't remove %s, %d pedestrians are on it", l, n))
	}
	delete(w.Lanes, l)
}

func (w *WalkingSim) EditAddTurn(t roadnet.TurnID) {
	w.Turns[t] = []sim.PedestrianID{}
}

// EditRemoveTurn stops tracking a crosswalk. Panics if pedestrians are on it.
func (w *WalkingSim) EditRemoveTurn(t roadnet.TurnID) {
	if n := len(w.Turns[t]); n > 0 {
		panic(fmt.Sprintf("walking: can't remove %s, %d pedestrians are on it", t, n))
	}
	delete(w.Turns, t)
}

// SeedPedestrian places a new pedestrian at the start of path[0] and returns its id.
func (w *WalkingSim) SeedPedestrian(now sim.Tick, m *roadnet.Map, path []roadnet.LaneID) sim.PedestrianID {
	if len(path) == 0 {
		panic("walking: pedestrian seeded with an empty path")
	}
	if t := m.Lane(path[0]).Type; t != roadnet.Sidewalk {
		panic(fmt.Sprintf("walking: pedestrian seeded on %s, a %s lane", path[0], t))
	}
	id := sim.PedestrianID(w.IDCounter)
	w.IDCounter++
	w.Peds[id] = &Pedestrian{
		ID:       id,
		Path:     slices.Clone(path),
		On:       sim.OnLane(path[0]),
		Departed: now,
	}
	w.Lanes[path[0]] = append(w.Lanes[path[0]], id)
	return id
}

// === Stepping ===

// Step moves every pedestrian dt forward, in id order, and returns those who
// reached the end of their route.
func (w *WalkingSim) Step(now sim.Tick, dt time.Duration, m *roadnet.Map, is sim.IntersectionSim) []sim.PedArrival {
	step := Speed * dt.Seconds()
	var arrivals []sim.PedArrival
	for _, id := range w.pedIDs() {
		p := w.Peds[id]
		if t, onTurn := p.On.Turn(); onTurn {
			p.Dist = min(p.Dist+step, m.TurnLength(t))
			if p.Dist >= m.TurnLength(t) {
				is.OnExit(sim.PedestrianAgent(id), t)
				p.Leg++
				w.move(p, sim.OnLane(p.Path[p.Leg]))
			}
			continue
		}

		l, _ := p.On.Lane()
		length := m.Lane(l).Length()
		p.Dist = min(p.Dist+step, length)
		if p.Dist < length {
			continue
		}
		if p.Leg == len(p.Path)-1 {
			arrivals = append(arrivals, w.finish(p, l))
			continue
		}
		agent := sim.PedestrianAgent(id)
		next := p.Path[p.Leg+1]
		t, ok := m.TurnBetween(l, next)
		if !ok {
			logrus.Warnf("[tick %07d] %s has no crosswalk from %s to %s; ending the walk early", now, id, l, next)
			if p.WaitingFor != nil && is.IsAccepted(agent, *p.WaitingFor) {
				is.OnExit(agent, *p.WaitingFor)
			}
			arrivals = append(arrivals, w.finish(p, l))
			continue
		}
		if _, tracked := w.Turns[t]; tracked && is.IsAccepted(agent, t) {
			p.WaitingFor = nil
			w.move(p, sim.OnTurn(t))
			continue
		}
		if !is.IsAccepted(agent, t) {
			is.RequestTurn(agent, t)
		}
		p.WaitingFor = &t
	}
	return arrivals
}

func (w *WalkingSim) finish(p *Pedestrian, l roadnet.LaneID) sim.PedArrival {
	w.Lanes[l] = lo.Without(w.Lanes[l], p.ID)
	delete(w.Peds, p.ID)
	return sim.PedArrival{Ped: p.ID, Lane: l, Departed: p.Departed}
}

// move transfers p onto a new lane or turn, starting at its beginning.
func (w *WalkingSim) move(p *Pedestrian, to sim.Traversable) {
	w.leave(p)
	p.On = to
	p.Dist = 0
	if t, onTurn := to.Turn(); onTurn {
		w.Turns[t] = insertSorted(w.Turns[t], p.ID)
	} else {
		l, _ := to.Lane()
		w.Lanes[l] = insertSorted(w.Lanes[l], p.ID)
	}
}

func (w *WalkingSim) leave(p *Pedestrian) {
	if t, onTurn := p.On.Turn(); onTurn {
		w.Turns[t] = lo.Without(w.Turns[t], p.ID)
	} else {
		l, _ := p.On.Lane()
		w.Lanes[l] = lo.Without(w.Lanes[l], p.ID)
	}
}

func insertSorted(ids []sim.PedestrianID, id sim.PedestrianID) []sim.PedestrianID {
	i, _ := slices.BinarySearch(ids, id)
	return slices.Insert(ids, i, id)
}

func (w *WalkingSim) pedIDs() []sim.PedestrianID {
	ids := lo.Keys(w.Peds)
	slices.Sort(ids)
	return ids
}

// === Queries ===

func (w *WalkingSim) Has(ped sim.PedestrianID) bool {
	_, ok := w.Peds[ped]
	return ok
}

func (w *WalkingSim) TotalCount() int { return len(w.Peds) }

func (w *WalkingSim) DebugJSON(ped sim.PedestrianID) (string, bool) {
	p, ok := w.Peds[ped]
	if !ok {
		return "", false
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (w *WalkingSim) DrawPed(ped sim.PedestrianID, m *roadnet.Map) (sim.DrawPedestrian, bool) {
	p, ok := w.Peds[ped]
	if !ok {
		return sim.DrawPedestrian{}, false
	}
	return draw(p, m), true
}

func (w *WalkingSim) DrawPedsOnLane(l roadnet.LaneID, m *roadnet.Map) []sim.DrawPedestrian {
	return lo.Map(w.Lanes[l], func(id sim.PedestrianID, _ int) sim.DrawPedestrian { return draw(w.Peds[id], m) })
}

func (w *WalkingSim) DrawPedsOnTurn(t roadnet.TurnID, m *roadnet.Map) []sim.DrawPedestrian {
	return lo.Map(w.Turns[t], func(id sim.PedestrianID, _ int) sim.DrawPedestrian { return draw(w.Peds[id], m) })
}

func draw(p *Pedestrian, m *roadnet.Map) sim.DrawPedestrian {
	var pos roadnet.Point
	var angle float64
	if t, onTurn := p.On.Turn(); onTurn {
		pos, angle = m.TurnPoint(t, p.Dist)
	} else {
		l, _ := p.On.Lane()
		pos, angle = m.LanePoint(l, p.Dist)
	}
	return sim.DrawPedestrian{
		ID:      p.ID,
		On:      p.On,
		Pos:     pos,
		Angle:   angle,
		Waiting: p.WaitingFor != nil,
	}
}
