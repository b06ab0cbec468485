// Package intersection arbitrates which agents may enter which turns.
//
// Agents post requests while Driving and Walking step; Step resolves them
// afterwards in agent order, so acceptances of tick t are seen at tick t+1.
package intersection

import (
	"fmt"
	"slices"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// IntersectionSim holds pending requests and accepted turns, keyed by agent.
type IntersectionSim struct {
	Requests map[sim.AgentID]roadnet.TurnID `json:"requests"`
	Accepted map[sim.AgentID]roadnet.TurnID `json:"accepted"`
}

// NewIntersectionSim creates an empty IntersectionSim.
func NewIntersectionSim() *IntersectionSim {
	return &IntersectionSim{
		Requests: make(map[sim.AgentID]roadnet.TurnID),
		Accepted: make(map[sim.AgentID]roadnet.TurnID),
	}
}

// RequestTurn asks for permission to enter a turn. Requests last one tick;
// waiting agents repeat them every tick.
func (is *IntersectionSim) RequestTurn(agent sim.AgentID, turn roadnet.TurnID) {
	if t, ok := is.Accepted[agent]; ok && t == turn {
		return
	}
	is.Requests[agent] = turn
}

// IsAccepted reports whether agent may enter turn.
func (is *IntersectionSim) IsAccepted(agent sim.AgentID, turn roadnet.TurnID) bool {
	t, ok := is.Accepted[agent]
	return ok && t == turn
}

// OnExit releases the turn an agent has just left. Panics if the agent was
// never accepted onto it.
func (is *IntersectionSim) OnExit(agent sim.AgentID, turn roadnet.TurnID) {
	if !is.IsAccepted(agent, turn) {
		panic(fmt.Sprintf("intersection: %s left %s without being accepted", agent, turn))
	}
	delete(is.Accepted, agent)
}

func (is *IntersectionSim) AcceptedCount() int { return len(is.Accepted) }

// Step resolves this tick's requests in agent order and clears them.
func (is *IntersectionSim) Step(now sim.Tick, m *roadnet.Map, controls *control.ControlMap) {
	agents := lo.Keys(is.Requests)
	slices.SortFunc(agents, func(a, b sim.AgentID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})

	admitted := make(map[roadnet.IntersectionID]int)
	for _, agent := range agents {
		turnID := is.Requests[agent]
		turn := m.Turn(turnID)
		if !is.allowedByControl(now, turn, agent, controls, admitted) {
			continue
		}
		if is.conflicts(m, turn) {
			continue
		}
		is.Accepted[agent] = turnID
		if agent.Kind == sim.AgentCar {
			admitted[turn.Parent]++
		}
		logrus.Debugf("[tick %07d] %s accepted onto %s", now, agent, turnID)
	}
	clear(is.Requests)
}

func (is *IntersectionSim) allowedByControl(now sim.Tick, turn *roadnet.Turn, agent sim.AgentID,
	controls *control.ControlMap, admitted map[roadnet.IntersectionID]int) bool {
	if controls == nil {
		return true
	}
	if signal, ok := controls.TrafficSignals[turn.Parent]; ok {
		return signal.Allows(int64(now), turn.ID)
	}
	if stop, ok := controls.StopSigns[turn.Parent]; ok && agent.Kind == sim.AgentCar {
		return admitted[turn.Parent] < stop.MaxNewPerTick
	}
	return true
}

// conflicts reports whether turn clashes with a turn already accepted at the
// same intersection: two vehicle turns into the same lane, or a crosswalk
// against any vehicle turn.
func (is *IntersectionSim) conflicts(m *roadnet.Map, turn *roadnet.Turn) bool {
	for _, id := range is.Accepted {
		other := m.Turn(id)
		if other.Parent != turn.Parent {
			continue
		}
		if turn.BetweenSidewalks != other.BetweenSidewalks {
			return true
		}
		if !turn.BetweenSidewalks && turn.Dst == other.Dst {
			return true
		}
	}
	return false
}
