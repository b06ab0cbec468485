// Package pathfind computes lane-level routes over a roadnet.Map.
//
// Routes are shortest by length and stay on lanes of the start lane's type.
// The lane graph is exposed to gonum's Dijkstra through an adapter whose
// neighbour enumeration follows turn-id order, so equal-cost ties always
// resolve the same way and routes are reproducible across runs.
package pathfind

import (
	"github.com/roadsim/roadsim/sim/roadnet"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Finder maps (network, start, goal) to an ordered lane sequence beginning
// with start and ending with goal. It must not mutate the map.
type Finder func(m *roadnet.Map, start, goal roadnet.LaneID) ([]roadnet.LaneID, bool)

// FindPath is the default Finder.
func FindPath(m *roadnet.Map, start, goal roadnet.LaneID) ([]roadnet.LaneID, bool) {
	if start == goal {
		return []roadnet.LaneID{start}, true
	}
	laneType := m.Lane(start).Type
	if m.Lane(goal).Type != laneType {
		return nil, false
	}
	g := laneGraph{m: m, laneType: laneType}
	tree := path.DijkstraFrom(simple.Node(start), g)
	nodes, _ := tree.To(int64(goal))
	if len(nodes) == 0 {
		return nil, false
	}
	steps := make([]roadnet.LaneID, len(nodes))
	for i, n := range nodes {
		steps[i] = roadnet.LaneID(n.ID())
	}
	return steps, true
}

// laneGraph implements gonum's traverse.Graph and path.Weighted. Nodes are
// lanes; an edge u→v exists when a non-banned turn connects u to v and v has
// the graph's lane type. The weight of u→v is the turn length plus the
// length of v.
type laneGraph struct {
	m        *roadnet.Map
	laneType roadnet.LaneType
}

func (g laneGraph) From(id int64) graph.Nodes {
	var nodes []graph.Node
	for _, t := range g.m.TurnsFrom(roadnet.LaneID(id)) {
		dst := g.m.Turn(t).Dst
		if g.m.Lane(dst).Type != g.laneType {
			continue
		}
		nodes = append(nodes, simple.Node(dst))
	}
	if len(nodes) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g laneGraph) Edge(uid, vid int64) graph.Edge {
	w, ok := g.Weight(uid, vid)
	if !ok {
		return nil
	}
	return simple.WeightedEdge{F: simple.Node(uid), T: simple.Node(vid), W: w}
}

func (g laneGraph) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	src, dst := roadnet.LaneID(xid), roadnet.LaneID(yid)
	t, ok := g.m.TurnBetween(src, dst)
	if !ok || g.m.Lane(dst).Type != g.laneType {
		return 0, false
	}
	return g.m.TurnLength(t) + g.m.Lane(dst).Length(), true
}
