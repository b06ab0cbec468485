package roadnet

import (
	"fmt"
	"math"
)

// GridConfig parameterizes NewGrid.
type GridConfig struct {
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	BlockLength float64 `yaml:"block_length"` // meters between intersections (default 100)
	LaneWidth   float64 `yaml:"lane_width"`   // meters (default 3)
	SpeedLimit  float64 `yaml:"speed_limit"`  // meters per second (default 13.4)
	BikeLanes   bool    `yaml:"bike_lanes"`
}

const (
	defaultBlockLength = 100.0
	defaultLaneWidth   = 3.0
	defaultSpeedLimit  = 13.4
	walkingSpeedLimit  = 1.34
	// cornerInset is the distance kept clear around each intersection center.
	cornerInset = 6.0
)

// NewGrid builds a rows x cols grid city. Every road carries, per direction,
// a driving lane, an optional biking lane, a parking lane and a sidewalk.
// Driving (and biking) turns connect to lanes of other roads, with U-turns
// only at dead ends; sidewalk turns connect every incoming sidewalk to every
// outgoing one.
func NewGrid(cfg GridConfig) (*Map, error) {
	if cfg.Rows < 1 || cfg.Cols < 1 || cfg.Rows*cfg.Cols < 2 {
		return nil, fmt.Errorf("grid needs at least two intersections, got %dx%d", cfg.Rows, cfg.Cols)
	}
	if cfg.BlockLength == 0 {
		cfg.BlockLength = defaultBlockLength
	}
	if cfg.LaneWidth == 0 {
		cfg.LaneWidth = defaultLaneWidth
	}
	if cfg.SpeedLimit == 0 {
		cfg.SpeedLimit = defaultSpeedLimit
	}
	if cfg.BlockLength <= 2*cornerInset {
		return nil, fmt.Errorf("block_length must exceed %.0f meters, got %f", 2*cornerInset, cfg.BlockLength)
	}

	m := &Map{Name: fmt.Sprintf("grid-%dx%d", cfg.Rows, cfg.Cols)}
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			m.Intersections = append(m.Intersections, Intersection{
				ID:    IntersectionID(len(m.Intersections)),
				Point: Point{X: float64(c) * cfg.BlockLength, Y: float64(r) * cfg.BlockLength},
			})
		}
	}
	at := func(r, c int) IntersectionID { return IntersectionID(r*cfg.Cols + c) }
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			if c+1 < cfg.Cols {
				m.addRoad(cfg, at(r, c), at(r, c+1))
			}
			if r+1 < cfg.Rows {
				m.addRoad(cfg, at(r, c), at(r+1, c))
			}
		}
	}
	for i := range m.Intersections {
		m.addTurns(IntersectionID(i))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.buildIndex()
	return m, nil
}

func (m *Map) addRoad(cfg GridConfig, src, dst IntersectionID) {
	road := Road{ID: RoadID(len(m.Roads)), Src: src, Dst: dst}
	a, b := m.Intersections[src].Point, m.Intersections[dst].Point
	length := a.DistTo(b)
	dx, dy := (b.X-a.X)/length, (b.Y-a.Y)/length
	// right-hand normal of the src→dst direction
	nx, ny := dy, -dx

	types := []LaneType{Driving}
	if cfg.BikeLanes {
		types = append(types, Biking)
	}
	types = append(types, Parking, Sidewalk)

	for _, forward := range []bool{true, false} {
		side := 1.0
		from, to := a, b
		laneSrc, laneDst := src, dst
		if !forward {
			side = -1.0
			from, to = b, a
			laneSrc, laneDst = dst, src
		}
		ux, uy := (to.X-from.X)/length, (to.Y-from.Y)/length
		for k, lt := range types {
			offset := side * (float64(k) + 0.5) * cfg.LaneWidth
			speed := cfg.SpeedLimit
			if lt == Sidewalk {
				speed = walkingSpeedLimit
			}
			lane := Lane{
				ID:      LaneID(len(m.Lanes)),
				Type:    lt,
				Road:    road.ID,
				Forward: forward,
				Src:     laneSrc,
				Dst:     laneDst,
				Start: Point{
					X: round(from.X + ux*cornerInset + nx*offset),
					Y: round(from.Y + uy*cornerInset + ny*offset),
				},
				End: Point{
					X: round(to.X - ux*cornerInset + nx*offset),
					Y: round(to.Y - uy*cornerInset + ny*offset),
				},
				SpeedLimit: speed,
			}
			m.Lanes = append(m.Lanes, lane)
			road.Lanes = append(road.Lanes, lane.ID)
		}
	}
	m.Roads = append(m.Roads, road)
	m.Intersections[src].Roads = append(m.Intersections[src].Roads, road.ID)
	m.Intersections[dst].Roads = append(m.Intersections[dst].Roads, road.ID)
}

func (m *Map) addTurns(id IntersectionID) {
	deadEnd := len(m.Intersections[id].Roads) == 1
	for _, in := range m.Lanes {
		if in.Dst != id || in.Type == Parking {
			continue
		}
		for _, out := range m.Lanes {
			if out.Src != id || out.Type != in.Type {
				continue
			}
			if in.Type != Sidewalk && out.Road == in.Road && !deadEnd {
				continue
			}
			t := Turn{
				ID:               TurnID(len(m.Turns)),
				Parent:           id,
				Src:              in.ID,
				Dst:              out.ID,
				BetweenSidewalks: in.Type == Sidewalk,
			}
			m.Turns = append(m.Turns, t)
			m.Intersections[id].Turns = append(m.Intersections[id].Turns, t.ID)
		}
	}
}

// round trims generator noise so that saved maps are stable.
func round(v float64) float64 { return math.Round(v*1e6) / 1e6 }
