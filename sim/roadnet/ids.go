package roadnet

import (
	"fmt"
	"math"
)

// LaneID, RoadID, TurnID and IntersectionID index into the corresponding
// Map slice. They are stable for the lifetime of a Map.
type LaneID int

type RoadID int

type TurnID int

type IntersectionID int

func (id LaneID) String() string         { return fmt.Sprintf("Lane #%d", int(id)) }
func (id RoadID) String() string         { return fmt.Sprintf("Road #%d", int(id)) }
func (id TurnID) String() string         { return fmt.Sprintf("Turn #%d", int(id)) }
func (id IntersectionID) String() string { return fmt.Sprintf("Intersection #%d", int(id)) }

// LaneType determines which sub-simulator owns a lane.
type LaneType int

const (
	Driving LaneType = iota
	Parking
	Sidewalk
	Biking
)

var laneTypeNames = map[LaneType]string{
	Driving:  "driving",
	Parking:  "parking",
	Sidewalk: "sidewalk",
	Biking:   "biking",
}

func (t LaneType) String() string {
	if name, ok := laneTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LaneType(%d)", int(t))
}

// MarshalText lets lane types appear by name in YAML map files and JSON.
func (t LaneType) MarshalText() ([]byte, error) {
	name, ok := laneTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown lane type %d", int(t))
	}
	return []byte(name), nil
}

func (t *LaneType) UnmarshalText(text []byte) error {
	for lt, name := range laneTypeNames {
		if name == string(text) {
			*t = lt
			return nil
		}
	}
	return fmt.Errorf("unknown lane type %q; valid: driving, parking, sidewalk, biking", string(text))
}

// Point is a position in meters on the map plane.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) String() string { return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y) }

// DistTo returns the euclidean distance between two points.
func (p Point) DistTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// AngleTo returns the heading from p to q in radians.
func (p Point) AngleTo(q Point) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X)
}

// lerp returns the point dist meters along the segment p→q, clamped to the segment.
func lerp(p, q Point, dist float64) Point {
	length := p.DistTo(q)
	if length == 0 {
		return p
	}
	frac := math.Max(0, math.Min(1, dist/length))
	return Point{X: p.X + (q.X-p.X)*frac, Y: p.Y + (q.Y-p.Y)*frac}
}
