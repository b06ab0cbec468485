// Package parking simulates parked vehicles. Every parking lane is cut into
// spots of SpotLength; a car leaving a lane is always the one in the highest
// occupied spot.
package parking

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
)

// SpotLength is the length of one parking spot in meters.
const SpotLength = 8.0

// Spot is one parking space.
type Spot struct {
	Car      sim.CarID `json:"car"`
	Occupied bool      `json:"occupied"`
}

// ParkingSim owns the spots of every parking lane and the cars parked in them.
type ParkingSim struct {
	Lanes map[roadnet.LaneID][]Spot `json:"lanes"`
	// Cars indexes the lane each parked car is on.
	Cars map[sim.CarID]roadnet.LaneID `json:"cars"`
}

// NewParkingSim creates spots for every parking lane of m, all free.
func NewParkingSim(m *roadnet.Map) *ParkingSim {
	p := &ParkingSim{
		Lanes: make(map[roadnet.LaneID][]Spot),
		Cars:  make(map[sim.CarID]roadnet.LaneID),
	}
	for _, l := range m.LanesOfType(roadnet.Parking) {
		p.EditAddLane(m.Lane(l))
	}
	return p
}

func (p *ParkingSim) EditAddLane(l *roadnet.Lane) {
	p.Lanes[l.ID] = make([]Spot, int(l.Length()/SpotLength))
}

// EditRemoveLane stops tracking a lane. Panics if cars are parked on it.
func (p *ParkingSim) EditRemoveLane(l roadnet.LaneID) {
	if n := lo.CountBy(p.Lanes[l], func(s Spot) bool { return s.Occupied }); n > 0 {
		panic(fmt.Sprintf("parking: can't remove %s, %d cars are parked on it", l, n))
	}
	delete(p.Lanes, l)
}

// SeedRandomCars visits every spot of every lane in id order and parks a new
// car in it when a uniform draw falls below percent (0 to 1). New ids are
// taken from idCounter. Returns the number of cars created.
func (p *ParkingSim) SeedRandomCars(rng *rand.Rand, percent float64, idCounter *int) int {
	lanes := lo.Keys(p.Lanes)
	slices.Sort(lanes)
	seeded := 0
	for _, l := range lanes {
		spots := p.Lanes[l]
		for i := range spots {
			if rng.Float64() >= percent || spots[i].Occupied {
				continue
			}
			car := sim.CarID(*idCounter)
			*idCounter++
			spots[i] = Spot{Car: car, Occupied: true}
			p.Cars[car] = l
			seeded++
		}
	}
	return seeded
}

// lastOccupied returns the index of the highest occupied spot of l, or -1.
func (p *ParkingSim) lastOccupied(l roadnet.LaneID) int {
	_, i, ok := lo.FindLastIndexOf(p.Lanes[l], func(s Spot) bool { return s.Occupied })
	if !ok {
		return -1
	}
	return i
}

// LastParkedCar returns the car in the highest occupied spot of l.
func (p *ParkingSim) LastParkedCar(l roadnet.LaneID) (sim.CarID, bool) {
	i := p.lastOccupied(l)
	if i < 0 {
		return 0, false
	}
	return p.Lanes[l][i].Car, true
}

// RemoveLastParkedCar frees the spot of car, which must be LastParkedCar(l).
func (p *ParkingSim) RemoveLastParkedCar(l roadnet.LaneID, car sim.CarID) {
	i := p.lastOccupied(l)
	if i < 0 || p.Lanes[l][i].Car != car {
		panic(fmt.Sprintf("parking: %s is not the last car parked on %s", car, l))
	}
	p.Lanes[l][i] = Spot{}
	delete(p.Cars, car)
}

// ParkCar puts car into the lowest free spot of l. Returns false when l is
// not a parking lane or is full.
func (p *ParkingSim) ParkCar(l roadnet.LaneID, car sim.CarID) bool {
	spots, ok := p.Lanes[l]
	if !ok {
		return false
	}
	i := slices.IndexFunc(spots, func(s Spot) bool { return !s.Occupied })
	if i < 0 {
		return false
	}
	spots[i] = Spot{Car: car, Occupied: true}
	p.Cars[car] = l
	return true
}

func (p *ParkingSim) Has(car sim.CarID) bool {
	_, ok := p.Cars[car]
	return ok
}

// CarIDs returns every parked car in id order.
func (p *ParkingSim) CarIDs() []sim.CarID {
	ids := lo.Keys(p.Cars)
	slices.Sort(ids)
	return ids
}

func (p *ParkingSim) TotalCount() int { return len(p.Cars) }

func (p *ParkingSim) DrawCar(car sim.CarID, m *roadnet.Map) (sim.DrawCar, bool) {
	l, ok := p.Cars[car]
	if !ok {
		return sim.DrawCar{}, false
	}
	i := slices.IndexFunc(p.Lanes[l], func(s Spot) bool { return s.Occupied && s.Car == car })
	return draw(car, l, i, m), true
}

// DrawCars returns the cars parked on l in spot order.
func (p *ParkingSim) DrawCars(l roadnet.LaneID, m *roadnet.Map) []sim.DrawCar {
	var out []sim.DrawCar
	for i, s := range p.Lanes[l] {
		if s.Occupied {
			out = append(out, draw(s.Car, l, i, m))
		}
	}
	return out
}

func draw(car sim.CarID, l roadnet.LaneID, spot int, m *roadnet.Map) sim.DrawCar {
	front := (float64(spot)+0.5)*SpotLength + sim.CarLength/2
	pos, angle := m.LanePoint(l, front)
	return sim.DrawCar{
		ID:     car,
		On:     sim.OnLane(l),
		Pos:    pos,
		Angle:  angle,
		Length: sim.CarLength,
		Parked: true,
	}
}
