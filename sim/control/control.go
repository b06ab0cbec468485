// Package control describes how each intersection is governed: stop signs
// or cyclic traffic signals. A ControlMap is read-only input to the
// intersection sub-simulator's step.
package control

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPhaseTicks is the length of a generated vehicle phase (30s).
	DefaultPhaseTicks = 300
	// DefaultWalkPhaseTicks is the length of a generated pedestrian phase (15s).
	DefaultWalkPhaseTicks = 150
)

// StopSign admits at most MaxNewPerTick vehicles per tick into the
// intersection. Pedestrians are not limited.
type StopSign struct {
	MaxNewPerTick int `yaml:"max_new_per_tick"`
}

// Phase is one stage of a signal cycle.
type Phase struct {
	Turns         []roadnet.TurnID `yaml:"turns"`
	DurationTicks int64            `yaml:"duration_ticks"`
}

// TrafficSignal cycles through its phases forever, starting at tick 0.
type TrafficSignal struct {
	Phases []Phase `yaml:"phases"`
}

// ControlMap assigns a policy to every intersection.
type ControlMap struct {
	StopSigns      map[roadnet.IntersectionID]*StopSign      `yaml:"stop_signs"`
	TrafficSignals map[roadnet.IntersectionID]*TrafficSignal `yaml:"traffic_signals"`
}

// CycleLength returns the total number of ticks of one signal cycle.
func (s *TrafficSignal) CycleLength() int64 {
	return lo.SumBy(s.Phases, func(p Phase) int64 { return p.DurationTicks })
}

// CurrentPhase returns the index of the phase active at tick now.
func (s *TrafficSignal) CurrentPhase(now int64) int {
	cycle := s.CycleLength()
	if cycle <= 0 {
		return 0
	}
	offset := now % cycle
	for i, p := range s.Phases {
		if offset < p.DurationTicks {
			return i
		}
		offset -= p.DurationTicks
	}
	return len(s.Phases) - 1
}

// Allows reports whether the turn may be entered at tick now.
// A signal without phases allows everything.
func (s *TrafficSignal) Allows(now int64, t roadnet.TurnID) bool {
	if len(s.Phases) == 0 {
		return true
	}
	return slices.Contains(s.Phases[s.CurrentPhase(now)].Turns, t)
}

// NewControlMap builds the default policy for a map: intersections joining
// three or more roads get a signal with one phase per incoming road plus a
// pedestrian phase, all others get a stop sign.
func NewControlMap(m *roadnet.Map) *ControlMap {
	c := &ControlMap{
		StopSigns:      make(map[roadnet.IntersectionID]*StopSign),
		TrafficSignals: make(map[roadnet.IntersectionID]*TrafficSignal),
	}
	for _, in := range m.Intersections {
		if len(in.Roads) < 3 {
			c.StopSigns[in.ID] = &StopSign{MaxNewPerTick: 1}
			continue
		}
		signal := &TrafficSignal{}
		for _, road := range in.Roads {
			turns := lo.Filter(in.Turns, func(t roadnet.TurnID, _ int) bool {
				turn := m.Turn(t)
				return !turn.BetweenSidewalks && m.Lane(turn.Src).Road == road
			})
			if len(turns) > 0 {
				signal.Phases = append(signal.Phases, Phase{Turns: turns, DurationTicks: DefaultPhaseTicks})
			}
		}
		walk := lo.Filter(in.Turns, func(t roadnet.TurnID, _ int) bool { return m.Turn(t).BetweenSidewalks })
		if len(walk) > 0 {
			signal.Phases = append(signal.Phases, Phase{Turns: walk, DurationTicks: DefaultWalkPhaseTicks})
		}
		c.TrafficSignals[in.ID] = signal
	}
	return c
}

// LoadControlMap reads a YAML control map, validated against m.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadControlMap(path string, m *roadnet.Map) (*ControlMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading control map: %w", err)
	}
	var c ControlMap
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing control map: %w", err)
	}
	if err := c.Validate(m); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveControlMap writes the control map as YAML.
func SaveControlMap(c *ControlMap, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding control map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing control map: %w", err)
	}
	return nil
}

// Validate checks that every intersection of m has exactly one policy and
// that signal phases reference turns of their own intersection.
func (c *ControlMap) Validate(m *roadnet.Map) error {
	for _, in := range m.Intersections {
		_, stop := c.StopSigns[in.ID]
		signal, hasSignal := c.TrafficSignals[in.ID]
		if stop == hasSignal {
			return fmt.Errorf("%s needs exactly one of stop sign or traffic signal", in.ID)
		}
		if !hasSignal {
			if c.StopSigns[in.ID].MaxNewPerTick < 1 {
				return fmt.Errorf("%s: max_new_per_tick must be positive", in.ID)
			}
			continue
		}
		for i, p := range signal.Phases {
			if p.DurationTicks <= 0 {
				return fmt.Errorf("%s phase %d: duration_ticks must be positive, got %d", in.ID, i, p.DurationTicks)
			}
			for _, t := range p.Turns {
				if !slices.Contains(in.Turns, t) {
					return fmt.Errorf("%s phase %d references %s of another intersection", in.ID, i, t)
				}
			}
		}
	}
	return nil
}
