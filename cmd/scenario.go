package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"
	"gopkg.in/yaml.v3"
)

// Scenario describes one simulation run. It can be loaded from YAML and is
// overridden field by field by explicitly set CLI flags.
type Scenario struct {
	// Map is a road network YAML file. When empty, Grid is generated instead.
	Map  string             `yaml:"map"`
	Grid roadnet.GridConfig `yaml:"grid"`
	// Controls is a control map YAML file. When empty, defaults are derived from the map.
	Controls string `yaml:"controls"`

	// Seed makes the run reproducible; an explicit null seeds from entropy.
	Seed *int64 `yaml:"seed"`
	// Ticks is the number of time-steps to run.
	Ticks int64 `yaml:"ticks"`

	ParkedPercent float64 `yaml:"parked_percent"` // fraction of parking spots filled before the run
	Cars          int     `yaml:"cars"`           // parked cars started at tick 0
	Pedestrians   int     `yaml:"pedestrians"`    // pedestrians spawned at tick 0
	Workers       int     `yaml:"workers"`        // pathfinding workers (GOMAXPROCS when 0)

	Trace trace.TraceLevel `yaml:"trace"`
}

// DefaultSeed seeds runs that set no seed in the scenario or on the command line.
const DefaultSeed int64 = 42

// DefaultScenario is used when no scenario file is given.
func DefaultScenario() Scenario {
	seed := DefaultSeed
	return Scenario{
		Seed:          &seed,
		Grid:          roadnet.GridConfig{Rows: 3, Cols: 3},
		Ticks:         3000,
		ParkedPercent: 0.5,
		Cars:          20,
		Pedestrians:   20,
		Trace:         trace.TraceLevelNone,
	}
}

// LoadScenario reads a scenario YAML file on top of DefaultScenario.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading scenario: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return sc, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, sc.Validate()
}

// Validate rejects scenarios that cannot run.
func (sc Scenario) Validate() error {
	switch {
	case sc.Ticks < 0:
		return fmt.Errorf("ticks must be non-negative, got %d", sc.Ticks)
	case sc.ParkedPercent < 0 || sc.ParkedPercent > 1:
		return fmt.Errorf("parked_percent must be within [0, 1], got %f", sc.ParkedPercent)
	case sc.Cars < 0 || sc.Pedestrians < 0:
		return fmt.Errorf("cars and pedestrians must be non-negative, got %d and %d", sc.Cars, sc.Pedestrians)
	case !trace.IsValidTraceLevel(string(sc.Trace)):
		return fmt.Errorf("unknown trace level %q", sc.Trace)
	}
	return nil
}

// LoadNetwork returns the scenario's map: loaded from file or generated.
func (sc Scenario) LoadNetwork() (*roadnet.Map, error) {
	if sc.Map != "" {
		return roadnet.LoadMap(sc.Map)
	}
	return roadnet.NewGrid(sc.Grid)
}
