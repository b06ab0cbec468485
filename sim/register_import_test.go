package sim_test

// Blank imports trigger the sub-simulators' init(), which register the
// factory variables. This allows package sim's internal test files to build
// a Sim without directly importing them (which would create an import cycle).
import (
	_ "github.com/roadsim/roadsim/sim/driving"
	_ "github.com/roadsim/roadsim/sim/intersection"
	_ "github.com/roadsim/roadsim/sim/parking"
	_ "github.com/roadsim/roadsim/sim/walking"
)
