package intersection

import (
	"encoding/json"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
)

func init() {
	sim.NewIntersectionSimFunc = func(_ *roadnet.Map) sim.IntersectionSim {
		return NewIntersectionSim()
	}
	sim.RestoreIntersectionSimFunc = func(data []byte) (sim.IntersectionSim, error) {
		is := NewIntersectionSim()
		if err := json.Unmarshal(data, is); err != nil {
			return nil, err
		}
		return is, nil
	}
}
