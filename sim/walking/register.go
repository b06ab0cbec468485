package walking

import (
	"encoding/json"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
)

func init() {
	sim.NewWalkingSimFunc = func(m *roadnet.Map) sim.WalkingSim {
		return NewWalkingSim(m)
	}
	sim.RestoreWalkingSimFunc = func(data []byte) (sim.WalkingSim, error) {
		s := &WalkingSim{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, err
		}
		return s, nil
	}
}
