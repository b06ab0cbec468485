package driving

import (
	"encoding/json"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
)

func init() {
	sim.NewDrivingSimFunc = func(m *roadnet.Map) sim.DrivingSim {
		return NewDrivingSim(m)
	}
	sim.RestoreDrivingSimFunc = func(data []byte) (sim.DrivingSim, error) {
		s := &DrivingSim{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, err
		}
		return s, nil
	}
}
