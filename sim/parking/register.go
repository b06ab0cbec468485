package parking

import (
	"encoding/json"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/roadnet"
)

func init() {
	sim.NewParkingSimFunc = func(m *roadnet.Map) sim.ParkingSim {
		return NewParkingSim(m)
	}
	sim.RestoreParkingSimFunc = func(data []byte) (sim.ParkingSim, error) {
		s := &ParkingSim{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, err
		}
		return s, nil
	}
}
