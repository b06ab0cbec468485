package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/roadsim/roadsim/sim/analytics"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"
)

const snapshotVersion = 1

// snapshot is the serialized form of a Sim.
type snapshot struct {
	Version      int                  `json:"version"`
	Map          string               `json:"map"`
	Seed         SimulationKey        `json:"seed"`
	Stream       RandomStream         `json:"stream"`
	Time         Tick                 `json:"time"`
	CarIDCounter int                  `json:"car_id_counter"`
	Debug        *CarID               `json:"debug,omitempty"`
	Driving      json.RawMessage      `json:"driving"`
	Parking      json.RawMessage      `json:"parking"`
	Walking      json.RawMessage      `json:"walking"`
	Intersection json.RawMessage      `json:"intersections"`
	Analytics    *analytics.Analytics `json:"analytics"`
	Trace        *trace.SpawnTrace    `json:"trace"`
}

func (s *Sim) snapshot(mapName string) (*snapshot, error) {
	snap := &snapshot{
		Version:      snapshotVersion,
		Map:          mapName,
		Seed:         s.key,
		Stream:       *s.stream,
		Time:         s.time,
		CarIDCounter: s.carIDCounter,
		Debug:        s.debug,
		Analytics:    s.analytics,
		Trace:        s.trace,
	}
	parts := []struct {
		name string
		v    any
		dst  *json.RawMessage
	}{
		{"driving", s.driving, &snap.Driving},
		{"parking", s.parking, &snap.Parking},
		{"walking", s.walking, &snap.Walking},
		{"intersections", s.intersections, &snap.Intersection},
	}
	for _, p := range parts {
		data, err := json.Marshal(p.v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s state: %w", p.name, err)
		}
		*p.dst = data
	}
	return snap, nil
}

// Save writes a JSON snapshot of the whole simulation, random stream included.
func (s *Sim) Save(w io.Writer, m *roadnet.Map) error {
	snap, err := s.snapshot(m.Name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load restores a simulation saved by Save. The snapshot must have been
// taken on a map with the same name as m. cfg supplies the runtime settings
// that are not part of the snapshot (workers, path finder).
func Load(r io.Reader, m *roadnet.Map, cfg SimConfig) (*Sim, error) {
	mustBeRegistered()
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", snap.Version, snapshotVersion)
	}
	if snap.Map != m.Name {
		return nil, fmt.Errorf("snapshot was taken on map %q, not %q", snap.Map, m.Name)
	}

	s := newSim(snap.Seed, cfg)
	stream := snap.Stream
	s.stream = &stream
	s.rng = rand.New(s.stream)
	s.time = snap.Time
	s.carIDCounter = snap.CarIDCounter
	s.debug = snap.Debug
	if snap.Analytics != nil {
		s.analytics = snap.Analytics
	}
	if snap.Trace != nil {
		s.trace = snap.Trace
	}

	var err error
	if s.driving, err = RestoreDrivingSimFunc(snap.Driving); err != nil {
		return nil, fmt.Errorf("restoring driving state: %w", err)
	}
	if s.parking, err = RestoreParkingSimFunc(snap.Parking); err != nil {
		return nil, fmt.Errorf("restoring parking state: %w", err)
	}
	if s.walking, err = RestoreWalkingSimFunc(snap.Walking); err != nil {
		return nil, fmt.Errorf("restoring walking state: %w", err)
	}
	if s.intersections, err = RestoreIntersectionSimFunc(snap.Intersection); err != nil {
		return nil, fmt.Errorf("restoring intersection state: %w", err)
	}
	return s, nil
}

// Equal reports whether two simulations hold the same state.
//
// The random stream is NOT compared: two sims that differ only in how many
// values they have drawn are Equal, yet diverge on their next spawn.
func (s *Sim) Equal(other *Sim) bool {
	a, errA := s.snapshot("")
	b, errB := other.snapshot("")
	if errA != nil || errB != nil {
		return false
	}
	a.Stream, b.Stream = RandomStream{}, RandomStream{}
	dataA, errA := json.Marshal(a)
	dataB, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(dataA, dataB)
}
