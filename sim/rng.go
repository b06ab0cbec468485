package sim

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/samber/lo"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and the same sequence of calls
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// EntropyKey draws a SimulationKey from the operating system. The key is
// logged by the caller so that the run can be replayed.
func EntropyKey() SimulationKey {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("sim: reading entropy: %v", err))
	}
	return SimulationKey(binary.LittleEndian.Uint64(buf[:]))
}

// === RandomStream ===

// RandomStream is a xorshift128+ generator implementing rand.Source64.
// Its whole state is the two exported words, so it can be captured in a
// snapshot and restored exactly.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type RandomStream struct {
	S0 uint64 `json:"s0"`
	S1 uint64 `json:"s1"`
}

// NewRandomStream seeds a stream from a SimulationKey.
func NewRandomStream(key SimulationKey) *RandomStream {
	r := &RandomStream{}
	r.Seed(int64(key))
	return r
}

// Seed expands the seed into generator state with splitmix64.
func (r *RandomStream) Seed(seed int64) {
	x := uint64(seed)
	r.S0 = splitmix64(&x)
	r.S1 = splitmix64(&x)
	if r.S0 == 0 && r.S1 == 0 {
		r.S1 = 1
	}
}

func (r *RandomStream) Uint64() uint64 {
	s1, s0 := r.S0, r.S1
	r.S0 = s0
	s1 ^= s1 << 23
	r.S1 = s1 ^ s0 ^ (s1 >> 17) ^ (s0 >> 26)
	return r.S1 + s0
}

func (r *RandomStream) Int63() int64 {
	return int64(r.Uint64() >> 1)
}

func splitmix64(x *uint64) uint64 {
	*x += 0x9e3779b97f4a7c15
	z := *x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// === Choice helpers ===

// chooseDifferent draws uniformly from choices until the draw differs from
// except. Panics when choices holds no element other than except, since the
// draw could never succeed.
func chooseDifferent[T comparable](rng *rand.Rand, choices []T, except T) T {
	if len(choices) < 2 || !lo.ContainsBy(choices, func(c T) bool { return c != except }) {
		panic(fmt.Sprintf("sim: chooseDifferent needs at least two distinct choices, got %v", choices))
	}
	for {
		choice := choices[rng.Intn(len(choices))]
		if choice != except {
			return choice
		}
	}
}

// chooseOne draws uniformly from choices. Panics on an empty slice.
func chooseOne[T any](rng *rand.Rand, choices []T) T {
	if len(choices) == 0 {
		panic("sim: chooseOne called with no choices")
	}
	return choices[rng.Intn(len(choices))]
}

// shuffle permutes s in place.
func shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
