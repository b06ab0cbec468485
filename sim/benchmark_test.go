package sim

import (
	"testing"
	"time"

	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMeasureSpeed_RatioAndReset(t *testing.T) {
	// GIVEN a simulation with a controllable wall clock
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	controls := control.NewControlMap(m)
	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }
	b := s.StartBenchmark()

	// WHEN 1s of simulated time passes in 0.5s of real time
	for i := 0; i < 10; i++ {
		s.Step(m, controls)
	}
	clock = clock.Add(500 * time.Millisecond)

	// THEN the speed is 2x real time
	testutil.AssertFloat64Equal(t, "speed", 2.0, s.MeasureSpeed(b), 1e-9)

	// AND the benchmark was reset: no simulated time since means speed 0
	clock = clock.Add(time.Second)
	assert.Zero(t, s.MeasureSpeed(b))
}

func TestMeasureSpeed_ConvergesOverRepeatedMeasurements(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	controls := control.NewControlMap(m)
	clock := time.Unix(0, 0)
	s.now = func() time.Time { return clock }
	b := s.StartBenchmark()

	for round := 0; round < 5; round++ {
		for i := 0; i < 30; i++ {
			s.Step(m, controls)
		}
		clock = clock.Add(time.Second)
		testutil.AssertFloat64Equal(t, "speed", 3.0, s.MeasureSpeed(b), 1e-9)
	}
}

func TestBenchmark_HasRealTimePassed(t *testing.T) {
	m := testutil.TwoBlocks(t)
	s := New(m, seeded(1))
	clock := time.Unix(0, 0)
	s.now = func() time.Time { return clock }
	b := s.StartBenchmark()

	assert.False(t, b.HasRealTimePassed(time.Second))
	clock = clock.Add(time.Second)
	assert.True(t, b.HasRealTimePassed(time.Second))

	s.MeasureSpeed(b)
	assert.False(t, b.HasRealTimePassed(time.Second))
}
