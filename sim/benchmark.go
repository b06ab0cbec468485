package sim

import "time"

// Benchmark measures how fast simulated time advances against real time.
type Benchmark struct {
	lastRealTime time.Time
	lastSimTime  Tick
	clock        func() time.Time
}

// StartBenchmark snapshots the current real and simulated time.
func (s *Sim) StartBenchmark() *Benchmark {
	return &Benchmark{lastRealTime: s.now(), lastSimTime: s.time, clock: s.now}
}

// MeasureSpeed returns simulated seconds per real second since the last
// measurement and resets the benchmark. Returns 0 when no simulated time has
// passed.
func (s *Sim) MeasureSpeed(b *Benchmark) float64 {
	now := s.now()
	realElapsed := now.Sub(b.lastRealTime).Seconds()
	simElapsed := (s.time - b.lastSimTime).Seconds()
	b.lastRealTime = now
	b.lastSimTime = s.time
	if simElapsed == 0 || realElapsed <= 0 {
		return 0
	}
	return simElapsed / realElapsed
}

// HasRealTimePassed reports whether at least d of real time elapsed since
// the last measurement.
func (b *Benchmark) HasRealTimePassed(d time.Duration) bool {
	return b.clock().Sub(b.lastRealTime) >= d
}
