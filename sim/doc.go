// Package sim provides the deterministic, tick-stepped core of the traffic
// simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - sim.go: the Sim orchestrator, its Step protocol, map-edit hooks and queries
//   - spawn.go: agent spawning (sequential plan, parallel pathfinding, sequential commit)
//   - rng.go: the single seeded random stream every draw comes from
//
// # Architecture
//
// The sim package defines interfaces and bridge types; implementations live in
// sub-packages:
//   - sim/driving/: moving vehicles, queued per lane and turn
//   - sim/parking/: parked vehicles, per-lane parking spots
//   - sim/walking/: pedestrians on sidewalks and crosswalks
//   - sim/intersection/: turn arbitration under stop signs and signals
//   - sim/roadnet/: the road network, its YAML format and a grid generator
//   - sim/pathfind/: shortest lane paths and the bounded pathfinding fan-out
//   - sim/control/: intersection control policies
//   - sim/analytics/: finished-trip analytics and baseline comparison
//   - sim/trace/: spawn decision trace recording
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewDrivingSimFunc, RestoreDrivingSimFunc, ...).
//
// # Key Interfaces
//
//   - DrivingSim: vehicle movement, turn requests, arrivals
//   - ParkingSim: spot allocation and the last-parked car of a lane
//   - WalkingSim: pedestrian movement and pedestrian id minting
//   - IntersectionSim: turn requests posted during a tick, resolved at its end
package sim
