// Package trace provides spawn decision recording for the simulation core.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AgentKind names what a spawn request tried to create.
type AgentKind string

const (
	KindCar        AgentKind = "car"
	KindPedestrian AgentKind = "pedestrian"
)

// Outcome is the result of one commit-phase spawn decision.
type Outcome string

const (
	OutcomeSpawned Outcome = "spawned"
	OutcomeFailed  Outcome = "failed"
)

// Failure reasons recorded with OutcomeFailed.
const (
	ReasonNoPath        = "no path"
	ReasonNoParkingLane = "no parking lane"
	ReasonNoParkedCar   = "no parked car"
	ReasonLaneOccupied  = "lane occupied"
	ReasonUnsupported   = "unsupported lane type"
)

// SpawnRecord captures a single spawn decision.
type SpawnRecord struct {
	Tick    int64     `json:"tick"`
	Kind    AgentKind `json:"kind"`
	Start   int       `json:"start"`
	Goal    int       `json:"goal"`
	Outcome Outcome   `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
	AgentID *int      `json:"agent_id,omitempty"` // id of the spawned agent; nil on failure
}
