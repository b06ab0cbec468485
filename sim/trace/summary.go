package trace

import (
	"github.com/samber/lo"
)

// TraceSummary aggregates statistics from a SpawnTrace.
type TraceSummary struct {
	TotalDecisions     int
	SpawnedCount       int
	FailedCount        int
	CarAttempts        int
	PedestrianAttempts int
	FailureReasons     map[string]int // reason → count of failed spawns
}

// Summarize computes aggregate statistics from a SpawnTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SpawnTrace) *TraceSummary {
	summary := &TraceSummary{
		FailureReasons: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Spawns)
	for _, r := range st.Spawns {
		if r.Outcome == OutcomeSpawned {
			summary.SpawnedCount++
		} else {
			summary.FailedCount++
			summary.FailureReasons[r.Reason]++
		}
	}
	byKind := lo.CountValuesBy(st.Spawns, func(r SpawnRecord) AgentKind { return r.Kind })
	summary.CarAttempts = byKind[KindCar]
	summary.PedestrianAttempts = byKind[KindPedestrian]

	return summary
}
