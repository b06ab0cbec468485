package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSpawnTrace(TraceConfig{Level: TraceLevelSpawns})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.SpawnedCount != 0 || summary.FailedCount != 0 {
		t.Error("expected 0 spawned and failed")
	}
	if len(summary.FailureReasons) != 0 {
		t.Error("expected empty failure reasons")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.TotalDecisions != 0 {
		t.Fatal("expected zero-value summary for nil trace")
	}
}

func TestSummarize_CountsOutcomesAndReasons(t *testing.T) {
	// GIVEN a trace with mixed outcomes
	st := NewSpawnTrace(TraceConfig{Level: TraceLevelSpawns})
	st.RecordSpawn(SpawnRecord{Kind: KindCar, Outcome: OutcomeSpawned})
	st.RecordSpawn(SpawnRecord{Kind: KindCar, Outcome: OutcomeFailed, Reason: ReasonNoPath})
	st.RecordSpawn(SpawnRecord{Kind: KindCar, Outcome: OutcomeFailed, Reason: ReasonNoParkedCar})
	st.RecordSpawn(SpawnRecord{Kind: KindPedestrian, Outcome: OutcomeFailed, Reason: ReasonNoPath})
	st.RecordSpawn(SpawnRecord{Kind: KindPedestrian, Outcome: OutcomeSpawned})

	// WHEN summarized
	summary := Summarize(st)

	// THEN totals and breakdowns match
	if summary.TotalDecisions != 5 {
		t.Errorf("expected 5 decisions, got %d", summary.TotalDecisions)
	}
	if summary.SpawnedCount != 2 || summary.FailedCount != 3 {
		t.Errorf("expected 2 spawned / 3 failed, got %d / %d", summary.SpawnedCount, summary.FailedCount)
	}
	if summary.CarAttempts != 3 || summary.PedestrianAttempts != 2 {
		t.Errorf("expected 3 car / 2 pedestrian attempts, got %d / %d", summary.CarAttempts, summary.PedestrianAttempts)
	}
	if summary.FailureReasons[ReasonNoPath] != 2 {
		t.Errorf("expected 2 no-path failures, got %d", summary.FailureReasons[ReasonNoPath])
	}
	if summary.FailureReasons[ReasonNoParkedCar] != 1 {
		t.Errorf("expected 1 no-parked-car failure, got %d", summary.FailureReasons[ReasonNoParkedCar])
	}
}
