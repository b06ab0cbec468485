package trace

// TraceLevel controls the verbosity of spawn tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSpawns captures every commit-phase spawn decision.
	TraceLevelSpawns TraceLevel = "spawns"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelSpawns: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `json:"level" yaml:"level"`
}

// SpawnTrace collects spawn decision records during a simulation.
type SpawnTrace struct {
	Config TraceConfig   `json:"config"`
	Spawns []SpawnRecord `json:"spawns"`
}

// NewSpawnTrace creates a SpawnTrace ready for recording.
func NewSpawnTrace(config TraceConfig) *SpawnTrace {
	return &SpawnTrace{
		Config: config,
		Spawns: make([]SpawnRecord, 0),
	}
}

// Enabled reports whether records are kept at all.
func (st *SpawnTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelSpawns
}

// RecordSpawn appends a spawn decision record. No-op when tracing is disabled.
func (st *SpawnTrace) RecordSpawn(record SpawnRecord) {
	if !st.Enabled() {
		return
	}
	st.Spawns = append(st.Spawns, record)
}
