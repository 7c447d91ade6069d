package trace

// TraceLevel controls the verbosity of probe tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelProbes captures every probe, targeted eviction and round.
	TraceLevelProbes TraceLevel = "probes"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelProbes: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a scenario run.
type SimulationTrace struct {
	Config     TraceConfig
	Probes     []ProbeRecord
	Evictions  []EvictionRecord
	Rounds     []RoundRecord
	Iterations []IterationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Probes:     make([]ProbeRecord, 0),
		Evictions:  make([]EvictionRecord, 0),
		Rounds:     make([]RoundRecord, 0),
		Iterations: make([]IterationRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelProbes
}

// RecordProbe appends a probe record.
func (st *SimulationTrace) RecordProbe(record ProbeRecord) {
	st.Probes = append(st.Probes, record)
}

// RecordEviction appends a targeted eviction record.
func (st *SimulationTrace) RecordEviction(record EvictionRecord) {
	st.Evictions = append(st.Evictions, record)
}

// RecordRound appends a cross-core round record.
func (st *SimulationTrace) RecordRound(record RoundRecord) {
	st.Rounds = append(st.Rounds, record)
}

// RecordIteration appends an iteration record.
func (st *SimulationTrace) RecordIteration(record IterationRecord) {
	st.Iterations = append(st.Iterations, record)
}

// ProbesIn returns the probe records of one iteration, in recording order.
func (st *SimulationTrace) ProbesIn(iteration int) []ProbeRecord {
	if st == nil {
		return nil
	}
	var out []ProbeRecord
	for _, p := range st.Probes {
		if p.Iteration == iteration {
			out = append(out, p)
		}
	}
	return out
}
