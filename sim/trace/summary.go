package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalProbes        int
	SpyHits            int
	SpyMisses          int
	VictimAccesses     int
	VictimNoops        int
	NoiseAccesses      int
	TargetedEvictions  int
	InconclusiveRounds int
	TruncatedIters     int
	MissesPerSpy       map[int]int // spy ID → number of missed probes
}

// SpyMissRate is the fraction of spy probes that missed.
func (s *TraceSummary) SpyMissRate() float64 {
	total := s.SpyHits + s.SpyMisses
	if total == 0 {
		return 0
	}
	return float64(s.SpyMisses) / float64(total)
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		MissesPerSpy: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalProbes = len(st.Probes)
	for _, p := range st.Probes {
		switch p.Role {
		case RoleSpy:
			if p.Hit {
				summary.SpyHits++
			} else {
				summary.SpyMisses++
				summary.MissesPerSpy[p.ActorID]++
			}
		case RoleVictim:
			if p.Accessed {
				summary.VictimAccesses++
			} else {
				summary.VictimNoops++
			}
		case RoleNoise:
			summary.NoiseAccesses++
		}
	}

	summary.TargetedEvictions = len(st.Evictions)
	for _, r := range st.Rounds {
		if r.Bit < 0 {
			summary.InconclusiveRounds++
		}
	}
	for _, it := range st.Iterations {
		if it.Truncated {
			summary.TruncatedIters++
		}
	}

	return summary
}
