package trace

// TraceSummary aggregates statistics from one or more SimulationTraces.
type TraceSummary struct {
	TotalDecisions     int
	RacedCount         int
	DroppedCount       int
	TotalWait          float64
	MeanWait           float64
	MaxWait            float64
	UniqueTargets      int
	TargetDistribution map[string]int // buffer ID → count of units deposited there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	for _, r := range st.Routings {
		summary.TotalDecisions++
		if r.Raced {
			summary.RacedCount++
		}
		if r.Dropped {
			summary.DroppedCount++
		} else {
			summary.TargetDistribution[r.ChosenBuffer]++
		}
		summary.TotalWait += r.Wait
		if r.Wait > summary.MaxWait {
			summary.MaxWait = r.Wait
		}
	}
	summary.finish()
	return summary
}

// Merge folds other into s. Used to combine per-replication summaries.
func (s *TraceSummary) Merge(other *TraceSummary) {
	if other == nil {
		return
	}
	s.TotalDecisions += other.TotalDecisions
	s.RacedCount += other.RacedCount
	s.DroppedCount += other.DroppedCount
	s.TotalWait += other.TotalWait
	if other.MaxWait > s.MaxWait {
		s.MaxWait = other.MaxWait
	}
	if s.TargetDistribution == nil {
		s.TargetDistribution = make(map[string]int)
	}
	for k, v := range other.TargetDistribution {
		s.TargetDistribution[k] += v
	}
	s.finish()
}

func (s *TraceSummary) finish() {
	s.MeanWait = 0
	if s.TotalDecisions > 0 {
		s.MeanWait = s.TotalWait / float64(s.TotalDecisions)
	}
	s.UniqueTargets = len(s.TargetDistribution)
}
