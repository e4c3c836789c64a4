package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.RacedCount != 0 || summary.DroppedCount != 0 {
		t.Error("expected 0 raced and dropped")
	}
	if summary.UniqueTargets != 0 {
		t.Errorf("expected 0 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.MeanWait != 0 || summary.MaxWait != 0 {
		t.Error("expected 0 wait values")
	}
	if len(summary.TargetDistribution) != 0 {
		t.Error("expected empty target distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.TargetDistribution == nil {
		t.Errorf("expected zero summary with initialized map, got %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with direct, raced and dropped decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordRouting(RoutingRecord{InspectorID: "1", ChosenBuffer: "w1c1"})
	st.RecordRouting(RoutingRecord{InspectorID: "1", ChosenBuffer: "w2c1", Raced: true, Wait: 4})
	st.RecordRouting(RoutingRecord{InspectorID: "2", Dropped: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDecisions != 3 {
		t.Errorf("expected 3 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.RacedCount != 1 {
		t.Errorf("expected 1 raced, got %d", summary.RacedCount)
	}
	if summary.DroppedCount != 1 {
		t.Errorf("expected 1 dropped, got %d", summary.DroppedCount)
	}
	if summary.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", summary.UniqueTargets)
	}
}

func TestSummarize_WaitStatistics_CorrectMeanAndMax(t *testing.T) {
	// GIVEN routing records with known waits
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w1c1", Wait: 1})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w1c1", Wait: 5})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w2c1", Wait: 0})

	// WHEN summarized
	summary := Summarize(st)

	// THEN mean wait = 2 and max wait = 5
	if summary.MeanWait != 2 {
		t.Errorf("expected mean wait 2, got %.4f", summary.MeanWait)
	}
	if summary.MaxWait != 5 {
		t.Errorf("expected max wait 5, got %.4f", summary.MaxWait)
	}
}

func TestSummarize_TargetDistribution_CountsPerBuffer(t *testing.T) {
	// GIVEN routing to the same buffer multiple times
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w1c1"})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w1c1"})
	st.RecordRouting(RoutingRecord{ChosenBuffer: "w3c1"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN target distribution reflects counts
	if summary.TargetDistribution["w1c1"] != 2 {
		t.Errorf("expected w1c1 count 2, got %d", summary.TargetDistribution["w1c1"])
	}
	if summary.TargetDistribution["w3c1"] != 1 {
		t.Errorf("expected w3c1 count 1, got %d", summary.TargetDistribution["w3c1"])
	}
}

func TestTraceSummary_Merge_CombinesReplications(t *testing.T) {
	// GIVEN two per-replication summaries
	a := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	a.RecordRouting(RoutingRecord{ChosenBuffer: "w1c1", Wait: 2})
	b := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	b.RecordRouting(RoutingRecord{ChosenBuffer: "w2c1", Wait: 6, Raced: true})
	b.RecordRouting(RoutingRecord{Dropped: true})

	// WHEN merged into an empty summary
	total := &TraceSummary{}
	total.Merge(Summarize(a))
	total.Merge(Summarize(b))
	total.Merge(nil)

	// THEN totals and derived fields cover both
	if total.TotalDecisions != 3 || total.RacedCount != 1 || total.DroppedCount != 1 {
		t.Errorf("unexpected counts: %+v", total)
	}
	if total.MeanWait != 8.0/3.0 {
		t.Errorf("expected mean wait %v, got %v", 8.0/3.0, total.MeanWait)
	}
	if total.MaxWait != 6 {
		t.Errorf("expected max wait 6, got %v", total.MaxWait)
	}
	if total.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", total.UniqueTargets)
	}
}
