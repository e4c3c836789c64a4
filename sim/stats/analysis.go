package stats

import (
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// Analysis is the standard set of reports produced after all replications.
type Analysis struct {
	Criterion Criterion `json:"criterion"`
	Window    float64   `json:"window"`

	WorkstationUtilization []Report `json:"workstation_utilization"`
	WorkstationThroughput  []Report `json:"workstation_throughput"`
	InspectorUtilization   []Report `json:"inspector_utilization"`
	ComponentThroughput    []Report `json:"component_throughput"`
	ProcessingTime         []Report `json:"processing_time"` // per workstation
	InspectionTime         []Report `json:"inspection_time"` // per inspector/component pair
	WorkstationIdleTime    []Report `json:"workstation_idle_time"`
	WorkstationIdleLength  []Report `json:"workstation_idle_length"` // mean length of one idle interval
	// ThroughputPerHour is WorkstationThroughput rescaled by 60 / Window,
	// assuming time is measured in minutes.
	ThroughputPerHour []Report `json:"throughput_per_hour"`
	// UtilizationSpread describes how workstation utilization varied across runs.
	UtilizationSpread []Distribution `json:"utilization_spread"`
}

// Analyze builds the standard analysis from the summary rows of every run.
// window is the recording window shared by those runs.
func Analyze(rows []SummaryRow, window float64, c Criterion) Analysis {
	a := Analysis{
		Criterion:              c,
		Window:                 window,
		WorkstationUtilization: Aggregate(rows, KindWorkstation, ByEntity, MetricUtilization, c),
		WorkstationThroughput:  Aggregate(rows, KindWorkstation, ByEntity, MetricThroughput, c),
		InspectorUtilization:   Aggregate(rows, KindInspector, ByEntity, MetricUtilization, c),
		ComponentThroughput:    Total(rows, KindInspector, ByComponent, MetricThroughput, c),
		ProcessingTime:         Aggregate(rows, KindWorkstation, ByEntity, MetricServiceTimeMean, c),
		InspectionTime:         Aggregate(rows, KindInspector, ByInspectorComponent, MetricServiceTimeMean, c),
		WorkstationIdleTime:    Aggregate(rows, KindWorkstation, ByEntity, MetricTotalIdleTime, c),
		WorkstationIdleLength:  Aggregate(rows, KindWorkstation, ByEntity, MetricAverageIdleLength, c),
	}
	perHour := math.NaN()
	if window > 0 {
		perHour = 60 / window
	}
	a.ThroughputPerHour = make([]Report, 0, len(a.WorkstationThroughput))
	for _, r := range a.WorkstationThroughput {
		a.ThroughputPerHour = append(a.ThroughputPerHour, r.Scale("throughput_per_hour", perHour))
	}
	a.UtilizationSpread = spread(rows, KindWorkstation, MetricUtilization)
	return a
}

// Distribution captures the spread of a metric across replications.
type Distribution struct {
	Group string  `json:"group"`
	Min   float64 `json:"min"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values, ignoring NaNs.
// Returns a zero-count Distribution with NaN fields for empty input.
func NewDistribution(group string, values []float64) Distribution {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		nan := math.NaN()
		return Distribution{Group: group, Min: nan, P50: nan, P95: nan, Max: nan}
	}
	slices.Sort(sorted)
	return Distribution{
		Group: group,
		Min:   sorted[0],
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

func spread(rows []SummaryRow, kind EntityKind, metric Metric) []Distribution {
	values := make(map[string][]float64)
	for _, r := range rows {
		if r.Kind == kind {
			values[r.EntityID] = append(values[r.EntityID], metric.Value(r))
		}
	}
	groups := make([]string, 0, len(values))
	for g := range values {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	out := make([]Distribution, 0, len(groups))
	for _, g := range groups {
		out = append(out, NewDistribution(g, values[g]))
	}
	return out
}
