package stats

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default replication-sizing parameters.
const (
	DefaultRelativeError = 0.01
	DefaultConfidence    = 0.95
)

// Criterion is the target precision for replication sizing: a relative error
// of the mean at a two-sided confidence level.
type Criterion struct {
	RelativeError float64 // e.g. 0.01 for 1% of the mean
	Confidence    float64 // e.g. 0.95
}

// DefaultCriterion returns 1% relative error at 95% confidence.
func DefaultCriterion() Criterion {
	return Criterion{RelativeError: DefaultRelativeError, Confidence: DefaultConfidence}
}

// Validate checks that both parameters lie strictly inside (0, 1).
func (c Criterion) Validate() error {
	if math.IsNaN(c.RelativeError) || c.RelativeError <= 0 || c.RelativeError >= 1 {
		return fmt.Errorf("criterion relative error must be in (0, 1), got %f", c.RelativeError)
	}
	if math.IsNaN(c.Confidence) || c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("criterion confidence must be in (0, 1), got %f", c.Confidence)
	}
	return nil
}

// Z returns the two-sided standard normal quantile for the confidence level.
func (c Criterion) Z() float64 {
	return distuv.UnitNormal.Quantile(c.upperTail())
}

// T returns the two-sided Student-t quantile with df degrees of freedom.
func (c Criterion) T(df int) float64 {
	if df < 1 {
		return math.NaN()
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(c.upperTail())
}

func (c Criterion) upperTail() float64 {
	return 1 - (1-c.Confidence)/2
}

// Report is the cross-replication estimate of one metric for one group.
type Report struct {
	Group        string  `json:"group"`
	Metric       string  `json:"metric"`
	Replications int     `json:"replications"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	StdErr       float64 `json:"std_err"`
	// HalfWidth uses the Student-t quantile at Replications-1 degrees of freedom.
	HalfWidth float64 `json:"half_width"`
	// RequiredReplications is (StdDev * z / (RelativeError * Mean))^2.
	RequiredReplications float64 `json:"required_replications"`
}

// RequiredRuns rounds RequiredReplications up to a whole run count. Returns -1
// when the estimate is undefined (NaN or infinite).
func (r Report) RequiredRuns() int {
	if math.IsNaN(r.RequiredReplications) || math.IsInf(r.RequiredReplications, 0) {
		return -1
	}
	return int(math.Ceil(r.RequiredReplications))
}

// Interval returns the confidence interval Mean ± HalfWidth.
func (r Report) Interval() (lo, hi float64) {
	return r.Mean - r.HalfWidth, r.Mean + r.HalfWidth
}

// NewReport estimates mean, sample standard deviation and standard error of
// values, skipping NaNs. With fewer than two values the spread is NaN.
func NewReport(group, metric string, values []float64, c Criterion) Report {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	r := Report{Group: group, Metric: metric, Replications: len(clean)}
	switch len(clean) {
	case 0:
		r.Mean, r.StdDev, r.StdErr, r.HalfWidth, r.RequiredReplications = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return r
	case 1:
		r.Mean = clean[0]
		r.StdDev, r.StdErr, r.HalfWidth, r.RequiredReplications = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return r
	}
	r.Mean, r.StdDev = stat.MeanStdDev(clean, nil)
	n := float64(len(clean))
	r.StdErr = stat.StdErr(r.StdDev, n)
	r.HalfWidth = c.T(len(clean)-1) * r.StdErr
	r.RequiredReplications = RequiredReplications(r.Mean, r.StdDev, c)
	return r
}

// RequiredReplications estimates how many runs bring the confidence half-width
// down to c.RelativeError * mean.
func RequiredReplications(mean, stdDev float64, c Criterion) float64 {
	criterion := c.RelativeError * mean
	return math.Pow(stdDev*c.Z()/criterion, 2)
}

// Metric extracts one column of a summary row.
type Metric struct {
	Name  string
	Value func(SummaryRow) float64
}

// The columns reports are usually built over.
var (
	MetricUtilization       = Metric{Name: "utilization", Value: func(r SummaryRow) float64 { return r.Utilization }}
	MetricThroughput        = Metric{Name: "throughput", Value: func(r SummaryRow) float64 { return r.Throughput }}
	MetricServiceTimeMean   = Metric{Name: "service_time_mean", Value: func(r SummaryRow) float64 { return r.ServiceTimeMean }}
	MetricTotalIdleTime     = Metric{Name: "total_idle_time", Value: func(r SummaryRow) float64 { return r.TotalIdleTime }}
	MetricAverageIdleLength = Metric{Name: "average_idle_length", Value: func(r SummaryRow) float64 { return r.AverageIdleLength }}
)

// GroupKey maps a row to the group it is aggregated under.
type GroupKey func(SummaryRow) string

// ByEntity groups rows by entity id.
func ByEntity(r SummaryRow) string { return r.EntityID }

// ByComponent groups rows by component.
func ByComponent(r SummaryRow) string { return r.Component }

// ByInspectorComponent groups inspector rows by (inspector, component) pair.
func ByInspectorComponent(r SummaryRow) string { return r.EntityID + "/" + r.Component }

// Aggregate groups rows of the given kind and reports metric per group, groups
// in ascending order. Each group contributes at most one value per iteration,
// the first row seen, so inspector-level fields repeated across component rows
// are counted once.
func Aggregate(rows []SummaryRow, kind EntityKind, group GroupKey, metric Metric, c Criterion) []Report {
	return reportGroups(collect(rows, kind, group, metric, false), metric, c)
}

// Total is Aggregate for additive metrics: the values of every row sharing a
// group and iteration are summed, so a component produced by several
// inspectors reports its line-wide count.
func Total(rows []SummaryRow, kind EntityKind, group GroupKey, metric Metric, c Criterion) []Report {
	return reportGroups(collect(rows, kind, group, metric, true), metric, c)
}

// collect returns one value per (group, iteration), in row order within a group.
func collect(rows []SummaryRow, kind EntityKind, group GroupKey, metric Metric, sum bool) map[string][]float64 {
	type key struct {
		group     string
		iteration int
	}
	at := make(map[key]int)
	values := make(map[string][]float64)
	for _, r := range rows {
		if r.Kind != kind {
			continue
		}
		k := key{group: group(r), iteration: r.Iteration}
		if i, ok := at[k]; ok {
			if sum {
				values[k.group][i] += metric.Value(r)
			}
			continue
		}
		at[k] = len(values[k.group])
		values[k.group] = append(values[k.group], metric.Value(r))
	}
	return values
}

func reportGroups(values map[string][]float64, metric Metric, c Criterion) []Report {
	groups := make([]string, 0, len(values))
	for g := range values {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	reports := make([]Report, 0, len(groups))
	for _, g := range groups {
		reports = append(reports, NewReport(g, metric.Name, values[g], c))
	}
	return reports
}

// Scale multiplies the location and spread estimates of r by k. The required
// replication count is scale-invariant and is kept.
func (r Report) Scale(metric string, k float64) Report {
	r.Metric = metric
	r.Mean *= k
	r.StdDev *= k
	r.StdErr *= k
	r.HalfWidth *= k
	return r
}
