package stats

import (
	"encoding/json"
	"math"
)

// JSON has no NaN or Inf; undefined estimates are written as null.

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON implements json.Marshaler.
func (r SummaryRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Iteration           int        `json:"iteration"`
		Kind                EntityKind `json:"kind"`
		EntityID            string     `json:"entity_id"`
		Component           string     `json:"component,omitempty"`
		ServiceTimeMean     *float64   `json:"service_time_mean"`
		ServiceTimeVariance *float64   `json:"service_time_variance"`
		Throughput          *float64   `json:"throughput"`
		TotalIdleTime       *float64   `json:"total_idle_time"`
		Utilization         *float64   `json:"utilization"`
		AverageIdleLength   *float64   `json:"average_idle_length"`
	}{
		Iteration:           r.Iteration,
		Kind:                r.Kind,
		EntityID:            r.EntityID,
		Component:           r.Component,
		ServiceTimeMean:     nullable(r.ServiceTimeMean),
		ServiceTimeVariance: nullable(r.ServiceTimeVariance),
		Throughput:          nullable(r.Throughput),
		TotalIdleTime:       nullable(r.TotalIdleTime),
		Utilization:         nullable(r.Utilization),
		AverageIdleLength:   nullable(r.AverageIdleLength),
	})
}

// MarshalJSON implements json.Marshaler.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Group                string   `json:"group"`
		Metric               string   `json:"metric"`
		Replications         int      `json:"replications"`
		Mean                 *float64 `json:"mean"`
		StdDev               *float64 `json:"std_dev"`
		StdErr               *float64 `json:"std_err"`
		HalfWidth            *float64 `json:"half_width"`
		RequiredReplications *float64 `json:"required_replications"`
		RequiredRuns         int      `json:"required_runs"`
	}{
		Group:                r.Group,
		Metric:               r.Metric,
		Replications:         r.Replications,
		Mean:                 nullable(r.Mean),
		StdDev:               nullable(r.StdDev),
		StdErr:               nullable(r.StdErr),
		HalfWidth:            nullable(r.HalfWidth),
		RequiredReplications: nullable(r.RequiredReplications),
		RequiredRuns:         r.RequiredRuns(),
	})
}

// MarshalJSON implements json.Marshaler.
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Group string   `json:"group"`
		Min   *float64 `json:"min"`
		P50   *float64 `json:"p50"`
		P95   *float64 `json:"p95"`
		Max   *float64 `json:"max"`
		Count int      `json:"count"`
	}{
		Group: d.Group,
		Min:   nullable(d.Min),
		P50:   nullable(d.P50),
		P95:   nullable(d.P95),
		Max:   nullable(d.Max),
		Count: d.Count,
	})
}
