// Package stats reduces finished replications into per-run summary rows and
// aggregates those rows into confidence reports.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/assembly-sim/assembly-sim/sim"
)

// EntityKind distinguishes inspector rows from workstation rows.
type EntityKind string

const (
	KindInspector   EntityKind = "inspector"
	KindWorkstation EntityKind = "workstation"
)

// SummaryRow is the reduction of one entity's histories over one run.
// Inspector rows are emitted per (inspector, component); the idle-related
// fields describe the whole inspector and repeat on each of its rows.
type SummaryRow struct {
	Iteration           int        `json:"iteration"`
	Kind                EntityKind `json:"kind"`
	EntityID            string     `json:"entity_id"`
	Component           string     `json:"component,omitempty"`
	ServiceTimeMean     float64    `json:"service_time_mean"`
	ServiceTimeVariance float64    `json:"service_time_variance"`
	Throughput          float64    `json:"throughput"`
	TotalIdleTime       float64    `json:"total_idle_time"`
	Utilization         float64    `json:"utilization"`
	AverageIdleLength   float64    `json:"average_idle_length"`
}

// ReduceWorkstation summarizes one workstation over a recording window.
func ReduceWorkstation(iteration int, ws *sim.Workstation, window float64) SummaryRow {
	mean, variance := serviceMoments(ws.ProcessingTimes)
	idle := idleFields(ws.Completed, ws.WaitTimes, window)
	return SummaryRow{
		Iteration:           iteration,
		Kind:                KindWorkstation,
		EntityID:            ws.ID(),
		ServiceTimeMean:     mean,
		ServiceTimeVariance: variance,
		Throughput:          float64(ws.Completed),
		TotalIdleTime:       idle.total,
		Utilization:         idle.utilization,
		AverageIdleLength:   idle.average,
	}
}

// ReduceInspector summarizes one inspector, one row per component it handles.
func ReduceInspector(iteration int, insp *sim.Inspector, window float64) []SummaryRow {
	idle := idleFields(insp.TotalCompleted(), insp.WaitTimes, window)
	rows := make([]SummaryRow, 0, len(insp.Components()))
	for _, c := range insp.Components() {
		mean, variance := serviceMoments(insp.InspectionTimes[c])
		rows = append(rows, SummaryRow{
			Iteration:           iteration,
			Kind:                KindInspector,
			EntityID:            insp.ID(),
			Component:           string(c),
			ServiceTimeMean:     mean,
			ServiceTimeVariance: variance,
			Throughput:          float64(insp.Completed[c]),
			TotalIdleTime:       idle.total,
			Utilization:         idle.utilization,
			AverageIdleLength:   idle.average,
		})
	}
	return rows
}

// ReduceRun summarizes every entity of a finished run: workstations first, then
// inspectors, each in topology order. The run is only read, so reducing it
// again yields identical rows.
func ReduceRun(run *sim.Run) []SummaryRow {
	window := run.Window()
	rows := make([]SummaryRow, 0, len(run.Line.Workstations)+2*len(run.Line.Inspectors))
	for _, ws := range run.Line.Workstations {
		rows = append(rows, ReduceWorkstation(run.Iteration, ws, window))
	}
	for _, insp := range run.Line.Inspectors {
		rows = append(rows, ReduceInspector(run.Iteration, insp, window)...)
	}
	return rows
}

// serviceMoments returns the mean and population variance of samples, or NaN
// for both when there are none.
func serviceMoments(samples []float64) (mean, variance float64) {
	if len(samples) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanVariance(samples, nil)
}

type idleSummary struct {
	total       float64
	utilization float64
	average     float64
}

// idleFields derives idle time, utilization and average idle-interval length.
// An entity with no completed cycle is taken to have idled the whole window.
func idleFields(completed int, waits []float64, window float64) idleSummary {
	var s idleSummary
	if completed == 0 {
		s.total = window
		s.average = window
	} else {
		s.total = floats.Sum(waits)
		s.average = meanNonZero(waits)
	}
	s.utilization = utilization(s.total, window)
	return s
}

// utilization is (window - idle) / window clamped to [0, 1]; idle intervals that
// began before the cutoff can push the raw ratio below zero. NaN when window is 0.
func utilization(idle, window float64) float64 {
	if window == 0 {
		return math.NaN()
	}
	return math.Max(0, math.Min(1, (window-idle)/window))
}

// meanNonZero averages the strictly positive waits; a cycle that did not wait
// contributes no idle interval. NaN when every wait was zero.
func meanNonZero(waits []float64) float64 {
	nonZero := make([]float64, 0, len(waits))
	for _, w := range waits {
		if w != 0 {
			nonZero = append(nonZero, w)
		}
	}
	if len(nonZero) == 0 {
		return math.NaN()
	}
	return stat.Mean(nonZero, nil)
}
