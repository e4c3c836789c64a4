package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"golang.org/x/exp/slices"

	"github.com/assembly-sim/assembly-sim/sim/stats"
	"github.com/assembly-sim/assembly-sim/sim/trace"
)

// printAnalysis writes the standard reports as aligned text tables.
func printAnalysis(w io.Writer, a stats.Analysis) {
	fmt.Fprintln(w, "=== Replication Analysis ===")
	fmt.Fprintf(w, "Recording window     : %.2f\n", a.Window)
	fmt.Fprintf(w, "Criterion            : %.2f%% relative error at %.0f%% confidence\n",
		a.Criterion.RelativeError*100, a.Criterion.Confidence*100)
	printReports(w, "Workstation Utilization", a.WorkstationUtilization)
	printReports(w, "Workstation Throughput", a.WorkstationThroughput)
	printReports(w, "Workstation Throughput per Hour", a.ThroughputPerHour)
	printReports(w, "Workstation Processing Time", a.ProcessingTime)
	printReports(w, "Workstation Idle Time", a.WorkstationIdleTime)
	printReports(w, "Workstation Idle Interval Length", a.WorkstationIdleLength)
	printReports(w, "Inspector Utilization", a.InspectorUtilization)
	printReports(w, "Component Throughput", a.ComponentThroughput)
	printReports(w, "Inspection Time per Inspector and Component", a.InspectionTime)
	printSpread(w, "Workstation Utilization Spread", a.UtilizationSpread)
}

func printReports(w io.Writer, title string, reports []stats.Report) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "group\tn\tmean\tstd dev\tstd err\thalf-width\trequired n\t")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Group, r.Replications, num(r.Mean), num(r.StdDev), num(r.StdErr), num(r.HalfWidth), runs(r))
	}
	tw.Flush()
}

func printSpread(w io.Writer, title string, spread []stats.Distribution) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "group\tn\tmin\tp50\tp95\tmax\t")
	for _, d := range spread {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n", d.Group, d.Count, num(d.Min), num(d.P50), num(d.P95), num(d.Max))
	}
	tw.Flush()
}

// printTraceSummary writes routing decision totals across all replications.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "\n=== Routing Trace ===")
	fmt.Fprintf(w, "Decisions            : %d\n", s.TotalDecisions)
	fmt.Fprintf(w, "Raced                : %d\n", s.RacedCount)
	fmt.Fprintf(w, "Dropped              : %d\n", s.DroppedCount)
	fmt.Fprintf(w, "Mean blocked time    : %.4f\n", s.MeanWait)
	fmt.Fprintf(w, "Max blocked time     : %.4f\n", s.MaxWait)
	for _, id := range sortedKeys(s.TargetDistribution) {
		fmt.Fprintf(w, "  %-18s : %d\n", id, s.TargetDistribution[id])
	}
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func runs(r stats.Report) string {
	if n := r.RequiredRuns(); n >= 0 {
		return fmt.Sprint(n)
	}
	return "n/a"
}

// Results is the JSON document written to --results-path.
type Results struct {
	Config   *RunConfig          `json:"config"`
	Means    map[string]float64  `json:"means"`
	Rows     []stats.SummaryRow  `json:"rows"`
	Analysis stats.Analysis      `json:"analysis"`
	Trace    *trace.TraceSummary `json:"trace,omitempty"`
}

func writeResults(path string, res Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
