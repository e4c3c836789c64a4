// Package replication executes independent replications of a line, optionally
// in parallel, and collects their summary rows in iteration order.
package replication

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/assembly-sim/assembly-sim/sim"
	"github.com/assembly-sim/assembly-sim/sim/stats"
	"github.com/assembly-sim/assembly-sim/sim/trace"
)

// Config describes a batch of replications.
type Config struct {
	Iterations  int
	MasterSeed  uint64
	Parallelism int // replications in flight at once; <= 0 uses GOMAXPROCS
	Topology    sim.Topology
	Means       sim.Means
	Line        sim.LineConfig
	Trace       trace.TraceConfig
}

// Validate checks the batch parameters and everything a line is built from.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if err := c.Topology.Validate(); err != nil {
		return err
	}
	if err := c.Means.Validate(&c.Topology); err != nil {
		return err
	}
	if err := c.Line.Validate(); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions", c.Trace.Level)
	}
	return nil
}

func (c Config) workers() int {
	n := c.Parallelism
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > c.Iterations {
		n = c.Iterations
	}
	return n
}

// Result is what survives of one replication once its line is discarded.
type Result struct {
	Iteration int
	Seed      int64
	Rows      []stats.SummaryRow
	Events    int64
	Trace     *trace.TraceSummary // nil unless tracing is enabled
}

// Outcome collects every replication of a batch.
type Outcome struct {
	Results []Result
	Trace   *trace.TraceSummary // merged over all replications; nil unless tracing is enabled
}

// Rows returns every summary row in iteration order.
func (o *Outcome) Rows() []stats.SummaryRow {
	var rows []stats.SummaryRow
	for _, r := range o.Results {
		rows = append(rows, r.Rows...)
	}
	return rows
}

// ProgressFunc is called once per finished replication with the number done so
// far. Calls are serialized but may arrive from any worker goroutine.
type ProgressFunc func(done, total int)

// Runner executes a batch of replications.
type Runner struct {
	cfg      Config
	progress ProgressFunc
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg}, nil
}

// OnProgress registers fn to be called as replications finish.
func (r *Runner) OnProgress(fn ProgressFunc) *Runner {
	r.progress = fn
	return r
}

// Seeds returns the per-replication seeds the batch will use.
func (r *Runner) Seeds() []int64 {
	return sim.ReplicationSeeds(r.cfg.MasterSeed, r.cfg.Iterations)
}

// Run executes every replication and returns them in iteration order. The
// outcome does not depend on Parallelism. Cancelling ctx stops workers from
// starting further replications; the first error aborts the batch.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	seeds := r.Seeds()
	results := make([]Result, len(seeds))
	workers := r.cfg.workers()
	logrus.Infof("running %d replications (master seed %d, %d workers, horizon %.2f, warm-up %.2f)",
		len(seeds), r.cfg.MasterSeed, workers, r.cfg.Line.Horizon, r.cfg.Line.WarmUp)

	var (
		mu   sync.Mutex
		done int
	)
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(workers).WithCancelOnError()
	for i, seed := range seeds {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.runOne(i, seed)
			if err != nil {
				return err
			}
			results[i] = res
			if r.progress != nil {
				mu.Lock()
				done++
				r.progress(done, len(seeds))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := &Outcome{Results: results}
	if r.cfg.Trace.Enabled() {
		out.Trace = &trace.TraceSummary{TargetDistribution: make(map[string]int)}
		for _, res := range results {
			out.Trace.Merge(res.Trace)
		}
	}
	return out, nil
}

func (r *Runner) runOne(iteration int, seed int64) (Result, error) {
	var st *trace.SimulationTrace
	if r.cfg.Trace.Enabled() {
		st = trace.NewSimulationTrace(r.cfg.Trace)
	}
	run, err := sim.Replicate(iteration, seed, r.cfg.Topology, r.cfg.Means, r.cfg.Line, st)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Iteration: iteration,
		Seed:      seed,
		Rows:      stats.ReduceRun(run),
		Events:    run.Line.Engine.Processed(),
	}
	if st != nil {
		res.Trace = trace.Summarize(st)
	}
	logrus.Debugf("replication %d (seed %d) done: %d events", iteration, seed, res.Events)
	return res, nil
}
