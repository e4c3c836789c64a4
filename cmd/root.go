package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/assembly-sim/assembly-sim/sim"
	"github.com/assembly-sim/assembly-sim/sim/replication"
	"github.com/assembly-sim/assembly-sim/sim/stats"
)

var (
	// CLI flags for the run configuration
	configPath     string  // Run configuration file (defaults.yaml)
	iterations     int     // Number of replications
	horizon        float64 // Simulated time per replication
	seed           uint64  // Master seed for per-replication seeds
	warmUp         float64 // Start-of-recording cutoff
	bufferCapacity int     // Capacity of every buffer without an explicit one
	routingPolicy  string  // Routing policy for single-component inspectors
	parallelism    int     // Replications in flight at once (0 = GOMAXPROCS)
	relativeError  float64 // Target relative error for replication sizing
	confidence     float64 // Two-sided confidence level
	topologyPath   string  // Optional topology YAML; default is the three-station line
	traceLevel     string  // Routing decision trace level
	resultsPath    string  // Optional JSON output of rows and reports
	logLevel       string  // Log verbosity level
	showProgress   bool    // Log progress while replications run

	// Mean-rate sources
	meansPath string // YAML map of named means
	dataDir   string // Directory of historical sample files
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "assembly-sim",
	Short: "Discrete-event simulator for a three-station assembly line",
}

// runCmd replicates the line and prints confidence reports
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the replications and report utilization and throughput",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		rc, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid run configuration: %v", err)
		}

		topo, err := loadTopology(rc)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		named, source, err := loadNamedMeans(rc)
		if err != nil {
			logrus.Fatalf("Failed to load means: %v", err)
		}
		means, err := sim.MeansFromNamed(named, &topo)
		if err != nil {
			logrus.Fatalf("Invalid means from %s: %v", source, err)
		}
		logrus.Infof("Means from %s: %v", source, named)

		runner, err := replication.NewRunner(rc.replicationConfig(topo, means))
		if err != nil {
			if errors.Is(err, sim.ErrNoInputBuffers) {
				logrus.Fatalf("Topology error: %v", err)
			}
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if rc.Progress {
			runner.OnProgress(func(done, total int) {
				if done == total || done%progressEvery(total) == 0 {
					logrus.Infof("Progress: %d/%d replications", done, total)
				}
			})
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		startTime := time.Now()
		outcome, err := runner.Run(ctx)
		if err != nil {
			logrus.Fatalf("Replications failed: %v", err)
		}
		rows := outcome.Rows()
		analysis := stats.Analyze(rows, rc.Line.Window(), rc.Criterion)

		printAnalysis(os.Stdout, analysis)
		if outcome.Trace != nil {
			printTraceSummary(os.Stdout, outcome.Trace)
		}
		if rc.ResultsPath != "" {
			res := Results{Config: rc, Means: named, Rows: rows, Analysis: analysis, Trace: outcome.Trace}
			if err := writeResults(rc.ResultsPath, res); err != nil {
				logrus.Fatalf("Failed to write results: %v", err)
			}
			logrus.Infof("Results written to %s", rc.ResultsPath)
		}
		logrus.Infof("Elapsed time for %d iterations: %s", rc.Iterations, time.Since(startTime))
		logrus.Info("Simulation complete.")
	},
}

// progressEvery logs roughly every tenth of the batch.
func progressEvery(total int) int {
	if total < 10 {
		return 1
	}
	return total / 10
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags defines the run flags on cmd, bound to the package flag variables.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "defaults.yaml", "Run configuration file (flags and ASSEMBLY_SIM_* env override it)")
	cmd.Flags().IntVar(&iterations, "iterations", 200, "Number of independent replications")
	cmd.Flags().Float64Var(&horizon, "horizon", 480, "Simulated time per replication (minutes)")
	cmd.Flags().Uint64Var(&seed, "seed", 12345, "Master seed from which per-replication seeds are drawn")
	cmd.Flags().Float64Var(&warmUp, "warm-up", 60, "Start-of-recording cutoff; cycles completing earlier are not recorded")
	cmd.Flags().IntVar(&bufferCapacity, "buffer-capacity", sim.DefaultBufferCapacity, "Capacity of buffers without an explicit capacity")
	cmd.Flags().StringVar(&routingPolicy, "routing", sim.DefaultRoutingPolicy, "Routing for single-component inspectors (priority, random, first-match)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Replications run concurrently (0 = GOMAXPROCS)")
	cmd.Flags().Float64Var(&relativeError, "criterion", stats.DefaultRelativeError, "Target relative error for replication sizing")
	cmd.Flags().Float64Var(&confidence, "confidence", stats.DefaultConfidence, "Two-sided confidence level")
	cmd.Flags().StringVar(&topologyPath, "topology", "", "Topology YAML (default: the three-station line)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Routing decision trace level (none, decisions)")
	cmd.Flags().StringVar(&resultsPath, "results-path", "", "Write summary rows and reports as JSON to this file")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Log progress while replications run")

	cmd.Flags().StringVar(&meansPath, "means", "", "YAML file mapping C1, C2, C3, ws1, ws2, ws3 to mean service times")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory of historical samples (servinsp1.dat, servinsp22.dat, servinsp23.dat, ws1.dat..ws3.dat)")
	cmd.MarkFlagsMutuallyExclusive("means", "data-dir")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
