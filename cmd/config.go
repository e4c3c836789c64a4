package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/assembly-sim/assembly-sim/sim"
	"github.com/assembly-sim/assembly-sim/sim/replication"
	"github.com/assembly-sim/assembly-sim/sim/stats"
	"github.com/assembly-sim/assembly-sim/sim/trace"
)

// envPrefix namespaces environment overrides, e.g. ASSEMBLY_SIM_WARM_UP.
const envPrefix = "ASSEMBLY_SIM"

// FileConfig is the structure of defaults.yaml. Keys mirror the run flags.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type FileConfig struct {
	Iterations     *int               `yaml:"iterations"`
	Horizon        *float64           `yaml:"horizon"`
	Seed           *uint64            `yaml:"seed"`
	WarmUp         *float64           `yaml:"warm-up"`
	BufferCapacity *int               `yaml:"buffer-capacity"`
	Routing        *string            `yaml:"routing"`
	Parallelism    *int               `yaml:"parallelism"`
	Criterion      *float64           `yaml:"criterion"`
	Confidence     *float64           `yaml:"confidence"`
	Topology       *string            `yaml:"topology"`
	TraceLevel     *string            `yaml:"trace-level"`
	ResultsPath    *string            `yaml:"results-path"`
	Log            *string            `yaml:"log"`
	Progress       *bool              `yaml:"progress"`
	Means          map[string]float64 `yaml:"means"`
}

// loadFileConfig parses a run configuration file with strict field checking.
// A missing file yields an empty FileConfig.
func loadFileConfig(path string) (*FileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &FileConfig{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, true, nil
}

// RunConfig is the fully resolved configuration of one invocation.
type RunConfig struct {
	Iterations   int                `json:"iterations"`
	Seed         uint64             `json:"seed"`
	Parallelism  int                `json:"parallelism"`
	Capacity     int                `json:"buffer_capacity"`
	Line         sim.LineConfig     `json:"line"`
	Criterion    stats.Criterion    `json:"criterion"`
	TraceLevel   trace.TraceLevel   `json:"trace_level"`
	TopologyPath string             `json:"topology,omitempty"`
	ResultsPath  string             `json:"-"`
	LogLevel     string             `json:"-"`
	Progress     bool               `json:"-"`
	MeansPath    string             `json:"-"`
	DataDir      string             `json:"-"`
	FileMeans    map[string]float64 `json:"-"`
	ConfigFile   string             `json:"-"`
}

// newViper layers configuration: explicitly set flags win over ASSEMBLY_SIM_*
// environment variables, which win over the config file, which wins over flag defaults.
func newViper(cmd *cobra.Command, path string, fileFound bool) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	if fileFound {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return v, nil
}

// resolveRunConfig merges flags, environment and the config file and validates the result.
func resolveRunConfig(cmd *cobra.Command) (*RunConfig, error) {
	path := configPath
	fc, found, err := loadFileConfig(path)
	if err != nil {
		return nil, err
	}
	if !found && cmd.Flags().Changed("config") {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	v, err := newViper(cmd, path, found)
	if err != nil {
		return nil, err
	}
	// The level may come from the file or environment; set it before logging.
	level, err := logrus.ParseLevel(v.GetString("log"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", v.GetString("log"))
	}
	logrus.SetLevel(level)
	if !found {
		logrus.Debugf("no config file at %s; using flags and environment only", path)
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		logrus.Debugf("flag --%s=%s overrides environment and config file", f.Name, f.Value)
	})

	rc := &RunConfig{
		Iterations:  v.GetInt("iterations"),
		Seed:        v.GetUint64("seed"),
		Parallelism: v.GetInt("parallelism"),
		Capacity:    v.GetInt("buffer-capacity"),
		Line: sim.LineConfig{
			Horizon: v.GetFloat64("horizon"),
			WarmUp:  v.GetFloat64("warm-up"),
			Routing: v.GetString("routing"),
		},
		Criterion: stats.Criterion{
			RelativeError: v.GetFloat64("criterion"),
			Confidence:    v.GetFloat64("confidence"),
		},
		TraceLevel:   trace.TraceLevel(v.GetString("trace-level")),
		TopologyPath: v.GetString("topology"),
		ResultsPath:  v.GetString("results-path"),
		LogLevel:     v.GetString("log"),
		Progress:     v.GetBool("progress"),
		MeansPath:    meansPath, // "means" in the file is the inline map, not a path
		DataDir:      v.GetString("data-dir"),
		FileMeans:    fc.Means,
	}
	if found {
		rc.ConfigFile = path
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

// Validate checks every resolved value.
func (rc *RunConfig) Validate() error {
	if rc.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", rc.Iterations)
	}
	if rc.Parallelism < 0 {
		return fmt.Errorf("parallelism must be >= 0, got %d", rc.Parallelism)
	}
	if rc.Capacity < 1 {
		return fmt.Errorf("buffer-capacity must be >= 1, got %d", rc.Capacity)
	}
	if err := rc.Line.Validate(); err != nil {
		return err
	}
	if err := rc.Criterion.Validate(); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(string(rc.TraceLevel)) {
		return fmt.Errorf("unknown trace-level %q; valid: none, decisions", rc.TraceLevel)
	}
	if rc.MeansPath != "" && rc.DataDir != "" {
		return fmt.Errorf("means and data-dir are mutually exclusive")
	}
	return nil
}

// loadTopology returns the configured topology with the buffer capacity applied.
func loadTopology(rc *RunConfig) (sim.Topology, error) {
	if rc.TopologyPath == "" {
		return sim.DefaultTopology(rc.Capacity), nil
	}
	t, err := sim.LoadTopology(rc.TopologyPath)
	if err != nil {
		return sim.Topology{}, err
	}
	topo := t.WithCapacity(rc.Capacity)
	if err := topo.Validate(); err != nil {
		return sim.Topology{}, fmt.Errorf("topology %s: %w", rc.TopologyPath, err)
	}
	return topo, nil
}

func (rc *RunConfig) replicationConfig(topo sim.Topology, means sim.Means) replication.Config {
	return replication.Config{
		Iterations:  rc.Iterations,
		MasterSeed:  rc.Seed,
		Parallelism: rc.Parallelism,
		Topology:    topo,
		Means:       means,
		Line:        rc.Line,
		Trace:       trace.TraceConfig{Level: rc.TraceLevel},
	}
}
