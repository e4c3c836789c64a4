package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/assembly-sim/assembly-sim/sim/trace"
)

// Line is one fully wired instance of a topology: its engine, buffers and
// entities. A Line is built fresh for every replication and shares nothing
// with any other Line.
type Line struct {
	Engine       *Engine
	Buffers      []*Buffer
	Inspectors   []*Inspector
	Workstations []*Workstation

	config   LineConfig
	rng      *PartitionedRNG
	buffers  map[string]*Buffer
	started  bool
	finished bool
}

// NewLine validates its inputs and wires buffers, inspectors and workstations
// per topo. Each entity draws from its own stream derived from seed.
func NewLine(topo Topology, means Means, cfg LineConfig, seed int64) (*Line, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if err := means.Validate(&topo); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng := NewEngine()
	l := &Line{
		Engine:  eng,
		config:  cfg,
		rng:     NewPartitionedRNG(NewSimulationKey(seed)),
		buffers: make(map[string]*Buffer, len(topo.Buffers)),
	}
	for _, spec := range topo.Buffers {
		b, err := NewBuffer(eng, spec.ID, spec.Accepts, spec.capacityOrDefault(), spec.Initial)
		if err != nil {
			return nil, err
		}
		l.Buffers = append(l.Buffers, b)
		l.buffers[spec.ID] = b
	}

	policy := NewRoutingPolicy(cfg.Routing)
	for _, spec := range topo.Inspectors {
		inspMeans := make(map[Component]float64, len(spec.Components))
		for _, c := range spec.Components {
			inspMeans[c] = means.Inspection[c]
		}
		insp, err := NewInspector(InspectorConfig{
			ID:         spec.ID,
			Components: spec.Components,
			Buffers:    l.lookup(spec.Buffers),
			Means:      inspMeans,
			WarmUp:     cfg.WarmUp,
			Policy:     policy,
		}, l.rng.ForSubsystem(SubsystemInspector(spec.ID)))
		if err != nil {
			return nil, err
		}
		l.Inspectors = append(l.Inspectors, insp)
	}

	for _, spec := range topo.Workstations {
		ws, err := NewWorkstation(WorkstationConfig{
			ID:      spec.ID,
			Buffers: l.lookup(spec.Buffers),
			Mean:    means.Assembly[spec.ID],
			WarmUp:  cfg.WarmUp,
		}, l.rng.ForSubsystem(SubsystemWorkstation(spec.ID)))
		if err != nil {
			return nil, err
		}
		l.Workstations = append(l.Workstations, ws)
	}
	return l, nil
}

// Config returns the run parameters the line was built with.
func (l *Line) Config() LineConfig {
	return l.config
}

// Buffer returns the buffer with the given id, or nil.
func (l *Line) Buffer(id string) *Buffer {
	return l.buffers[id]
}

// SetTrace attaches a routing decision trace to every inspector.
func (l *Line) SetTrace(st *trace.SimulationTrace) {
	for _, insp := range l.Inspectors {
		insp.SetTrace(st)
	}
}

// Start activates every entity at time zero: workstations first, so their
// gets are queued before the first unit can arrive.
func (l *Line) Start() {
	if l.started {
		panic("Line.Start called twice")
	}
	l.started = true
	for _, ws := range l.Workstations {
		ws.Start(l.Engine)
	}
	for _, insp := range l.Inspectors {
		insp.Start(l.Engine)
	}
}

// Simulate starts the line if needed and drives it to the horizon. Entities
// still mid-cycle at the horizon are left as they are and only logged.
func (l *Line) Simulate() {
	if l.finished {
		panic("Line.Simulate called twice")
	}
	if !l.started {
		l.Start()
	}
	l.Engine.Run(l.config.Horizon)
	l.finished = true
	l.logInFlight()
}

func (l *Line) logInFlight() {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for _, insp := range l.Inspectors {
		if insp.InFlight() {
			logrus.Debugf("[t=%.4f] inspector %s stopped while %s", l.Engine.Now(), insp.ID(), insp.State())
		}
	}
	for _, ws := range l.Workstations {
		switch {
		case ws.InFlight():
			logrus.Debugf("[t=%.4f] workstation %s stopped mid-assembly (started %.4f)", l.Engine.Now(), ws.ID(), ws.ProcessStart())
		case ws.Outstanding() > 0:
			logrus.Debugf("[t=%.4f] workstation %s stopped waiting on %d input(s)", l.Engine.Now(), ws.ID(), ws.Outstanding())
		}
	}
}

func (l *Line) lookup(ids []string) []*Buffer {
	out := make([]*Buffer, len(ids))
	for i, id := range ids {
		out[i] = l.buffers[id]
	}
	return out
}

// Run is the record of one replication: its position, seed, window and the
// finished line whose entities hold the raw histories.
type Run struct {
	Iteration int
	Seed      int64
	Horizon   float64
	WarmUp    float64
	Line      *Line
}

// Replicate builds a fresh line for seed, drives it to the horizon and returns
// the finished run. st may be nil.
func Replicate(iteration int, seed int64, topo Topology, means Means, cfg LineConfig, st *trace.SimulationTrace) (*Run, error) {
	line, err := NewLine(topo, means, cfg, seed)
	if err != nil {
		return nil, fmt.Errorf("replication %d: %w", iteration, err)
	}
	if st != nil {
		line.SetTrace(st)
	}
	line.Simulate()
	return &Run{
		Iteration: iteration,
		Seed:      seed,
		Horizon:   cfg.Horizon,
		WarmUp:    cfg.WarmUp,
		Line:      line,
	}, nil
}

// Window returns Horizon - WarmUp.
func (r *Run) Window() float64 {
	return r.Horizon - r.WarmUp
}
