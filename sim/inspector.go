package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/assembly-sim/assembly-sim/sim/trace"
)

// InspectorState is the phase of an inspector's inspect/route cycle.
type InspectorState int

const (
	// InspectorIdle: created but not started.
	InspectorIdle InspectorState = iota
	// InspectorInspecting: waiting for the inspection delay to elapse.
	InspectorInspecting
	// InspectorRouting: waiting for the inspected unit to land in a buffer.
	InspectorRouting
)

func (s InspectorState) String() string {
	switch s {
	case InspectorIdle:
		return "idle"
	case InspectorInspecting:
		return "inspecting"
	case InspectorRouting:
		return "routing"
	default:
		return fmt.Sprintf("InspectorState(%d)", int(s))
	}
}

// InspectorConfig describes one inspector.
type InspectorConfig struct {
	ID         string
	Components []Component
	Buffers    []*Buffer // candidates in priority order
	Means      map[Component]float64
	WarmUp     float64 // cycles completing before this instant are not recorded
	Policy     RoutingPolicy
}

// Inspector repeatedly inspects a randomly chosen component for an exponential
// delay and routes it into a buffer. It runs as an explicit state machine
// resumed by the Engine.
type Inspector struct {
	id         string
	components []Component
	buffers    []*Buffer
	means      map[Component]float64
	warmUp     float64
	policy     RoutingPolicy
	rng        *rand.Rand
	draw       func(mean float64) float64
	trace      *trace.SimulationTrace

	state      InspectorState
	current    Component
	inspection float64
	routeStart float64
	delivery   *Delivery

	// Accumulators read by the statistics engine after the run.
	WaitTimes       []float64
	InspectionTimes map[Component][]float64
	Completed       map[Component]int
}

// NewInspector validates cfg and creates an inspector drawing from rng.
// A single-component inspector routes with cfg.Policy (priority when nil);
// a multi-component inspector always routes first-match.
func NewInspector(cfg InspectorConfig, rng *rand.Rand) (*Inspector, error) {
	if len(cfg.Components) == 0 {
		return nil, fmt.Errorf("inspector %s: no components to inspect", cfg.ID)
	}
	if len(cfg.Buffers) == 0 {
		return nil, fmt.Errorf("inspector %s: no candidate buffers", cfg.ID)
	}
	if rng == nil {
		return nil, fmt.Errorf("inspector %s: nil random stream", cfg.ID)
	}
	for _, c := range cfg.Components {
		if err := validateFinitePositive(fmt.Sprintf("inspector %s: mean for %s", cfg.ID, c), cfg.Means[c]); err != nil {
			return nil, err
		}
	}
	policy := cfg.Policy
	switch {
	case len(cfg.Components) > 1:
		policy = FirstMatchRouting{}
	case policy == nil:
		policy = PriorityRouting{}
	}
	insp := &Inspector{
		id:              cfg.ID,
		components:      append([]Component(nil), cfg.Components...),
		buffers:         append([]*Buffer(nil), cfg.Buffers...),
		means:           cfg.Means,
		warmUp:          cfg.WarmUp,
		policy:          policy,
		rng:             rng,
		draw:            exponential(rng),
		WaitTimes:       make([]float64, 0),
		InspectionTimes: make(map[Component][]float64, len(cfg.Components)),
		Completed:       make(map[Component]int, len(cfg.Components)),
	}
	for _, c := range insp.components {
		insp.InspectionTimes[c] = make([]float64, 0)
		insp.Completed[c] = 0
	}
	return insp, nil
}

func (i *Inspector) Name() string            { return "inspector " + i.id }
func (i *Inspector) ID() string              { return i.id }
func (i *Inspector) Components() []Component { return i.components }
func (i *Inspector) Buffers() []*Buffer      { return i.buffers }
func (i *Inspector) State() InspectorState   { return i.state }
func (i *Inspector) Policy() RoutingPolicy   { return i.policy }
func (i *Inspector) WarmUp() float64         { return i.warmUp }

// SetTrace attaches a decision trace; nil disables recording.
func (i *Inspector) SetTrace(st *trace.SimulationTrace) {
	i.trace = st
}

// TotalCompleted returns the recorded completed inspections over all components.
func (i *Inspector) TotalCompleted() int {
	total := 0
	for _, c := range i.components {
		total += i.Completed[c]
	}
	return total
}

// InFlight reports whether the inspector holds a unit that has not landed yet.
func (i *Inspector) InFlight() bool {
	return i.state == InspectorInspecting || i.state == InspectorRouting
}

// Start begins the first cycle at the engine's current instant.
func (i *Inspector) Start(eng *Engine) {
	if i.state != InspectorIdle {
		panic(fmt.Sprintf("%s started twice", i.Name()))
	}
	i.beginInspection(eng)
}

// Resume implements Process.
func (i *Inspector) Resume(eng *Engine) {
	switch i.state {
	case InspectorInspecting:
		i.beginRouting(eng)
	case InspectorRouting:
		if i.delivery.Done() {
			i.finishCycle(eng)
		}
	default:
		panic(fmt.Sprintf("%s resumed in state %s", i.Name(), i.state))
	}
}

func (i *Inspector) beginInspection(eng *Engine) {
	i.current = i.components[i.rng.Intn(len(i.components))]
	i.inspection = i.draw(i.means[i.current])
	i.state = InspectorInspecting
	eng.Schedule(i.inspection, i)
}

func (i *Inspector) beginRouting(eng *Engine) {
	logrus.Debugf("[t=%.4f] inspector %s inspected %s", eng.Now(), i.id, i.current)
	i.routeStart = eng.Now()
	i.state = InspectorRouting
	i.delivery = i.policy.Route(i.current, i.buffers, i, i.rng)
	if i.delivery.Done() {
		i.finishCycle(eng)
	}
}

func (i *Inspector) finishCycle(eng *Engine) {
	now := eng.Now()
	wait := now - i.routeStart
	if i.trace != nil {
		rec := trace.RoutingRecord{
			Clock:       now,
			InspectorID: i.id,
			Component:   string(i.current),
			Policy:      i.policy.Name(),
			Reason:      i.delivery.Reason,
			Raced:       i.delivery.Raced(),
			Dropped:     i.delivery.Dropped(),
			Wait:        wait,
		}
		if target := i.delivery.Target(); target != nil {
			rec.ChosenBuffer = target.ID()
		}
		i.trace.RecordRouting(rec)
	}
	if now >= i.warmUp {
		i.WaitTimes = append(i.WaitTimes, wait)
		i.InspectionTimes[i.current] = append(i.InspectionTimes[i.current], i.inspection)
		i.Completed[i.current]++
	}
	i.delivery = nil
	i.beginInspection(eng)
}
