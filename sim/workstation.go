package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ErrNoInputBuffers is returned when a workstation is configured without any
// required buffer. Such a workstation could never assemble anything.
var ErrNoInputBuffers = errors.New("workstation has no required buffers")

// WorkstationState is the phase of a workstation's gather/assemble cycle.
type WorkstationState int

const (
	WorkstationIdle WorkstationState = iota
	WorkstationGathering
	WorkstationAssembling
)

func (s WorkstationState) String() string {
	switch s {
	case WorkstationIdle:
		return "idle"
	case WorkstationGathering:
		return "gathering"
	case WorkstationAssembling:
		return "assembling"
	default:
		return fmt.Sprintf("WorkstationState(%d)", int(s))
	}
}

// WorkstationConfig describes one workstation.
type WorkstationConfig struct {
	ID      string
	Buffers []*Buffer // one unit is taken from each per assembly
	Mean    float64   // mean assembly time
	WarmUp  float64
}

// Workstation waits for one unit from every required buffer, assembles them
// for an exponential delay, and loops.
type Workstation struct {
	id      string
	buffers []*Buffer
	mean    float64
	warmUp  float64
	rng     *rand.Rand
	draw    func(mean float64) float64

	state        WorkstationState
	gather       *Gather
	wakes        int // resumptions still owed by queued gets
	idleStart    float64
	processStart float64
	processing   float64

	WaitTimes       []float64
	ProcessingTimes []float64
	Completed       int
}

// NewWorkstation validates cfg and creates a workstation drawing from rng.
func NewWorkstation(cfg WorkstationConfig, rng *rand.Rand) (*Workstation, error) {
	if len(cfg.Buffers) == 0 {
		return nil, fmt.Errorf("workstation %s: %w", cfg.ID, ErrNoInputBuffers)
	}
	if rng == nil {
		return nil, fmt.Errorf("workstation %s: nil random stream", cfg.ID)
	}
	if err := validateFinitePositive(fmt.Sprintf("workstation %s: mean", cfg.ID), cfg.Mean); err != nil {
		return nil, err
	}
	return &Workstation{
		id:              cfg.ID,
		buffers:         append([]*Buffer(nil), cfg.Buffers...),
		mean:            cfg.Mean,
		warmUp:          cfg.WarmUp,
		rng:             rng,
		draw:            exponential(rng),
		WaitTimes:       make([]float64, 0),
		ProcessingTimes: make([]float64, 0),
	}, nil
}

func (w *Workstation) Name() string            { return "workstation " + w.id }
func (w *Workstation) ID() string              { return w.id }
func (w *Workstation) Buffers() []*Buffer      { return w.buffers }
func (w *Workstation) State() WorkstationState { return w.state }
func (w *Workstation) WarmUp() float64         { return w.warmUp }

// IdleStart returns when the current gather phase began.
func (w *Workstation) IdleStart() float64 { return w.idleStart }

// ProcessStart returns when the current (or last) assembly began.
func (w *Workstation) ProcessStart() float64 { return w.processStart }

// Outstanding returns how many inputs the current gather still waits for.
func (w *Workstation) Outstanding() int {
	if w.state != WorkstationGathering || w.gather == nil {
		return 0
	}
	return w.gather.Outstanding()
}

// InFlight reports whether the workstation is in the middle of an assembly.
func (w *Workstation) InFlight() bool {
	return w.state == WorkstationAssembling
}

// Start begins the first gather at the engine's current instant.
func (w *Workstation) Start(eng *Engine) {
	if w.state != WorkstationIdle {
		panic(fmt.Sprintf("%s started twice", w.Name()))
	}
	w.beginGather(eng)
}

// Resume implements Process.
func (w *Workstation) Resume(eng *Engine) {
	switch w.state {
	case WorkstationGathering:
		// Every queued get wakes us once, possibly several at one instant.
		w.wakes--
		if w.wakes == 0 && w.gather.Done() {
			w.beginAssembly(eng)
		}
	case WorkstationAssembling:
		w.finishAssembly(eng)
	default:
		panic(fmt.Sprintf("%s resumed in state %s", w.Name(), w.state))
	}
}

func (w *Workstation) beginGather(eng *Engine) {
	w.idleStart = eng.Now()
	w.state = WorkstationGathering
	w.gather = GetAll(w.buffers, 1, w)
	w.wakes = w.gather.Outstanding()
	if w.wakes == 0 {
		w.beginAssembly(eng)
	}
}

func (w *Workstation) beginAssembly(eng *Engine) {
	w.processStart = eng.Now()
	w.processing = w.draw(w.mean)
	w.state = WorkstationAssembling
	w.gather = nil
	eng.Schedule(w.processing, w)
}

func (w *Workstation) finishAssembly(eng *Engine) {
	now := eng.Now()
	if now >= w.warmUp {
		w.WaitTimes = append(w.WaitTimes, w.processStart-w.idleStart)
		w.ProcessingTimes = append(w.ProcessingTimes, now-w.processStart)
		w.Completed++
	}
	logrus.Debugf("[t=%.4f] workstation %s assembled (waited %.4f)", now, w.id, w.processStart-w.idleStart)
	w.beginGather(eng)
}

// exponential returns a sampler of exponential durations with the given mean
// (rate 1/mean) drawn from rng.
func exponential(rng *rand.Rand) func(mean float64) float64 {
	return func(mean float64) float64 {
		return rng.ExpFloat64() * mean
	}
}
