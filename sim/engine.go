package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Engine owns the simulated clock and the queue of pending resumptions for one
// replication. All entity logic runs on the goroutine that calls Run; at most one
// process executes at any instant.
type Engine struct {
	clock     float64
	queue     *EventHeap
	nextSeq   uint64
	processed int64
}

// NewEngine creates an Engine with the clock at zero and nothing scheduled.
func NewEngine() *Engine {
	return &Engine{
		queue: NewEventHeap(),
	}
}

// Now returns the current simulated time.
func (e *Engine) Now() float64 {
	return e.clock
}

// Pending returns the number of scheduled but not yet executed events.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Processed returns the number of events executed so far.
func (e *Engine) Processed() int64 {
	return e.processed
}

// Schedule registers a resumption of p after delay time units.
// Panics on a negative or non-finite delay.
func (e *Engine) Schedule(delay float64, p Process) {
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		panic(fmt.Sprintf("Engine.Schedule: invalid delay %v for %s", delay, p.Name()))
	}
	e.nextSeq++
	e.queue.Schedule(&ResumeEvent{
		time:    e.clock + delay,
		seq:     e.nextSeq,
		Process: p,
	})
}

// Activate registers a resumption of p at the current instant. It runs after
// every event already scheduled for this instant.
func (e *Engine) Activate(p Process) {
	e.Schedule(0, p)
}

// Run executes events in (time, sequence) order while their timestamp is
// strictly before until, then leaves the clock at until. Events at or after
// until stay queued; processes mid-cycle at that point are left as they are.
// Panics if until is behind the clock.
func (e *Engine) Run(until float64) {
	if until < e.clock || math.IsNaN(until) {
		panic(fmt.Sprintf("Engine.Run: until=%v is behind clock=%v", until, e.clock))
	}
	for {
		next := e.queue.Peek()
		if next == nil || next.Timestamp() >= until {
			break
		}
		e.queue.PopNext()
		e.clock = next.Timestamp()
		e.processed++
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			logrus.Tracef("[t=%.4f] executing %T", e.clock, next)
		}
		next.Execute(e)
	}
	e.clock = until
	logrus.Debugf("[t=%.4f] run stopped; %d events executed, %d pending", e.clock, e.processed, e.queue.Len())
}
