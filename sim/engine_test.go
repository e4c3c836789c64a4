package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Process that logs (name, time) each time it is resumed and
// optionally runs a hook.
type recorder struct {
	name string
	log  *[]string
	at   *[]float64
	hook func(*Engine)
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Resume(eng *Engine) {
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
	if r.at != nil {
		*r.at = append(*r.at, eng.Now())
	}
	if r.hook != nil {
		r.hook(eng)
	}
}

func TestEventHeap_TimestampThenSequence(t *testing.T) {
	h := NewEventHeap()
	p := &recorder{name: "p"}
	h.Schedule(&ResumeEvent{time: 5, seq: 3, Process: p})
	h.Schedule(&ResumeEvent{time: 1, seq: 4, Process: p})
	h.Schedule(&ResumeEvent{time: 5, seq: 1, Process: p})
	h.Schedule(&ResumeEvent{time: 5, seq: 2, Process: p})

	var got []uint64
	for h.Len() > 0 {
		got = append(got, h.PopNext().Seq())
	}
	assert.Equal(t, []uint64{4, 1, 2, 3}, got)
	assert.Nil(t, h.PopNext())
	assert.Nil(t, h.Peek())
}

func TestEngine_SameInstant_RunsInSchedulingOrder(t *testing.T) {
	// GIVEN three processes scheduled for the same instant in order a, b, c
	eng := NewEngine()
	var log []string
	for _, name := range []string{"a", "b", "c"} {
		eng.Schedule(2, &recorder{name: name, log: &log})
	}

	// WHEN the engine runs past that instant
	eng.Run(10)

	// THEN they resume first-registered, first-resumed
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, int64(3), eng.Processed())
}

func TestEngine_Activate_RunsAfterAlreadyScheduledSameInstant(t *testing.T) {
	eng := NewEngine()
	var log []string
	late := &recorder{name: "activated", log: &log}
	first := &recorder{name: "first", log: &log, hook: func(e *Engine) { e.Activate(late) }}
	second := &recorder{name: "second", log: &log}
	eng.Schedule(1, first)
	eng.Schedule(1, second)

	eng.Run(5)

	assert.Equal(t, []string{"first", "second", "activated"}, log)
}

func TestEngine_Run_StopsStrictlyBeforeUntil(t *testing.T) {
	// GIVEN events at 3, 5 and 7
	eng := NewEngine()
	var at []float64
	for _, d := range []float64{3, 5, 7} {
		eng.Schedule(d, &recorder{name: "p", at: &at})
	}

	// WHEN running until 5
	eng.Run(5)

	// THEN only the event at 3 ran, the clock sits at 5 and two remain queued
	assert.Equal(t, []float64{3}, at)
	assert.Equal(t, 5.0, eng.Now())
	assert.Equal(t, 2, eng.Pending())

	// WHEN running on to 10
	eng.Run(10)
	assert.Equal(t, []float64{3, 5, 7}, at)
	assert.Equal(t, 10.0, eng.Now())
}

func TestEngine_Schedule_RelativeToClock(t *testing.T) {
	eng := NewEngine()
	var at []float64
	p := &recorder{name: "p", at: &at}
	p.hook = func(e *Engine) {
		if len(at) < 3 {
			e.Schedule(2.5, p)
		}
	}
	eng.Schedule(1, p)
	eng.Run(100)
	assert.Equal(t, []float64{1, 3.5, 6}, at)
}

func TestEngine_Schedule_InvalidDelayPanics(t *testing.T) {
	eng := NewEngine()
	p := &recorder{name: "p"}
	assert.Panics(t, func() { eng.Schedule(-1, p) })
	assert.NotPanics(t, func() { eng.Schedule(0, p) })
}

func TestEngine_Run_BehindClockPanics(t *testing.T) {
	eng := NewEngine()
	eng.Run(10)
	require.Equal(t, 10.0, eng.Now())
	assert.Panics(t, func() { eng.Run(5) })
}
