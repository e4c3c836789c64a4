package sim

// Event defines the interface for all simulation events.
// Each event carries a Timestamp (in simulated time units), a sequence number
// assigned by the Engine when it was scheduled, and an Execute method that
// advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Seq() uint64
	Execute(*Engine)
}

// Process is an entity driven by the Engine. Resume is called each time one of
// the entity's registered resumptions fires; the entity inspects its own state
// to decide what happened and what to wait for next.
type Process interface {
	Name() string
	Resume(*Engine)
}

// ResumeEvent wakes a Process at a given instant.
type ResumeEvent struct {
	time    float64
	seq     uint64
	Process Process
}

// Timestamp returns the scheduled time of the ResumeEvent.
func (e *ResumeEvent) Timestamp() float64 {
	return e.time
}

// Seq returns the scheduling order of the ResumeEvent.
func (e *ResumeEvent) Seq() uint64 {
	return e.seq
}

// Execute resumes the target process.
func (e *ResumeEvent) Execute(eng *Engine) {
	e.Process.Resume(eng)
}
