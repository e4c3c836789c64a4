package sim

import (
	"fmt"
	"math"
)

// Unbounded is the capacity of a buffer that never blocks a put.
const Unbounded = math.MaxInt

// RequestKind distinguishes deposits from withdrawals.
type RequestKind int

const (
	KindPut RequestKind = iota
	KindGet
)

func (k RequestKind) String() string {
	if k == KindPut {
		return "put"
	}
	return "get"
}

type requestState int

const (
	requestPending requestState = iota
	requestDone
	requestCancelled
)

// Request is one put or get issued against a Buffer. It completes at the
// instant the buffer level changes on its behalf; a queued request wakes its
// owner through the Engine when that happens.
type Request struct {
	Buffer      *Buffer
	Kind        RequestKind
	Amount      int
	IssuedAt    float64
	CompletedAt float64

	owner Process
	race  *Race
	state requestState
}

// Done reports whether the request has been committed.
func (r *Request) Done() bool {
	return r.state == requestDone
}

// Cancelled reports whether the request was retracted before committing.
func (r *Request) Cancelled() bool {
	return r.state == requestCancelled
}

// Pending reports whether the request is still waiting.
func (r *Request) Pending() bool {
	return r.state == requestPending
}

// Buffer is a bounded counter of units of one component type. Waiters on
// either side are served strictly in arrival order.
type Buffer struct {
	id       string
	accepts  Component
	capacity int
	level    int
	eng      *Engine

	puts []*Request
	gets []*Request

	deposited int
	withdrawn int
	settling  bool
}

// NewBuffer creates a buffer holding initial units. capacity must be positive
// (use Unbounded for no limit) and initial must fit within it.
func NewBuffer(eng *Engine, id string, accepts Component, capacity, initial int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer %s: capacity must be positive, got %d", id, capacity)
	}
	if initial < 0 || initial > capacity {
		return nil, fmt.Errorf("buffer %s: initial level %d outside [0, %d]", id, initial, capacity)
	}
	if !IsValidComponent(accepts) {
		return nil, fmt.Errorf("buffer %s: unknown component %q", id, accepts)
	}
	return &Buffer{
		id:       id,
		accepts:  accepts,
		capacity: capacity,
		level:    initial,
		eng:      eng,
	}, nil
}

func (b *Buffer) ID() string                  { return b.id }
func (b *Buffer) Capacity() int               { return b.capacity }
func (b *Buffer) Level() int                  { return b.level }
func (b *Buffer) PendingPuts() int            { return len(b.puts) }
func (b *Buffer) PendingGets() int            { return len(b.gets) }
func (b *Buffer) Deposited() int              { return b.deposited }
func (b *Buffer) Withdrawn() int              { return b.withdrawn }
func (b *Buffer) Unbounded() bool             { return b.capacity == Unbounded }
func (b *Buffer) Full() bool                  { return !b.Unbounded() && b.level >= b.capacity }
func (b *Buffer) String() string              { return fmt.Sprintf("%s(%d/%s)", b.id, b.level, b.capString()) }
func (b *Buffer) WillAccept(c Component) bool { return c == b.accepts }

func (b *Buffer) capString() string {
	if b.Unbounded() {
		return "inf"
	}
	return fmt.Sprint(b.capacity)
}

// Free returns the remaining capacity (math.MaxInt for unbounded buffers).
func (b *Buffer) Free() int {
	if b.Unbounded() {
		return Unbounded
	}
	return b.capacity - b.level
}

// Put deposits n units on behalf of owner. If the buffer has room and nobody is
// queued ahead, the level changes now and the returned request is already Done;
// otherwise the request queues and owner is resumed once it commits.
// Put does not check the component type: callers route with WillAccept first.
func (b *Buffer) Put(n int, owner Process) *Request {
	return b.put(n, owner, nil)
}

// Get withdraws n units on behalf of owner, with the same completion rules as Put.
func (b *Buffer) Get(n int, owner Process) *Request {
	r := b.newRequest(KindGet, n, owner, nil)
	if len(b.gets) == 0 && b.canGet(n) {
		if b.commit(r) {
			b.settle()
		}
		return r
	}
	b.gets = append(b.gets, r)
	return r
}

func (b *Buffer) put(n int, owner Process, race *Race) *Request {
	r := b.newRequest(KindPut, n, owner, race)
	if len(b.puts) == 0 && b.canPut(n) {
		if b.commit(r) {
			b.settle()
		}
		return r
	}
	b.puts = append(b.puts, r)
	return r
}

// Cancel retracts a pending request. Returns false if the request already
// committed or was cancelled before.
func (b *Buffer) Cancel(r *Request) bool {
	if r.Buffer != b || r.state != requestPending {
		return false
	}
	r.state = requestCancelled
	if r.Kind == KindPut {
		b.puts = removeRequest(b.puts, r)
	} else {
		b.gets = removeRequest(b.gets, r)
	}
	// A retracted head may have been blocking smaller requests behind it.
	b.settle()
	return true
}

func (b *Buffer) newRequest(kind RequestKind, n int, owner Process, race *Race) *Request {
	if n < 1 {
		panic(fmt.Sprintf("buffer %s: %s amount must be >= 1, got %d", b.id, kind, n))
	}
	return &Request{
		Buffer:   b,
		Kind:     kind,
		Amount:   n,
		IssuedAt: b.eng.Now(),
		owner:    owner,
		race:     race,
	}
}

func (b *Buffer) canPut(n int) bool {
	return b.Unbounded() || b.level+n <= b.capacity
}

func (b *Buffer) canGet(n int) bool {
	return b.level >= n
}

// commit applies r to the level. A request belonging to an already-decided
// race is retracted instead and commit returns false.
func (b *Buffer) commit(r *Request) bool {
	if r.race != nil && !r.race.claim(r) {
		r.state = requestCancelled
		return false
	}
	if r.Kind == KindPut {
		b.level += r.Amount
		b.deposited += r.Amount
	} else {
		b.level -= r.Amount
		b.withdrawn += r.Amount
	}
	r.state = requestDone
	r.CompletedAt = b.eng.Now()
	return true
}

// settle commits queued requests until neither side can make progress.
// Re-entrant calls (a race commit cancelling a sibling on this buffer) are
// absorbed by the outer loop, which re-reads both queues.
func (b *Buffer) settle() {
	if b.settling {
		return
	}
	b.settling = true
	defer func() { b.settling = false }()
	for {
		progressed := b.drainPuts()
		if b.drainGets() {
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

func (b *Buffer) drainPuts() bool {
	progressed := false
	for len(b.puts) > 0 {
		r := b.puts[0]
		if !b.canPut(r.Amount) {
			break
		}
		b.puts = b.puts[1:]
		if !b.commit(r) {
			continue
		}
		progressed = true
		b.wake(r)
	}
	return progressed
}

func (b *Buffer) drainGets() bool {
	progressed := false
	for len(b.gets) > 0 {
		r := b.gets[0]
		if !b.canGet(r.Amount) {
			break
		}
		b.gets = b.gets[1:]
		if !b.commit(r) {
			continue
		}
		progressed = true
		b.wake(r)
	}
	return progressed
}

func (b *Buffer) wake(r *Request) {
	if r.owner != nil {
		b.eng.Activate(r.owner)
	}
}

func removeRequest(queue []*Request, r *Request) []*Request {
	for i, q := range queue {
		if q == r {
			return append(queue[:i:i], queue[i+1:]...)
		}
	}
	return queue
}
