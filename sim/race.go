package sim

// Race is a group of puts of which exactly one may commit. The first member to
// reach its commit point claims the race; every other member is retracted at
// that same instant, so no unit is ever deposited on behalf of a losing put.
type Race struct {
	members []*Request
	winner  *Request
}

// PutAny issues Put(n) against each buffer in order and resolves as soon as any
// one commits. When an earlier buffer already has room the later puts are never
// issued. The owner is resumed once when a queued member wins.
func PutAny(buffers []*Buffer, n int, owner Process) *Race {
	race := &Race{members: make([]*Request, 0, len(buffers))}
	for _, b := range buffers {
		r := b.put(n, owner, race)
		race.members = append(race.members, r)
		if race.winner != nil {
			break
		}
	}
	return race
}

// Done reports whether some member has committed.
func (r *Race) Done() bool {
	return r.winner != nil
}

// Winner returns the committed request, or nil while the race is open.
func (r *Race) Winner() *Request {
	return r.winner
}

// Members returns every put issued for this race, in issue order.
func (r *Race) Members() []*Request {
	return r.members
}

// Cancel retracts every pending member. Used when the owner abandons the race.
func (r *Race) Cancel() {
	for _, m := range r.members {
		m.Buffer.Cancel(m)
	}
}

// claim is called from Buffer.commit. It returns false when another member
// already won; otherwise it records req as winner and retracts the siblings.
func (r *Race) claim(req *Request) bool {
	if r.winner != nil {
		return r.winner == req
	}
	r.winner = req
	for _, m := range r.members {
		if m != req {
			m.Buffer.Cancel(m)
		}
	}
	return true
}

// Gather is a set of requests that must all commit before the owner proceeds.
type Gather struct {
	requests []*Request
}

// GetAll issues Get(n) against every buffer at the same instant.
func GetAll(buffers []*Buffer, n int, owner Process) *Gather {
	g := &Gather{requests: make([]*Request, 0, len(buffers))}
	for _, b := range buffers {
		g.requests = append(g.requests, b.Get(n, owner))
	}
	return g
}

// Done reports whether every request in the gather has committed.
func (g *Gather) Done() bool {
	for _, r := range g.requests {
		if !r.Done() {
			return false
		}
	}
	return true
}

// Outstanding returns the number of requests still waiting.
func (g *Gather) Outstanding() int {
	n := 0
	for _, r := range g.requests {
		if !r.Done() {
			n++
		}
	}
	return n
}

// Requests returns the gathered requests in issue order.
func (g *Gather) Requests() []*Request {
	return g.requests
}
