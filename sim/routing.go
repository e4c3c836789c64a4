package sim

import (
	"fmt"
	"math/rand"
)

// Routing policy names accepted by NewRoutingPolicy.
const (
	RoutingPriority      = "priority"
	RoutingRandom        = "random"
	RoutingFirstMatch    = "first-match"
	DefaultRoutingPolicy = RoutingPriority
)

var validRoutingPolicies = map[string]bool{
	"":                true, // empty defaults to priority
	RoutingPriority:   true,
	RoutingRandom:     true,
	RoutingFirstMatch: true,
}

// IsValidRoutingPolicy returns true if name is a recognized routing policy.
func IsValidRoutingPolicy(name string) bool {
	return validRoutingPolicies[name]
}

// Delivery is the outcome of one routing decision: a direct put, a race across
// several buffers, or a dropped unit. It is Done once the unit has landed.
type Delivery struct {
	Reason string

	put     *Request
	race    *Race
	dropped bool
}

// Done reports whether the unit has been deposited (or dropped).
func (d *Delivery) Done() bool {
	switch {
	case d.dropped:
		return true
	case d.race != nil:
		return d.race.Done()
	default:
		return d.put.Done()
	}
}

// Dropped reports whether no candidate buffer accepted the component.
func (d *Delivery) Dropped() bool {
	return d.dropped
}

// Raced reports whether the unit was offered to several buffers at once.
func (d *Delivery) Raced() bool {
	return d.race != nil
}

// Target returns the buffer that received the unit, or nil while pending or dropped.
func (d *Delivery) Target() *Buffer {
	switch {
	case d.dropped:
		return nil
	case d.race != nil:
		if w := d.race.Winner(); w != nil {
			return w.Buffer
		}
		return nil
	default:
		if d.put.Done() {
			return d.put.Buffer
		}
		return nil
	}
}

// Abandon retracts any outstanding put of this delivery.
func (d *Delivery) Abandon() {
	switch {
	case d.race != nil:
		d.race.Cancel()
	case d.put != nil:
		d.put.Buffer.Cancel(d.put)
	}
}

// RoutingPolicy decides where an inspected unit goes. Route issues the put(s)
// on behalf of owner and returns the pending Delivery.
type RoutingPolicy interface {
	Name() string
	Route(c Component, candidates []*Buffer, owner Process, rng *rand.Rand) *Delivery
}

// PriorityRouting sends the unit to the least-filled candidate; ties go to the
// earliest buffer in priority order. When that buffer is full the unit is
// offered to every candidate and lands in whichever frees up first.
type PriorityRouting struct{}

func (PriorityRouting) Name() string { return RoutingPriority }

// Route implements RoutingPolicy for PriorityRouting.
func (PriorityRouting) Route(c Component, candidates []*Buffer, owner Process, _ *rand.Rand) *Delivery {
	accepting := acceptingBuffers(c, candidates)
	if len(accepting) == 0 {
		return droppedDelivery(c)
	}
	target := accepting[0]
	for _, b := range accepting[1:] {
		if b.Level() < target.Level() {
			target = b
		}
	}
	if target.Full() {
		return &Delivery{
			Reason: fmt.Sprintf("priority: all of %d candidates full, racing", len(accepting)),
			race:   PutAny(accepting, 1, owner),
		}
	}
	return &Delivery{
		Reason: fmt.Sprintf("priority: least filled %s", target),
		put:    target.Put(1, owner),
	}
}

// RandomAvailableRouting picks uniformly among candidates with free capacity,
// racing across all of them when none has room.
type RandomAvailableRouting struct{}

func (RandomAvailableRouting) Name() string { return RoutingRandom }

// Route implements RoutingPolicy for RandomAvailableRouting.
func (RandomAvailableRouting) Route(c Component, candidates []*Buffer, owner Process, rng *rand.Rand) *Delivery {
	accepting := acceptingBuffers(c, candidates)
	if len(accepting) == 0 {
		return droppedDelivery(c)
	}
	available := make([]*Buffer, 0, len(accepting))
	for _, b := range accepting {
		if !b.Full() {
			available = append(available, b)
		}
	}
	if len(available) == 0 {
		return &Delivery{
			Reason: fmt.Sprintf("random: all of %d candidates full, racing", len(accepting)),
			race:   PutAny(accepting, 1, owner),
		}
	}
	target := available[rng.Intn(len(available))]
	return &Delivery{
		Reason: fmt.Sprintf("random: picked %s of %d available", target, len(available)),
		put:    target.Put(1, owner),
	}
}

// FirstMatchRouting sends the unit to the first candidate that accepts its
// component and waits there; a unit no candidate accepts is dropped.
type FirstMatchRouting struct{}

func (FirstMatchRouting) Name() string { return RoutingFirstMatch }

// Route implements RoutingPolicy for FirstMatchRouting.
func (FirstMatchRouting) Route(c Component, candidates []*Buffer, owner Process, _ *rand.Rand) *Delivery {
	for _, b := range candidates {
		if b.WillAccept(c) {
			return &Delivery{
				Reason: fmt.Sprintf("first-match: %s accepts %s", b, c),
				put:    b.Put(1, owner),
			}
		}
	}
	return droppedDelivery(c)
}

// NewRoutingPolicy creates a routing policy by name.
// Empty string defaults to priority. Panics on unrecognized names.
func NewRoutingPolicy(name string) RoutingPolicy {
	if !IsValidRoutingPolicy(name) {
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
	switch name {
	case "", RoutingPriority:
		return PriorityRouting{}
	case RoutingRandom:
		return RandomAvailableRouting{}
	case RoutingFirstMatch:
		return FirstMatchRouting{}
	default:
		panic(fmt.Sprintf("unhandled routing policy %q", name))
	}
}

func acceptingBuffers(c Component, candidates []*Buffer) []*Buffer {
	out := make([]*Buffer, 0, len(candidates))
	for _, b := range candidates {
		if b.WillAccept(c) {
			out = append(out, b)
		}
	}
	return out
}

func droppedDelivery(c Component) *Delivery {
	return &Delivery{
		Reason:  fmt.Sprintf("no candidate accepts %s, dropped", c),
		dropped: true,
	}
}
