package project

import (
	"fmt"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/graph"
)

type slotState uint8

const (
	slotPending slotState = iota
	slotAttached
	slotDropped
)

// slot tracks one raw edge through projection.
type slot struct {
	raw    graph.Edge
	state  slotState
	scope  string
	edge   Edge
	reason diag.Kind
}

// arena owns every raw edge of a projection. A slot leaves the pending state
// exactly once, either into one scope's container or into the dropped list.
type arena struct {
	slots  []slot
	scopes map[string][]int
}

func newArena(edges []graph.Edge) *arena {
	a := &arena{
		slots:  make([]slot, len(edges)),
		scopes: make(map[string][]int),
	}
	for i, e := range edges {
		a.slots[i] = slot{raw: e}
	}
	return a
}

func (a *arena) len() int { return len(a.slots) }

func (a *arena) raw(i int) graph.Edge { return a.slots[i].raw }

// attach moves slot i into the container of scope.
func (a *arena) attach(i int, scope string, e Edge) {
	s := &a.slots[i]
	if s.state != slotPending {
		panic(fmt.Sprintf("project: edge %d attached twice", i))
	}
	s.state = slotAttached
	s.scope = scope
	s.edge = e
	a.scopes[scope] = append(a.scopes[scope], i)
}

// drop retires slot i for the given reason.
func (a *arena) drop(i int, reason diag.Kind) {
	s := &a.slots[i]
	if s.state != slotPending {
		panic(fmt.Sprintf("project: edge %d dropped after leaving pending", i))
	}
	s.state = slotDropped
	s.reason = reason
}

// edges returns the edges attached at scope in input order.
func (a *arena) edges(scope string) []Edge {
	idx := a.scopes[scope]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for k, i := range idx {
		out[k] = a.slots[i].edge
	}
	return out
}

// dropped lists the retired slots in input order.
func (a *arena) dropped() []DroppedEdge {
	var out []DroppedEdge
	for i, s := range a.slots {
		if s.state == slotDropped {
			out = append(out, DroppedEdge{Index: i, Edge: s.raw, Reason: s.reason})
		}
	}
	return out
}

// pending returns the number of slots not yet decided.
func (a *arena) pending() int {
	n := 0
	for _, s := range a.slots {
		if s.state == slotPending {
			n++
		}
	}
	return n
}
