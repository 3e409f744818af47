package regress

import (
	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/search"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// NodeID indexes a node in a Space.
type NodeID int

// Edge is a backward action application between two regression nodes.
type Edge = search.Edge[NodeID, *types.Action]

type nodeKind uint8

const (
	regularNode nodeKind = iota
	targetNode
)

// node is either a target (a concrete world state with no edges) or a
// regular node (a constraint set whose edges are expanded on first access).
type node struct {
	kind        nodeKind
	world       state.WorldState
	constraints Constraints
	hash        uint64
	expanded    bool
	edges       []Edge
}

// Space is the arena of regression nodes for one planning call. It is not
// safe for concurrent use; build a fresh Space per search.
type Space struct {
	actions    []types.Action
	nodes      []node
	expansions int
}

// NewSpace creates an empty search space over an action library. Edge
// labels point into actions, which must not be modified while the space is
// in use.
func NewSpace(actions []types.Action) *Space {
	return &Space{actions: actions}
}

// AddTarget adds a target node wrapping the initial world state.
func (s *Space) AddTarget(ws state.WorldState) NodeID {
	s.nodes = append(s.nodes, node{kind: targetNode, world: ws})
	return NodeID(len(s.nodes) - 1)
}

// AddRegular adds a regular node wrapping a constraint set.
func (s *Space) AddRegular(c Constraints) NodeID {
	s.nodes = append(s.nodes, node{kind: regularNode, constraints: c, hash: c.Hash()})
	return NodeID(len(s.nodes) - 1)
}

// Len returns the number of nodes created so far.
func (s *Space) Len() int {
	return len(s.nodes)
}

// Expansions returns how many regular nodes have had their edges computed.
func (s *Space) Expansions() int {
	return s.expansions
}

// IsTarget reports whether id is a target node.
func (s *Space) IsTarget(id NodeID) bool {
	return s.nodes[id].kind == targetNode
}

// Constraints returns the constraint set of a regular node. Asking a target
// node for constraints panics.
func (s *Space) Constraints(id NodeID) Constraints {
	n := &s.nodes[id]
	if n.kind == targetNode {
		panic("regress: target node has no constraint set")
	}
	return n.constraints
}

// World returns the world state of a target node. Asking a regular node
// panics.
func (s *Space) World(id NodeID) state.WorldState {
	n := &s.nodes[id]
	if n.kind != targetNode {
		panic("regress: regular node has no world state")
	}
	return n.world
}

// Satisfies is the search target test: the regular node n is satisfied by
// the target's world state when every symbol of that state holds a value
// inside n's range for it. Unconstrained symbols always pass.
func (s *Space) Satisfies(n, target NodeID) bool {
	if s.IsTarget(n) {
		panic("regress: satisfaction test on a target node")
	}
	return s.nodes[n].constraints.Satisfies(s.World(target))
}

// Hash returns the structural hash of a regular node.
func (s *Space) Hash(id NodeID) uint64 {
	return s.nodes[id].hash
}

// Equal reports structural equality of two regular nodes' constraint sets.
// A target node never equals a regular node; comparing two targets panics.
func (s *Space) Equal(a, b NodeID) bool {
	na, nb := &s.nodes[a], &s.nodes[b]
	switch {
	case na.kind == targetNode && nb.kind == targetNode:
		panic("regress: comparing two target nodes")
	case na.kind != nb.kind:
		return false
	case a == b:
		return true
	}
	return na.hash == nb.hash && na.constraints.Equal(nb.constraints)
}

// OutgoingEdges returns the backward action applications from a node,
// computing them on first access. Target nodes have no edges.
func (s *Space) OutgoingEdges(id NodeID) []Edge {
	if s.nodes[id].kind == targetNode {
		return nil
	}
	if s.nodes[id].expanded {
		return s.nodes[id].edges
	}
	s.expansions++
	edges := s.expand(id)
	// expand appends to the arena, so reindex rather than hold a pointer.
	s.nodes[id].edges = edges
	s.nodes[id].expanded = true
	return edges
}

func (s *Space) expand(id NodeID) []Edge {
	cur := s.nodes[id].constraints
	var edges []Edge
	for i := range s.actions {
		a := &s.actions[i]
		next, ok := Regress(cur, a)
		if !ok {
			continue
		}
		edges = append(edges, Edge{
			Source: id,
			Target: s.AddRegular(next),
			Cost:   a.Cost,
			Label:  a,
		})
	}
	return edges
}

// Regress walks one action backward through a constraint set and returns
// what must hold before the action runs. The bool is false when the action
// is irrelevant (it affects no constrained symbol) or inapplicable (an
// effect or precondition conflicts with the constraints).
func Regress(c Constraints, a *types.Action) (Constraints, bool) {
	if !Relevant(c, a) {
		return Constraints{}, false
	}

	pre := make(map[types.SymbolID]ranges.Range, len(a.Effects))
	var order []types.SymbolID
	for _, e := range a.Effects {
		r := effects.Regress(e, c.Get(e.Symbol))
		if prev, seen := pre[e.Symbol]; seen {
			r = prev.Intersect(r)
		} else {
			order = append(order, e.Symbol)
		}
		if r.IsEmpty() {
			return Constraints{}, false
		}
		pre[e.Symbol] = r
	}

	b := c.Builder()
	for _, id := range order {
		b.Set(id, pre[id])
	}
	for _, p := range a.Preconditions {
		b.Intersect(p.Symbol, rules.RangeOf(p))
		if b.Unsatisfiable() {
			return Constraints{}, false
		}
	}
	return b.Build(), true
}

// Relevant reports whether at least one of the action's effects touches a
// constrained symbol.
func Relevant(c Constraints, a *types.Action) bool {
	for _, e := range a.Effects {
		if c.Has(e.Symbol) {
			return true
		}
	}
	return false
}

// FromPreconditions builds the constraint set required by a list of
// preconditions. The bool is false when two preconditions conflict.
func FromPreconditions(pres []types.Precondition) (Constraints, bool) {
	b := NewConstraintsBuilder()
	for _, p := range pres {
		b.Intersect(p.Symbol, rules.RangeOf(p))
		if b.Unsatisfiable() {
			return Constraints{}, false
		}
	}
	return b.Build(), true
}
