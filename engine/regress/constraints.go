// Package regress turns STRIPS-style planning into graph search by walking
// actions backward from a goal. Search nodes are constraint sets over
// symbols rather than concrete world states.
package regress

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// Constraints is an immutable mapping from symbols to the ranges they must
// end up in. A symbol that is not constrained implicitly holds the
// universal range, which is never stored. The zero value constrains nothing.
type Constraints struct {
	ranges map[types.SymbolID]ranges.Range
}

// Get returns the range a symbol is constrained to, or the universal range.
func (c Constraints) Get(id types.SymbolID) ranges.Range {
	if r, ok := c.ranges[id]; ok {
		return r
	}
	return ranges.Any()
}

// Has reports whether a symbol is constrained.
func (c Constraints) Has(id types.SymbolID) bool {
	_, ok := c.ranges[id]
	return ok
}

// Len returns the number of constrained symbols.
func (c Constraints) Len() int {
	return len(c.ranges)
}

// Symbols returns the constrained symbols in sorted order.
func (c Constraints) Symbols() []types.SymbolID {
	return slices.Sorted(maps.Keys(c.ranges))
}

// Equal reports structural equality: the same symbol to range entries.
func (c Constraints) Equal(o Constraints) bool {
	return maps.Equal(c.ranges, o.ranges)
}

// Hash returns an order-independent structural hash.
func (c Constraints) Hash() uint64 {
	h, err := hashstructure.Hash(c.ranges, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// Satisfies reports whether every symbol known to ws holds a value inside
// its range. Symbols the state does not know are unconstrained by it, so a
// constraint on them never fails the test.
func (c Constraints) Satisfies(ws state.WorldState) bool {
	for id, r := range c.ranges {
		if v, ok := ws.Get(id); ok && !r.Contains(v) {
			return false
		}
	}
	return true
}

// Unmet returns the symbols known to ws whose value lies outside their
// range, in sorted order. It is empty exactly when Satisfies holds.
func (c Constraints) Unmet(ws state.WorldState) []types.SymbolID {
	var out []types.SymbolID
	for _, id := range c.Symbols() {
		if v, ok := ws.Get(id); ok && !c.ranges[id].Contains(v) {
			out = append(out, id)
		}
	}
	return out
}

// Builder returns a builder seeded with a copy of c.
func (c Constraints) Builder() *ConstraintsBuilder {
	return &ConstraintsBuilder{ranges: maps.Clone(c.ranges)}
}

func (c Constraints) String() string {
	parts := make([]string, 0, len(c.ranges))
	for _, id := range c.Symbols() {
		parts = append(parts, fmt.Sprintf("%s%s", id, c.ranges[id]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ConstraintsBuilder accumulates ranges before freezing them into a
// Constraints value. It is used only while a single node is being built.
type ConstraintsBuilder struct {
	ranges map[types.SymbolID]ranges.Range
	empty  bool
}

// NewConstraintsBuilder returns a builder with no constraints.
func NewConstraintsBuilder() *ConstraintsBuilder {
	return &ConstraintsBuilder{ranges: map[types.SymbolID]ranges.Range{}}
}

// Set replaces the range of a symbol. Setting the universal range unsets it.
func (b *ConstraintsBuilder) Set(id types.SymbolID, r ranges.Range) *ConstraintsBuilder {
	if b.ranges == nil {
		b.ranges = map[types.SymbolID]ranges.Range{}
	}
	if r.IsAny() {
		delete(b.ranges, id)
		return b
	}
	if r.IsEmpty() {
		b.empty = true
	}
	b.ranges[id] = r
	return b
}

// Intersect narrows the range of a symbol by r.
func (b *ConstraintsBuilder) Intersect(id types.SymbolID, r ranges.Range) *ConstraintsBuilder {
	return b.Set(id, b.Get(id).Intersect(r))
}

// Unset removes any constraint on a symbol.
func (b *ConstraintsBuilder) Unset(id types.SymbolID) *ConstraintsBuilder {
	delete(b.ranges, id)
	b.empty = false
	for _, r := range b.ranges {
		if r.IsEmpty() {
			b.empty = true
			break
		}
	}
	return b
}

// Clear removes every constraint.
func (b *ConstraintsBuilder) Clear() *ConstraintsBuilder {
	clear(b.ranges)
	b.empty = false
	return b
}

// Get returns the current range of a symbol, or the universal range.
func (b *ConstraintsBuilder) Get(id types.SymbolID) ranges.Range {
	if r, ok := b.ranges[id]; ok {
		return r
	}
	return ranges.Any()
}

// Unsatisfiable reports whether any symbol has been narrowed to the empty
// range.
func (b *ConstraintsBuilder) Unsatisfiable() bool {
	return b.empty
}

// Build freezes the accumulated ranges.
func (b *ConstraintsBuilder) Build() Constraints {
	return Constraints{ranges: maps.Clone(b.ranges)}
}
