// Package state holds the immutable world state snapshot and the loaded
// planning domain definitions.
package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/nathoo/goapcore/types"
)

// Defs holds the immutable domain definitions loaded from Lua.
type Defs struct {
	Domain      types.DomainDef
	Planner     types.PlannerDef
	Initial     WorldState
	Actions     []types.Action
	Goals       []types.Goal
	DefaultGoal string
	Agents      []types.AgentDef
	Handlers    []types.EventHandler
}

// Action returns the action with the given name.
func (d *Defs) Action(name string) (types.Action, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return types.Action{}, false
}

// Goal returns the goal with the given name.
func (d *Defs) Goal(name string) (types.Goal, bool) {
	for _, g := range d.Goals {
		if g.Name == name {
			return g, true
		}
	}
	return types.Goal{}, false
}

// WorldState is an immutable mapping from symbols to concrete values.
// A symbol absent from the mapping is unknown; there are no implicit
// defaults. The zero value is the empty state.
type WorldState struct {
	values map[types.SymbolID]int
}

// Get returns the value of a symbol and whether it is known.
func (ws WorldState) Get(id types.SymbolID) (int, bool) {
	v, ok := ws.values[id]
	return v, ok
}

// Value returns the value of a symbol, or 0 when it is unknown.
func (ws WorldState) Value(id types.SymbolID) int {
	return ws.values[id]
}

// Len returns the number of known symbols.
func (ws WorldState) Len() int {
	return len(ws.values)
}

// Symbols returns the known symbols in sorted order.
func (ws WorldState) Symbols() []types.SymbolID {
	return slices.Sorted(maps.Keys(ws.values))
}

// Map returns a copy of the underlying values.
func (ws WorldState) Map() map[types.SymbolID]int {
	return maps.Clone(ws.values)
}

// Equal reports whether both states hold exactly the same values.
func (ws WorldState) Equal(other WorldState) bool {
	return maps.Equal(ws.values, other.values)
}

// Hash returns a structural hash that is independent of insertion order.
// Equal states always hash equal.
func (ws WorldState) Hash() uint64 {
	h, err := hashstructure.Hash(ws.values, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// Builder returns a builder seeded with a copy of ws.
func (ws WorldState) Builder() *Builder {
	b := NewBuilder()
	maps.Copy(b.values, ws.values)
	return b
}

func (ws WorldState) String() string {
	parts := make([]string, 0, len(ws.values))
	for _, id := range ws.Symbols() {
		parts = append(parts, fmt.Sprintf("%s=%d", id, ws.values[id]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Builder accumulates symbol values before freezing them into a WorldState.
type Builder struct {
	values map[types.SymbolID]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: map[types.SymbolID]int{}}
}

// Set assigns a value to a symbol.
func (b *Builder) Set(id types.SymbolID, v int) *Builder {
	b.values[id] = v
	return b
}

// Unset forgets a symbol.
func (b *Builder) Unset(id types.SymbolID) *Builder {
	delete(b.values, id)
	return b
}

// Get returns the current value of a symbol in the builder.
func (b *Builder) Get(id types.SymbolID) (int, bool) {
	v, ok := b.values[id]
	return v, ok
}

// Build freezes the accumulated values. The builder may keep being used;
// later changes do not leak into built states.
func (b *Builder) Build() WorldState {
	return WorldState{values: maps.Clone(b.values)}
}
