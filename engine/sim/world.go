// Package sim provides the in-process collaborators an agent needs to run:
// the live world, a behavior-tree plan executor and a goal selector.
package sim

import (
	"sync"

	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// World is the source of truth for the live world state. Each change bumps
// a version counter so readers can cache derived data.
type World struct {
	mu      sync.RWMutex
	ws      state.WorldState
	version uint64
}

// NewWorld creates a world starting at ws.
func NewWorld(ws state.WorldState) *World {
	return &World{ws: ws}
}

// WorldState returns the current snapshot.
func (w *World) WorldState() state.WorldState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ws
}

// Version returns the number of changes applied so far.
func (w *World) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// Apply applies effects atomically and returns the new snapshot.
func (w *World) Apply(effs []types.Effect) state.WorldState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(effs) == 0 {
		return w.ws
	}
	w.ws = effects.Apply(w.ws, effs)
	w.version++
	return w.ws
}

// Set assigns one symbol.
func (w *World) Set(id types.SymbolID, v int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ws = w.ws.Builder().Set(id, v).Build()
	w.version++
}

// Replace swaps in a whole new state, as when loading a save.
func (w *World) Replace(ws state.WorldState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ws = ws
	w.version++
}
