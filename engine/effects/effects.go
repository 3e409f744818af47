// Package effects implements world state transformation via the Apply
// function and the backward pre-image computation used by regression.
// Every effect kind is one atomic operation on one symbol.
package effects

import (
	"fmt"

	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// KnownKinds lists every effect kind Apply and Regress understand.
var KnownKinds = map[string]bool{
	types.EffSetTrue:  true,
	types.EffSetFalse: true,
	types.EffSet:      true,
	types.EffAdd:      true,
	types.EffSubtract: true,
}

// Apply applies a list of effects in order and returns the new world state.
// ws is never modified. Add and subtract on an unknown symbol start from 0.
func Apply(ws state.WorldState, effs []types.Effect) state.WorldState {
	b := ws.Builder()
	for _, e := range effs {
		applyOne(b, e)
	}
	return b.Build()
}

// ApplyAction applies an action's effects to ws.
func ApplyAction(ws state.WorldState, a *types.Action) state.WorldState {
	return Apply(ws, a.Effects)
}

func applyOne(b *state.Builder, e types.Effect) {
	cur, _ := b.Get(e.Symbol)
	switch e.Kind {
	case types.EffSetTrue:
		b.Set(e.Symbol, 1)
	case types.EffSetFalse:
		b.Set(e.Symbol, 0)
	case types.EffSet:
		b.Set(e.Symbol, e.Value)
	case types.EffAdd:
		b.Set(e.Symbol, cur+e.Value)
	case types.EffSubtract:
		b.Set(e.Symbol, cur-e.Value)
	}
}

// Regress returns the pre-image of post under e: the range of values the
// symbol must hold before e so that it lies in post afterwards.
func Regress(e types.Effect, post ranges.Range) ranges.Range {
	switch e.Kind {
	case types.EffSetTrue:
		return setPreImage(1, post)
	case types.EffSetFalse:
		return setPreImage(0, post)
	case types.EffSet:
		return setPreImage(e.Value, post)
	case types.EffAdd:
		return post.Shift(-e.Value)
	case types.EffSubtract:
		return post.Shift(e.Value)
	default:
		return ranges.Empty()
	}
}

func setPreImage(v int, post ranges.Range) ranges.Range {
	if post.Contains(v) {
		return ranges.Any()
	}
	return ranges.Empty()
}

// Describe renders an effect for logs and console output.
func Describe(e types.Effect) string {
	switch e.Kind {
	case types.EffSetTrue:
		return fmt.Sprintf("%s := true", e.Symbol)
	case types.EffSetFalse:
		return fmt.Sprintf("%s := false", e.Symbol)
	case types.EffSet:
		return fmt.Sprintf("%s := %d", e.Symbol, e.Value)
	case types.EffAdd:
		return fmt.Sprintf("%s += %d", e.Symbol, e.Value)
	case types.EffSubtract:
		return fmt.Sprintf("%s -= %d", e.Symbol, e.Value)
	default:
		return fmt.Sprintf("%s ?%s", e.Symbol, e.Kind)
	}
}
