package rules

import (
	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// KnownKinds lists every precondition kind the evaluator understands.
var KnownKinds = map[string]bool{
	types.PreIsTrue:     true,
	types.PreIsFalse:    true,
	types.PreEquals:     true,
	types.PreNotSmaller: true,
	types.PreNotGreater: true,
	types.PreInRange:    true,
}

// Unsatisfied returns the preconditions that do not hold in ws, in order.
func Unsatisfied(preconditions []types.Precondition, ws state.WorldState) []types.Precondition {
	var out []types.Precondition
	for _, p := range preconditions {
		if !Eval(p, ws) {
			out = append(out, p)
		}
	}
	return out
}

// Required intersects the ranges required by every precondition, grouped by
// symbol. The bool is false when two preconditions on the same symbol
// conflict.
func Required(preconditions []types.Precondition) (map[types.SymbolID]ranges.Range, bool) {
	out := map[types.SymbolID]ranges.Range{}
	for _, p := range preconditions {
		r, ok := out[p.Symbol]
		if !ok {
			r = ranges.Any()
		}
		r = r.Intersect(RangeOf(p))
		if r.IsEmpty() {
			return nil, false
		}
		out[p.Symbol] = r
	}
	return out, true
}
