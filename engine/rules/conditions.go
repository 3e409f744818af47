// Package rules evaluates preconditions against world states and maps them
// to the value ranges that satisfy them.
package rules

import (
	"fmt"

	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// RangeOf returns the range of values that satisfies a precondition.
// Unknown kinds map to the empty range, so they never hold.
func RangeOf(p types.Precondition) ranges.Range {
	switch p.Kind {
	case types.PreIsTrue:
		return ranges.Exactly(1)
	case types.PreIsFalse:
		return ranges.Exactly(0)
	case types.PreEquals:
		return ranges.Exactly(p.Value)
	case types.PreNotSmaller:
		return ranges.AtLeast(p.Value)
	case types.PreNotGreater:
		return ranges.AtMost(p.Value)
	case types.PreInRange:
		return ranges.Between(p.Value, p.Max)
	default:
		return ranges.Empty()
	}
}

// Eval evaluates a single precondition against a world state. An unknown
// symbol satisfies only a precondition whose range is universal.
func Eval(p types.Precondition, ws state.WorldState) bool {
	r := RangeOf(p)
	v, ok := ws.Get(p.Symbol)
	if !ok {
		return r.IsAny()
	}
	return r.Contains(v)
}

// EvalAll returns true if all preconditions pass (AND logic).
// An empty precondition list is vacuously true.
func EvalAll(preconditions []types.Precondition, ws state.WorldState) bool {
	for _, p := range preconditions {
		if !Eval(p, ws) {
			return false
		}
	}
	return true
}

// Describe renders a precondition for logs and console output.
func Describe(p types.Precondition) string {
	switch p.Kind {
	case types.PreIsTrue:
		return string(p.Symbol)
	case types.PreIsFalse:
		return "!" + string(p.Symbol)
	default:
		return fmt.Sprintf("%s%s", p.Symbol, RangeOf(p))
	}
}
