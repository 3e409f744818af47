// Package ranges implements closed integer value ranges used both as
// precondition tests and as regression constraints.
package ranges

import (
	"fmt"
	"math"
)

// Range is the closed interval [Min, Max]. The zero value is not meaningful;
// build ranges with the constructors. Ranges are comparable with ==: every
// empty range is normalized to the same value.
type Range struct {
	Min int
	Max int
}

var empty = Range{Min: 1, Max: 0}

// Any returns the universal range, which matches every value.
func Any() Range { return Range{Min: math.MinInt, Max: math.MaxInt} }

// Empty returns the unsatisfiable range.
func Empty() Range { return empty }

// Exactly returns the range holding only v.
func Exactly(v int) Range { return Range{Min: v, Max: v} }

// AtLeast returns [v, +inf).
func AtLeast(v int) Range { return Range{Min: v, Max: math.MaxInt} }

// AtMost returns (-inf, v].
func AtMost(v int) Range { return Range{Min: math.MinInt, Max: v} }

// Between returns [lo, hi], or the empty range when lo > hi.
func Between(lo, hi int) Range {
	if lo > hi {
		return empty
	}
	return Range{Min: lo, Max: hi}
}

// Contains reports whether v lies in r.
func (r Range) Contains(v int) bool {
	return r.Min <= v && v <= r.Max
}

// IsEmpty reports whether no value satisfies r.
func (r Range) IsEmpty() bool {
	return r.Min > r.Max
}

// IsAny reports whether r is the universal range.
func (r Range) IsAny() bool {
	return r.Min == math.MinInt && r.Max == math.MaxInt
}

// Intersect returns the most restrictive range consistent with both r and o.
func (r Range) Intersect(o Range) Range {
	return Between(max(r.Min, o.Min), min(r.Max, o.Max))
}

// Shift moves both bounds by delta. Unbounded ends stay unbounded and
// finite bounds saturate instead of overflowing.
func (r Range) Shift(delta int) Range {
	if r.IsEmpty() {
		return empty
	}
	lo, hi := r.Min, r.Max
	if lo != math.MinInt {
		lo = saturatingAdd(lo, delta)
	}
	if hi != math.MaxInt {
		hi = saturatingAdd(hi, delta)
	}
	return Between(lo, hi)
}

func (r Range) String() string {
	switch {
	case r.IsEmpty():
		return "{}"
	case r.IsAny():
		return "*"
	case r.Min == r.Max:
		return fmt.Sprintf("=%d", r.Min)
	case r.Max == math.MaxInt:
		return fmt.Sprintf(">=%d", r.Min)
	case r.Min == math.MinInt:
		return fmt.Sprintf("<=%d", r.Max)
	default:
		return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
	}
}

func saturatingAdd(a, b int) int {
	s := a + b
	switch {
	case b > 0 && s < a:
		return math.MaxInt
	case b < 0 && s > a:
		return math.MinInt
	}
	return s
}
