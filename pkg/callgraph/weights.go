package callgraph

import (
	"maps"
	"slices"
)

// DimCalls is the weight dimension the loaders record sample counts under.
const DimCalls = "calls"

// Weights is a sparse accumulator from a weight dimension name (for example
// "calls") to a non-negative total. Reads of absent dimensions return 0, and
// a nil Weights is a valid, empty accumulator for reads.
type Weights map[string]int64

// Get returns the value recorded for dim, or 0 if dim is absent.
func (w Weights) Get(dim string) int64 { return w[dim] }

// Add sums other into w key by key, creating keys as needed.
// w must be non-nil unless other is empty.
func (w Weights) Add(other Weights) {
	for k, v := range other {
		w[k] += v
	}
}

// Clone returns an independent copy of w. The copy of a nil Weights is an
// empty, non-nil map so it can be used as an accumulator.
func (w Weights) Clone() Weights {
	if w == nil {
		return Weights{}
	}
	return maps.Clone(w)
}

// Names returns the recorded dimensions in sorted order.
func (w Weights) Names() []string { return slices.Sorted(maps.Keys(w)) }

// valid reports whether every value in w is non-negative.
func (w Weights) valid() bool {
	for _, v := range w {
		if v < 0 {
			return false
		}
	}
	return true
}
