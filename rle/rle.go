// Package rle implements a run-length encoded vector with a
// caller-supplied equivalence predicate, plus 2-way and n-way merges
// across aligned RLE sequences.
package rle

import (
	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrLengthOverflow is returned when an accumulated run length would
// exceed the length type's maximum.
var ErrLengthOverflow = errors.New("rle: run length overflow")

// ErrLengthMismatch is returned by FromRuns when values and lengths
// disagree in length.
var ErrLengthMismatch = errors.New("rle: values and lengths length mismatch")

// Identical is the user-supplied equivalence predicate: two values are
// coalesced into one run iff Identical(a, b) is true.
type Identical[V any] func(a, b V) bool

// Run is one (value, length) pair.
type Run[Idx numx.Unsigned, V any] struct {
	Value  V
	Length Idx
}

// RLEVec is a run-length encoded sequence: parallel Values/Lengths
// arrays. The builder maintains the invariant that adjacent values are
// never Identical; Push itself does not enforce it.
type RLEVec[Idx numx.Unsigned, V any] struct {
	Values     []V
	Lengths    []Idx
	Identical  Identical[V]
}

// maxOf returns the maximum representable value of an unsigned Idx.
func maxOf[Idx numx.Unsigned]() Idx {
	var zero Idx
	return zero - 1
}

// NewRLEVec returns an empty RLE vector using the given equivalence
// predicate.
func NewRLEVec[Idx numx.Unsigned, V any](identical Identical[V]) *RLEVec[Idx, V] {
	return &RLEVec[Idx, V]{Identical: identical}
}

// FromDense builds an RLE vector from a dense slice, collapsing
// adjacent equivalent values. Returns ErrLengthOverflow if a run of
// identical values would need a length beyond Idx's range.
func FromDense[Idx numx.Unsigned, V any](values []V, identical Identical[V]) (*RLEVec[Idx, V], error) {
	rv := NewRLEVec[Idx, V](identical)
	if len(values) == 0 {
		return rv, nil
	}
	max := maxOf[Idx]()
	cur := values[0]
	var length Idx = 1
	for _, v := range values[1:] {
		if identical(cur, v) {
			if length == max {
				return nil, ErrLengthOverflow
			}
			length++
			continue
		}
		rv.Values = append(rv.Values, cur)
		rv.Lengths = append(rv.Lengths, length)
		cur = v
		length = 1
	}
	rv.Values = append(rv.Values, cur)
	rv.Lengths = append(rv.Lengths, length)
	return rv, nil
}

// FromRuns builds an RLE vector from a pre-encoded (values, lengths)
// pair, checking that they agree in length. Runs are not re-coalesced;
// the caller is responsible for the adjacent-distinct invariant.
func FromRuns[Idx numx.Unsigned, V any](values []V, lengths []Idx, identical Identical[V]) (*RLEVec[Idx, V], error) {
	if len(values) != len(lengths) {
		return nil, ErrLengthMismatch
	}
	return &RLEVec[Idx, V]{
		Values:    append([]V{}, values...),
		Lengths:   append([]Idx{}, lengths...),
		Identical: identical,
	}, nil
}

// Push appends a run unconditionally; it does not coalesce with the
// previous run even if the values are Identical.
func (rv *RLEVec[Idx, V]) Push(value V, length Idx) {
	rv.Values = append(rv.Values, value)
	rv.Lengths = append(rv.Lengths, length)
}

// Extend appends every run of other to rv via Push.
func (rv *RLEVec[Idx, V]) Extend(other *RLEVec[Idx, V]) {
	for i := range other.Values {
		rv.Push(other.Values[i], other.Lengths[i])
	}
}

// Len returns the number of runs.
func (rv *RLEVec[Idx, V]) Len() int { return len(rv.Values) }

// TotalLength returns the sum of run lengths, the length of the dense
// sequence rv represents.
func (rv *RLEVec[Idx, V]) TotalLength() Idx {
	var total Idx
	for _, l := range rv.Lengths {
		total += l
	}
	return total
}

// Runs returns the (value, length) pairs in order.
func (rv *RLEVec[Idx, V]) Runs() []Run[Idx, V] {
	out := make([]Run[Idx, V], len(rv.Values))
	for i := range rv.Values {
		out[i] = Run[Idx, V]{Value: rv.Values[i], Length: rv.Lengths[i]}
	}
	return out
}

// Dense expands the RLE vector back into a dense slice.
func (rv *RLEVec[Idx, V]) Dense() []V {
	out := make([]V, 0, rv.TotalLength())
	for i, v := range rv.Values {
		for j := Idx(0); j < rv.Lengths[i]; j++ {
			out = append(out, v)
		}
	}
	return out
}

// Recycle returns an empty RLEVec that keeps rv's allocated capacity,
// for reuse under a fresh lifetime (spec.md 3, "Lifecycles").
func (rv *RLEVec[Idx, V]) Recycle() *RLEVec[Idx, V] {
	return &RLEVec[Idx, V]{
		Values:    rv.Values[:0],
		Lengths:   rv.Lengths[:0],
		Identical: rv.Identical,
	}
}
