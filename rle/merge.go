package rle

import (
	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrMergeMisconfigured is returned when a merge is invoked without an
// equivalence predicate for its target type.
var ErrMergeMisconfigured = errors.New("rle: merge predicate missing")

// Merge2 combines two aligned RLE sequences position by position.
// Single is invoked once one operand is exhausted; per spec.md 4.E and
// 9 ("Open questions"), once one side is exhausted every subsequent
// run uses Single, never Two again.
type Merge2[V, R any] interface {
	Single(v V) R
	Two(a, b V) R
}

// pushCoalescing appends (val, step) to out, extending the last run
// when val is Identical to it, else starting a new run. Returns
// ErrLengthOverflow if extending the last run would overflow Idx.
func pushCoalescing[Idx numx.Unsigned, R any](out *RLEVec[Idx, R], val R, step Idx) error {
	if n := len(out.Values); n > 0 && out.Identical(out.Values[n-1], val) {
		max := maxOf[Idx]()
		if max-out.Lengths[n-1] < step {
			return ErrLengthOverflow
		}
		out.Lengths[n-1] += step
		return nil
	}
	out.Push(val, step)
	return nil
}

// Merge2Run runs a 2-way merge of a and b per spec.md 4.E: at every
// position p, Two(a[p], b[p]) while both are defined, Single(x[p])
// once only one remains.
func Merge2Run[Idx numx.Unsigned, V, R any](a, b *RLEVec[Idx, V], strategy Merge2[V, R], identicalR Identical[R]) (*RLEVec[Idx, R], error) {
	if identicalR == nil {
		return nil, ErrMergeMisconfigured
	}
	out := NewRLEVec[Idx, R](identicalR)

	ia, ib := 0, 0
	var remA, remB Idx
	if ia < len(a.Values) {
		remA = a.Lengths[ia]
	}
	if ib < len(b.Values) {
		remB = b.Lengths[ib]
	}

	for ia < len(a.Values) || ib < len(b.Values) {
		var step Idx
		var val R
		switch {
		case ia < len(a.Values) && ib < len(b.Values):
			step = remA
			if remB < step {
				step = remB
			}
			val = strategy.Two(a.Values[ia], b.Values[ib])
		case ia < len(a.Values):
			step = remA
			val = strategy.Single(a.Values[ia])
		default:
			step = remB
			val = strategy.Single(b.Values[ib])
		}

		if err := pushCoalescing(out, val, step); err != nil {
			return nil, err
		}

		if ia < len(a.Values) {
			remA -= step
			if remA == 0 {
				ia++
				if ia < len(a.Values) {
					remA = a.Lengths[ia]
				}
			}
		}
		if ib < len(b.Values) {
			remB -= step
			if remB == 0 {
				ib++
				if ib < len(b.Values) {
					remB = b.Lengths[ib]
				}
			}
		}
	}
	return out, nil
}

// MergeN combines an arbitrary number of aligned RLE sequences.
// Single is invoked once only one input remains active; Multiple
// receives the values of every still-active input, in input order.
type MergeN[V, R any] interface {
	Single(v V) R
	Multiple(vs []V) R
}

type mergeCursor[Idx numx.Unsigned, V any] struct {
	src  *RLEVec[Idx, V]
	idx  int
	rem  Idx
	done bool
}

// MergeNRun runs an n-way merge of inputs per spec.md 4.E: the same
// boundary/equality discipline as Merge2Run, generalized so that an
// input's contribution simply drops out of the active set once it is
// exhausted (it is not padded).
func MergeNRun[Idx numx.Unsigned, V, R any](inputs []*RLEVec[Idx, V], strategy MergeN[V, R], identicalR Identical[R]) (*RLEVec[Idx, R], error) {
	if identicalR == nil {
		return nil, ErrMergeMisconfigured
	}
	cursors := make([]mergeCursor[Idx, V], len(inputs))
	for i, in := range inputs {
		c := mergeCursor[Idx, V]{src: in}
		if len(in.Values) == 0 {
			c.done = true
		} else {
			c.rem = in.Lengths[0]
		}
		cursors[i] = c
	}

	out := NewRLEVec[Idx, R](identicalR)
	for {
		active := make([]int, 0, len(cursors))
		for i := range cursors {
			if !cursors[i].done {
				active = append(active, i)
			}
		}
		if len(active) == 0 {
			break
		}

		step := cursors[active[0]].rem
		for _, i := range active[1:] {
			if cursors[i].rem < step {
				step = cursors[i].rem
			}
		}

		var val R
		if len(active) == 1 {
			c := &cursors[active[0]]
			val = strategy.Single(c.src.Values[c.idx])
		} else {
			vs := make([]V, len(active))
			for k, i := range active {
				vs[k] = cursors[i].src.Values[cursors[i].idx]
			}
			val = strategy.Multiple(vs)
		}

		if err := pushCoalescing(out, val, step); err != nil {
			return nil, err
		}

		for _, i := range active {
			c := &cursors[i]
			c.rem -= step
			if c.rem == 0 {
				c.idx++
				if c.idx < len(c.src.Values) {
					c.rem = c.src.Lengths[c.idx]
				} else {
					c.done = true
				}
			}
		}
	}
	return out, nil
}
