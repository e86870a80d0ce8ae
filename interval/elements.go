package interval

import (
	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrHitDataLengthMismatch is raised by Elements builders when the
// supplied intervals and data slices disagree in length.
var ErrHitDataLengthMismatch = errors.New("interval: hit intervals and data length mismatch")

// Elements is the per-query overlap listing built by one or more
// Adder sessions: flat buffers of (interval, data) pairs plus a
// prefix-sum index over queries. Query k's hits are
// flat[prefixSum[k]:prefixSum[k+1]].
type Elements[Idx numx.Integer, T any] struct {
	Intervals  []Ivl[Idx]
	Data       []T
	prefixSum  []int
	curQuery   int
	curSession *Adder[Idx, T]
}

// NewElements returns an empty, ready-to-use Elements.
func NewElements[Idx numx.Integer, T any]() *Elements[Idx, T] {
	return &Elements[Idx, T]{prefixSum: []int{0}}
}

// Recycle returns an empty Elements value that keeps el's allocated
// capacity, for reuse under a fresh lifetime (spec.md 3, "Lifecycles").
func (el *Elements[Idx, T]) Recycle() *Elements[Idx, T] {
	return &Elements[Idx, T]{
		Intervals: el.Intervals[:0],
		Data:      el.Data[:0],
		prefixSum: append(el.prefixSum[:0], 0),
	}
}

// Adder is a per-query append session returned by Elements.Add. Finish
// must be called (directly, or via the returned closer) to record the
// hit count for the query; until then the query's group is incomplete.
type Adder[Idx numx.Integer, T any] struct {
	owner   *Elements[Idx, T]
	started int
}

// Add begins a new query's adder session. The previous session, if any
// and not yet finished, is auto-finished first (the nearest Go
// equivalent of the source's Drop-based auto-finish).
func (el *Elements[Idx, T]) Add() *Adder[Idx, T] {
	if el.curSession != nil {
		el.curSession.Finish()
	}
	a := &Adder[Idx, T]{owner: el, started: len(el.Intervals)}
	el.curSession = a
	return a
}

// Push appends one (interval, data) pair to the current session.
func (a *Adder[Idx, T]) Push(iv Ivl[Idx], data T) {
	a.owner.Intervals = append(a.owner.Intervals, iv)
	a.owner.Data = append(a.owner.Data, data)
}

// Finish closes the session, recording its hit count (possibly zero)
// as the next query's group. Calling Finish twice is a no-op.
func (a *Adder[Idx, T]) Finish() {
	if a.owner.curSession != a {
		return
	}
	a.owner.prefixSum = append(a.owner.prefixSum, len(a.owner.Intervals))
	a.owner.curSession = nil
}

// NumQueries returns the number of finished query groups.
func (el *Elements[Idx, T]) NumQueries() int {
	return len(el.prefixSum) - 1
}

// Group returns the (interval, data) pairs recorded for query k.
func (el *Elements[Idx, T]) Group(k int) ([]Ivl[Idx], []T) {
	lo, hi := el.prefixSum[k], el.prefixSum[k+1]
	return el.Intervals[lo:hi], el.Data[lo:hi]
}

// BuildElements constructs an Elements from parallel per-query slices
// of (intervals, data) in one shot, failing with
// ErrHitDataLengthMismatch if a query's intervals and data disagree in
// length.
func BuildElements[Idx numx.Integer, T any](queryIntervals [][]Ivl[Idx], queryData [][]T) (*Elements[Idx, T], error) {
	if len(queryIntervals) != len(queryData) {
		return nil, errors.Wrap(ErrHitDataLengthMismatch, "query count mismatch")
	}
	el := NewElements[Idx, T]()
	for i := range queryIntervals {
		if len(queryIntervals[i]) != len(queryData[i]) {
			return nil, errors.Wrapf(ErrHitDataLengthMismatch, "query %d", i)
		}
		a := el.Add()
		for j := range queryIntervals[i] {
			a.Push(queryIntervals[i][j], queryData[i][j])
		}
		a.Finish()
	}
	return el, nil
}
