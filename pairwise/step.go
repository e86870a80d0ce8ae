// Package pairwise implements the alignment step model, the
// affine-gap Smith-Waterman DP core and its pluggable tracer, and the
// all-optimal storage that recovers every non-dominated local
// alignment from one DP scan.
package pairwise

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrInvalidStepLength is returned when a Step is constructed with a
// zero length.
var ErrInvalidStepLength = errors.New("pairwise: step length must be > 0")

// Op is the operation carried by one alignment Step.
type Op int

const (
	// Match denotes a diagonal move where the classifier reported Match.
	Match Op = iota
	// Mismatch denotes a diagonal move where the classifier reported Mismatch.
	Mismatch
	// Equivalent denotes a diagonal move the scoring scheme treats as
	// interchangeable with Match for provenance purposes.
	Equivalent
	// GapFirst advances seq1 only.
	GapFirst
	// GapSecond advances seq2 only.
	GapSecond
)

// opSymbols is the RLE string rendering table, indexed by Op.
var opSymbols = [...]byte{'=', 'X', 'M', 'v', '^'}

func (o Op) symbol() byte { return opSymbols[o] }

// IsDiagonal reports whether o advances both coordinates.
func (o Op) IsDiagonal() bool { return o == Match || o == Mismatch || o == Equivalent }

// Step is one (Op, Len) run of an alignment; Len must be > 0.
type Step[Len numx.Unsigned] struct {
	Op  Op
	Len Len
}

// NewStep validates len > 0.
func NewStep[Len numx.Unsigned](op Op, length Len) (Step[Len], error) {
	if length == 0 {
		return Step[Len]{}, ErrInvalidStepLength
	}
	return Step[Len]{Op: op, Len: length}, nil
}

func maxLen[Len numx.Unsigned]() Len {
	var zero Len
	return zero - 1
}

// Collapse merges adjacent runs of the same Op, splitting a run when
// its cumulative length would overflow Len: the first part is capped
// at Len's maximum and the write pointer advances to a fresh run
// holding the remainder (spec.md 4.F).
func Collapse[Len numx.Unsigned](steps []Step[Len]) []Step[Len] {
	if len(steps) == 0 {
		return nil
	}
	max := maxLen[Len]()
	out := make([]Step[Len], 0, len(steps))
	cur := steps[0]
	for _, s := range steps[1:] {
		if s.Op == cur.Op {
			if max-cur.Len >= s.Len {
				cur.Len += s.Len
				continue
			}
			remainder := s.Len - (max - cur.Len)
			out = append(out, Step[Len]{Op: cur.Op, Len: max})
			cur = Step[Len]{Op: cur.Op, Len: remainder}
			continue
		}
		out = append(out, cur)
		cur = s
	}
	out = append(out, cur)
	return out
}

// RLEString renders steps as concatenated "<len><symbol>" runs, e.g.
// RLEString([(Match,1),(GapFirst,2),(Match,3)]) == "1=2v3=".
func RLEString[Len numx.Unsigned](steps []Step[Len]) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(strconv.FormatUint(uint64(s.Len), 10))
		b.WriteByte(s.Op.symbol())
	}
	return b.String()
}

// Offset is a (seq1, seq2) position pair.
type Offset[Idx numx.Integer] struct {
	Seq1, Seq2 Idx
}

// StepWithOffset is a Step tracked together with its starting
// position.
type StepWithOffset[Idx numx.Integer, Len numx.Unsigned] struct {
	Step   Step[Len]
	Offset Offset[Idx]
}

// End returns the coordinate reached after applying Step Len times
// from Offset: both coordinates advance for diagonal ops, only seq1
// for GapFirst, only seq2 for GapSecond.
func (s StepWithOffset[Idx, Len]) End() Offset[Idx] {
	l := Idx(s.Step.Len)
	switch s.Step.Op {
	case GapFirst:
		return Offset[Idx]{Seq1: s.Offset.Seq1 + l, Seq2: s.Offset.Seq2}
	case GapSecond:
		return Offset[Idx]{Seq1: s.Offset.Seq1, Seq2: s.Offset.Seq2 + l}
	default:
		return Offset[Idx]{Seq1: s.Offset.Seq1 + l, Seq2: s.Offset.Seq2 + l}
	}
}

// Intersects reports whether s and other's alignment segments share
// any common (seq1, seq2) cell, per the case analysis in spec.md 4.F.
// Accumulator is supplied by the caller wide enough to hold coordinate
// sums without overflow.
func Intersects[Idx numx.Integer, Len numx.Unsigned, Accumulator numx.Integer](s, other StepWithOffset[Idx, Len]) bool {
	a1, a2 := Accumulator(s.Offset.Seq1), Accumulator(s.Offset.Seq2)
	aEnd := s.End()
	ae1, ae2 := Accumulator(aEnd.Seq1), Accumulator(aEnd.Seq2)

	b1, b2 := Accumulator(other.Offset.Seq1), Accumulator(other.Offset.Seq2)
	bEnd := other.End()
	be1, be2 := Accumulator(bEnd.Seq1), Accumulator(bEnd.Seq2)

	sDiag, oDiag := s.Step.Op.IsDiagonal(), other.Step.Op.IsDiagonal()

	switch {
	case sDiag && oDiag:
		// Same offset (seq1 - seq2 constant) and overlapping projection.
		if (a1 - a2) != (b1 - b2) {
			return false
		}
		return a1 < be1 && b1 < ae1

	case !sDiag && !oDiag:
		if s.Step.Op == GapFirst && other.Step.Op == GapFirst {
			if a2 != b2 {
				return false
			}
			return a1 < be1 && b1 < ae1
		}
		if s.Step.Op == GapSecond && other.Step.Op == GapSecond {
			if a1 != b1 {
				return false
			}
			return a2 < be2 && b2 < ae2
		}
		// GapFirst vs GapSecond: intersect at a single cell, if any.
		gf, gs := s, other
		if s.Step.Op == GapSecond {
			gf, gs = other, s
		}
		gf1a, gf2, gf1b := Accumulator(gf.Offset.Seq1), Accumulator(gf.Offset.Seq2), Accumulator(gf.End().Seq1)
		gs2a, gs1, gs2b := Accumulator(gs.Offset.Seq2), Accumulator(gs.Offset.Seq1), Accumulator(gs.End().Seq2)
		return gs1 >= gf1a && gs1 < gf1b && gf2 >= gs2a && gf2 < gs2b

	default:
		// One diagonal, one gap: project the diagonal onto the gap's span.
		diag, gap := s, other
		diagA1, diagA2, diagE1, diagE2 := a1, a2, ae1, ae2
		if !sDiag {
			diag, gap = other, s
			diagA1, diagA2, diagE1, diagE2 = b1, b2, be1, be2
		}
		if gap.Step.Op == GapFirst {
			// gap occupies seq1 in [gStart,gEnd) at fixed seq2 = gSeq2.
			gSeq2 := Accumulator(gap.Offset.Seq2)
			if gSeq2 < diagA2 || gSeq2 >= diagE2 {
				return false
			}
			projSeq1 := diagA1 + (gSeq2 - diagA2)
			gStart, gEnd := Accumulator(gap.Offset.Seq1), Accumulator(gap.End().Seq1)
			return projSeq1 >= gStart && projSeq1 < gEnd
		}
		gSeq1 := Accumulator(gap.Offset.Seq1)
		if gSeq1 < diagA1 || gSeq1 >= diagE1 {
			return false
		}
		projSeq2 := diagA2 + (gSeq1 - diagA1)
		gStart, gEnd := Accumulator(gap.Offset.Seq2), Accumulator(gap.End().Seq2)
		return projSeq2 >= gStart && projSeq2 < gEnd
	}
}
