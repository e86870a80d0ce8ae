package interval

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrInvalidInterval is returned when a half-open interval is
// constructed with start >= end.
var ErrInvalidInterval = errors.New("interval: start must be < end")

// ErrInvalidChain is returned when a Chain's links are not strictly
// sorted by start and pairwise disjoint.
var ErrInvalidChain = errors.New("interval: chain links must be sorted and disjoint")

// Ivl is a half-open interval [Start, End) over an ordered coordinate
// type. The zero value is not a valid interval; always go through New.
type Ivl[Idx numx.Integer] struct {
	Start, End Idx
}

// New builds an Ivl, failing with ErrInvalidInterval when start >= end.
func New[Idx numx.Integer](start, end Idx) (Ivl[Idx], error) {
	if start >= end {
		return Ivl[Idx]{}, errors.Wrapf(ErrInvalidInterval, "[%v, %v)", start, end)
	}
	return Ivl[Idx]{Start: start, End: end}, nil
}

// Len returns End - Start.
func (iv Ivl[Idx]) Len() Idx {
	return iv.End - iv.Start
}

// Contains reports whether p falls inside [Start, End).
func (iv Ivl[Idx]) Contains(p Idx) bool {
	return p >= iv.Start && p < iv.End
}

// Intersects reports whether iv and other share any coordinate, using
// strict inequality on both sides (touching intervals do not
// intersect).
func (iv Ivl[Idx]) Intersects(other Ivl[Idx]) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Touches reports whether exactly one endpoint of iv matches the
// opposite boundary of other, with no overlap.
func (iv Ivl[Idx]) Touches(other Ivl[Idx]) bool {
	return iv.End == other.Start || other.End == iv.Start
}

// Intersection returns the overlap of iv and other. ok is false when
// they do not intersect.
func (iv Ivl[Idx]) Intersection(other Ivl[Idx]) (result Ivl[Idx], ok bool) {
	if !iv.Intersects(other) {
		return Ivl[Idx]{}, false
	}
	start := iv.Start
	if other.Start > start {
		start = other.Start
	}
	end := iv.End
	if other.End < end {
		end = other.End
	}
	return Ivl[Idx]{Start: start, End: end}, true
}

// Union returns the span covering both iv and other. ok is false
// unless they intersect or touch.
func (iv Ivl[Idx]) Union(other Ivl[Idx]) (result Ivl[Idx], ok bool) {
	if !iv.Intersects(other) && !iv.Touches(other) {
		return Ivl[Idx]{}, false
	}
	start := iv.Start
	if other.Start < start {
		start = other.Start
	}
	end := iv.End
	if other.End > end {
		end = other.End
	}
	return Ivl[Idx]{Start: start, End: end}, true
}

// Extend returns iv widened by left on its start and right on its end.
// left and right must be non-negative.
func (iv Ivl[Idx]) Extend(left, right Idx) Ivl[Idx] {
	return Ivl[Idx]{Start: iv.Start - left, End: iv.End + right}
}

// Less orders intervals lexicographically by (Start, End); it is the
// ordering used by Merge and MergeWithin.
func (iv Ivl[Idx]) Less(other Ivl[Idx]) bool {
	if iv.Start != other.Start {
		return iv.Start < other.Start
	}
	return iv.End < other.End
}

func sortIvls[Idx numx.Integer](xs []Ivl[Idx]) {
	sort.Slice(xs, func(i, j int) bool { return xs[i].Less(xs[j]) })
}

// Merge sorts xs in place and coalesces overlapping or touching
// intervals, returning a sorted, pairwise-disjoint slice.
func Merge[Idx numx.Integer](xs []Ivl[Idx]) []Ivl[Idx] {
	return MergeWithin(xs, 0)
}

// MergeWithin sorts xs in place and coalesces intervals whose gap is
// <= within (0 reproduces Merge's overlap-or-touch behavior).
func MergeWithin[Idx numx.Integer](xs []Ivl[Idx], within Idx) []Ivl[Idx] {
	if len(xs) == 0 {
		return xs
	}
	sortIvls(xs)
	out := xs[:1]
	for _, cur := range xs[1:] {
		last := &out[len(out)-1]
		gap := cur.Start - last.End
		if cur.Start <= last.End || gap <= within {
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		out = append(out, cur)
	}
	return out
}

// Subtract returns the parts of A not covered by B, after merging both
// A and B independently.
func Subtract[Idx numx.Integer](a, b []Ivl[Idx]) []Ivl[Idx] {
	a = Merge(append([]Ivl[Idx]{}, a...))
	b = Merge(append([]Ivl[Idx]{}, b...))

	var out []Ivl[Idx]
	j := 0
	for _, av := range a {
		cur := av
		for j < len(b) && b[j].End <= cur.Start {
			j++
		}
		k := j
		for k < len(b) && b[k].Start < cur.End {
			if b[k].Start > cur.Start {
				out = append(out, Ivl[Idx]{Start: cur.Start, End: b[k].Start})
			}
			if b[k].End > cur.Start {
				cur.Start = b[k].End
			}
			if cur.Start >= cur.End {
				break
			}
			k++
		}
		if cur.Start < cur.End {
			out = append(out, cur)
		}
	}
	return out
}

// Overlap returns the pairwise intersections between every element of
// a and every element of b.
func Overlap[Idx numx.Integer](a, b []Ivl[Idx]) []Ivl[Idx] {
	var out []Ivl[Idx]
	for _, av := range a {
		for _, bv := range b {
			if iv, ok := av.Intersection(bv); ok {
				out = append(out, iv)
			}
		}
	}
	return out
}

// Overlaps returns, for each element of a, whether it intersects any
// element of b.
func Overlaps[Idx numx.Integer](a, b []Ivl[Idx]) []bool {
	out := make([]bool, len(a))
	for i, av := range a {
		for _, bv := range b {
			if av.Intersects(bv) {
				out[i] = true
				break
			}
		}
	}
	return out
}

// Chain is an ordered sequence of intervals, pairwise disjoint and
// strictly sorted by Start; it represents a discontinuous region such
// as the exons of a transcript.
type Chain[Idx numx.Integer] struct {
	Links []Ivl[Idx]
}

// NewChain validates that links are strictly sorted and disjoint.
func NewChain[Idx numx.Integer](links []Ivl[Idx]) (Chain[Idx], error) {
	for i := 1; i < len(links); i++ {
		if !links[i-1].Less(links[i]) || links[i-1].Intersects(links[i]) || links[i-1].End > links[i].Start {
			return Chain[Idx]{}, errors.Wrapf(ErrInvalidChain, "link %d..%d", i-1, i)
		}
	}
	return Chain[Idx]{Links: links}, nil
}

// Len returns the total number of coordinates covered by the chain.
func (c Chain[Idx]) Len() Idx {
	var total Idx
	for _, l := range c.Links {
		total += l.Len()
	}
	return total
}

// Orientation is one of the three conceptual strands.
type Orientation int

const (
	// Forward strand.
	Forward Orientation = iota
	// Reverse strand.
	Reverse
	// Dual means either/unknown strand.
	Dual
)

// Orientations lists every Orientation value, in PerOrientation slot
// order.
var Orientations = [3]Orientation{Forward, Reverse, Dual}

// PerOrientation holds exactly one T per Orientation slot; there is no
// "all" value beyond explicit enumeration.
type PerOrientation[T any] struct {
	Fwd, Rev, Dual T
}

// Get returns the slot for o.
func (p *PerOrientation[T]) Get(o Orientation) *T {
	switch o {
	case Forward:
		return &p.Fwd
	case Reverse:
		return &p.Rev
	default:
		return &p.Dual
	}
}
