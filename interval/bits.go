package interval

import (
	"sort"

	"github.com/minio/highwayhash"

	"github.com/biosuite/bio/numx"
)

// BITS is a sorted array-based interval-tree index: three parallel
// arrays (starts, ends, elements) sorted by (start, end), plus maxLen,
// the length of the longest stored interval. Build once, query many
// times; never mutated after Build.
type BITS[Idx numx.Integer, T any] struct {
	starts   []Idx
	ends     []Idx
	elements []T
	maxLen   Idx
}

// entry pairs an interval with its element, used only during Build.
type entry[Idx numx.Integer, T any] struct {
	iv Ivl[Idx]
	el T
}

// Build sorts (iv, element) pairs by (start, end) and records maxLen.
// An empty input is allowed.
func Build[Idx numx.Integer, T any](ivs []Ivl[Idx], elements []T) BITS[Idx, T] {
	entries := make([]entry[Idx, T], len(ivs))
	for i := range ivs {
		entries[i] = entry[Idx, T]{iv: ivs[i], el: elements[i]}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].iv.Less(entries[j].iv) })

	idx := BITS[Idx, T]{
		starts:   make([]Idx, len(entries)),
		ends:     make([]Idx, len(entries)),
		elements: make([]T, len(entries)),
	}
	for i, e := range entries {
		idx.starts[i] = e.iv.Start
		idx.ends[i] = e.iv.End
		idx.elements[i] = e.el
		if l := e.iv.Len(); l > idx.maxLen {
			idx.maxLen = l
		}
	}
	return idx
}

// Len returns the number of intervals stored in the index.
func (b *BITS[Idx, T]) Len() int { return len(b.starts) }

// Hit is a single query result: the stored interval and its element.
type Hit[Idx numx.Integer, T any] struct {
	Interval Ivl[Idx]
	Element  T
}

// Query returns every stored interval that intersects [qs, qe), per
// spec.md 4.B: compute boundary = max(0, qs - maxLen), binary search
// for the first start >= boundary, then scan forward, skipping
// entries whose end <= qs and stopping at the first start >= qe.
func (b *BITS[Idx, T]) Query(qs, qe Idx) []Hit[Idx, T] {
	if len(b.starts) == 0 {
		return nil
	}
	var boundary Idx
	if qs > b.maxLen {
		boundary = qs - b.maxLen
	}
	lo := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] >= boundary })

	var out []Hit[Idx, T]
	for i := lo; i < len(b.starts); i++ {
		if b.starts[i] >= qe {
			break
		}
		if b.ends[i] <= qs {
			continue
		}
		out = append(out, Hit[Idx, T]{
			Interval: Ivl[Idx]{Start: b.starts[i], End: b.ends[i]},
			Element:  b.elements[i],
		})
	}
	return out
}

// Digest returns a content hash of the three parallel arrays, used to
// detect accidental double-registration of the same partition during
// CountIt's build phase.
func (b *BITS[Idx, T]) Digest() uint64 {
	buf := make([]byte, 0, len(b.starts)*16)
	for i := range b.starts {
		buf = appendIdx(buf, b.starts[i])
		buf = appendIdx(buf, b.ends[i])
	}
	key := make([]byte, 32)
	h, _ := highwayhash.New64(key)
	_, _ = h.Write(buf)
	return h.Sum64()
}

func appendIdx[Idx numx.Integer](buf []byte, v Idx) []byte {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(u>>(8*i)))
	}
	return buf
}
