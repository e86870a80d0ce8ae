package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBITSQueryMatchesIntersects(t *testing.T) {
	ivs := []Ivl[int32]{
		mustIvl(t, 0, 5), mustIvl(t, 3, 10), mustIvl(t, 20, 25), mustIvl(t, 100, 101),
	}
	names := []string{"a", "b", "c", "d"}
	idx := Build(ivs, names)

	q := mustIvl(t, 4, 21)
	hits := idx.Query(q.Start, q.End)

	gotNames := map[string]bool{}
	for _, h := range hits {
		assert.True(t, h.Interval.Intersects(q))
		gotNames[h.Element] = true
	}
	for i, iv := range ivs {
		want := iv.Intersects(q)
		assert.Equal(t, want, gotNames[names[i]], "interval %v", iv)
	}
}

func TestBITSQueryEmptyIndex(t *testing.T) {
	idx := Build([]Ivl[int32]{}, []string{})
	assert.Empty(t, idx.Query(0, 100))
}

// TestBITSQueryUnsignedUnderQueryBelowMaxLen guards against boundary :=
// qs - maxLen underflowing when Idx is unsigned and qs < maxLen: a long
// stored interval that starts at 0 must still be found when querying
// near the origin.
func TestBITSQueryUnsignedUnderQueryBelowMaxLen(t *testing.T) {
	long, err := New[uint32](0, 1000)
	assert.NoError(t, err)
	short, err := New[uint32](2, 6)
	assert.NoError(t, err)
	idx := Build([]Ivl[uint32]{long, short}, []string{"long", "short"})

	// maxLen is 1000; qs=3 is far below maxLen, so the naive qs-maxLen
	// subtraction wraps around for an unsigned Idx.
	hits := idx.Query(uint32(3), uint32(4))
	gotNames := map[string]bool{}
	for _, h := range hits {
		gotNames[h.Element] = true
	}
	assert.True(t, gotNames["long"], "expected the interval [0,1000) to be found querying [3,4)")
	assert.True(t, gotNames["short"], "expected the interval [2,6) to be found querying [3,4)")
}
