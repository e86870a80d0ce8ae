package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSegmentsConcrete(t *testing.T) {
	queries := []Ivl[int32]{mustIvl(t, 0, 10)}
	hitIvs := []Ivl[int32]{mustIvl(t, 1, 3), mustIvl(t, 4, 6), mustIvl(t, 7, 9)}
	hitData := []string{"a", "b", "c"}

	got, err := BuildSegments(queries, hitIvs, hitData)
	assert.NoError(t, err)

	type want struct {
		iv   Ivl[int32]
		data []string
	}
	wants := []want{
		{mustIvl(t, 0, 1), nil},
		{mustIvl(t, 1, 3), []string{"a"}},
		{mustIvl(t, 3, 4), nil},
		{mustIvl(t, 4, 6), []string{"b"}},
		{mustIvl(t, 6, 7), nil},
		{mustIvl(t, 7, 9), []string{"c"}},
		{mustIvl(t, 9, 10), nil},
	}
	assert.Len(t, got, len(wants))
	for i, w := range wants {
		assert.Equal(t, w.iv, got[i].Interval)
		assert.ElementsMatch(t, w.data, got[i].Data)
	}
}

func TestBuildSegmentsNoQuery(t *testing.T) {
	_, err := BuildSegments[int32, string](nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoQueryProvided)
}

func TestBuildSegmentsAdjacentDistinctPresence(t *testing.T) {
	queries := []Ivl[int32]{mustIvl(t, 0, 10)}
	hitIvs := []Ivl[int32]{mustIvl(t, 0, 10)}
	hitData := []string{"a"}
	got, err := BuildSegments(queries, hitIvs, hitData)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, mustIvl(t, 0, 10), got[0].Interval)

	for i := 1; i < len(got); i++ {
		assert.False(t, samePresence(got[i-1].Data, toSet(got[i].Data)))
	}
}

func toSet(xs []string) map[string]bool {
	m := map[string]bool{}
	for _, x := range xs {
		m[x] = true
	}
	return m
}
