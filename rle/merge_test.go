package rle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type maxStrategy struct{}

func (maxStrategy) Single(v int) int { return v }
func (maxStrategy) Two(a, b int) int {
	if a > b {
		return a
	}
	return b
}
func (maxStrategy) Multiple(vs []int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func denseRLE(t *testing.T, values []int) *RLEVec[uint32, int] {
	t.Helper()
	rv, err := FromDense[uint32](values, identicalInt)
	assert.NoError(t, err)
	return rv
}

func TestMerge2SelfIsIdentity(t *testing.T) {
	a := denseRLE(t, []int{1, 2, 2, 3, 3, 3})
	got, err := Merge2Run[uint32, int, int](a, a, maxStrategy{}, identicalInt)
	assert.NoError(t, err)
	assert.Equal(t, a.Dense(), got.Dense())
}

func TestMergeNConcreteMax(t *testing.T) {
	seq4 := append(append(make([]int, 0, 13), repeat(0, 11)...), 10, 1)
	inputs := []*RLEVec[uint32, int]{
		denseRLE(t, []int{1, 2, 3, 4, 5, 5, 4}),
		denseRLE(t, []int{}),
		denseRLE(t, []int{5, 5, 5, 5, 5, 1, 1, 1, 1}),
		denseRLE(t, seq4),
		denseRLE(t, repeat(0, 100)),
	}

	got, err := MergeNRun[uint32, int, int](inputs, maxStrategy{}, identicalInt)
	assert.NoError(t, err)

	want := []Run[uint32, int]{
		{5, 6}, {4, 1}, {1, 2}, {0, 2}, {10, 1}, {1, 1}, {0, 87},
	}
	assert.Equal(t, want, got.Runs())
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
