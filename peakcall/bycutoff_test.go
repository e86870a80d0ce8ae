package peakcall

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/rle"
)

func TestByCutoffBasic(t *testing.T) {
	runs := []rle.Run[uint32, float64]{
		{Value: 0, Length: 2},
		{Value: 5, Length: 3},
		{Value: 0, Length: 1},
		{Value: 6, Length: 1},
		{Value: 0, Length: 4},
	}
	b := ByCutoff[int32, float64]{MinLength: 1, MergeWithin: 0, Cutoff: 4}
	got := RunRuns[int32, uint32](b, runs, 0)

	want := []Peak[int32, float64]{
		{Interval: interval.Ivl[int32]{Start: 2, End: 5}, Score: 5, Summit: 2},
		{Interval: interval.Ivl[int32]{Start: 6, End: 7}, Score: 6, Summit: 6},
	}
	assert.Equal(t, want, got)
}

func TestByCutoffMinLengthDropsShortRuns(t *testing.T) {
	runs := []rle.Run[uint32, float64]{
		{Value: 5, Length: 1},
		{Value: 0, Length: 10},
		{Value: 5, Length: 5},
	}
	b := ByCutoff[int32, float64]{MinLength: 3, MergeWithin: 0, Cutoff: 4}
	got := RunRuns[int32, uint32](b, runs, 0)
	assert.Len(t, got, 1)
	assert.Equal(t, interval.Ivl[int32]{Start: 11, End: 16}, got[0].Interval)
}

func TestByCutoffMergeWithin(t *testing.T) {
	runs := []rle.Run[uint32, float64]{
		{Value: 5, Length: 3},
		{Value: 0, Length: 2},
		{Value: 5, Length: 3},
	}
	b := ByCutoff[int32, float64]{MinLength: 1, MergeWithin: 2, Cutoff: 4}
	got := RunRuns[int32, uint32](b, runs, 0)
	assert.Len(t, got, 1)
	assert.Equal(t, interval.Ivl[int32]{Start: 0, End: 8}, got[0].Interval)
}
