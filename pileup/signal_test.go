package pileup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/rle"
)

func ivl(t *testing.T, s, e PosType) interval.Ivl[PosType] {
	t.Helper()
	iv, err := interval.New(s, e)
	assert.NoError(t, err)
	return iv
}

func TestBuildPileupWeightsByTotalHits(t *testing.T) {
	query := ivl(t, 0, 10)
	batches := []ReadBatch{
		{Segments: []interval.Ivl[PosType]{ivl(t, 0, 4)}, Orientation: interval.Forward, TotalHits: 2},
		{Segments: []interval.Ivl[PosType]{ivl(t, 2, 6)}, Orientation: interval.Forward, TotalHits: 1},
		{Segments: []interval.Ivl[PosType]{ivl(t, 8, 20)}, Orientation: interval.Reverse, TotalHits: 1},
	}

	got := BuildPileup(query, batches)
	want := []float64{0.5, 0.5, 1.5, 1.5, 1, 1, 0, 0, 0, 0}
	assert.Equal(t, want, *got.Get(interval.Forward))
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}, *got.Get(interval.Reverse))
	assert.Equal(t, make([]float64, 10), *got.Get(interval.Dual))
}

func TestEncodeCountsSensitivity(t *testing.T) {
	values := []float64{1.0, 1.04, 1.09, 5.0}
	rv, err := EncodeCounts(values, 0.05)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.09, 5.0}, rv.Values)
	assert.Equal(t, []uint32{2, 1, 1}, rv.Lengths)
}

func TestEnrichBasic(t *testing.T) {
	sigIdentical := func(a, b float64) bool { return a == b }
	sig, err := rle.FromRuns[uint32]([]float64{10, 0}, []uint32{5, 5}, sigIdentical)
	assert.NoError(t, err)
	ctrl, err := rle.FromRuns[uint32]([]float64{2, 2}, []uint32{5, 5}, sigIdentical)
	assert.NoError(t, err)

	got, err := Enrich(sig, ctrl, Scaling{Signal: 1, Control: 1}, 1, 0)
	assert.NoError(t, err)
	assert.Equal(t, []float64{5, 0}, got.Values)
	assert.Equal(t, []uint32{5, 5}, got.Lengths)
}

func TestEnrichBelowMinRawSignal(t *testing.T) {
	eq := func(a, b float64) bool { return a == b }
	sig, err := rle.FromRuns[uint32]([]float64{0.5}, []uint32{4}, eq)
	assert.NoError(t, err)
	ctrl, err := rle.FromRuns[uint32]([]float64{1}, []uint32{4}, eq)
	assert.NoError(t, err)

	got, err := Enrich(sig, ctrl, Scaling{Signal: 1, Control: 1}, 1, 0)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0}, got.Values)
}
