package pairwise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// paperScorer reproduces the original Smith-Waterman local alignment
// paper's worked example: plain base equality for Match/Mismatch,
// +10/-9 scores, and affine gaps costing -20 to open and -20 to
// extend on both sequences.
type paperScorer struct{}

func (paperScorer) Classify(sym1, sym2 byte) Op {
	if sym1 == sym2 {
		return Match
	}
	return Mismatch
}

func (paperScorer) Score(i int, sym1 byte, j int, sym2 byte) int {
	if sym1 == sym2 {
		return 10
	}
	return -9
}

func (paperScorer) Seq1GapOpen(i int) int   { return -20 }
func (paperScorer) Seq1GapExtend(i int) int { return -20 }
func (paperScorer) Seq2GapOpen(j int) int   { return -20 }
func (paperScorer) Seq2GapExtend(j int) int { return -20 }

// TestFullScanPaperExample drives FullScan directly (not through any
// higher-level wrapper) over the original Smith-Waterman paper's
// published example and checks that AllOptimal recovers exactly the
// paper's enumerated set of non-dominated local alignments, by start
// position and score. Expected starts are given 0-based in the
// published reference; this package's DP reports (row, col) as
// 1-based cell coordinates, so every published start is shifted by
// (+1, +1) below.
func TestFullScanPaperExample(t *testing.T) {
	seq1 := []byte("CCAATCTACTACTGCTTGCAGTAC")
	seq2 := []byte("AGTCCGAGGGCTACTCTACTGAAC")

	scan := FullScan[int]{Seq1: seq1, Seq2: seq2, Scorer: paperScorer{}}
	tracer := NewAllOptimal[int32, int](Thresholds[int]{MinScore: 21}, nil)
	scan.ScanAll(tracer)
	seeds := tracer.Finalize()

	want := map[[2]int32]int{
		{1, 4}:   21,
		{3, 1}:   21,
		{14, 10}: 30,
		{22, 12}: 30,
		{22, 17}: 30,
		{12, 11}: 31,
		{20, 1}:  31,
		{1, 11}:  62,
		{9, 16}:  60,
		{6, 11}:  61,
		{9, 11}:  50,
	}
	got := map[[2]int32]int{}
	for _, s := range seeds {
		got[[2]int32{s.Row, s.Col}] = s.Score
	}
	assert.Equal(t, want, got)

	seen := map[[2]int32]bool{}
	for _, s := range seeds {
		assert.GreaterOrEqual(t, s.Score, 21)
		key := [2]int32{s.Row, s.Col}
		assert.False(t, seen[key], "duplicate start %v", key)
		seen[key] = true
	}
}

// TestFullScanNoHitsBelowThreshold confirms that a threshold nothing
// in a sequence pair can reach yields an empty result, not a panic or
// a spuriously synthesized seed.
func TestFullScanNoHitsBelowThreshold(t *testing.T) {
	seq1 := []byte("CCAATCTACTACTGCTTGCAGTAC")
	seq2 := []byte("AGTCCGAGGGCTACTCTACTGAAC")

	scan := FullScan[int]{Seq1: seq1, Seq2: seq2, Scorer: paperScorer{}}
	tracer := NewAllOptimal[int32, int](Thresholds[int]{MinScore: 1000}, nil)
	scan.ScanAll(tracer)
	assert.Empty(t, tracer.Finalize())
}
