package pairwise

import (
	"sort"

	"github.com/biosuite/bio/numx"
)

// AlignmentSeed is one reported non-dominated local alignment: no
// other reported seed shares its (Row, Col) start with a strictly
// higher score.
type AlignmentSeed[Idx numx.Integer, S numx.Number] struct {
	Row, Col Idx
	Score    S
}

// Thresholds gates which candidates AllOptimal keeps, per spec.md 4.H
// ("SoftFilter").
type Thresholds[S numx.Number] struct {
	MinScore         S
	MinStemLength    int
	MinROIOverlap    int
}

// ROI is one region-of-interest interval in DP column coordinates.
type ROI[Idx numx.Integer] struct {
	Start, End Idx
}

// ROITracker advances monotonically with the DP column, per spec.md
// 4.H and 9: it assumes columns are visited in strictly increasing
// order and does not support revisiting a column.
type ROITracker[Idx numx.Integer] struct {
	rois []ROI[Idx]
	idx  int
}

// NewROITracker builds a tracker over a sorted, disjoint list of ROIs.
func NewROITracker[Idx numx.Integer](rois []ROI[Idx]) *ROITracker[Idx] {
	return &ROITracker[Idx]{rois: rois}
}

// Advance reports whether col falls inside a region of interest,
// advancing past any ROI that ends before col.
func (t *ROITracker[Idx]) Advance(col Idx) bool {
	for t.idx < len(t.rois) && t.rois[t.idx].End <= col {
		t.idx++
	}
	if t.idx >= len(t.rois) {
		return false
	}
	return t.rois[t.idx].Start <= col && col < t.rois[t.idx].End
}

// candidate tracks the provenance of a single in-progress diagonal
// chain: its original start, current score, the length of the
// uninterrupted diagonal run currently in progress, the best such run
// length seen so far on this chain, and the longest run length seen
// while inside a region of interest.
type candidate[Idx numx.Integer, S numx.Number] struct {
	valid           bool
	startRow        Idx
	startCol        Idx
	score           S
	stemLen         int
	bestStemLen     int
	bestROIStemLen  int
}

// AllOptimal is the Tracer implementation that recovers every
// non-dominated local alignment from one DP scan (spec.md 4.H).
type AllOptimal[Idx numx.Integer, S numx.Number] struct {
	thresholds Thresholds[S]
	roi        *ROITracker[Idx]

	cache   []candidate[Idx, S]      // cache[j]: candidate ending at (curRow, j)
	prior   []candidate[Idx, S]      // snapshot of cache at row start
	consumed []bool                  // prior[j] consumed by this row's Equivalent at col j+1

	bestGapCol []candidate[Idx, S] // persists across rows, one per column
	bestGapRow candidate[Idx, S]   // reset every row

	curRow Idx

	results map[[2]Idx]AlignmentSeed[Idx, S]
}

// NewAllOptimal returns a fresh tracker ready to be handed to
// FullScan.ScanAll / ScanUpTriangle as a Tracer.
func NewAllOptimal[Idx numx.Integer, S numx.Number](thresholds Thresholds[S], roi *ROITracker[Idx]) *AllOptimal[Idx, S] {
	return &AllOptimal[Idx, S]{
		thresholds: thresholds,
		roi:        roi,
		results:    map[[2]Idx]AlignmentSeed[Idx, S]{},
	}
}

func (a *AllOptimal[Idx, S]) FirstColStart() {}

func (a *AllOptimal[Idx, S]) FirstColEnd() {}

func (a *AllOptimal[Idx, S]) ColStart(row int) {
	a.curRow = Idx(row)
	a.prior = append([]candidate[Idx, S]{}, a.cache...)
	a.consumed = make([]bool, len(a.cache)+1)
	a.bestGapRow = candidate[Idx, S]{}
}

func (a *AllOptimal[Idx, S]) ensureCols(col int) {
	for len(a.cache) <= col {
		a.cache = append(a.cache, candidate[Idx, S]{})
		a.prior = append(a.prior, candidate[Idx, S]{})
		a.consumed = append(a.consumed, false)
		a.bestGapCol = append(a.bestGapCol, candidate[Idx, S]{})
	}
}

func (a *AllOptimal[Idx, S]) RowGapOpen(row, col int, score S) {
	a.ensureCols(col)
	start := a.prior[col]
	c := candidate[Idx, S]{valid: true, score: score}
	if start.valid {
		c.startRow, c.startCol = start.startRow, start.startCol
	} else {
		c.startRow, c.startCol = Idx(row), Idx(col)
	}
	a.bestGapCol[col] = c
	a.consumed[col] = true
}

func (a *AllOptimal[Idx, S]) RowGapExtend(row, col int, score S) {
	a.ensureCols(col)
	a.bestGapCol[col].score = score
}

func (a *AllOptimal[Idx, S]) ColGapOpen(row, col int, score S) {
	a.ensureCols(col)
	left := a.cache[col-1]
	c := candidate[Idx, S]{valid: true, score: score}
	if left.valid {
		c.startRow, c.startCol = left.startRow, left.startCol
	} else {
		c.startRow, c.startCol = Idx(row), Idx(col)
	}
	a.bestGapRow = c
}

func (a *AllOptimal[Idx, S]) ColGapExtend(row, col int, score S) {
	a.bestGapRow.score = score
}

func (a *AllOptimal[Idx, S]) Equivalent(row, col int, op Op, score S) {
	a.ensureCols(col)
	inROI := a.roi != nil && a.roi.Advance(Idx(col))

	pred := a.prior[col-1]
	var c candidate[Idx, S]
	if pred.valid {
		c = candidate[Idx, S]{
			valid:          true,
			startRow:       pred.startRow,
			startCol:       pred.startCol,
			score:          score,
			stemLen:        pred.stemLen + 1,
			bestStemLen:    pred.bestStemLen,
			bestROIStemLen: pred.bestROIStemLen,
		}
		a.consumed[col-1] = true
	} else {
		c = candidate[Idx, S]{valid: true, startRow: Idx(row), startCol: Idx(col), score: score, stemLen: 1}
	}
	if c.stemLen > c.bestStemLen {
		c.bestStemLen = c.stemLen
	}
	if inROI && c.stemLen > c.bestROIStemLen {
		c.bestROIStemLen = c.stemLen
	}
	a.cache[col] = c
}

func (a *AllOptimal[Idx, S]) GapCol(row, col int, score S) {
	a.ensureCols(col)
	c := a.bestGapCol[col]
	c.score = score
	c.stemLen = 0
	a.cache[col] = c
}

func (a *AllOptimal[Idx, S]) GapRow(row, col int, score S) {
	a.ensureCols(col)
	c := a.bestGapRow
	c.score = score
	c.stemLen = 0
	a.cache[col] = c
}

func (a *AllOptimal[Idx, S]) None(row, col int) {
	a.ensureCols(col)
	a.cache[col] = candidate[Idx, S]{}
}

// ColEnd flushes every prior-row candidate that this row's Equivalent
// events did not carry forward, per spec.md 4.H ("col_end: flush the
// diagonal spill-over into the results set"); the rightmost column's
// predecessor always spills over since no column n+1 exists to
// consume it this row.
func (a *AllOptimal[Idx, S]) ColEnd(row int) {
	for j, cand := range a.prior {
		if cand.valid && !a.consumed[j] {
			a.consider(cand)
		}
	}
}

// Finalize flushes the residual per-column cache (the final row's
// candidates, which no subsequent row exists to consume) and returns
// every seed that passed the configured Thresholds, sorted by start.
func (a *AllOptimal[Idx, S]) Finalize() []AlignmentSeed[Idx, S] {
	for _, cand := range a.cache {
		if cand.valid {
			a.consider(cand)
		}
	}
	out := make([]AlignmentSeed[Idx, S], 0, len(a.results))
	for _, seed := range a.results {
		out = append(out, seed)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (a *AllOptimal[Idx, S]) consider(c candidate[Idx, S]) {
	if c.score < a.thresholds.MinScore {
		return
	}
	if c.bestStemLen < a.thresholds.MinStemLength {
		return
	}
	if a.roi != nil && c.bestROIStemLen < a.thresholds.MinROIOverlap {
		return
	}
	key := [2]Idx{c.startRow, c.startCol}
	if existing, ok := a.results[key]; ok && existing.Score >= c.score {
		return
	}
	a.results[key] = AlignmentSeed[Idx, S]{Row: c.startRow, Col: c.startCol, Score: c.score}
}
