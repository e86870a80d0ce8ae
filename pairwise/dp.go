package pairwise

import "github.com/biosuite/bio/numx"

// Scorer supplies the per-cell scoring scheme the DP needs: a
// row/column aware substitution score, affine gap-open/extend costs
// per row and per column, and a classifier distinguishing Equivalent
// diagonal moves from ordinary Match/Mismatch.
type Scorer[S numx.Number] interface {
	Score(i int, sym1 byte, j int, sym2 byte) S
	Seq1GapOpen(i int) S
	Seq1GapExtend(i int) S
	Seq2GapOpen(j int) S
	Seq2GapExtend(j int) S
	Classify(sym1, sym2 byte) Op
}

// Tracer receives provenance events from the DP as it scans; it does
// not own the answer, a concrete implementation (e.g. AllOptimal)
// decides what to store. GapCol corresponds to D(i,j) (a gap opened
// across a column, consuming seq1 only -- GapFirst); GapRow
// corresponds to I(i,j) (a gap opened across a row, consuming seq2
// only -- GapSecond).
type Tracer[S numx.Number] interface {
	FirstColStart()
	FirstColEnd()
	ColStart(col int)
	ColEnd(col int)

	RowGapOpen(row, col int, score S)
	RowGapExtend(row, col int, score S)
	ColGapOpen(row, col int, score S)
	ColGapExtend(row, col int, score S)

	Equivalent(row, col int, op Op, score S)
	GapRow(row, col int, score S)
	GapCol(row, col int, score S)
	None(row, col int)
}

func maxS[S numx.Number](a, b S) S {
	if a > b {
		return a
	}
	return b
}

// FullScan is the affine-gap local alignment DP core. It is generic
// over two 1-D buffers (scores for C, gapcol for D) and three scalars
// (diagonal, left, gaprow for I), per spec.md 4.G.
type FullScan[S numx.Number] struct {
	Seq1, Seq2 []byte
	Scorer     Scorer[S]
}

// ScanAll runs the DP over the full (len(Seq1)+1) x (len(Seq2)+1)
// rectangle, invoking tracer for every cell.
func (fs FullScan[S]) ScanAll(tracer Tracer[S]) {
	fs.scan(tracer, -1)
}

// ScanUpTriangle runs the DP restricted to cells with col - row <=
// offset, the anti-parallel/offset-bounded search named in spec.md
// 4.G. offset must be >= 0.
func (fs FullScan[S]) ScanUpTriangle(tracer Tracer[S], offset int) {
	fs.scan(tracer, offset)
}

// scan implements both traversal modes; triangleOffset < 0 means
// unrestricted (ScanAll).
func (fs FullScan[S]) scan(tracer Tracer[S], triangleOffset int) {
	m, n := len(fs.Seq1), len(fs.Seq2)
	scores := make([]S, n+1)
	gapcol := make([]S, n+1)

	tracer.FirstColStart()
	for j := 1; j <= n; j++ {
		scores[j] = 0
		gapcol[j] = 0
	}
	tracer.FirstColEnd()

	for i := 1; i <= m; i++ {
		colLo, colHi := 1, n
		if triangleOffset >= 0 {
			colLo = i
			colHi = i + triangleOffset
			if colHi > n {
				colHi = n
			}
			if colLo > n {
				break
			}
		}

		tracer.ColStart(i)

		diagonal := scores[colLo-1]
		left := S(0)
		if colLo-1 >= 0 {
			left = scores[colLo-1]
		}
		gaprow := S(0)

		for j := colLo; j <= colHi; j++ {
			prevC := scores[j]
			prevD := gapcol[j]

			dOpen := prevC + fs.Scorer.Seq1GapOpen(i)
			dExtend := prevD + fs.Scorer.Seq1GapExtend(i)
			d := maxS(maxS(dOpen, dExtend), S(0))
			if d > 0 {
				if dExtend >= dOpen {
					tracer.RowGapExtend(i, j, d)
				} else {
					tracer.RowGapOpen(i, j, d)
				}
			}

			iOpen := left + fs.Scorer.Seq2GapOpen(j)
			iExtend := gaprow + fs.Scorer.Seq2GapExtend(j)
			gaprow = maxS(maxS(iOpen, iExtend), S(0))
			if gaprow > 0 {
				if iExtend >= iOpen {
					tracer.ColGapExtend(i, j, gaprow)
				} else {
					tracer.ColGapOpen(i, j, gaprow)
				}
			}

			sym1, sym2 := fs.Seq1[i-1], fs.Seq2[j-1]
			diagScore := diagonal + fs.Scorer.Score(i, sym1, j, sym2)
			op := fs.Scorer.Classify(sym1, sym2)

			c := S(0)
			switch {
			case diagScore > 0 && diagScore >= d && diagScore >= gaprow:
				c = diagScore
				tracer.Equivalent(i, j, op, c)
			case d > 0 && d >= gaprow:
				c = d
				tracer.GapCol(i, j, c)
			case gaprow > 0:
				c = gaprow
				tracer.GapRow(i, j, c)
			default:
				tracer.None(i, j)
			}

			diagonal = prevC
			left = c
			scores[j] = c
			gapcol[j] = d
		}

		tracer.ColEnd(i)
	}
}
