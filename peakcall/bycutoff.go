// Package peakcall turns an enrichment track into a set of discrete
// peaks: a cutoff-based scanner (ByCutoff) and a boundary-aware
// non-maximum-suppression refinement pass (NMS).
package peakcall

import (
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/numx"
	"github.com/biosuite/bio/rle"
)

// Peak is one called region: its genomic span, the score backing the
// call, and the position of its maximum value.
type Peak[Idx numx.Integer, S numx.Number] struct {
	Interval interval.Ivl[Idx]
	Score    S
	Summit   Idx
}

// ByCutoff scans an RLE track and emits maximal runs whose value is at
// or above Cutoff and whose length is at least MinLength, merging
// qualifying peaks that remain within MergeWithin bases of each other.
type ByCutoff[Idx numx.Integer, S numx.Number] struct {
	MinLength   Idx
	MergeWithin Idx
	Cutoff      S
}

type rawPeak[Idx numx.Integer, S numx.Number] struct {
	start, end Idx
	summit     Idx
	max        S
}

// RunRuns applies cutoff b to an RLE-encoded track whose first run
// starts at genomic position base.
func RunRuns[Idx numx.Integer, L numx.Unsigned, S numx.Number](b ByCutoff[Idx, S], runs []rle.Run[L, S], base Idx) []Peak[Idx, S] {
	var raw []rawPeak[Idx, S]

	pos := base
	inRun := false
	var cur rawPeak[Idx, S]
	for _, r := range runs {
		length := Idx(r.Length)
		if r.Value >= b.Cutoff {
			if !inRun {
				cur = rawPeak[Idx, S]{start: pos, end: pos + length, summit: pos, max: r.Value}
				inRun = true
			} else {
				cur.end = pos + length
				if r.Value > cur.max {
					cur.max = r.Value
					cur.summit = pos
				}
			}
		} else if inRun {
			raw = append(raw, cur)
			inRun = false
		}
		pos += length
	}
	if inRun {
		raw = append(raw, cur)
	}

	var filtered []rawPeak[Idx, S]
	for _, p := range raw {
		if p.end-p.start >= b.MinLength {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	merged := []rawPeak[Idx, S]{filtered[0]}
	for _, p := range filtered[1:] {
		last := &merged[len(merged)-1]
		if p.start-last.end <= b.MergeWithin {
			last.end = p.end
			if p.max > last.max {
				last.max = p.max
				last.summit = p.summit
			}
		} else {
			merged = append(merged, p)
		}
	}

	out := make([]Peak[Idx, S], len(merged))
	for i, p := range merged {
		out[i] = Peak[Idx, S]{Interval: interval.Ivl[Idx]{Start: p.start, End: p.end}, Score: p.max, Summit: p.summit}
	}
	return out
}
