package peakcall

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/numx"
	"github.com/biosuite/bio/pileup"
	"github.com/biosuite/bio/rle"
)

// denseToRuns collapses a dense value slice into adjacent-distinct RLE
// runs; NMS's rescoring pass builds a fresh track per peak, so there is
// no standing RLEVec (and its equivalence predicate) to reuse here.
func denseToRuns[S numx.Number](values []S) []rle.Run[uint32, S] {
	if len(values) == 0 {
		return nil
	}
	var runs []rle.Run[uint32, S]
	cur := values[0]
	var length uint32 = 1
	for _, v := range values[1:] {
		if v == cur {
			length++
			continue
		}
		runs = append(runs, rle.Run[uint32, S]{Value: cur, Length: length})
		cur = v
		length = 1
	}
	runs = append(runs, rle.Run[uint32, S]{Value: cur, Length: length})
	return runs
}

// ErrInvalidNMSConfig is returned when an NMS is constructed with
// out-of-range thresholds, per spec.md 4.J.
var ErrInvalidNMSConfig = errors.New("peakcall: invalid NMS configuration")

// NMS refines by-cutoff peaks with a boundary-aware non-maximum
// suppression pass, per spec.md 4.J: nearby peaks are grouped, the
// group is extended by an affine slop clamped at caller-supplied
// boundaries, a local baseline is computed over the extended window,
// and each peak is re-scanned with ByCutoff at baseline*FECutoff.
type NMS[Idx numx.Integer, S numx.Number] struct {
	FECutoff    S
	GroupWithin Idx
	SlopFrac    float64
	MinSlop     Idx
	MaxSlop     Idx
	Boundaries  interval.PerOrientation[[]Idx]
}

// Validate rejects configurations spec.md 4.J names as invalid at
// configuration time.
func (n NMS[Idx, S]) Validate() error {
	var zero S
	if n.FECutoff < zero+1 {
		return errors.Wrap(ErrInvalidNMSConfig, "fe_cutoff must be >= 1")
	}
	if n.GroupWithin < 0 {
		return errors.Wrap(ErrInvalidNMSConfig, "group_within must be >= 0")
	}
	if n.SlopFrac < 0 {
		return errors.Wrap(ErrInvalidNMSConfig, "slop_frac must be >= 0")
	}
	if n.MinSlop > n.MaxSlop {
		return errors.Wrap(ErrInvalidNMSConfig, "min_slop must be <= max_slop")
	}
	return nil
}

func clamp[Idx numx.Integer](v, lo, hi Idx) Idx {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// leftSlop returns how far left of pos a window may extend without
// crossing a boundary: unchanged if pos sits exactly on a boundary,
// else clamped toward the nearest boundary strictly to its left.
func leftSlop[Idx numx.Integer](boundaries []Idx, pos, maxdist Idx) Idx {
	idx := sort.Search(len(boundaries), func(i int) bool { return boundaries[i] >= pos })
	if idx < len(boundaries) && boundaries[idx] == pos {
		return pos
	}
	d := maxdist
	if pos < d {
		d = pos
	}
	slopped := pos - d
	if idx == 0 {
		return slopped
	}
	if boundaries[idx-1] > slopped {
		return boundaries[idx-1]
	}
	return slopped
}

// rightSlop is leftSlop's mirror image.
func rightSlop[Idx numx.Integer](boundaries []Idx, pos, maxdist Idx) Idx {
	idx := sort.Search(len(boundaries), func(i int) bool { return boundaries[i] >= pos })
	if idx < len(boundaries) && boundaries[idx] == pos {
		return pos
	}
	slopped := pos + maxdist
	if idx == len(boundaries) {
		return slopped
	}
	if boundaries[idx] < slopped {
		return boundaries[idx]
	}
	return slopped
}

// Run post-processes peaks of a single orientation. sigCounts and
// ctrlCounts are dense per-base arrays indexed from base; scaling and
// sensitivity feed the local baseline formula of spec.md 4.J.
func (n NMS[Idx, S]) Run(orientation interval.Orientation, peaks []Peak[Idx, S], sigCounts, ctrlCounts []S, base Idx, scaling pileup.Scaling, sensitivity S) []Peak[Idx, S] {
	if len(peaks) == 0 {
		return nil
	}
	sorted := append([]Peak[Idx, S]{}, peaks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Interval.Start < sorted[j].Interval.Start })

	var groups [][]Peak[Idx, S]
	cache := []Peak[Idx, S]{sorted[0]}
	last := sorted[0]
	for _, p := range sorted[1:] {
		if p.Interval.Start-last.Interval.End > n.GroupWithin {
			groups = append(groups, cache)
			cache = nil
		}
		cache = append(cache, p)
		last = p
	}
	groups = append(groups, cache)

	boundaries := *n.Boundaries.Get(orientation)

	var out []Peak[Idx, S]
	for _, group := range groups {
		start, end := group[0].Interval.Start, group[len(group)-1].Interval.End
		groupLen := end - start
		slop := clamp(Idx(float64(groupLen)*n.SlopFrac), n.MinSlop, n.MaxSlop)

		slopStart := leftSlop(boundaries, start, slop)
		slopEnd := rightSlop(boundaries, end, slop)
		if slopStart >= slopEnd {
			continue
		}

		var total float64
		var covered int
		for p := slopStart; p < slopEnd; p++ {
			i := p - base
			if i < 0 || int(i) >= len(sigCounts) {
				continue
			}
			sig, ctrl := sigCounts[i], ctrlCounts[i]
			if sig <= sensitivity && ctrl <= sensitivity {
				continue
			}
			covered++
			v := float64(sig)*scaling.Signal - float64(ctrl)*scaling.Control
			if v < 0 {
				v = 0
			}
			total += v
		}
		if covered == 0 {
			continue
		}
		baseline := total / (float64(covered) + 1e-6)
		cutoff := ByCutoff[Idx, S]{MinLength: 1, MergeWithin: 0, Cutoff: S(baseline) * n.FECutoff}

		for _, peak := range group {
			out = append(out, rescorePeak(cutoff, peak, sigCounts, ctrlCounts, base, scaling)...)
		}
	}
	return out
}

// rescorePeak re-runs ByCutoff over a single original peak's span,
// scoring each base by (sig*Signal - ctrl*Control), floored at zero.
func rescorePeak[Idx numx.Integer, S numx.Number](cutoff ByCutoff[Idx, S], peak Peak[Idx, S], sigCounts, ctrlCounts []S, base Idx, scaling pileup.Scaling) []Peak[Idx, S] {
	length := int(peak.Interval.End - peak.Interval.Start)
	values := make([]S, length)
	for k := 0; k < length; k++ {
		i := peak.Interval.Start - base + Idx(k)
		if i < 0 || int(i) >= len(sigCounts) {
			continue
		}
		v := float64(sigCounts[i])*scaling.Signal - float64(ctrlCounts[i])*scaling.Control
		if v < 0 {
			v = 0
		}
		values[k] = S(v)
	}
	runs := denseToRuns(values)
	return RunRuns[Idx, uint32, S](cutoff, runs, peak.Interval.Start)
}
