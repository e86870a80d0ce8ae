package interval

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/biosuite/bio/numx"
)

// ErrNoQueryProvided is raised by BuildSegments when the query list is
// empty.
var ErrNoQueryProvided = errors.New("interval: no query interval provided")

// eventKind orders same-position events: HitStart < QueryStart <
// QueryEnd < HitEnd (spec.md 4.C).
type eventKind int

const (
	evHitStart eventKind = iota
	evQueryStart
	evQueryEnd
	evHitEnd
)

type event[Idx numx.Integer, T comparable] struct {
	pos  Idx
	kind eventKind
	data T
}

// Segment is one maximal, non-overlapping region of a BuildSegments
// output, carrying the set of data references overlapping it.
type Segment[Idx numx.Integer, T comparable] struct {
	Interval Ivl[Idx]
	Data     []T
}

// BuildSegments runs the sweep line described in spec.md 4.C over a
// set of query intervals and a set of (interval, data) hits, producing
// a sorted, pairwise-disjoint partition of the union of the queries,
// each segment annotated with the presence set of hits overlapping it.
// Adjacent segments are guaranteed to carry distinct presence sets.
func BuildSegments[Idx numx.Integer, T comparable](queries []Ivl[Idx], hitIvs []Ivl[Idx], hitData []T) ([]Segment[Idx, T], error) {
	if len(queries) == 0 {
		return nil, ErrNoQueryProvided
	}
	if len(hitIvs) != len(hitData) {
		return nil, errors.Wrap(ErrHitDataLengthMismatch, "hit intervals and data length mismatch")
	}

	events := make([]event[Idx, T], 0, 2*len(queries)+2*len(hitIvs))
	for _, q := range queries {
		events = append(events,
			event[Idx, T]{pos: q.Start, kind: evQueryStart},
			event[Idx, T]{pos: q.End, kind: evQueryEnd},
		)
	}
	for i, h := range hitIvs {
		events = append(events,
			event[Idx, T]{pos: h.Start, kind: evHitStart, data: hitData[i]},
			event[Idx, T]{pos: h.End, kind: evHitEnd, data: hitData[i]},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].kind < events[j].kind
	})

	var out []Segment[Idx, T]
	activeQueries := 0
	counts := map[T]int{}
	present := map[T]bool{}
	cursor := events[0].pos

	emit := func(end Idx) {
		if activeQueries <= 0 || end <= cursor {
			return
		}
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.Interval.End == cursor && samePresence(last.Data, present) {
				last.Interval.End = end
				cursor = end
				return
			}
		}
		set := presenceSlice(present)
		out = append(out, Segment[Idx, T]{Interval: Ivl[Idx]{Start: cursor, End: end}, Data: set})
		cursor = end
	}

	i := 0
	for i < len(events) {
		pos := events[i].pos
		emit(pos)
		// apply HitStart events before emitting the segment starting here
		for i < len(events) && events[i].pos == pos && events[i].kind == evHitStart {
			addPresence(counts, present, events[i].data)
			i++
		}
		for i < len(events) && events[i].pos == pos && events[i].kind == evQueryStart {
			activeQueries++
			i++
		}
		cursor = pos
		for i < len(events) && events[i].pos == pos && events[i].kind == evQueryEnd {
			activeQueries--
			i++
		}
		// HitEnd events update the presence set only after the segment
		// ending here was emitted above, so a hit [a,b) contributes to
		// every segment whose start lies in [a,b) and no other.
		for i < len(events) && events[i].pos == pos && events[i].kind == evHitEnd {
			removePresence(counts, present, events[i].data)
			i++
		}
	}
	return out, nil
}

func addPresence[T comparable](counts map[T]int, present map[T]bool, d T) {
	counts[d]++
	present[d] = true
}

func removePresence[T comparable](counts map[T]int, present map[T]bool, d T) {
	counts[d]--
	if counts[d] <= 0 {
		delete(counts, d)
		delete(present, d)
	}
}

func samePresence[T comparable](data []T, present map[T]bool) bool {
	if len(data) != len(present) {
		return false
	}
	for _, d := range data {
		if !present[d] {
			return false
		}
	}
	return true
}

func presenceSlice[T comparable](present map[T]bool) []T {
	if len(present) == 0 {
		return nil
	}
	out := make([]T, 0, len(present))
	for d := range present {
		out = append(out, d)
	}
	return out
}
