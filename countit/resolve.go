package countit

import (
	"github.com/biosuite/bio/interval"
)

// Outcomes accumulates the mass a resolution strategy assigns versus
// discards for one task, per spec.md 4.K: "resolved (mass assigned to
// elements) and discarded (mass outside annotation)".
type Outcomes struct {
	Resolved  float64
	Discarded float64
}

// Strategy is implemented by each resolution scheme of spec.md 4.L.
// Reset is called once per (source, partition) task before any Resolve
// call, handing the strategy the partition's local element vector;
// rankFn is nil for strategies that ignore it.
type Strategy interface {
	Reset(localToGlobal []int, elements []Element, rankFn func(Element) int)
	Resolve(totalHits int, segmentLengths []PosType, overlaps *interval.Elements[PosType, int], counts []float64, outcomes *Outcomes)
}

func overlappingSlots(overlaps *interval.Elements[PosType, int]) map[int]bool {
	seen := map[int]bool{}
	for qi := 0; qi < overlaps.NumQueries(); qi++ {
		_, data := overlaps.Group(qi)
		for _, slot := range data {
			seen[slot] = true
		}
	}
	return seen
}

// AnyOverlap gives every element that overlaps any segment of a read
// the read's full weight 1/total_hits; reads with no overlaps
// contribute their weight to Discarded.
type AnyOverlap struct{}

func (*AnyOverlap) Reset([]int, []Element, func(Element) int) {}

func (*AnyOverlap) Resolve(totalHits int, _ []PosType, overlaps *interval.Elements[PosType, int], counts []float64, outcomes *Outcomes) {
	weight := 1.0 / float64(totalHits)
	seen := overlappingSlots(overlaps)
	if len(seen) == 0 {
		outcomes.Discarded += weight
		return
	}
	for slot := range seen {
		counts[slot] += weight
		outcomes.Resolved += weight
	}
}

// OverlapWeighted apportions a read's weight across overlapping
// elements in proportion to total overlap length, with the
// unannotated fraction of the read's aligned length going to
// Discarded.
type OverlapWeighted struct{}

func (*OverlapWeighted) Reset([]int, []Element, func(Element) int) {}

func (*OverlapWeighted) Resolve(totalHits int, segmentLengths []PosType, overlaps *interval.Elements[PosType, int], counts []float64, outcomes *Outcomes) {
	var totalLength float64
	for _, l := range segmentLengths {
		totalLength += float64(l)
	}
	if totalLength == 0 {
		return
	}
	weight := 1.0 / float64(totalHits)

	perElement := map[int]float64{}
	var annotated float64
	for qi := 0; qi < overlaps.NumQueries(); qi++ {
		ivs, data := overlaps.Group(qi)
		for k, iv := range ivs {
			l := float64(iv.Len())
			perElement[data[k]] += l
			annotated += l
		}
	}
	unannotated := totalLength - annotated
	if unannotated < 0 {
		unannotated = 0
	}
	for slot, length := range perElement {
		share := weight * length / totalLength
		counts[slot] += share
		outcomes.Resolved += share
	}
	if unannotated > 0 {
		outcomes.Discarded += weight * unannotated / totalLength
	}
}

// TopRanked keeps only the overlapping elements tied for the best
// (lowest) caller-supplied rank and splits the read's weight equally
// among them.
type TopRanked struct {
	rank []int
}

// Reset computes each local slot's rank via rankFn, per spec.md 4.L
// ("a caller-provided ranking function assigns a priority ... at
// reset").
func (s *TopRanked) Reset(localToGlobal []int, elements []Element, rankFn func(Element) int) {
	s.rank = make([]int, len(localToGlobal))
	for local, global := range localToGlobal {
		s.rank[local] = rankFn(elements[global])
	}
}

func (s *TopRanked) Resolve(totalHits int, _ []PosType, overlaps *interval.Elements[PosType, int], counts []float64, outcomes *Outcomes) {
	weight := 1.0 / float64(totalHits)
	seen := overlappingSlots(overlaps)
	if len(seen) == 0 {
		outcomes.Discarded += weight
		return
	}

	best := s.rank[firstOf(seen)]
	for slot := range seen {
		if s.rank[slot] < best {
			best = s.rank[slot]
		}
	}
	var tied []int
	for slot := range seen {
		if s.rank[slot] == best {
			tied = append(tied, slot)
		}
	}
	share := weight / float64(len(tied))
	for _, slot := range tied {
		counts[slot] += share
		outcomes.Resolved += share
	}
}

func firstOf(s map[int]bool) int {
	for k := range s {
		return k
	}
	return 0
}
