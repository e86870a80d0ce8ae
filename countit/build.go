package countit

import (
	"fmt"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"

	"github.com/biosuite/bio/interval"
)

// Build runs spec.md 4.K's single-threaded build phase: every element
// is intersected against every partition, contributing a local slot to
// each partition it lands in, and each partition gets one BITS index
// per orientation over the local slots it now owns.
func Build(elements []Element, partitions []Partition) []PartitionIndex {
	out := make([]PartitionIndex, len(partitions))
	seen := make(map[uint64]string, len(partitions))
	for pi, part := range partitions {
		key := partitionKey(part)
		if prior, dup := seen[key]; dup {
			log.Info.Printf("countit: partition %s collides with %s on task identity hash; building anyway", partitionTag(part), prior)
		}
		seen[key] = partitionTag(part)
		out[pi] = buildOne(elements, part)
	}
	return out
}

// partitionKey hashes a partition's (contig, start, end) task identity
// with FarmHash rather than relying on Go's map[string]... default
// hashing, so the build phase can cheaply flag accidental
// double-registration of the same partition before it wastes a worker
// slot at run time.
func partitionKey(part Partition) uint64 {
	return farm.Hash64([]byte(partitionTag(part)))
}

func partitionTag(part Partition) string {
	return fmt.Sprintf("%s:%d-%d", part.Contig, part.Interval.Start, part.Interval.End)
}

func buildOne(elements []Element, part Partition) PartitionIndex {
	localToGlobal := []int{}
	localSlot := make(map[int]int, len(elements))

	for gi, el := range elements {
		if elementIntersectsPartition(el, part) {
			local := len(localToGlobal)
			localToGlobal = append(localToGlobal, gi)
			localSlot[gi] = local
		}
	}

	idx := PartitionIndex{Partition: part, LocalToGlobal: localToGlobal}
	for _, o := range interval.Orientations {
		var ivs []interval.Ivl[PosType]
		var slots []int
		for gi, el := range elements {
			local, ok := localSlot[gi]
			if !ok {
				continue
			}
			for _, span := range *el.Spans.Get(o) {
				if span.Contig != part.Contig {
					continue
				}
				for _, iv := range span.Intervals {
					if clipped, ok := iv.Intersection(part.Interval); ok {
						ivs = append(ivs, clipped)
						slots = append(slots, local)
					}
				}
			}
		}
		*idx.Index.Get(o) = interval.Build[PosType, int](ivs, slots)
	}
	return idx
}

func elementIntersectsPartition(el Element, part Partition) bool {
	for _, o := range interval.Orientations {
		for _, span := range *el.Spans.Get(o) {
			if span.Contig != part.Contig {
				continue
			}
			for _, iv := range span.Intervals {
				if iv.Intersects(part.Interval) {
					return true
				}
			}
		}
	}
	return false
}
