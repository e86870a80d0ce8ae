// Package countit implements the parallel counting engine of spec.md
// 4.K-4.M: elements are intersected against partitions once, then every
// (source, partition) task is resolved independently across a worker
// pool and scattered back into per-source result vectors.
package countit

import (
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/pileup"
)

// PosType is the coordinate type countit shares with the rest of the
// toolkit.
type PosType = pileup.PosType

// Span is one contiguous block of a named element on a single contig.
type Span struct {
	Contig    string
	Intervals []interval.Ivl[PosType]
}

// Element is one countable annotation: a global name plus its spans,
// recorded independently per orientation.
type Element struct {
	Name  string
	Spans interval.PerOrientation[[]Span]
}

// Partition is one unit of work: a contiguous region of a contig that
// the run phase schedules a (source, partition) task against.
type Partition struct {
	Contig   string
	Interval interval.Ivl[PosType]
}

// PartitionIndex is the build phase's output for one partition: the
// local-element vector it contributes to (LocalToGlobal), and a BITS
// index per orientation mapping interval -> local slot.
type PartitionIndex struct {
	Partition     Partition
	LocalToGlobal []int
	Index         interval.PerOrientation[interval.BITS[PosType, int]]
}

// PartitionMetrics is the per-(source,partition) outcome summary
// spec.md 4.K calls PartitionMetrics: mass assigned to elements, mass
// discarded outside annotation, and the task's wall-clock duration.
type PartitionMetrics struct {
	Resolved    float64
	Discarded   float64
	TimeSeconds float64
}
