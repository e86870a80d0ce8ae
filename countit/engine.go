package countit

import (
	"fmt"
	"time"

	"github.com/grailbio/base/traverse"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/pileup"
)

// Source is one alignment source countit counts against, per spec.md
// 4.K. PopulateCaches/ReleaseCaches bracket every task a worker runs
// against this source, handing it a per-worker scratch map for
// source-internal state (e.g. a decompressed block cache). Fetch
// streams every read batch overlapping [start, end) on contig to emit;
// emit returning an error aborts the fetch.
type Source interface {
	PopulateCaches(cache map[string]interface{})
	ReleaseCaches(cache map[string]interface{})
	Fetch(contig string, start, end PosType, emit func(pileup.ReadBatch) error) error
}

// Engine owns the build-phase indices and drives the run phase across
// a worker pool, per spec.md 4.K-4.M.
type Engine struct {
	Elements    []Element
	Partitions  []PartitionIndex
	Sources     []Source
	NewStrategy func() Strategy
	RankFn      func(Element) int // only consulted by TopRanked strategies
	Parallelism int
}

// Result is one source's counting output: the global per-element
// counts and the per-partition metrics recorded while producing them.
type Result struct {
	Counts []float64
	Stats  []PartitionMetrics
}

type taskResult struct {
	filled  bool
	counts  []float64
	metrics PartitionMetrics
}

// Run executes the cross-product of sources x partitions across
// Engine.Parallelism workers and scatters each task's local counts
// back into global, per-source result vectors.
func (e *Engine) Run() ([]Result, error) {
	nSources, nPartitions := len(e.Sources), len(e.Partitions)
	grid := make([][]taskResult, nSources)
	for i := range grid {
		grid[i] = make([]taskResult, nPartitions)
	}

	nTasks := nSources * nPartitions
	parallelism := e.Parallelism
	if parallelism <= 0 || parallelism > nTasks {
		parallelism = nTasks
	}
	if parallelism > 0 {
		err := traverse.Each(parallelism, func(shardIdx int) error {
			startIdx := (shardIdx * nTasks) / parallelism
			endIdx := ((shardIdx + 1) * nTasks) / parallelism
			for task := startIdx; task < endIdx; task++ {
				si, pi := task/nPartitions, task%nPartitions
				if err := e.runTask(si, pi, &grid[si][pi]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	results := make([]Result, nSources)
	for si := range results {
		counts := make([]float64, len(e.Elements))
		stats := make([]PartitionMetrics, nPartitions)
		for pi, part := range e.Partitions {
			tr := grid[si][pi]
			if !tr.filled {
				panic(fmt.Sprintf("countit: dispatch bug: missing result for source %d partition %d", si, pi))
			}
			for local, global := range part.LocalToGlobal {
				counts[global] += tr.counts[local]
			}
			stats[pi] = tr.metrics
		}
		results[si] = Result{Counts: counts, Stats: stats}
	}
	return results, nil
}

func (e *Engine) runTask(si, pi int, out *taskResult) error {
	started := time.Now()
	source := e.Sources[si]
	part := e.Partitions[pi]

	strategy := e.NewStrategy()
	strategy.Reset(part.LocalToGlobal, e.Elements, e.RankFn)

	localCounts := make([]float64, len(part.LocalToGlobal))
	var outcomes Outcomes
	elements := interval.NewElements[PosType, int]()

	cache := map[string]interface{}{}
	source.PopulateCaches(cache)
	defer source.ReleaseCaches(cache)

	err := source.Fetch(part.Partition.Contig, part.Partition.Interval.Start, part.Partition.Interval.End, func(batch pileup.ReadBatch) error {
		elements = elements.Recycle()
		idx := part.Index.Get(batch.Orientation)

		segLens := make([]PosType, 0, len(batch.Segments))
		for _, seg := range batch.Segments {
			clipped, ok := seg.Intersection(part.Partition.Interval)
			if !ok {
				continue
			}
			segLens = append(segLens, clipped.Len())

			a := elements.Add()
			for _, hit := range idx.Query(clipped.Start, clipped.End) {
				if overlap, ok := hit.Interval.Intersection(clipped); ok {
					a.Push(overlap, hit.Element)
				}
			}
			a.Finish()
		}
		strategy.Resolve(batch.TotalHits, segLens, elements, localCounts, &outcomes)
		return nil
	})
	if err != nil {
		return err
	}

	*out = taskResult{
		filled: true,
		counts: localCounts,
		metrics: PartitionMetrics{
			Resolved:    outcomes.Resolved,
			Discarded:   outcomes.Discarded,
			TimeSeconds: time.Since(started).Seconds(),
		},
	}
	return nil
}
