package countit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/pileup"
)

type fakeSource struct {
	batches []pileup.ReadBatch
}

func (f *fakeSource) PopulateCaches(map[string]interface{}) {}
func (f *fakeSource) ReleaseCaches(map[string]interface{})  {}
func (f *fakeSource) Fetch(contig string, start, end PosType, emit func(pileup.ReadBatch) error) error {
	for _, b := range f.batches {
		if err := emit(b); err != nil {
			return err
		}
	}
	return nil
}

func TestEngineRunAggregatesAcrossPartitions(t *testing.T) {
	elements := []Element{
		elementFwd(t, "geneA", 0, 10),
		elementFwd(t, "geneB", 20, 30),
	}
	iv1, _ := interval.New(PosType(0), PosType(15))
	iv2, _ := interval.New(PosType(15), PosType(35))
	partitions := []Partition{{Contig: "chr1", Interval: iv1}, {Contig: "chr1", Interval: iv2}}
	index := Build(elements, partitions)

	seg1, _ := interval.New(PosType(2), PosType(8))
	seg2, _ := interval.New(PosType(22), PosType(28))

	source := &fakeSource{batches: []pileup.ReadBatch{
		{Segments: []interval.Ivl[PosType]{seg1}, Orientation: interval.Forward, TotalHits: 1},
		{Segments: []interval.Ivl[PosType]{seg2}, Orientation: interval.Forward, TotalHits: 1},
	}}

	engine := &Engine{
		Elements:    elements,
		Partitions:  index,
		Sources:     []Source{source},
		NewStrategy: func() Strategy { return &AnyOverlap{} },
		Parallelism: 2,
	}

	results, err := engine.Run()
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.InDelta(t, 1, results[0].Counts[0], 1e-9)
	assert.InDelta(t, 1, results[0].Counts[1], 1e-9)
	assert.Len(t, results[0].Stats, 2)
}
