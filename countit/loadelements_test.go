package countit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biosuite/bio/interval"
)

func TestLoadElementsFromBEDParsesNameAndStrand(t *testing.T) {
	input := "chr1\t10\t20\tgeneA\t0\t+\n" +
		"chr1\t30\t40\tgeneB\t0\t-\n" +
		"# a comment\n" +
		"\n" +
		"chr2\t5\t8\n"
	elements, err := LoadElementsFromBED(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Len(t, elements, 3)

	assert.Equal(t, "geneA", elements[0].Name)
	fwd := *elements[0].Spans.Get(interval.Forward)
	assert.Len(t, fwd, 1)
	assert.Equal(t, "chr1", fwd[0].Contig)
	assert.Equal(t, PosType(10), fwd[0].Intervals[0].Start)
	assert.Equal(t, PosType(20), fwd[0].Intervals[0].End)

	assert.Equal(t, "geneB", elements[1].Name)
	rev := *elements[1].Spans.Get(interval.Reverse)
	assert.Len(t, rev, 1)

	assert.Equal(t, "chr2:5-8", elements[2].Name)
	assert.Empty(t, *elements[2].Spans.Get(interval.Reverse))
}

func TestLoadElementsFromBEDRejectsShortLines(t *testing.T) {
	_, err := LoadElementsFromBED(strings.NewReader("chr1\t10\n"))
	assert.Error(t, err)
}

func TestTilePartitionsCoversWholeContigInOrder(t *testing.T) {
	lengths := map[string]PosType{"chr2": 25, "chr1": 10}
	partitions := TilePartitions(lengths, 10)
	assert.Len(t, partitions, 4)

	assert.Equal(t, "chr1", partitions[0].Contig)
	assert.Equal(t, PosType(0), partitions[0].Interval.Start)
	assert.Equal(t, PosType(10), partitions[0].Interval.End)

	assert.Equal(t, "chr2", partitions[1].Contig)
	assert.Equal(t, PosType(0), partitions[1].Interval.Start)
	assert.Equal(t, PosType(10), partitions[1].Interval.End)
	assert.Equal(t, PosType(20), partitions[3].Interval.Start)
	assert.Equal(t, PosType(25), partitions[3].Interval.End)
}
