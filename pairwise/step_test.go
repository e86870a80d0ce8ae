package pairwise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseConcrete(t *testing.T) {
	steps := []Step[uint8]{
		{Match, 10}, {Match, 20}, {Match, 30}, {Match, 40}, {Match, 50},
		{GapFirst, 200}, {GapFirst, 100},
		{Match, 15}, {Match, 15}, {Match, 15},
	}
	got := Collapse(steps)
	want := []Step[uint8]{
		{Match, 150}, {GapFirst, 255}, {GapFirst, 45}, {Match, 45},
	}
	assert.Equal(t, want, got)
}

func totalLen(steps []Step[uint8]) int {
	total := 0
	for _, s := range steps {
		total += int(s.Len)
	}
	return total
}

func TestCollapsePreservesTotalLength(t *testing.T) {
	steps := []Step[uint8]{
		{Match, 10}, {Match, 20}, {Match, 30}, {Match, 40}, {Match, 50},
		{GapFirst, 200}, {GapFirst, 100},
		{Match, 15}, {Match, 15}, {Match, 15},
	}
	assert.Equal(t, totalLen(steps), totalLen(Collapse(steps)))

	for i := 1; i < len(Collapse(steps)); i++ {
		got := Collapse(steps)
		assert.True(t, got[i-1].Op != got[i].Op || got[i-1].Len == 255)
	}
}

func TestRLEStringConcrete(t *testing.T) {
	steps := []Step[uint8]{{Match, 1}, {GapFirst, 2}, {Match, 3}}
	assert.Equal(t, "1=2v3=", RLEString(steps))
}

func TestStepEnd(t *testing.T) {
	s := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: Match, Len: 5}, Offset: Offset[int32]{Seq1: 10, Seq2: 20}}
	assert.Equal(t, Offset[int32]{Seq1: 15, Seq2: 25}, s.End())

	g1 := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: GapFirst, Len: 5}, Offset: Offset[int32]{Seq1: 10, Seq2: 20}}
	assert.Equal(t, Offset[int32]{Seq1: 15, Seq2: 20}, g1.End())

	g2 := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: GapSecond, Len: 5}, Offset: Offset[int32]{Seq1: 10, Seq2: 20}}
	assert.Equal(t, Offset[int32]{Seq1: 10, Seq2: 25}, g2.End())
}

func TestIntersectsDiagonalDiagonal(t *testing.T) {
	a := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: Match, Len: 5}, Offset: Offset[int32]{Seq1: 0, Seq2: 0}}
	b := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: Match, Len: 5}, Offset: Offset[int32]{Seq1: 2, Seq2: 2}}
	assert.True(t, Intersects[int32, uint16, int64](a, b))

	c := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: Match, Len: 5}, Offset: Offset[int32]{Seq1: 2, Seq2: 3}}
	assert.False(t, Intersects[int32, uint16, int64](a, c))
}

func TestIntersectsGapDiagonal(t *testing.T) {
	diag := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: Match, Len: 5}, Offset: Offset[int32]{Seq1: 0, Seq2: 0}}
	gapFirst := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: GapFirst, Len: 3}, Offset: Offset[int32]{Seq1: 1, Seq2: 2}}
	assert.True(t, Intersects[int32, uint16, int64](diag, gapFirst))

	gapFirstMiss := StepWithOffset[int32, uint16]{Step: Step[uint16]{Op: GapFirst, Len: 3}, Offset: Offset[int32]{Seq1: 10, Seq2: 2}}
	assert.False(t, Intersects[int32, uint16, int64](diag, gapFirstMiss))
}
