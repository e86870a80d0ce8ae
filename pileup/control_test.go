package pileup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biosuite/bio/interval"
)

func chain(t *testing.T, links ...interval.Ivl[PosType]) interval.Chain[PosType] {
	t.Helper()
	c, err := interval.NewChain(links)
	assert.NoError(t, err)
	return c
}

func TestControlModelSlidingWindow(t *testing.T) {
	signal := []float64{0, 0, 10, 10, 10, 0, 0, 0}
	model := ControlModel{
		Regions:     []interval.Chain[PosType]{chain(t, ivl(t, 0, 8))},
		WindowSizes: []int{4},
	}
	got := model.Apply(signal, 0, 1e-9)

	// window [0,4) mean=5 written at offset 2; window[1,5) mean 7.5 at offset
	// 3; window[2,6) mean 7.5 at offset 4; window[3,7) mean 5 at offset 5;
	// window[4,8) mean 2.5 at offset 6.
	want := []float64{0, 0, 5, 7.5, 7.5, 5, 2.5, 0}
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestControlModelUniformBaselineFloor(t *testing.T) {
	signal := []float64{0, 0, 100, 0, 0}
	model := ControlModel{
		Regions:         []interval.Chain[PosType]{chain(t, ivl(t, 0, 5))},
		UniformBaseline: true,
	}
	got := model.Apply(signal, 0, 1e-9)
	mean := 20.0
	for _, v := range got {
		assert.GreaterOrEqual(t, v, mean-1e-9)
	}
}

func TestControlModelSkipsBelowEpsilon(t *testing.T) {
	signal := []float64{0, 0, 0}
	model := ControlModel{
		Regions:     []interval.Chain[PosType]{chain(t, ivl(t, 0, 3))},
		WindowSizes: []int{2},
	}
	got := model.Apply(signal, 0, 1e-9)
	assert.Equal(t, []float64{0, 0, 0}, got)
}

func TestFinalizeZerosBelowMinSignal(t *testing.T) {
	baseline := []float64{0.1, 5, 5, 0.2}
	rv, err := Finalize(baseline, 1, 1e-9)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 0}, rv.Values)
	assert.Equal(t, []uint32{1, 2, 1}, rv.Lengths)
}
