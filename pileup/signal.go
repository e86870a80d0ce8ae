// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"math"

	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/rle"
)

// ReadBatch is one batch yielded by an alignment source: the read's
// segments (sorted, non-overlapping, within the read's own span), its
// orientation, and how many times it mapped in the genome.
type ReadBatch struct {
	Segments    []interval.Ivl[PosType]
	Orientation interval.Orientation
	TotalHits   int
}

// BuildPileup accumulates 1/TotalHits per base of every segment that
// falls inside query, per orientation, per spec.md 4.I.
func BuildPileup(query interval.Ivl[PosType], batches []ReadBatch) interval.PerOrientation[[]float64] {
	var out interval.PerOrientation[[]float64]
	length := int(query.Len())
	*out.Get(interval.Forward) = make([]float64, length)
	*out.Get(interval.Reverse) = make([]float64, length)
	*out.Get(interval.Dual) = make([]float64, length)

	for _, b := range batches {
		if b.TotalHits <= 0 {
			continue
		}
		weight := 1.0 / float64(b.TotalHits)
		arr := out.Get(b.Orientation)
		for _, seg := range b.Segments {
			clipped, ok := seg.Intersection(query)
			if !ok {
				continue
			}
			for p := clipped.Start; p < clipped.End; p++ {
				(*arr)[p-query.Start] += weight
			}
		}
	}
	return out
}

// sensitivityEqual builds the |a-b| <= epsilon equivalence predicate
// RLE encoding uses throughout this package.
func sensitivityEqual(epsilon float64) rle.Identical[float64] {
	return func(a, b float64) bool { return math.Abs(a-b) <= epsilon }
}

// EncodeCounts RLE-encodes a dense per-base count array under the
// |a-b| <= epsilon equivalence.
func EncodeCounts(values []float64, epsilon float64) (*rle.RLEVec[uint32, float64], error) {
	return rle.FromDense[uint32](values, sensitivityEqual(epsilon))
}

// Scaling holds the per-source count scale factors applied during
// enrichment (spec.md 4.I) and NMS baseline computation (spec.md
// 4.J); not named directly by spec.md's data model but required by
// both components' formulas.
type Scaling struct {
	Signal, Control float64
}

type enrichStrategy struct {
	scaling      Scaling
	minRawSignal float64
}

// Single is reached only past the shorter of signal/control's extent;
// with no control value to divide by, enrichment is undefined there
// and reported as zero.
func (enrichStrategy) Single(float64) float64 { return 0 }

func (e enrichStrategy) Two(signal, control float64) float64 {
	if signal < e.minRawSignal {
		return 0
	}
	scaledControl := control * e.scaling.Control
	if scaledControl == 0 {
		return 0
	}
	return (signal * e.scaling.Signal) / scaledControl
}

// Enrich 2-way merges signal against control, computing
// (signal*Signal)/(control*Control), zero wherever signal is below
// minRawSignal, per spec.md 4.I.
func Enrich(signal, control *rle.RLEVec[uint32, float64], scaling Scaling, minRawSignal, epsilon float64) (*rle.RLEVec[uint32, float64], error) {
	return rle.Merge2Run[uint32, float64, float64](signal, control, enrichStrategy{scaling: scaling, minRawSignal: minRawSignal}, sensitivityEqual(epsilon))
}
