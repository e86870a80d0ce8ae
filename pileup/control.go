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
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/rle"
)

// ControlModel smooths a signal track into a local background
// baseline, per spec.md 4.I. Each region is processed independently:
// its linked bases are gathered into a scratch buffer, a sliding mean
// of each configured window width is folded into a baseline array
// (offset by half the window, taking the max against whatever is
// already there), and -- if UniformBaseline is set -- the region's
// overall mean is additionally imposed as a floor.
type ControlModel struct {
	Regions         []interval.Chain[PosType]
	UniformBaseline bool
	WindowSizes     []int
}

// Apply computes the baseline track for signal, a dense per-base count
// array whose index 0 corresponds to genomic position base. Regions
// whose bases fall outside [base, base+len(signal)) are not supported;
// callers must restrict Regions to the queried span. A region whose
// total signal is below epsilon is skipped entirely.
func (m ControlModel) Apply(signal []float64, base PosType, epsilon float64) []float64 {
	out := make([]float64, len(signal))
	for _, chain := range m.Regions {
		buf := gatherChain(chain, signal, base)
		if len(buf) == 0 {
			continue
		}
		var total float64
		for _, v := range buf {
			total += v
		}
		if total <= epsilon {
			continue
		}

		baseline := make([]float64, len(buf))
		for _, w := range m.WindowSizes {
			if w <= 0 || w >= len(buf) {
				continue
			}
			slideMeanInto(baseline, buf, w)
		}
		if m.UniformBaseline {
			mean := total / float64(len(buf))
			for i := range baseline {
				if mean > baseline[i] {
					baseline[i] = mean
				}
			}
		}
		scatterChain(chain, baseline, out, base)
	}
	return out
}

// gatherChain copies the bases covered by chain's links, in link
// order, into a contiguous buffer.
func gatherChain(chain interval.Chain[PosType], signal []float64, base PosType) []float64 {
	var buf []float64
	for _, link := range chain.Links {
		lo, hi := link.Start-base, link.End-base
		if lo < 0 || int(hi) > len(signal) {
			continue
		}
		buf = append(buf, signal[lo:hi]...)
	}
	return buf
}

// scatterChain writes buf back across chain's links, in the same
// order gatherChain read them in, taking the max against out's
// existing contents (an earlier region of m.Regions may already have
// written a baseline over the same positions).
func scatterChain(chain interval.Chain[PosType], buf []float64, out []float64, base PosType) {
	pos := 0
	for _, link := range chain.Links {
		lo, hi := link.Start-base, link.End-base
		if lo < 0 || int(hi) > len(out) {
			continue
		}
		for p := lo; p < hi; p++ {
			if buf[pos] > out[p] {
				out[p] = buf[pos]
			}
			pos++
		}
	}
}

// slideMeanInto folds a sliding mean of width w over buf into
// baseline, each window's mean written at the position offset w/2
// from the window's start, taking the max against the existing value.
func slideMeanInto(baseline, buf []float64, w int) {
	var sum float64
	for i := 0; i < w; i++ {
		sum += buf[i]
	}
	offset := w / 2
	for i := 0; i+w <= len(buf); i++ {
		if i > 0 {
			sum += buf[i+w-1] - buf[i-1]
		}
		pos := i + offset
		if pos >= len(baseline) {
			break
		}
		mean := sum / float64(w)
		if mean > baseline[pos] {
			baseline[pos] = mean
		}
	}
}

// Finalize RLE-encodes a dense baseline track, zeroing values below
// minSignal before encoding per spec.md 4.I.
func Finalize(baseline []float64, minSignal, epsilon float64) (*rle.RLEVec[uint32, float64], error) {
	filtered := make([]float64, len(baseline))
	for i, v := range baseline {
		if v >= minSignal {
			filtered[i] = v
		}
	}
	return EncodeCounts(filtered, epsilon)
}

// CoveredIntervals returns the half-open intervals covering every
// non-zero run of an RLE-encoded track, offset by base.
func CoveredIntervals(vec *rle.RLEVec[uint32, float64], base PosType) []interval.Ivl[PosType] {
	var out []interval.Ivl[PosType]
	var pos uint32
	for _, run := range vec.Runs() {
		if run.Value != 0 {
			out = append(out, interval.Ivl[PosType]{Start: base + PosType(pos), End: base + PosType(pos+run.Length)})
		}
		pos += run.Length
	}
	return out
}
