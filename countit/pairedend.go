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
package countit

import (
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/pileup"
)

// RawRead is one mate's aligned blocks, emitted by a RawSource before
// PairedEndBundler has had a chance to bundle mates together.
type RawRead struct {
	Name        string
	Segments    []interval.Ivl[PosType]
	Orientation interval.Orientation
	TotalHits   int
}

// RawSource is a Source that can additionally stream per-mate reads
// keyed by read name, the raw material PairedEndBundler bundles into
// pileup.ReadBatch pairs.
type RawSource interface {
	PopulateCaches(cache map[string]interface{})
	ReleaseCaches(cache map[string]interface{})
	FetchRaw(contig string, start, end PosType, emit func(RawRead) error) error
}

// StrandednessDeducer derives the orientation a mated read pair should
// be counted under from each mate's own alignment orientation.
type StrandednessDeducer func(first, second interval.Orientation) interval.Orientation

// FirstMateStrand is a StrandednessDeducer for unstranded/fr-firststrand
// libraries: the pair is counted on the first mate's strand.
func FirstMateStrand(first, _ interval.Orientation) interval.Orientation { return first }

// SecondMateStrand is a StrandednessDeducer for fr-secondstrand
// libraries: the pair is counted on the second mate's strand.
func SecondMateStrand(_, second interval.Orientation) interval.Orientation { return second }

// PairedEndBundler decorates a RawSource into a Source: reads sharing a
// name are bundled into one pileup.ReadBatch spanning both mates'
// aligned blocks, with Deduce choosing the pair's orientation. A mate
// whose partner never arrives (clipped out of [start, end), or
// genuinely unpaired) is emitted on its own using its own orientation,
// matching the teacher's memMateShard fallback when a second mate is
// never seen within a shard.
type PairedEndBundler struct {
	Source RawSource
	Deduce StrandednessDeducer
}

func (b *PairedEndBundler) PopulateCaches(cache map[string]interface{}) { b.Source.PopulateCaches(cache) }
func (b *PairedEndBundler) ReleaseCaches(cache map[string]interface{}) { b.Source.ReleaseCaches(cache) }

// Fetch streams bundled read-pair batches overlapping [start, end) on
// contig through emit.
func (b *PairedEndBundler) Fetch(contig string, start, end PosType, emit func(pileup.ReadBatch) error) error {
	pending := map[string]RawRead{}
	err := b.Source.FetchRaw(contig, start, end, func(r RawRead) error {
		first, ok := pending[r.Name]
		if !ok {
			pending[r.Name] = r
			return nil
		}
		delete(pending, r.Name)
		return emit(pileup.ReadBatch{
			Segments:    append(append([]interval.Ivl[PosType]{}, first.Segments...), r.Segments...),
			Orientation: b.Deduce(first.Orientation, r.Orientation),
			TotalHits:   first.TotalHits,
		})
	})
	if err != nil {
		return err
	}
	for _, r := range pending {
		if err := emit(pileup.ReadBatch{
			Segments:    r.Segments,
			Orientation: r.Orientation,
			TotalHits:   r.TotalHits,
		}); err != nil {
			return err
		}
	}
	return nil
}
