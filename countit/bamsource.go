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
	"reflect"

	"github.com/grailbio/hts/sam"

	gbam "github.com/biosuite/bio/encoding/bam"
	"github.com/biosuite/bio/encoding/bamprovider"
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/pileup"
)

// nhTag is the standard "number of reported alignments" aux tag; its value
// is the read's total_hits weight denominator, per spec.md's pileup model.
var nhTag = sam.Tag{'N', 'H'}

// BAMSource adapts a bamprovider.Provider into a countit.Source, splitting
// every fetched record into its aligned blocks (the blocks are not clipped
// to [start, end)) and reporting the NH tag as the read's total hits (NH
// defaults to 1 when the tag is absent).
type BAMSource struct {
	Provider    bamprovider.Provider
	MinMapQ     int
	FlagExclude uint16
}

// PopulateCaches and ReleaseCaches are no-ops: bamprovider.Provider's
// iterators are already cheap to open per task, and it does its own
// internal caching of shard metadata.
func (s *BAMSource) PopulateCaches(map[string]interface{}) {}
func (s *BAMSource) ReleaseCaches(map[string]interface{})  {}

// Fetch streams every record overlapping [start, end) on contig, clipped to
// its aligned (CIGAR-match) blocks, through emit.
func (s *BAMSource) Fetch(contig string, start, end PosType, emit func(pileup.ReadBatch) error) error {
	return s.scan(contig, start, end, func(rec *sam.Record, segs []interval.Ivl[PosType], orientation interval.Orientation, nh int) error {
		return emit(pileup.ReadBatch{Segments: segs, Orientation: orientation, TotalHits: nh})
	})
}

// FetchRaw streams every record overlapping [start, end) on contig as a
// RawRead, so a PairedEndBundler can bundle mates by name before they
// reach a pileup.ReadBatch. Implements countit.RawSource.
func (s *BAMSource) FetchRaw(contig string, start, end PosType, emit func(RawRead) error) error {
	return s.scan(contig, start, end, func(rec *sam.Record, segs []interval.Ivl[PosType], orientation interval.Orientation, nh int) error {
		return emit(RawRead{Name: rec.Name, Segments: segs, Orientation: orientation, TotalHits: nh})
	})
}

func (s *BAMSource) scan(contig string, start, end PosType, emit func(rec *sam.Record, segs []interval.Ivl[PosType], orientation interval.Orientation, nh int) error) error {
	header, err := s.Provider.GetHeader()
	if err != nil {
		return err
	}
	refObj, ok := findRef(header, contig)
	if !ok {
		return nil
	}
	shard := gbam.Shard{
		StartRef: refObj,
		Start:    int(start),
		EndRef:   refObj,
		End:      int(end),
	}
	it := s.Provider.NewIterator(shard)
	defer func() { _ = it.Close() }()

	for it.Scan() {
		rec := it.Record()
		if uint16(rec.Flags)&s.FlagExclude != 0 || int(rec.MapQ) < s.MinMapQ || len(rec.Cigar) == 0 {
			continue
		}
		segs := alignedBlocks(rec)
		if len(segs) == 0 {
			continue
		}
		nh := 1
		if aux := rec.AuxFields.Get(nhTag); aux != nil {
			var v int
			switch rv := reflect.ValueOf(aux.Value()); rv.Kind() {
			case reflect.Int8, reflect.Int16, reflect.Int32:
				v = int(rv.Int())
			case reflect.Uint8, reflect.Uint16, reflect.Uint32:
				v = int(rv.Uint())
			}
			if v > 0 {
				nh = v
			}
		}
		orientation := interval.Forward
		if pileup.GetStrand(rec) == pileup.StrandRev {
			orientation = interval.Reverse
		}
		if err := emit(rec, segs, orientation, nh); err != nil {
			return err
		}
	}
	return it.Err()
}

func findRef(header *sam.Header, contig string) (*sam.Reference, bool) {
	for _, r := range header.Refs() {
		if r.Name() == contig {
			return r, true
		}
	}
	return nil, false
}

// alignedBlocks walks a record's CIGAR string, returning one interval per
// maximal run of consumed-reference bases (CigarMatch runs separated by
// CigarDeletion/CigarSkipped are reported as separate blocks so downstream
// overlap queries don't credit reads across a splice/deletion gap).
func alignedBlocks(rec *sam.Record) []interval.Ivl[PosType] {
	var blocks []interval.Ivl[PosType]
	pos := PosType(rec.Pos)
	var blockStart PosType
	inBlock := false
	for _, co := range rec.Cigar {
		n := PosType(co.Len())
		switch co.Type() {
		case sam.CigarMatch:
			if !inBlock {
				blockStart = pos
				inBlock = true
			}
			pos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if inBlock {
				blocks = append(blocks, interval.Ivl[PosType]{Start: blockStart, End: pos})
				inBlock = false
			}
			pos += n
		case sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarHardClipped:
			// consume no reference bases
		default:
			// Unhandled CIGAR codes (padding, etc.) are rare enough in
			// practice that we just stop crediting this read rather than
			// erroring the whole fetch.
			if inBlock {
				blocks = append(blocks, interval.Ivl[PosType]{Start: blockStart, End: pos})
			}
			return blocks
		}
	}
	if inBlock {
		blocks = append(blocks, interval.Ivl[PosType]{Start: blockStart, End: pos})
	}
	return blocks
}
