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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/biosuite/bio/interval"
)

// LoadElementsFromBED reads a 3-6 column BED stream (chrom, start, end,
// [name, [score, [strand]]]) into one Element per line, matching the
// column conventions interval.NewBEDUnionFromPath already tolerates. A
// missing name defaults to "<chrom>:<start>-<end>"; a missing or "."
// strand puts the interval on the forward orientation only.
func LoadElementsFromBED(r io.Reader) ([]Element, error) {
	var elements []Element
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("countit.LoadElementsFromBED: line %d: need at least 3 columns, got %d", lineNo, len(fields))
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("countit.LoadElementsFromBED: line %d: invalid start %q: %v", lineNo, fields[1], err)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("countit.LoadElementsFromBED: line %d: invalid end %q: %v", lineNo, fields[2], err)
		}
		iv, err := interval.New(PosType(start), PosType(end))
		if err != nil {
			return nil, fmt.Errorf("countit.LoadElementsFromBED: line %d: %v", lineNo, err)
		}

		name := fmt.Sprintf("%s:%d-%d", fields[0], start, end)
		if len(fields) >= 4 && fields[3] != "" {
			name = fields[3]
		}
		strand := "."
		if len(fields) >= 6 {
			strand = fields[5]
		}

		var el Element
		el.Name = name
		span := Span{Contig: fields[0], Intervals: []interval.Ivl[PosType]{iv}}
		switch strand {
		case "-":
			*el.Spans.Get(interval.Reverse) = []Span{span}
		default:
			*el.Spans.Get(interval.Forward) = []Span{span}
		}
		elements = append(elements, el)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return elements, nil
}

// TilePartitions splits every contig in lengths into fixed-width, disjoint
// partitions (the last tile on each contig may be shorter), the way
// bamprovider.Provider.GenerateShards tiles a BAM's reference sequences for
// parallel iteration.
func TilePartitions(lengths map[string]PosType, width PosType) []Partition {
	if width <= 0 {
		width = PosType(1) << 20
	}
	contigs := make([]string, 0, len(lengths))
	for contig := range lengths {
		contigs = append(contigs, contig)
	}
	sort.Strings(contigs)

	var partitions []Partition
	for _, contig := range contigs {
		length := lengths[contig]
		for start := PosType(0); start < length; start += width {
			end := start + width
			if end > length {
				end = length
			}
			iv, err := interval.New(start, end)
			if err != nil {
				continue
			}
			partitions = append(partitions, Partition{Contig: contig, Interval: iv})
		}
	}
	return partitions
}
