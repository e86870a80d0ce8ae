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
package main

/*
bio-pileup-call builds a weighted pileup from a signal BAM (optionally
normalized against a control BAM), then calls peaks over the result with
ByCutoff, optionally refined by a boundary-aware NMS pass.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"

	"github.com/biosuite/bio/cmd/internal/bgzipout"
	"github.com/biosuite/bio/countit"
	"github.com/biosuite/bio/encoding/bamprovider"
	"github.com/biosuite/bio/interval"
	"github.com/biosuite/bio/peakcall"
	"github.com/biosuite/bio/pileup"
)

var (
	bamPath     = flag.String("bam", "", "Signal BAM/PAM path")
	controlPath = flag.String("control", "", "Optional control BAM/PAM path, normalized against -bam before calling")
	region      = flag.String("region", "", "Region to call peaks over, as <contig>:<1-based first pos>-<last pos>")
	cutoff      = flag.Float64("cutoff", 2, "ByCutoff score threshold")
	minLength   = flag.Int("min-length", 20, "Minimum peak length")
	mergeWithin = flag.Int("merge-within", 10, "Merge qualifying peaks within this many bases of each other")
	useNMS      = flag.Bool("nms", false, "Refine ByCutoff peaks with a boundary-aware NMS pass")
	feCutoff    = flag.Float64("fe-cutoff", 2, "NMS fold-enrichment-over-local-baseline cutoff")
	groupWithin = flag.Int("group-within", 100, "NMS: group peaks within this many bases of each other")
	slopFrac    = flag.Float64("slop-frac", 1.0, "NMS: fraction of group length used to extend the baseline window")
	minSlop     = flag.Int("min-slop", 100, "NMS: minimum baseline window extension")
	maxSlop     = flag.Int("max-slop", 5000, "NMS: maximum baseline window extension")
	epsilon     = flag.Float64("epsilon", 1e-6, "RLE run-coalescing tolerance")
	outPath     = flag.String("out", "bio-pileup-call.bed", "Output BED path")
	bgzipOut    = flag.Bool("bgzip", false, "Block-gzip (.bgzf) the output BED")
	fastaPath   = flag.String("fasta", "", "Optional reference .fa/.fa.gz; peaks overlapping an N-gap in the reference are dropped")
)

// fastaMaxLine bounds a single .fa record's length; large enough for any
// chromosome-scale reference contig.
const fastaMaxLine = 250000000

func bioPileupCallUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -bam signal.bam -region chr1:1-1000000\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func fetchDense(path string, query interval.Ivl[countit.PosType], contig string) ([]float64, error) {
	provider := bamprovider.NewProvider(path)
	defer func() { _ = provider.Close() }()
	source := &countit.BAMSource{Provider: provider}

	var batches []pileup.ReadBatch
	if err := source.Fetch(contig, query.Start, query.End, func(b pileup.ReadBatch) error {
		batches = append(batches, b)
		return nil
	}); err != nil {
		return nil, err
	}
	per := pileup.BuildPileup(query, batches)
	fwd, rev := *per.Get(interval.Forward), *per.Get(interval.Reverse)
	out := make([]float64, len(fwd))
	for i := range out {
		out[i] = fwd[i] + rev[i]
	}
	return out, nil
}

// referenceNRuns loads fastaPath and returns the N-gap runs of contig
// clipped to query, or nil if fastaPath is empty.
func referenceNRuns(ctx context.Context, fastaPath, contig string, query interval.Ivl[countit.PosType], header *sam.Header) ([]interval.Ivl[countit.PosType], error) {
	if fastaPath == "" {
		return nil, nil
	}
	refSeqs, err := pileup.LoadFa(ctx, fastaPath, fastaMaxLine, header.Refs())
	if err != nil {
		return nil, err
	}
	for i, ref := range header.Refs() {
		if ref.Name() != contig {
			continue
		}
		var runs []interval.Ivl[countit.PosType]
		for _, run := range pileup.NRuns(refSeqs[i]) {
			if clipped, ok := run.Intersection(query); ok {
				runs = append(runs, clipped)
			}
		}
		return runs, nil
	}
	return nil, nil
}

func overlapsAny(iv interval.Ivl[countit.PosType], runs []interval.Ivl[countit.PosType]) bool {
	for _, run := range runs {
		if iv.Intersects(run) {
			return true
		}
	}
	return false
}

func main() {
	flag.Usage = bioPileupCallUsage
	shutdown := grail.Init()
	defer shutdown()

	if *bamPath == "" || *region == "" {
		log.Fatalf("-bam and -region are required")
	}
	entry, err := interval.ParseRegionString(*region)
	if err != nil {
		log.Panicf("%v", err)
	}
	query := interval.Ivl[countit.PosType]{Start: entry.Start0, End: entry.End}

	sigDense, err := fetchDense(*bamPath, query, entry.ChrName)
	if err != nil {
		log.Panicf("%v", err)
	}

	var scoreDense, ctrlDense []float64
	scaling := pileup.Scaling{Signal: 1, Control: 1}
	if *controlPath != "" {
		ctrlDense, err = fetchDense(*controlPath, query, entry.ChrName)
		if err != nil {
			log.Panicf("%v", err)
		}
		sigRLE, err := pileup.EncodeCounts(sigDense, *epsilon)
		if err != nil {
			log.Panicf("%v", err)
		}
		ctrlRLE, err := pileup.EncodeCounts(ctrlDense, *epsilon)
		if err != nil {
			log.Panicf("%v", err)
		}
		enriched, err := pileup.Enrich(sigRLE, ctrlRLE, scaling, 0, *epsilon)
		if err != nil {
			log.Panicf("%v", err)
		}
		scoreDense = enriched.Dense()
	} else {
		scoreDense = sigDense
	}

	scoreRLE, err := pileup.EncodeCounts(scoreDense, *epsilon)
	if err != nil {
		log.Panicf("%v", err)
	}
	runs := scoreRLE.Runs()
	cutoffCfg := peakcall.ByCutoff[countit.PosType, float64]{
		MinLength:   countit.PosType(*minLength),
		MergeWithin: countit.PosType(*mergeWithin),
		Cutoff:      *cutoff,
	}
	peaks := peakcall.RunRuns[countit.PosType, uint32, float64](cutoffCfg, runs, query.Start)

	if *useNMS && *controlPath != "" {
		nms := peakcall.NMS[countit.PosType, float64]{
			FECutoff:    *feCutoff,
			GroupWithin: countit.PosType(*groupWithin),
			SlopFrac:    *slopFrac,
			MinSlop:     countit.PosType(*minSlop),
			MaxSlop:     countit.PosType(*maxSlop),
		}
		*nms.Boundaries.Get(interval.Forward) = []countit.PosType{query.Start, query.End}
		*nms.Boundaries.Get(interval.Reverse) = []countit.PosType{query.Start, query.End}
		*nms.Boundaries.Get(interval.Dual) = []countit.PosType{query.Start, query.End}
		if err := nms.Validate(); err != nil {
			log.Panicf("%v", err)
		}
		peaks = nms.Run(interval.Forward, peaks, sigDense, ctrlDense, query.Start, scaling, *epsilon)
	}

	ctx := vcontext.Background()
	if *fastaPath != "" {
		provider := bamprovider.NewProvider(*bamPath)
		header, err := provider.GetHeader()
		if err != nil {
			log.Panicf("%v", err)
		}
		nRuns, err := referenceNRuns(ctx, *fastaPath, entry.ChrName, query, header)
		if err != nil {
			log.Panicf("%v", err)
		}
		if err := provider.Close(); err != nil {
			log.Panicf("%v", err)
		}
		filtered := peaks[:0]
		for _, p := range peaks {
			if !overlapsAny(p.Interval, nRuns) {
				filtered = append(filtered, p)
			}
		}
		peaks = filtered
	}

	out, err := file.Create(ctx, *outPath)
	if err != nil {
		log.Panicf("%v", err)
	}
	outW, closeOutW, err := bgzipout.Wrap(out.Writer(ctx), *bgzipOut)
	if err != nil {
		log.Panicf("%v", err)
	}
	tsvw := tsv.NewWriter(outW)
	for _, p := range peaks {
		tsvw.WriteString(entry.ChrName)
		tsvw.WriteUint32(uint32(p.Interval.Start))
		tsvw.WriteUint32(uint32(p.Interval.End))
		tsvw.WriteUint32(uint32(p.Summit))
		if err := tsvw.EndLine(); err != nil {
			log.Panicf("%v", err)
		}
	}
	if err := tsvw.Flush(); err != nil {
		log.Panicf("%v", err)
	}
	if err := closeOutW(); err != nil {
		log.Panicf("%v", err)
	}
	if err := out.Close(ctx); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
