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
bio-countit assigns weighted read counts from one or more BAM/PAM sources to
a set of named genomic features (genes, exons, peaks, ...) given as a BED
file, using the AnyOverlap/OverlapWeighted/TopRanked resolution strategies.
*/

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"

	"github.com/biosuite/bio/cmd/internal/bgzipout"
	"github.com/biosuite/bio/countit"
	"github.com/biosuite/bio/encoding/bamprovider"
	"github.com/biosuite/bio/pileup"
)

var (
	bedPath     = flag.String("bed", "", "Input BED path naming the features to count against (chrom, start, end[, name[, score, strand]])")
	partWidth   = flag.Int("partition-width", 1<<20, "Width in bases of each counting partition")
	strategy    = flag.String("strategy", "overlap-weighted", "Resolution strategy: 'any-overlap', 'overlap-weighted', or 'top-ranked'")
	mapq        = flag.Int("mapq", 0, "Reads with MAPQ below this level are skipped")
	flagExclude = flag.Int("flag-exclude", 0xf00, "Reads with a FLAG bit intersecting this value are skipped")
	parallelism = flag.Int("parallelism", 0, "Maximum number of simultaneous counting jobs; 0 = runtime.NumCPU()")
	outPath     = flag.String("out", "bio-countit.tsv", "Output TSV path")
	bgzipOut    = flag.Bool("bgzip", false, "Block-gzip (.bgzf) the output TSV")
	colsParam   = flag.String("cols", "", "Per-source aggregate PartitionMetrics columns to append, as a comma-separated +/- patch against the default (none), e.g. '+resolved,+discarded'; bare names (no +/-) replace the default outright")
)

// statsColNameMap names the optional per-source PartitionMetrics summary
// columns -cols can select, via pileup.ParseCols's +/- patch semantics.
var statsColNameMap = map[string]int{
	"resolved":  1,
	"discarded": 2,
	"time":      4,
}

func bioCountitUsage() {
	fmt.Printf("Usage: %s [OPTIONS] {b,p}ampath [{b,p}ampath ...]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func newStrategy(name string) (func() countit.Strategy, error) {
	switch name {
	case "any-overlap":
		return func() countit.Strategy { return &countit.AnyOverlap{} }, nil
	case "overlap-weighted":
		return func() countit.Strategy { return &countit.OverlapWeighted{} }, nil
	case "top-ranked":
		return func() countit.Strategy { return &countit.TopRanked{} }, nil
	default:
		return nil, fmt.Errorf("unknown -strategy %q", name)
	}
}

func main() {
	flag.Usage = bioCountitUsage
	shutdown := grail.Init()
	defer shutdown()

	if *bedPath == "" {
		log.Fatalf("-bed is required")
	}
	if flag.NArg() == 0 {
		log.Fatalf("at least one {b,p}ampath positional argument is required")
	}

	ctx := vcontext.Background()
	bedFile, err := file.Open(ctx, *bedPath)
	if err != nil {
		log.Panicf("%v", err)
	}
	elements, err := countit.LoadElementsFromBED(bedFile.Reader(ctx))
	if err != nil {
		log.Panicf("%v", err)
	}
	if err := bedFile.Close(ctx); err != nil {
		log.Panicf("%v", err)
	}

	newStrat, err := newStrategy(*strategy)
	if err != nil {
		log.Panicf("%v", err)
	}
	statsCols, err := pileup.ParseCols(*colsParam, statsColNameMap, 0)
	if err != nil {
		log.Panicf("%v", err)
	}

	var sources []countit.Source
	var providers []bamprovider.Provider
	var lengths map[string]countit.PosType
	for _, path := range flag.Args() {
		provider := bamprovider.NewProvider(path)
		providers = append(providers, provider)
		header, err := provider.GetHeader()
		if err != nil {
			log.Panicf("%v: %v", path, err)
		}
		if lengths == nil {
			lengths = make(map[string]countit.PosType, len(header.Refs()))
			for _, ref := range header.Refs() {
				lengths[ref.Name()] = countit.PosType(ref.Len())
			}
		}
		sources = append(sources, &countit.BAMSource{
			Provider:    provider,
			MinMapQ:     *mapq,
			FlagExclude: uint16(*flagExclude),
		})
	}
	defer func() {
		for _, p := range providers {
			if err := p.Close(); err != nil {
				log.Error.Printf("closing provider: %v", err)
			}
		}
	}()

	partitions := countit.TilePartitions(lengths, countit.PosType(*partWidth))
	index := countit.Build(elements, partitions)

	engine := &countit.Engine{
		Elements:    elements,
		Partitions:  index,
		Sources:     sources,
		NewStrategy: newStrat,
		Parallelism: *parallelism,
	}
	results, err := engine.Run()
	if err != nil {
		log.Panicf("%v", err)
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
	tsvw.WriteString("name")
	for _, path := range flag.Args() {
		tsvw.WriteString(path)
	}
	tsvw.EndLine()
	for gi, el := range elements {
		tsvw.WriteString(el.Name)
		for si := range results {
			tsvw.WriteString(strconv.FormatFloat(results[si].Counts[gi], 'f', 6, 64))
		}
		tsvw.EndLine()
	}

	if statsCols != 0 {
		tsvw.WriteString("#source")
		if statsCols&statsColNameMap["resolved"] != 0 {
			tsvw.WriteString("resolved")
		}
		if statsCols&statsColNameMap["discarded"] != 0 {
			tsvw.WriteString("discarded")
		}
		if statsCols&statsColNameMap["time"] != 0 {
			tsvw.WriteString("time")
		}
		tsvw.EndLine()
		for si, path := range flag.Args() {
			var resolved, discarded, seconds float64
			for _, m := range results[si].Stats {
				resolved += m.Resolved
				discarded += m.Discarded
				seconds += m.TimeSeconds
			}
			tsvw.WriteString(path)
			if statsCols&statsColNameMap["resolved"] != 0 {
				tsvw.WriteString(strconv.FormatFloat(resolved, 'f', 6, 64))
			}
			if statsCols&statsColNameMap["discarded"] != 0 {
				tsvw.WriteString(strconv.FormatFloat(discarded, 'f', 6, 64))
			}
			if statsCols&statsColNameMap["time"] != 0 {
				tsvw.WriteString(strconv.FormatFloat(seconds, 'f', 6, 64))
			}
			tsvw.EndLine()
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
