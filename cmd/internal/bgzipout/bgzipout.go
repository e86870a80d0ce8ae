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

// Package bgzipout wraps an output io.Writer in a .bgzf stream when asked,
// so the CLI commands under cmd/ can emit a BAM-compatible block-gzipped
// TSV/BED alongside their plain-text output.
package bgzipout

import (
	"io"

	"github.com/biosuite/bio/encoding/bgzf"
)

// Wrap returns w unchanged when bgzip is false; otherwise it returns a
// .bgzf writer over w and a close function that must be called (instead of
// closing w directly) to flush the final block and terminator.
func Wrap(w io.Writer, bgzip bool) (out io.Writer, closeFn func() error, err error) {
	if !bgzip {
		return w, func() error { return nil }, nil
	}
	bw, err := bgzf.NewWriterParams(w, -1, bgzf.DefaultUncompressedBlockSize, 0, -1)
	if err != nil {
		return nil, nil, err
	}
	return bw, bw.Close, nil
}
