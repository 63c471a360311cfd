// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package pipeline

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FileStats is the summary of an input file.
type FileStats struct {
	File     string `toml:"file"`
	Reads    int64  `toml:"reads"`
	Deferred int64  `toml:"reads-kept-aside"`
}

// Stats is the summary of a run.
// Every read is either written or removed: ReadReads = WroteReads + RemovedReads.
type Stats struct {
	ReadReads    int64 `toml:"reads-read"`
	ReadBases    int64 `toml:"bases-read"`
	WroteReads   int64 `toml:"reads-written"`
	WroteBases   int64 `toml:"bases-written"`
	RemovedReads int64 `toml:"reads-removed"`
	TrimmedReads int64 `toml:"reads-trimmed"`

	Deferred int64 `toml:"reads-looked-at-twice"`

	SkippedReads int64 `toml:"low-coverage-reads-skipped"`
	SkippedBases int64 `toml:"low-coverage-bases-skipped"`

	FPRate float64 `toml:"fp-rate"`

	Files []*FileStats `toml:"files"`
}

// PercentBasesRemoved returns the percentage of bases trimmed or removed.
func (s *Stats) PercentBasesRemoved() float64 {
	if s.ReadBases == 0 {
		return 0
	}
	return (1 - float64(s.WroteBases)/float64(s.ReadBases)) * 100
}

// Lines returns the human readable summary.
func (s *Stats) Lines(variableCoverage bool) []string {
	lines := []string{
		fmt.Sprintf("read %s reads, %s bp", humanize.Comma(s.ReadReads), humanize.Comma(s.ReadBases)),
		fmt.Sprintf("wrote %s reads, %s bp", humanize.Comma(s.WroteReads), humanize.Comma(s.WroteBases)),
		fmt.Sprintf("removed %s reads and trimmed %s reads", humanize.Comma(s.RemovedReads), humanize.Comma(s.TrimmedReads)),
		fmt.Sprintf("looked at %s reads twice", humanize.Comma(s.Deferred)),
		fmt.Sprintf("trimmed or removed %.2f%% of bases (%s total)", s.PercentBasesRemoved(), humanize.Comma(s.ReadBases-s.WroteBases)),
	}
	if variableCoverage {
		lines = append(lines, fmt.Sprintf("skipped %s reads/%s bases because of low coverage",
			humanize.Comma(s.SkippedReads), humanize.Comma(s.SkippedBases)))
	}
	return lines
}
