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

	"github.com/shenwei356/abundtrim"
)

// Table is the read-only view of a counting table used for decisions.
type Table interface {
	K() int
	Profile(s []byte) (median, min, max uint8, err error)
	TrimOnAbundance(s []byte, cutoff uint8) (abundtrim.Profile, error)
}

// CountingTable is a Table that can also be updated.
type CountingTable interface {
	Table
	Consume(s []byte) (int, error)
	FalsePositiveRate() float64
}

// Verdict is the fate of a read.
type Verdict uint8

const (
	// Deferred reads are counted now and looked at again in pass 2.
	Deferred Verdict = iota
	// Emitted reads are written, truncated to TrimAt.
	Emitted
	// Dropped reads have fewer than K bases left after trimming.
	Dropped
)

func (v Verdict) String() string {
	switch v {
	case Deferred:
		return "deferred"
	case Emitted:
		return "emitted"
	case Dropped:
		return "dropped"
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// Decision is the result of the decision functions.
type Decision struct {
	Verdict Verdict
	TrimAt  int   // number of bases to keep
	Median  uint8 // median k-mer count, 0 if not computable

	// Emitted untouched because the coverage is still low in pass 2.
	LowCoverage bool
}

func (d Decision) String() string {
	return fmt.Sprintf("%s trim_at=%d median=%d low_coverage=%v", d.Verdict, d.TrimAt, d.Median, d.LowCoverage)
}

// median returns 0 for sequences without a valid k-mer.
func median(t Table, s []byte) uint8 {
	med, _, _, err := t.Profile(s)
	if err != nil {
		return 0
	}
	return med
}

func trim(t Table, s []byte, med uint8, opt *Options) Decision {
	p, _ := t.TrimOnAbundance(s, uint8(opt.Cutoff))
	d := Decision{TrimAt: p.TrimAt, Median: med}
	if p.TrimAt >= t.K() {
		d.Verdict = Emitted
	} else {
		d.Verdict = Dropped
	}
	return d
}

// DecideFirstPass decides the fate of a single read in pass 1.
// s should be normalized with abundtrim.Normalize.
func DecideFirstPass(t Table, s []byte, opt *Options) Decision {
	med := median(t, s)
	if int(med) < opt.NormalizeLimit {
		return Decision{Verdict: Deferred, TrimAt: len(s), Median: med}
	}
	return trim(t, s, med, opt)
}

// DecidePair decides the fate of two mates in pass 1.
// Both are deferred if either one has a low median k-mer count.
func DecidePair(t Table, s1, s2 []byte, opt *Options) (Decision, Decision) {
	med1, med2 := median(t, s1), median(t, s2)
	if int(med1) < opt.NormalizeLimit || int(med2) < opt.NormalizeLimit {
		return Decision{Verdict: Deferred, TrimAt: len(s1), Median: med1},
			Decision{Verdict: Deferred, TrimAt: len(s2), Median: med2}
	}
	return trim(t, s1, med1, opt), trim(t, s2, med2, opt)
}

// DecideSecondPass decides the fate of a deferred read. It never defers.
func DecideSecondPass(t Table, s []byte, opt *Options) Decision {
	med := median(t, s)
	if opt.VariableCoverage && int(med) < opt.NormalizeLimit {
		return Decision{Verdict: Emitted, TrimAt: len(s), Median: med, LowCoverage: true}
	}
	return trim(t, s, med, opt)
}
