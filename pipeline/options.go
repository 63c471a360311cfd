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
	"math"

	"github.com/pkg/errors"
	"github.com/shenwei356/abundtrim/spill"
	"github.com/shenwei356/go-logging"
)

// Schedule decides the order of the two passes across input files.
type Schedule int

const (
	// PerFile runs pass 1 and then pass 2 of a file before moving to the next file.
	PerFile Schedule = iota
	// AllFirstPasses runs pass 1 of every file, and then pass 2 of every file.
	AllFirstPasses
)

func (s Schedule) String() string {
	switch s {
	case PerFile:
		return "per-file"
	case AllFirstPasses:
		return "all-first-passes"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Options contains the options of a Pipeline.
type Options struct {
	// Reads with a median k-mer count below NormalizeLimit in pass 1 are
	// counted and deferred to pass 2.
	NormalizeLimit int
	// Reads are truncated right before the first k-mer with a count below Cutoff.
	Cutoff int
	// Emit deferred reads whose coverage is still low in pass 2 untouched.
	VariableCoverage bool
	// Run fails with ErrTableUndersized if the false positive rate is higher.
	MaxFPRate float64

	Schedule Schedule

	// Directory for deferred reads. It must exist.
	TempDir          string
	SpillCompression spill.Compression

	// Logger for progress and per-file summaries, nil for silent.
	Logger           *logging.Logger
	ProgressInterval int

	// OnFileDone is called after each pass of each file.
	OnFileDone func(pass int, name string)
}

// DefaultOptions is the default Options.
var DefaultOptions = Options{
	NormalizeLimit: 20,
	Cutoff:         2,
	MaxFPRate:      0.8,

	Schedule: PerFile,

	TempDir:          "./",
	SpillCompression: spill.SnappyCompression,

	ProgressInterval: 10000,
}

// ErrInvalidOptions means some options are out of range.
var ErrInvalidOptions = errors.New("pipeline: invalid options")

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Cutoff < 1 || o.Cutoff > math.MaxUint8 {
		return errors.Wrapf(ErrInvalidOptions, "cutoff should be in range of [1, %d]: %d", math.MaxUint8, o.Cutoff)
	}
	if o.NormalizeLimit < 1 || o.NormalizeLimit > math.MaxUint8 {
		return errors.Wrapf(ErrInvalidOptions, "normalize limit should be in range of [1, %d]: %d", math.MaxUint8, o.NormalizeLimit)
	}
	if o.Cutoff > o.NormalizeLimit {
		return errors.Wrapf(ErrInvalidOptions, "cutoff (%d) should not be greater than normalize limit (%d)", o.Cutoff, o.NormalizeLimit)
	}
	if o.MaxFPRate <= 0 || o.MaxFPRate > 1 {
		return errors.Wrapf(ErrInvalidOptions, "max false positive rate should be in range of (0, 1]: %f", o.MaxFPRate)
	}
	if o.Schedule != PerFile && o.Schedule != AllFirstPasses {
		return errors.Wrapf(ErrInvalidOptions, "unknown schedule: %s", o.Schedule)
	}
	if o.TempDir == "" {
		return errors.Wrap(ErrInvalidOptions, "temporary directory not given")
	}
	if !o.SpillCompression.IsValid() {
		return errors.Wrapf(ErrInvalidOptions, "unknown spill compression: %s", o.SpillCompression)
	}
	if o.ProgressInterval < 0 {
		return errors.Wrapf(ErrInvalidOptions, "progress interval should not be negative: %d", o.ProgressInterval)
	}
	return nil
}
