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

// Package pipeline trims reads in two streaming passes over each input,
// sharing one counting table across all inputs.
//
// Pass 1 looks at every fragment. Reads in regions of the data that are not
// yet saturated (median k-mer count below the normalize limit) are counted and
// kept aside in a spill file. The others are trimmed right away with the
// counts seen so far. Pass 2 trims the reads kept aside, with all counts
// available.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cznic/sortutil"
	"github.com/pkg/errors"
	"github.com/shenwei356/abundtrim"
	"github.com/shenwei356/abundtrim/spill"
	"github.com/shenwei356/go-logging"
)

// ErrDuplicateInput means an input file is given more than once.
var ErrDuplicateInput = errors.New("pipeline: duplicate input files")

// ErrDuplicateOutput means two inputs would be written to the same output file.
var ErrDuplicateOutput = errors.New("pipeline: duplicate output files")

// ErrTableUndersized means the false positive rate of the counting table is
// too high, and the results should not be used.
var ErrTableUndersized = errors.New("pipeline: the k-mer counting table is too small for this data set")

// Job is an input to trim and the output of it.
type Job struct {
	Name   string
	Output string // output file, optional, only used for detecting conflicts
	Open   func() (Source, error)
	Create func() (Sink, error)
}

// FileJob creates a Job reading a FASTA/FASTQ file,
// and writing to <outDir>/<basename><suffix>.
func FileJob(file, outDir, suffix string) *Job {
	out := OutFile(file, outDir, suffix)
	return &Job{
		Name:   file,
		Output: out,
		Open: func() (Source, error) {
			return NewFastxSource(file)
		},
		Create: func() (Sink, error) {
			return NewFastxSink(out)
		},
	}
}

// OutFile returns the output file of an input file.
// The output of stdin ("-") is stdin<suffix>.
func OutFile(file, outDir, suffix string) string {
	base := filepath.Base(file)
	if file == "-" {
		base = "stdin"
	}
	return filepath.Join(outDir, base+suffix)
}

// Pipeline runs the two passes.
// It owns the counting table during Run, and is not safe for concurrent use.
type Pipeline struct {
	table CountingTable
	opt   Options
	log   *logging.Logger

	stats *Stats

	buf1, buf2 []byte // buffers of normalized sequences
	n          int    // fragments seen in the current pass of the current file
}

type fileState struct {
	job       *Job
	stats     *FileStats
	sink      Sink
	spillFile string
}

// New creates a Pipeline.
func New(table CountingTable, opt *Options) (*Pipeline, error) {
	if opt == nil {
		opt = &DefaultOptions
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		table: table,
		opt:   *opt,
		log:   opt.Logger,
	}
	if p.opt.ProgressInterval == 0 {
		p.opt.ProgressInterval = DefaultOptions.ProgressInterval
	}
	return p, nil
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Infof(format, args...)
	}
}

// firstDuplicate returns a file given more than once.
func firstDuplicate(files []string) (string, bool) {
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = filepath.Clean(file)
	}
	sort.Strings(names)
	sorted := append([]string(nil), names...)

	if n := sortutil.Dedupe(sort.StringSlice(names)); n == len(names) {
		return "", false
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return sorted[i], true
		}
	}
	return "", true
}

func checkDuplicates(jobs []*Job) error {
	inputs := make([]string, len(jobs))
	outputs := make([]string, 0, len(jobs))
	for i, job := range jobs {
		inputs[i] = job.Name
		if job.Output != "" && job.Output != "-" {
			outputs = append(outputs, job.Output)
		}
	}

	if file, ok := firstDuplicate(inputs); ok {
		return errors.Wrapf(ErrDuplicateInput, "%s", file)
	}
	if file, ok := firstDuplicate(outputs); ok {
		return errors.Wrapf(ErrDuplicateOutput, "%s, inputs with the same file name in different directories", file)
	}
	return nil
}

// Run trims all inputs and returns the summary.
// Spill files are always removed.
// If the false positive rate of the table ends up above MaxFPRate,
// the outputs are still complete, and ErrTableUndersized is returned
// along with the summary.
func (p *Pipeline) Run(jobs []*Job) (*Stats, error) {
	if err := checkDuplicates(jobs); err != nil {
		return nil, err
	}

	p.stats = &Stats{Files: make([]*FileStats, len(jobs))}
	states := make([]*fileState, len(jobs))
	for i, job := range jobs {
		p.stats.Files[i] = &FileStats{File: job.Name}
		states[i] = &fileState{
			job:       job,
			stats:     p.stats.Files[i],
			spillFile: filepath.Join(p.opt.TempDir, fmt.Sprintf("%d.%s.pass2", i, filepath.Base(job.Name))),
		}
	}
	defer func() {
		for _, st := range states {
			if st.sink != nil {
				st.sink.Close()
			}
			os.Remove(st.spillFile)
		}
	}()

	var err error
	switch p.opt.Schedule {
	case AllFirstPasses:
		for _, st := range states {
			if err = p.firstPass(st); err != nil {
				return nil, err
			}
		}
		for _, st := range states {
			if err = p.secondPass(st); err != nil {
				return nil, err
			}
		}
	default:
		for _, st := range states {
			if err = p.firstPass(st); err != nil {
				return nil, err
			}
			if err = p.secondPass(st); err != nil {
				return nil, err
			}
		}
	}

	p.stats.FPRate = p.table.FalsePositiveRate()
	p.infof("fp rate estimated to be %.3f", p.stats.FPRate)
	if p.stats.FPRate > p.opt.MaxFPRate {
		return p.stats, errors.Wrapf(ErrTableUndersized, "fp rate %.3f > %.3f", p.stats.FPRate, p.opt.MaxFPRate)
	}
	return p.stats, nil
}

// ------------------------------------------------------------------------

func (p *Pipeline) firstPass(st *fileState) error {
	name := st.job.Name
	src, err := st.job.Open()
	if err != nil {
		return errors.Wrapf(err, "open %s", name)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	st.sink, err = st.job.Create()
	if err != nil {
		return errors.Wrapf(err, "create output of %s", name)
	}

	sw, err := spill.Create(st.spillFile, &spill.WriterOptions{Compression: p.opt.SpillCompression})
	if err != nil {
		return errors.Wrapf(err, "create spill file for %s", name)
	}
	closed := false
	defer func() {
		if !closed {
			sw.Close()
		}
	}()

	p.n = 0
	var frag *Fragment
	for {
		frag, err = src.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "read %s", name)
		}

		if p.n%p.opt.ProgressInterval == 0 {
			p.infof("... %d %s %d %d %d %d %d", p.n, name, st.stats.Deferred,
				p.stats.ReadReads, p.stats.ReadBases, p.stats.WroteReads, p.stats.WroteBases)
		}
		p.n++

		if frag.IsPair {
			err = p.firstPassPair(st, sw, frag.R1, frag.R2)
		} else {
			err = p.firstPassSingle(st, sw, frag.R1)
		}
		if err != nil {
			return errors.Wrapf(err, "first pass of %s", name)
		}
	}

	closed = true
	if err = sw.Close(); err != nil {
		return errors.Wrapf(err, "close spill file of %s", name)
	}

	p.stats.Deferred += st.stats.Deferred
	p.infof("%s: kept aside %d of %d from first pass", name, st.stats.Deferred, st.stats.Reads)
	if p.opt.OnFileDone != nil {
		p.opt.OnFileDone(1, name)
	}
	return nil
}

func (p *Pipeline) countRead(st *fileState, r *Record) {
	st.stats.Reads++
	p.stats.ReadReads++
	p.stats.ReadBases += int64(len(r.Seq))
}

func (p *Pipeline) firstPassSingle(st *fileState, sw *spill.Writer, r *Record) error {
	p.countRead(st, r)

	p.buf1 = abundtrim.NormalizeTo(p.buf1, r.Seq)
	d := DecideFirstPass(p.table, p.buf1, &p.opt)
	if d.Verdict == Deferred {
		return p.deferRead(st, sw, r, p.buf1)
	}
	return p.emit(st.sink, r, d)
}

func (p *Pipeline) firstPassPair(st *fileState, sw *spill.Writer, r1, r2 *Record) error {
	p.countRead(st, r1)
	p.countRead(st, r2)

	p.buf1 = abundtrim.NormalizeTo(p.buf1, r1.Seq)
	p.buf2 = abundtrim.NormalizeTo(p.buf2, r2.Seq)
	d1, d2 := DecidePair(p.table, p.buf1, p.buf2, &p.opt)

	if d1.Verdict == Deferred {
		if err := p.deferRead(st, sw, r1, p.buf1); err != nil {
			return err
		}
		return p.deferRead(st, sw, r2, p.buf2)
	}

	if d1.Verdict == Emitted && d2.Verdict == Emitted {
		p.account(r1, d1)
		p.account(r2, d2)
		return st.sink.WritePair(r1.truncate(d1.TrimAt), r2.truncate(d2.TrimAt))
	}

	// one or two mates are dropped, the remaining one becomes an orphan.
	if err := p.emit(st.sink, r1, d1); err != nil {
		return err
	}
	return p.emit(st.sink, r2, d2)
}

func (p *Pipeline) deferRead(st *fileState, sw *spill.Writer, r *Record, s []byte) error {
	// reads with invalid bases are kept aside without being counted.
	if _, err := p.table.Consume(s); err != nil && !errors.Is(err, abundtrim.ErrInvalidBase) {
		return err
	}
	if err := sw.Append(&spill.Entry{Name: r.Name, Seq: r.Seq, Qual: r.Qual}); err != nil {
		return errors.Wrap(err, "write spill file")
	}
	st.stats.Deferred++
	return nil
}

func (p *Pipeline) account(r *Record, d Decision) {
	if d.Verdict == Dropped {
		p.stats.RemovedReads++
		return
	}
	p.stats.WroteReads++
	p.stats.WroteBases += int64(d.TrimAt)
	if d.TrimAt < len(r.Seq) {
		p.stats.TrimmedReads++
	}
	if d.LowCoverage {
		p.stats.SkippedReads++
		p.stats.SkippedBases += int64(len(r.Seq))
	}
}

func (p *Pipeline) emit(sink Sink, r *Record, d Decision) error {
	p.account(r, d)
	if d.Verdict != Emitted {
		return nil
	}
	return sink.Write(r.truncate(d.TrimAt))
}

// ------------------------------------------------------------------------

func (p *Pipeline) secondPass(st *fileState) error {
	name := st.job.Name
	p.infof("second pass: looking at sequences kept aside from %s", name)

	r, err := spill.Open(st.spillFile)
	if err != nil {
		return errors.Wrapf(err, "open spill file of %s", name)
	}
	defer r.Close()

	p.n = 0
	var e *spill.Entry
	var rec Record
	for {
		e, err = r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "read spill file of %s", name)
		}

		if p.n%p.opt.ProgressInterval == 0 {
			p.infof("... x 2 %d %s %d %d %d %d", p.n, name,
				p.stats.ReadReads, p.stats.ReadBases, p.stats.WroteReads, p.stats.WroteBases)
		}
		p.n++

		rec.Name, rec.Seq, rec.Qual = e.Name, e.Seq, e.Qual
		p.buf1 = abundtrim.NormalizeTo(p.buf1, rec.Seq)
		d := DecideSecondPass(p.table, p.buf1, &p.opt)
		if err = p.emit(st.sink, &rec, d); err != nil {
			return errors.Wrapf(err, "second pass of %s", name)
		}
	}
	r.Close()

	p.infof("removing %s", st.spillFile)
	if err = os.Remove(st.spillFile); err != nil {
		return errors.Wrapf(err, "remove spill file of %s", name)
	}

	err = st.sink.Close()
	st.sink = nil
	if err != nil {
		return errors.Wrapf(err, "close output of %s", name)
	}

	if p.opt.OnFileDone != nil {
		p.opt.OnFileDone(2, name)
	}
	return nil
}
