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
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// FastxSink writes records to a FASTA/FASTQ file,
// compressed according to the file extension.
type FastxSink struct {
	file string
	w    *xopen.Writer

	rec fastx.Record
	s   seq.Seq
}

// NewFastxSink creates a FastxSink. "-" for stdout.
func NewFastxSink(file string) (*FastxSink, error) {
	w, err := xopen.Wopen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", file)
	}
	s := &FastxSink{file: file, w: w}
	s.rec.Seq = &s.s
	return s, nil
}

// Write writes a record, in FASTQ format if it has quality values.
func (s *FastxSink) Write(r *Record) error {
	s.rec.Name = r.Name
	s.s.Seq = r.Seq
	s.s.Qual = r.Qual
	if _, err := s.w.Write(s.rec.Format(0)); err != nil {
		return errors.Wrapf(err, "write %s", s.file)
	}
	return nil
}

// WritePair writes two mates.
func (s *FastxSink) WritePair(a, b *Record) error {
	if err := s.Write(a); err != nil {
		return err
	}
	return s.Write(b)
}

// Close flushes and closes the file.
func (s *FastxSink) Close() error {
	return errors.Wrapf(s.w.Close(), "close %s", s.file)
}
