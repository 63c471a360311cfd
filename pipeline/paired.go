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
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// RecordReader reads records one by one, and returns io.EOF at the end.
type RecordReader interface {
	Read() (*Record, error)
}

// BrokenPairedReader groups consecutive records into pairs when their names
// say they are mates, and yields everything else as single reads.
type BrokenPairedReader struct {
	r      RecordReader
	closer io.Closer

	next *Record
	eof  bool
	n    int
}

// NewBrokenPairedReader creates a BrokenPairedReader.
func NewBrokenPairedReader(r RecordReader) *BrokenPairedReader {
	b := &BrokenPairedReader{r: r}
	if c, ok := r.(io.Closer); ok {
		b.closer = c
	}
	return b
}

func (b *BrokenPairedReader) read() (*Record, error) {
	if b.eof {
		return nil, io.EOF
	}
	r, err := b.r.Read()
	if err == io.EOF {
		b.eof = true
	}
	return r, err
}

// Next returns the next fragment.
func (b *BrokenPairedReader) Next() (*Fragment, error) {
	var r1, r2 *Record
	var err error

	if b.next != nil {
		r1, b.next = b.next, nil
	} else if r1, err = b.read(); err != nil {
		return nil, err
	}

	idx := b.n
	r2, err = b.read()
	if err != nil {
		if err != io.EOF {
			return nil, err
		}
		b.n++
		return &Fragment{Index: idx, R1: r1}, nil
	}

	if IsPair(r1, r2) {
		b.n += 2
		return &Fragment{Index: idx, IsPair: true, R1: r1, R2: r2}, nil
	}

	b.next = r2
	b.n++
	return &Fragment{Index: idx, R1: r1}, nil
}

// Close closes the underlying reader if it is closable.
func (b *BrokenPairedReader) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// IsPair tells if two records are mates.
//
// Supported naming schemes:
//
//	X/1 ...    X/2 ...
//	X 1:...    X 2:...    (Illumina 1.8+)
//
// Both records must be in the same format.
func IsPair(r1, r2 *Record) bool {
	if r1.IsFastq() != r2.IsFastq() {
		return false
	}

	lhs1, rhs1 := splitName(r1.Name)
	lhs2, rhs2 := splitName(r2.Name)

	if bytes.HasSuffix(lhs1, []byte("/1")) && bytes.HasSuffix(lhs2, []byte("/2")) {
		sub1, _, _ := bytes.Cut(lhs1, []byte{'/'})
		sub2, _, _ := bytes.Cut(lhs2, []byte{'/'})
		return len(sub1) > 0 && bytes.Equal(sub1, sub2)
	}

	return bytes.Equal(lhs1, lhs2) &&
		bytes.HasPrefix(rhs1, []byte("1:")) && bytes.HasPrefix(rhs2, []byte("2:"))
}

// splitName splits a header line at the first space.
func splitName(name []byte) (left, right []byte) {
	left, right, _ = bytes.Cut(name, []byte{' '})
	return
}

// ------------------------------------------------------------------------

// FastxRecords reads records from a FASTA/FASTQ file.
type FastxRecords struct {
	r *fastx.Reader
}

// NewFastxRecords opens a (compressed) FASTA/FASTQ file.
func NewFastxRecords(file string) (*FastxRecords, error) {
	r, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", file)
	}
	return &FastxRecords{r: r}, nil
}

// Read returns the next record. The returned record is not reused.
func (f *FastxRecords) Read() (*Record, error) {
	rec, err := f.r.Read()
	if err != nil {
		return nil, err
	}

	r := &Record{
		Name: append([]byte(nil), rec.Name...),
		Seq:  append([]byte(nil), rec.Seq.Seq...),
	}
	if f.r.IsFastq {
		r.Qual = append([]byte(nil), rec.Seq.Qual...)
	}
	return r, nil
}

// Close closes the file.
func (f *FastxRecords) Close() error {
	f.r.Close()
	return nil
}

// NewFastxSource opens a FASTA/FASTQ file as a broken-paired Source.
func NewFastxSource(file string) (*BrokenPairedReader, error) {
	r, err := NewFastxRecords(file)
	if err != nil {
		return nil, err
	}
	return NewBrokenPairedReader(r), nil
}
