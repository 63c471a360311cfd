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

// Record is a sequencing read.
// Qual is empty for FASTA records.
type Record struct {
	Name []byte // full header line, without the leading '>' or '@'
	Seq  []byte
	Qual []byte
}

// IsFastq tells if the record has quality values.
func (r *Record) IsFastq() bool { return len(r.Qual) > 0 }

// truncate returns a shallow copy of the record with the first n bases.
// Quality values are truncated too.
func (r *Record) truncate(n int) *Record {
	if n >= len(r.Seq) {
		return r
	}
	t := &Record{Name: r.Name, Seq: r.Seq[:n]}
	if len(r.Qual) > n {
		t.Qual = r.Qual[:n]
	} else {
		t.Qual = r.Qual
	}
	return t
}

// Fragment is a single read, or two mates of a read pair.
type Fragment struct {
	Index  int // 0-based index of R1 in the input
	IsPair bool
	R1, R2 *Record // R2 is nil for single reads
}

// Source yields fragments, and returns io.EOF at the end.
// If a Source also implements io.Closer, the pipeline closes it after use.
type Source interface {
	Next() (*Fragment, error)
}

// Sink receives trimmed reads.
type Sink interface {
	Write(r *Record) error
	WritePair(a, b *Record) error
	Close() error
}
