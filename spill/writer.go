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

package spill

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// The compression codec to use.
	// Default: SnappyCompression.
	Compression Compression

	// BufferSize is the size of the write buffer for uncompressed output.
	// Default: 64KiB.
	BufferSize int
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if !oo.Compression.IsValid() {
		oo.Compression = SnappyCompression
	}
	if oo.BufferSize < 1 {
		oo.BufferSize = 1 << 16
	}

	return &oo
}

// flushCloser is implemented by all codec writers.
type flushCloser interface {
	io.Writer
	Close() error
}

// Writer instances can write a spill file.
type Writer struct {
	w  flushCloser
	fh io.Closer // optional, the underlying file
	o  *WriterOptions

	n   int    // the number of entries
	tmp []byte // scratch buffer
}

// bufWriter adds a no-op Close to bufio.Writer, while Close flushes.
type bufWriter struct{ *bufio.Writer }

func (w bufWriter) Close() error { return w.Flush() }

// NewWriter wraps a writer and returns a Writer.
// Closing the Writer does not close w.
func NewWriter(w io.Writer, o *WriterOptions) (*Writer, error) {
	o = o.norm()

	if _, err := w.Write(magic[:]); err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte{byte(o.Compression)}); err != nil {
		return nil, err
	}

	var cw flushCloser
	switch o.Compression {
	case SnappyCompression:
		cw = snappy.NewBufferedWriter(w)
	case ZstdCompression:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		cw = enc
	default:
		cw = bufWriter{bufio.NewWriterSize(w, o.BufferSize)}
	}

	return &Writer{
		w:   cw,
		o:   o,
		tmp: make([]byte, binary.MaxVarintLen64),
	}, nil
}

// Create creates a spill file.
func Create(file string, o *WriterOptions) (*Writer, error) {
	fh, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(fh, o)
	if err != nil {
		fh.Close()
		return nil, err
	}
	w.fh = fh
	return w, nil
}

// Append appends an entry.
func (w *Writer) Append(e *Entry) error {
	if w.tmp == nil {
		return errClosed
	}

	for _, field := range [3][]byte{e.Name, e.Seq, e.Qual} {
		n := binary.PutUvarint(w.tmp, uint64(len(field)))
		if _, err := w.w.Write(w.tmp[:n]); err != nil {
			return err
		}
		if len(field) == 0 {
			continue
		}
		if _, err := w.w.Write(field); err != nil {
			return err
		}
	}

	w.n++
	return nil
}

// Len returns the number of entries written.
func (w *Writer) Len() int { return w.n }

// Close flushes the data and closes the writer,
// and the underlying file if it's created by Create.
func (w *Writer) Close() error {
	if w.tmp == nil {
		return errClosed
	}
	w.tmp = nil

	err := w.w.Close()
	if w.fh != nil {
		if err2 := w.fh.Close(); err == nil {
			err = err2
		}
	}
	return err
}
