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

// Reader reads entries from a spill file in the order they were appended.
type Reader struct {
	r    *bufio.Reader
	fh   io.Closer // optional, the underlying file
	zdec *zstd.Decoder

	Compression Compression

	e    Entry
	bufs [3][]byte
}

// NewReader wraps a reader of a spill file.
func NewReader(r io.Reader) (*Reader, error) {
	var head [9]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errBadMagic
		}
		return nil, err
	}
	if [8]byte(head[:8]) != magic {
		return nil, errBadMagic
	}

	rdr := &Reader{Compression: Compression(head[8])}
	switch rdr.Compression {
	case SnappyCompression:
		rdr.r = bufio.NewReader(snappy.NewReader(r))
	case ZstdCompression:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		rdr.zdec = dec
		rdr.r = bufio.NewReader(dec)
	case NoCompression:
		rdr.r = bufio.NewReaderSize(r, 1<<16)
	default:
		return nil, errBadCompression
	}
	return rdr, nil
}

// Open opens a spill file.
func Open(file string) (*Reader, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(fh)
	if err != nil {
		fh.Close()
		return nil, err
	}
	r.fh = fh
	return r, nil
}

// Next returns the next entry, or io.EOF at the end.
// The returned entry and its slices are reused by the next call.
func (r *Reader) Next() (*Entry, error) {
	var n uint64
	var err error
	for i := range r.bufs {
		n, err = binary.ReadUvarint(r.r)
		if err != nil {
			if err == io.EOF && i == 0 {
				return nil, io.EOF
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errBrokenEntry
			}
			return nil, err
		}
		if n > maxFieldLen {
			return nil, errBrokenEntry
		}

		if uint64(cap(r.bufs[i])) < n {
			r.bufs[i] = make([]byte, n)
		}
		r.bufs[i] = r.bufs[i][:n]
		if _, err = io.ReadFull(r.r, r.bufs[i]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errBrokenEntry
			}
			return nil, err
		}
	}

	r.e.Name, r.e.Seq, r.e.Qual = r.bufs[0], r.bufs[1], r.bufs[2]
	return &r.e, nil
}

// Close releases the reader, and closes the underlying file if it's opened by Open.
func (r *Reader) Close() error {
	if r.zdec != nil {
		r.zdec.Close()
		r.zdec = nil
	}
	if r.fh != nil {
		err := r.fh.Close()
		r.fh = nil
		return err
	}
	return nil
}
