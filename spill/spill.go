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

/*
Package spill stores reads that are set aside in the first pass of trimming,
and reads them back, in the same order, in the second pass.

File layout:

	+------------------+-------------------------+-------------------------------+
	| magic (8 bytes)  |  compression (1 byte)   | entry stream (compressed)     |
	+------------------+-------------------------+-------------------------------+

Entry:

	+-----------------+------+----------------+-----+-----------------+------+
	| name len varint | name | seq len varint | seq | qual len varint | qual |
	+-----------------+------+----------------+-----+-----------------+------+
*/
package spill

import (
	"errors"
	"fmt"
	"strings"
)

var magic = [8]byte{'a', 'b', 't', 's', 'p', 'i', 'l', 'l'}

// maxFieldLen is the maximum length of a field, to detect corrupted files.
const maxFieldLen = 1 << 30

var (
	errClosed         = errors.New("spill: is closed")
	errBadMagic       = errors.New("spill: bad magic byte sequence")
	errBadCompression = errors.New("spill: bad compression codec")
	errBrokenEntry    = errors.New("spill: broken entry")
)

// Entry is a read saved in a spill file.
type Entry struct {
	Name []byte
	Seq  []byte
	Qual []byte // optional
}

// --------------------------------------------------------------------

// Compression is the compression codec
type Compression byte

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	ZstdCompression
	NoCompression
	unknownCompression
)

// IsValid tells if the codec is supported.
func (c Compression) IsValid() bool {
	return c >= SnappyCompression && c < unknownCompression
}

func (c Compression) String() string {
	switch c {
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	case NoCompression:
		return "none"
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// ParseCompression parses the name of a compression codec.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "snappy":
		return SnappyCompression, nil
	case "zstd":
		return ZstdCompression, nil
	case "none", "":
		return NoCompression, nil
	}
	return unknownCompression, fmt.Errorf("spill: unsupported compression codec: %s, available: snappy, zstd, none", name)
}
