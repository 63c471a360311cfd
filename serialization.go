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

package abundtrim

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/shenwei356/xopen"
)

var be = binary.BigEndian

// Magic number of the binary file of a CountingTable.
var Magic = [8]byte{'a', 'b', 'n', 'd', 't', 'r', 'i', 'm'}

// MainVersion is used for checking compatibility.
var MainVersion uint8 = 0

// MinorVersion is less important.
var MinorVersion uint8 = 1

// MaxTables is the maximum number of tables accepted when reading a file.
const MaxTables = 1 << 10

// MaxMemory is the maximum total size of counters accepted when reading a file.
const MaxMemory uint64 = 1 << 40

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("abundtrim: invalid binary format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("abundtrim: broken file")

// ErrVersionMismatch means version mismatch between files and program.
var ErrVersionMismatch = errors.New("abundtrim: version mismatch")

// NewFromFile creates a CountingTable from a file.
func NewFromFile(file string) (*CountingTable, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh)
}

// WriteToFile writes a CountingTable to a file,
// optional with file extensions of .gz, .xz, .zst, .bz2.
func (t *CountingTable) WriteToFile(file string) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}

	N, err := t.Write(outfh)
	if err != nil {
		outfh.Close()
		return N, err
	}
	// data may be buffered or compressed, it's flushed in Close.
	return N, outfh.Close()
}

// Write writes a CountingTable.
//
// Header (48 bytes):
//
//	Magic number, 8 bytes, abndtrim
//	Main and minor versions, 2 bytes
//	K, 1 byte
//	Blank, 5 bytes
//	Seed, 8 bytes
//	Number of tables, 8 bytes
//	Table size, 8 bytes
//	Number of consumed k-mers, 8 bytes
//
// Data:
//
//	Hash seeds in uint64, 8*$(the number of tables)
//	Counters, $(table size) bytes for each table
func (t *CountingTable) Write(w io.Writer) (int, error) {
	var N int // the number of bytes.
	var err error

	// 8-byte magic number
	err = binary.Write(w, be, Magic)
	if err != nil {
		return N, err
	}
	N += 8

	// 8-byte meta info
	err = binary.Write(w, be, [8]uint8{MainVersion, MinorVersion, uint8(t.k)})
	if err != nil {
		return N, err
	}
	N += 8

	// 4 uint64
	err = binary.Write(w, be, [4]uint64{uint64(t.Seed), uint64(len(t.tables)), t.tableSize, t.nKmers})
	if err != nil {
		return N, err
	}
	N += 32

	data := make([]byte, 8*len(t.seeds))
	for i, s := range t.seeds {
		be.PutUint64(data[i<<3:], s)
	}
	_, err = w.Write(data)
	if err != nil {
		return N, err
	}
	N += len(data)

	var n int
	for _, table := range t.tables {
		n, err = w.Write(table)
		N += n
		if err != nil {
			return N, err
		}
	}

	return N, nil
}

// Read reads a CountingTable from an io.Reader.
func Read(r io.Reader) (*CountingTable, error) {
	buf := make([]byte, 32)

	var err error

	// check the magic number
	_, err = io.ReadFull(r, buf[:8])
	if err != nil {
		return nil, brokenOr(err)
	}
	for i := 0; i < 8; i++ {
		if Magic[i] != buf[i] {
			return nil, ErrInvalidFileFormat
		}
	}

	// read metadata
	_, err = io.ReadFull(r, buf[:8])
	if err != nil {
		return nil, brokenOr(err)
	}
	// check compatibility
	if MainVersion != buf[0] {
		return nil, ErrVersionMismatch
	}
	// check k-mer size
	k := int(buf[2])
	if k < 1 || k > 32 {
		return nil, ErrInvalidK
	}

	_, err = io.ReadFull(r, buf[:32])
	if err != nil {
		return nil, brokenOr(err)
	}
	seed := int64(be.Uint64(buf[:8]))
	nTables := be.Uint64(buf[8:16])
	size := be.Uint64(buf[16:24])
	nKmers := be.Uint64(buf[24:32])
	if nTables < 1 || size < 1 || nTables > MaxTables || size > MaxMemory/nTables {
		return nil, ErrInvalidFileFormat
	}

	data := make([]byte, 8*nTables)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, brokenOr(err)
	}
	seeds := make([]uint64, nTables)
	for i := range seeds {
		seeds[i] = be.Uint64(data[i<<3:])
	}

	t := newTable(k, seeds, size)
	t.Seed = seed
	t.nKmers = nKmers

	var table []uint8
	var n uint64
	for i := range t.tables {
		table = make([]uint8, size)
		_, err = io.ReadFull(r, table)
		if err != nil {
			return nil, brokenOr(err)
		}

		n = 0
		for _, c := range table {
			if c > 0 {
				n++
			}
		}
		t.tables[i] = table
		t.occupied[i] = n
	}

	return t, nil
}

func brokenOr(err error) error {
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return ErrBrokenFile
	}
	return err
}
