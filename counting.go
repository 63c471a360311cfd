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
	"math"
	"math/rand"
	"sync"

	"github.com/shenwei356/abundtrim/iterator"
	"github.com/twotwotwo/sorts/sortutil"
	"github.com/zeebo/wyhash"
)

// MaxCount is the maximum value of a counter. Counters saturate at it.
const MaxCount = math.MaxUint8

// ErrInvalidK means K is not in the range of [1, 32].
var ErrInvalidK = errors.New("abundtrim: invalid k-mer size, valid range is [1, 32]")

// ErrInvalidTables means the number of tables is < 1.
var ErrInvalidTables = errors.New("abundtrim: the number of tables should be >= 1")

// ErrInvalidMemory means the memory is too small to have one counter per table.
var ErrInvalidMemory = errors.New("abundtrim: table memory should be >= the number of tables")

// ErrTooShort means the sequence is shorter than K.
var ErrTooShort = errors.New("abundtrim: sequence shorter than k")

// ErrInvalidBase means bases other than A, C, G, T are found after normalization.
var ErrInvalidBase = iterator.ErrInvalidBase

// CountingTable is a count-min sketch of canonical k-mers.
// It uses NumTables arrays of 1-byte saturating counters of the same prime size,
// each with an independent hash function.
// The size is fixed on creation, so is the memory.
//
// A CountingTable is not safe for concurrent use when Consume is involved.
type CountingTable struct {
	k int

	Seed      int64    // seed for generating hash seeds
	seeds     []uint64 // hash seeds, one for each table
	tableSize uint64
	tables    [][]uint8

	occupied []uint64 // number of non-zero counters in each table
	nKmers   uint64   // number of consumed k-mers

	// a []uint64 for storing per-k-mer counts of a sequence
	poolCounts *sync.Pool
}

// New returns a new CountingTable with nTables tables and
// at least minMemory counters (bytes) in total.
func New(k int, nTables int, minMemory int64) (*CountingTable, error) {
	return NewWithSeed(k, nTables, minMemory, 1)
}

// NewWithSeed creates a new CountingTable with given seed.
// The size of each table is the smallest prime >= minMemory/nTables.
func NewWithSeed(k int, nTables int, minMemory int64, seed int64) (*CountingTable, error) {
	if k < 1 || k > 32 {
		return nil, ErrInvalidK
	}
	if nTables < 1 {
		return nil, ErrInvalidTables
	}
	if minMemory < int64(nTables) {
		return nil, ErrInvalidMemory
	}

	size := uint64(minMemory) / uint64(nTables)
	if uint64(minMemory)%uint64(nTables) > 0 {
		size++
	}
	size = nextPrime(size)

	t := newTable(k, genHashSeeds(nTables, seed), size)
	t.Seed = seed
	for i := range t.tables {
		t.tables[i] = make([]uint8, size)
	}
	return t, nil
}

// newTable creates a table without allocating counters.
func newTable(k int, seeds []uint64, size uint64) *CountingTable {
	return &CountingTable{
		k:         k,
		seeds:     seeds,
		tableSize: size,
		tables:    make([][]uint8, len(seeds)),
		occupied:  make([]uint64, len(seeds)),

		poolCounts: &sync.Pool{New: func() interface{} {
			tmp := make([]uint64, 0, 256)
			return &tmp
		}},
	}
}

func genHashSeeds(n int, randSeed int64) []uint64 {
	seeds := make([]uint64, n)
	m := make(map[uint64]interface{}, n) // to avoid duplicates
	r := rand.New(rand.NewSource(randSeed))
	var s uint64
	var ok bool
	for i := 0; i < n; {
		s = hash64(r.Uint64())
		if _, ok = m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		seeds[i] = s
		i++
	}
	return seeds
}

// K returns the k-mer size.
func (t *CountingTable) K() int { return t.k }

// NumTables returns the number of tables (hash functions).
func (t *CountingTable) NumTables() int { return len(t.tables) }

// TableSize returns the number of counters in each table.
func (t *CountingTable) TableSize() uint64 { return t.tableSize }

// MemoryBytes returns the memory occupied by all counters.
func (t *CountingTable) MemoryBytes() uint64 { return t.tableSize * uint64(len(t.tables)) }

// KmersConsumed returns the number of k-mers consumed, duplicates included.
func (t *CountingTable) KmersConsumed() uint64 { return t.nKmers }

// Occupied returns the number of non-zero counters in the i-th table.
func (t *CountingTable) Occupied(i int) uint64 { return t.occupied[i] }

// slot returns the counter position of a k-mer in the i-th table.
func (t *CountingTable) slot(key uint64, i int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return wyhash.Hash(buf[:], t.seeds[i]) % t.tableSize
}

// Add increases the counter of a k-mer by one in every table.
func (t *CountingTable) Add(key uint64) {
	var j uint64
	var c uint8
	for i, table := range t.tables {
		j = t.slot(key, i)
		c = table[j]
		if c == MaxCount {
			continue
		}
		if c == 0 {
			t.occupied[i]++
		}
		table[j] = c + 1
	}
	t.nKmers++
}

// Count returns the estimated count of a k-mer,
// i.e., the minimum counter value across all tables.
// It never underestimates a count below MaxCount.
func (t *CountingTable) Count(key uint64) uint8 {
	var m uint8 = MaxCount
	var c uint8
	for i, table := range t.tables {
		c = table[t.slot(key, i)]
		if c < m {
			m = c
			if m == 0 {
				break
			}
		}
	}
	return m
}

// Consume counts all k-mers of a sequence and returns the number of k-mers.
// The sequence should be normalized (see Normalize).
// If any invalid base is found, nothing is counted and ErrInvalidBase is returned.
// Sequences shorter than K are ignored.
func (t *CountingTable) Consume(s []byte) (int, error) {
	if len(s) < t.k {
		return 0, nil
	}
	if _, err := iterator.Validate(s); err != nil {
		return 0, err
	}

	iter, err := iterator.NewKmerIterator(s, t.k)
	if err != nil {
		return 0, err
	}
	var code uint64
	var ok bool
	var n int
	for {
		code, ok, err = iter.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		t.Add(code)
		n++
	}
	return n, nil
}

// counts appends the counts of all k-mers of s to buf, in the order of positions.
func (t *CountingTable) counts(s []byte, buf *[]uint64) error {
	*buf = (*buf)[:0]
	if len(s) < t.k {
		return ErrTooShort
	}
	iter, err := iterator.NewKmerIterator(s, t.k)
	if err != nil {
		return err
	}
	var code uint64
	var ok bool
	for {
		code, ok, err = iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		*buf = append(*buf, uint64(t.Count(code)))
	}
	return nil
}

// Profile returns the median, minimum and maximum counts of all k-mers in s.
// The median of an even number of counts is the upper one.
func (t *CountingTable) Profile(s []byte) (median, min, max uint8, err error) {
	buf := t.poolCounts.Get().(*[]uint64)
	defer t.poolCounts.Put(buf)

	err = t.counts(s, buf)
	if err != nil {
		return 0, 0, 0, err
	}
	median, min, max = summary(*buf)
	return median, min, max, nil
}

// summary sorts the counts and returns the median, min and max.
func summary(counts []uint64) (median, min, max uint8) {
	sortutil.Uint64s(counts)
	n := len(counts)
	return uint8(counts[n/2]), uint8(counts[0]), uint8(counts[n-1])
}

// FalsePositiveRate estimates the probability that a k-mer never seen
// has a non-zero count, from the fraction of occupied counters of each table.
// With N distinct k-mers, it approximates (1-e^(-N/TableSize))^NumTables.
//
// It's only a diagnostic; a value above 0.8 means the table is too small
// for the data set.
func (t *CountingTable) FalsePositiveRate() float64 {
	fpr := 1.0
	size := float64(t.tableSize)
	for _, n := range t.occupied {
		fpr *= float64(n) / size
	}
	return fpr
}

// UniqueKmers estimates the number of distinct k-mers from table occupancy.
func (t *CountingTable) UniqueKmers() float64 {
	size := float64(t.tableSize)
	var sum float64
	for _, n := range t.occupied {
		if n == t.tableSize {
			return math.Inf(1)
		}
		sum += -size * math.Log(1-float64(n)/size)
	}
	return sum / float64(len(t.occupied))
}
