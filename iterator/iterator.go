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

package iterator

import (
	"errors"
	"sync"

	"github.com/shenwei356/kmers"
)

// ErrInvalidK means k < 1 or K > 32
var ErrInvalidK = errors.New("k-mer iterator: invalid k-mer size (1 <= k <= 32)")

// ErrShortSeq means the sequence is shorter than k.
var ErrShortSeq = errors.New("k-mer iterator: sequence too short")

// ErrInvalidLength means the k-mer to encode runs past the end of the sequence.
var ErrInvalidLength = errors.New("k-mer iterator: k-mer out of sequence range")

// ErrInvalidBase means that bases other than A, C, G, T are detected.
// Ambiguous bases should be replaced before encoding.
var ErrInvalidBase = errors.New("k-mer iterator: invalid base")

// Encode returns the canonical code of the k-mer starting at pos (0-based).
func Encode(s []byte, pos int, k int) (uint64, error) {
	if k < 1 || k > 32 {
		return 0, ErrInvalidK
	}
	if pos < 0 || pos+k > len(s) {
		return 0, ErrInvalidLength
	}

	var code, b uint64
	for _, c := range s[pos : pos+k] {
		b = base2bit[c]
		if b > 3 {
			return 0, ErrInvalidBase
		}
		code = code<<2 | b
	}
	return Canonical(code, k), nil
}

// Canonical returns the smaller one of a k-mer code and its reverse complement.
// With A<C<G<T encoded as 0-3, the numeric order equals the lexicographic order.
func Canonical(code uint64, k int) uint64 {
	rc := kmers.MustRevComp(code, k)
	if rc < code {
		return rc
	}
	return code
}

// Validate checks that s only contains A, C, G, T (case-insensitive).
// It returns the 0-based position of the first invalid base, or -1.
func Validate(s []byte) (int, error) {
	for i, c := range s {
		if base2bit[c] > 3 {
			return i, ErrInvalidBase
		}
	}
	return -1, nil
}

var poolIterator = &sync.Pool{New: func() interface{} {
	return &Iterator{}
}}

// Iterator is a nucleotide k-mer iterator.
// Codes of a k-mer are computed from the previous one by rolling.
type Iterator struct {
	s   []byte
	k   int
	kP1 int // k -1

	finished bool
	idx      int
	end      int
	first    bool

	preCode   uint64
	preCodeRC uint64

	mask1 uint64 // (1<<(kP1*2))-1
	mask2 uint   // kP1*2
}

// NewKmerIterator returns a k-mer code iterator.
func NewKmerIterator(s []byte, k int) (*Iterator, error) {
	if k < 1 || k > 32 {
		return nil, ErrInvalidK
	}
	if len(s) < k {
		return nil, ErrShortSeq
	}

	iter := poolIterator.Get().(*Iterator)
	iter.s = s
	iter.k = k
	iter.kP1 = k - 1
	iter.finished = false
	iter.idx = 0
	iter.end = len(s) - k + 1
	iter.first = true

	iter.mask1 = (1 << (uint(iter.kP1) << 1)) - 1
	iter.mask2 = uint(iter.kP1) << 1

	return iter, nil
}

// NextKmer returns next two k-mer codes.
// code is from the positive strand,
// codeRC is from the negative strand.
func (iter *Iterator) NextKmer() (code, codeRC uint64, ok bool, err error) {
	if iter.finished {
		return 0, 0, false, nil
	}

	if iter.idx == iter.end { // recycle the Iterator
		iter.finished = true
		poolIterator.Put(iter)
		return 0, 0, false, nil
	}

	var b uint64
	if !iter.first {
		b = base2bit[iter.s[iter.idx+iter.kP1]]
		if b > 3 {
			return 0, 0, false, ErrInvalidBase
		}

		// compute code from previous one
		code = (iter.preCode&iter.mask1)<<2 | b

		// compute code of revcomp kmer from previous one
		codeRC = (b^3)<<iter.mask2 | (iter.preCodeRC >> 2)
	} else {
		for _, c := range iter.s[iter.idx : iter.idx+iter.k] {
			b = base2bit[c]
			if b > 3 {
				return 0, 0, false, ErrInvalidBase
			}
			code = code<<2 | b
		}
		codeRC = kmers.MustRevComp(code, iter.k)
		iter.first = false
	}

	iter.preCode = code
	iter.preCodeRC = codeRC
	iter.idx++

	return code, codeRC, true, nil
}

// Next returns the canonical code of the next k-mer.
func (iter *Iterator) Next() (code uint64, ok bool, err error) {
	var codeRC uint64
	code, codeRC, ok, err = iter.NextKmer()
	if !ok {
		return 0, ok, err
	}
	if codeRC < code {
		return codeRC, true, nil
	}
	return code, true, nil
}

// Index returns current 0-baesd index.
func (iter *Iterator) Index() int {
	return iter.idx - 1
}

// only A, C, G, T and their lower cases are allowed.
var base2bit = [256]uint64{
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 0, 4, 1, 4, 4, 4, 2, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 0, 4, 1, 4, 4, 4, 2, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
}
