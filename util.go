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
	"math/big"
)

// Normalize returns a copy of s for k-mer counting:
// lower cases are converted to upper cases, and N/n is replaced with A.
// Other bases are kept, which will be rejected by the k-mer encoder.
func Normalize(s []byte) []byte {
	return NormalizeTo(make([]byte, 0, len(s)), s)
}

// NormalizeTo is the same as Normalize, but appends the result to dst[:0],
// so the buffer can be reused.
func NormalizeTo(dst []byte, s []byte) []byte {
	dst = dst[:0]
	for _, b := range s {
		dst = append(dst, normTable[b])
	}
	return dst
}

var normTable [256]byte

func init() {
	for i := range normTable {
		normTable[i] = byte(i)
	}
	for _, b := range []byte("acgt") {
		normTable[b] = b - 'a' + 'A'
	}
	normTable['N'] = 'A'
	normTable['n'] = 'A'
}

// https://gist.github.com/badboy/6267743 .
// version with mask: https://gist.github.com/lh3/974ced188be2f90422cc .
func hash64(key uint64) uint64 {
	key = (^key) + (key << 21) // key = (key << 21) - key - 1
	key = key ^ (key >> 24)
	key = (key + (key << 3)) + (key << 8) // key * 265
	key = key ^ (key >> 14)
	key = (key + (key << 2)) + (key << 4) // key * 21
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

// nextPrime returns the smallest prime >= n.
func nextPrime(n uint64) uint64 {
	if n <= 2 {
		return 2
	}
	if n&1 == 0 {
		n++
	}
	p := new(big.Int)
	for ; ; n += 2 {
		// ProbablyPrime is 100% accurate for inputs less than 2^64.
		if p.SetUint64(n).ProbablyPrime(0) {
			return n
		}
	}
}
