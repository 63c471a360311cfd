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
	"testing"

	"github.com/shenwei356/kmers"
)

var _s = "AAGTTTGAATCATTCAACTATCTAGTTTTCAGAGAACAATGTTCTCTAAAGAATAGAAAAGAGTCATTGTGCGGTGATGATGGCGGGAAGGATCCACCTG"

func revcomp(s []byte) []byte {
	rc := make([]byte, len(s))
	var c byte
	for i, b := range s {
		switch b {
		case 'A':
			c = 'T'
		case 'C':
			c = 'G'
		case 'G':
			c = 'C'
		case 'T':
			c = 'A'
		}
		rc[len(s)-1-i] = c
	}
	return rc
}

func TestKmerIterator(t *testing.T) {
	sequence := []byte(_s)
	for _, k := range []int{1, 4, 10, 21, 31, 32} {
		iter, err := NewKmerIterator(sequence, k)
		if err != nil {
			t.Errorf("fail to create a k-mer iterator: %s", err)
			return
		}

		var code, fwd, rc uint64
		var ok bool
		var n int
		for {
			fwd, rc, ok, err = iter.NextKmer()
			if err != nil {
				t.Error(err)
				return
			}
			if !ok {
				break
			}

			i := iter.Index()
			if i != n {
				t.Errorf("k=%d: unexpected index %d, expected %d", k, i, n)
			}

			code, err = kmers.Encode(sequence[i : i+k])
			if err != nil {
				t.Error(err)
				return
			}
			if fwd != code {
				t.Errorf("k=%d, pos %d: forward code mismatch: %s vs %s",
					k, i, kmers.Decode(fwd, k), sequence[i:i+k])
			}
			if rc != kmers.MustRevComp(code, k) {
				t.Errorf("k=%d, pos %d: reverse complement code mismatch", k, i)
			}

			code, err = Encode(sequence, i, k)
			if err != nil {
				t.Error(err)
				return
			}
			if code != Canonical(fwd, k) {
				t.Errorf("k=%d, pos %d: canonical code mismatch", k, i)
			}

			n++
		}

		if n != len(_s)-k+1 {
			t.Errorf("k=%d: k-mers number error: %d", k, n)
		}
	}
}

func TestCanonicalNext(t *testing.T) {
	sequence := []byte(_s)
	k := 11
	iter, err := NewKmerIterator(sequence, k)
	if err != nil {
		t.Error(err)
		return
	}

	var code, expected uint64
	var ok bool
	for {
		code, ok, err = iter.Next()
		if err != nil {
			t.Error(err)
			return
		}
		if !ok {
			break
		}
		expected, _ = Encode(sequence, iter.Index(), k)
		if code != expected {
			t.Errorf("pos %d: %d vs %d", iter.Index(), code, expected)
		}
	}
}

func TestEncodeStrandIndependent(t *testing.T) {
	s := []byte(_s)
	rc := revcomp(s)
	for _, k := range []int{3, 4, 15, 32} {
		for p := 0; p+k <= len(s); p++ {
			a, err := Encode(s, p, k)
			if err != nil {
				t.Error(err)
				return
			}
			b, err := Encode(rc, len(s)-k-p, k)
			if err != nil {
				t.Error(err)
				return
			}
			if a != b {
				t.Errorf("k=%d, pos %d: %s vs %s", k, p, kmers.Decode(a, k), kmers.Decode(b, k))
			}
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	s := []byte("ACGTNACGT")

	if _, err := Encode(s, 6, 4); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := Encode(s, -1, 4); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := Encode(s, 2, 4); !errors.Is(err, ErrInvalidBase) {
		t.Errorf("expected ErrInvalidBase, got %v", err)
	}
	if _, err := Encode(s, 0, 0); !errors.Is(err, ErrInvalidK) {
		t.Errorf("expected ErrInvalidK, got %v", err)
	}
	if _, err := Encode(s, 0, 4); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	// lower cases are the same bases
	a, _ := Encode([]byte("acgg"), 0, 4)
	b, _ := Encode([]byte("ACGG"), 0, 4)
	if a != b {
		t.Errorf("lower case bases should be encoded as upper ones")
	}

	if i, err := Validate(s); i != 4 || !errors.Is(err, ErrInvalidBase) {
		t.Errorf("Validate: unexpected result: %d, %v", i, err)
	}

	if _, err := NewKmerIterator(s[:3], 4); !errors.Is(err, ErrShortSeq) {
		t.Errorf("expected ErrShortSeq, got %v", err)
	}

	iter, _ := NewKmerIterator(s, 4)
	var err error
	var ok bool
	for {
		_, ok, err = iter.Next()
		if err != nil || !ok {
			break
		}
	}
	if !errors.Is(err, ErrInvalidBase) {
		t.Errorf("iterator: expected ErrInvalidBase, got %v", err)
	}
}
