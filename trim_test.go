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
	"errors"
	"math/rand"
	"testing"
)

func TestTrimOnAbundance(t *testing.T) {
	k := 15
	ct, _ := New(k, 4, 1000000)
	r := rand.New(rand.NewSource(1))

	s := randSeq(r, 60)
	tail := randSeq(r, 20)
	for i := 0; i < 3; i++ {
		ct.Consume(s)
	}

	// all k-mers are solid
	p, err := ct.TrimOnAbundance(s, 2)
	if err != nil {
		t.Error(err)
		return
	}
	if p.TrimAt != len(s) {
		t.Errorf("nothing should be trimmed: %s", p)
	}
	if p.Median != 3 || p.Min != 3 || p.Max != 3 {
		t.Errorf("unexpected profile: %s", p)
	}

	// the first k-mer covering the tail starts at 46,
	// so the read is truncated right before the tail.
	s2 := append(append([]byte{}, s...), tail...)
	p, err = ct.TrimOnAbundance(s2, 2)
	if err != nil {
		t.Error(err)
		return
	}
	if p.TrimAt != len(s) {
		t.Errorf("expected trimming at %d: %s", len(s), p)
	}
	if p.Min != 0 || p.Max != 3 {
		t.Errorf("unexpected profile: %s", p)
	}

	// bad k-mers in the beginning, TrimAt < k
	s3 := append(append([]byte{}, tail...), s...)
	p, err = ct.TrimOnAbundance(s3, 2)
	if err != nil {
		t.Error(err)
		return
	}
	if p.TrimAt != k-1 {
		t.Errorf("expected trimming at %d: %s", k-1, p)
	}

	// cutoff higher than all counts
	p, _ = ct.TrimOnAbundance(s, 4)
	if p.TrimAt != k-1 {
		t.Errorf("expected trimming at %d: %s", k-1, p)
	}

	// cutoff 0 keeps everything
	p, _ = ct.TrimOnAbundance(s2, 0)
	if p.TrimAt != len(s2) {
		t.Errorf("nothing should be trimmed with cutoff 0: %s", p)
	}
}

func TestTrimOnAbundanceBounds(t *testing.T) {
	k := 11
	ct, _ := New(k, 4, 100000)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		s := randSeq(r, k+r.Intn(100))
		if i%2 == 0 {
			ct.Consume(s)
		}
		for _, cutoff := range []uint8{0, 1, 2, 5} {
			p, err := ct.TrimOnAbundance(s, cutoff)
			if err != nil {
				t.Error(err)
				return
			}
			if p.TrimAt > len(s) {
				t.Errorf("TrimAt %d > length %d", p.TrimAt, len(s))
			}
			if p.TrimAt < k-1 {
				t.Errorf("TrimAt %d < k-1", p.TrimAt)
			}
		}
	}
}

func TestTrimUntrimmable(t *testing.T) {
	k := 32
	ct, _ := New(k, 4, 100000)

	s := []byte("ACGTACGTAC")
	p, err := ct.TrimOnAbundance(s, 2)
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if p.TrimAt != len(s) {
		t.Errorf("short sequence should be untouched: %s", p)
	}

	s = []byte("ACGTACGTACGTACGTACGTACGTACGTACGTRACGT")
	p, err = ct.TrimOnAbundance(s, 2)
	if !errors.Is(err, ErrInvalidBase) {
		t.Errorf("expected ErrInvalidBase, got %v", err)
	}
	if p.TrimAt != len(s) {
		t.Errorf("sequence with invalid bases should be untouched: %s", p)
	}
}
