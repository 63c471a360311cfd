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

import "fmt"

// Profile is the abundance profile of a sequence.
type Profile struct {
	Median uint8
	Min    uint8
	Max    uint8

	// TrimAt is the length to keep. It equals the sequence length
	// when nothing should be trimmed or the sequence can not be evaluated.
	TrimAt int
}

func (p Profile) String() string {
	return fmt.Sprintf("median: %d, min: %d, max: %d, trim at: %d", p.Median, p.Min, p.Max, p.TrimAt)
}

// TrimOnAbundance scans k-mers of s from left to right and finds the first one
// with a count < cutoff. The sequence should be truncated at TrimAt = pos + K - 1,
// where pos is the 0-based position of the k-mer.
// If no k-mer falls below the cutoff, TrimAt is len(s).
//
// If s is shorter than K or contains invalid bases, TrimAt is len(s),
// and ErrTooShort or ErrInvalidBase is returned with the profile.
//
// Note that a TrimAt < K means no trustworthy k-mer is left,
// it's up to the caller to discard it.
func (t *CountingTable) TrimOnAbundance(s []byte, cutoff uint8) (Profile, error) {
	p := Profile{TrimAt: len(s)}

	buf := t.poolCounts.Get().(*[]uint64)
	defer t.poolCounts.Put(buf)

	err := t.counts(s, buf)
	if err != nil {
		return p, err
	}

	c := uint64(cutoff)
	for pos, n := range *buf {
		if n < c {
			p.TrimAt = pos + t.k - 1
			break
		}
	}

	p.Median, p.Min, p.Max = summary(*buf)
	return p, nil
}
