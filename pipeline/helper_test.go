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

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"testing"

	"github.com/shenwei356/abundtrim"
)

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

func newTestTable(t *testing.T, k int) *abundtrim.CountingTable {
	ct, err := abundtrim.NewWithSeed(k, 4, 1000000, 1)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func newTestOptions(t *testing.T) *Options {
	opt := DefaultOptions
	opt.TempDir = t.TempDir()
	return &opt
}

func clone(r *Record) *Record {
	return &Record{
		Name: append([]byte(nil), r.Name...),
		Seq:  append([]byte(nil), r.Seq...),
		Qual: append([]byte(nil), r.Qual...),
	}
}

func rec(name string, s []byte) *Record {
	return &Record{Name: []byte(name), Seq: s}
}

func singles(recs ...*Record) []*Fragment {
	frags := make([]*Fragment, len(recs))
	for i, r := range recs {
		frags[i] = &Fragment{Index: i, R1: r}
	}
	return frags
}

// ------------------------------------------------------------------------

type memSource struct {
	frags []*Fragment
	i     int

	failAt int // return errBoom at this fragment if > 0
	closed bool
}

var errBoom = errors.New("boom")

func (s *memSource) Next() (*Fragment, error) {
	if s.failAt > 0 && s.i == s.failAt {
		return nil, errBoom
	}
	if s.i >= len(s.frags) {
		return nil, io.EOF
	}
	s.i++
	return s.frags[s.i-1], nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

type memSink struct {
	records []*Record
	pairs   int
	closed  bool
}

func (s *memSink) Write(r *Record) error {
	s.records = append(s.records, clone(r))
	return nil
}

func (s *memSink) WritePair(a, b *Record) error {
	s.pairs++
	s.records = append(s.records, clone(a), clone(b))
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

func (s *memSink) names() map[string]int {
	m := make(map[string]int, len(s.records))
	for _, r := range s.records {
		m[string(r.Name)]++
	}
	return m
}

func memJob(name string, src *memSource, sink *memSink) *Job {
	return &Job{
		Name:   name,
		Open:   func() (Source, error) { return src, nil },
		Create: func() (Sink, error) { return sink, nil },
	}
}

func checkEmptyDir(t *testing.T, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) > 0 {
		t.Errorf("%d files left in %s, e.g., %s", len(entries), dir, entries[0].Name())
	}
}

func names(prefix string, n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return s
}

// a table with 11 counters
func newTinyTable() (*abundtrim.CountingTable, error) {
	return abundtrim.NewWithSeed(15, 1, 10, 1)
}
