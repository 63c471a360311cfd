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

package spill_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shenwei356/abundtrim/spill"
)

var _ = Describe("Reader", func() {
	for _, c := range []spill.Compression{spill.SnappyCompression, spill.ZstdCompression, spill.NoCompression} {
		c := c

		It("should read back in order ("+c.String()+")", func() {
			entries := seedEntries(500, true)
			buf := new(bytes.Buffer)
			Expect(seedSpill(buf, c, entries)).To(Succeed())

			r, err := spill.NewReader(bytes.NewReader(buf.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			defer r.Close()
			Expect(r.Compression).To(Equal(c))

			got, err := readAll(r)
			Expect(err).To(Equal(io.EOF))
			Expect(got).To(HaveLen(len(entries)))
			for i := range entries {
				Expect(got[i].Name).To(Equal(entries[i].Name))
				Expect(got[i].Seq).To(Equal(entries[i].Seq))
				Expect(got[i].Qual).To(Equal(entries[i].Qual))
			}
		})

		It("should read empty files ("+c.String()+")", func() {
			buf := new(bytes.Buffer)
			Expect(seedSpill(buf, c, nil)).To(Succeed())

			r, err := spill.NewReader(bytes.NewReader(buf.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			defer r.Close()

			_, err = r.Next()
			Expect(err).To(Equal(io.EOF))
		})
	}

	It("should keep empty qualities empty", func() {
		entries := seedEntries(10, false)
		buf := new(bytes.Buffer)
		Expect(seedSpill(buf, spill.SnappyCompression, entries)).To(Succeed())

		r, err := spill.NewReader(bytes.NewReader(buf.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		got, err := readAll(r)
		Expect(err).To(Equal(io.EOF))
		Expect(got).To(HaveLen(10))
		for _, e := range got {
			Expect(e.Qual).To(BeEmpty())
		}
	})

	It("should reject bad magic", func() {
		_, err := spill.NewReader(bytes.NewReader([]byte("notspill\x00")))
		Expect(err).To(MatchError(`spill: bad magic byte sequence`))

		_, err = spill.NewReader(bytes.NewReader([]byte("abt")))
		Expect(err).To(MatchError(`spill: bad magic byte sequence`))
	})

	It("should reject unknown codecs", func() {
		_, err := spill.NewReader(bytes.NewReader([]byte("abtspill\x09")))
		Expect(err).To(MatchError(`spill: bad compression codec`))
	})

	It("should detect truncated entries", func() {
		buf := new(bytes.Buffer)
		Expect(seedSpill(buf, spill.NoCompression, seedEntries(3, true))).To(Succeed())

		r, err := spill.NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()-5]))
		Expect(err).NotTo(HaveOccurred())
		_, err = readAll(r)
		Expect(err).To(MatchError(`spill: broken entry`))
	})

	It("should create and open files", func() {
		dir, err := os.MkdirTemp("", "spill")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		file := filepath.Join(dir, "deferred.spill")
		entries := seedEntries(100, true)

		w, err := spill.Create(file, &spill.WriterOptions{Compression: spill.ZstdCompression})
		Expect(err).NotTo(HaveOccurred())
		for i := range entries {
			Expect(w.Append(&entries[i])).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		r, err := spill.Open(file)
		Expect(err).NotTo(HaveOccurred())
		got, err := readAll(r)
		Expect(err).To(Equal(io.EOF))
		Expect(got).To(HaveLen(100))
		Expect(r.Close()).To(Succeed())
	})
})
