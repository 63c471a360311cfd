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

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shenwei356/abundtrim/spill"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *spill.Writer
	var testdata = spill.Entry{Name: []byte("r1"), Seq: []byte("ACGTACGT"), Qual: []byte("IIIIIIII")}

	BeforeEach(func() {
		var err error
		buf = new(bytes.Buffer)
		subject, err = spill.NewWriter(buf, &spill.WriterOptions{Compression: spill.NoCompression})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = subject.Close()
	})

	It("should write empty", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(Equal(9))
		Expect(buf.String()[:8]).To(Equal("abtspill"))
	})

	It("should frame entries", func() {
		Expect(subject.Append(&testdata)).To(Succeed())
		Expect(subject.Len()).To(Equal(1))
		Expect(subject.Close()).To(Succeed())
		Expect(buf.String()[9:]).To(Equal("\x02r1\x08ACGTACGT\x08IIIIIIII"))
	})

	It("should write entries without qualities", func() {
		Expect(subject.Append(&spill.Entry{Name: []byte("r1"), Seq: []byte("ACGT")})).To(Succeed())
		Expect(subject.Close()).To(Succeed())
		Expect(buf.String()[9:]).To(Equal("\x02r1\x04ACGT\x00"))
	})

	It("should reject appends after close", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(subject.Append(&testdata)).To(MatchError(`spill: is closed`))
		Expect(subject.Close()).To(MatchError(`spill: is closed`))
	})

	It("should compress", func() {
		entries := seedEntries(2000, true)

		plain := new(bytes.Buffer)
		Expect(seedSpill(plain, spill.NoCompression, entries)).To(Succeed())
		for _, c := range []spill.Compression{spill.SnappyCompression, spill.ZstdCompression} {
			packed := new(bytes.Buffer)
			Expect(seedSpill(packed, c, entries)).To(Succeed())
			Expect(packed.Len()).To(BeNumerically("<", plain.Len()))
			Expect(packed.Bytes()[8]).To(Equal(byte(c)))
		}
	})

	It("should default to snappy", func() {
		out := new(bytes.Buffer)
		w, err := spill.NewWriter(out, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())
		Expect(out.Bytes()[8]).To(Equal(byte(spill.SnappyCompression)))
	})
})
