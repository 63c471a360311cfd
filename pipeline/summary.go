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
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Summary is the content of the summary file of a run.
type Summary struct {
	K         int    `toml:"k" comment:"Counting table"`
	Tables    int    `toml:"tables"`
	TableSize uint64 `toml:"table-size"`

	Cutoff           int  `toml:"cutoff" comment:"Trimming"`
	NormalizeLimit   int  `toml:"normalize-to"`
	VariableCoverage bool `toml:"variable-coverage"`

	Stats *Stats `toml:"stats"`
}

// WriteSummary writes a summary file in TOML format.
func WriteSummary(file string, s *Summary) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	return errors.Wrapf(os.WriteFile(file, data, 0644), "write summary file %s", file)
}

// ReadSummary reads a summary file.
func ReadSummary(file string) (*Summary, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read summary file %s", file)
	}
	var s Summary
	if err = toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parse summary file %s", file)
	}
	return &s, nil
}
