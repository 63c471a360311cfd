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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/shenwei356/abundtrim"
	"github.com/shenwei356/abundtrim/pipeline"
	"github.com/shenwei356/abundtrim/spill"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// VERSION of abundtrim
const VERSION = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "abundtrim",
	Short: "Trim low-abundance k-mers from sequencing reads",
	Long: fmt.Sprintf(`abundtrim -- Trim low-abundance k-mers from sequencing reads

Reads are truncated right before the first k-mer with an abundance below
the cutoff (-C/--cutoff), counted in a fixed-memory k-mer counting table.

Reads are processed in two passes. In the first pass, reads in regions not
yet saturated (median k-mer abundance < -Z/--normalize-to) are counted and
kept aside in a temporary directory, and other reads are trimmed. In the
second pass, reads kept aside are trimmed with all counts available.
Read pairs (names of X/1 and X/2, or "X 1:" and "X 2:") are kept together
in the first pass.

Outputs are saved to <out-dir>/<input basename><out-suffix>, in the same
format as the input.

Version: v%s
Author: Wei Shen <shenwei356@gmail.com>

`, VERSION),
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		seq.ValidateSeq = false

		quiet := getFlagBool(cmd, "quiet")
		if quiet {
			logging.SetLevel(logging.WARNING, "abundtrim")
		}

		k := getFlagPositiveInt(cmd, "ksize")
		nTables := getFlagPositiveInt(cmd, "n-tables")
		minTableSize := getFlagPositiveFloat64(cmd, "min-tablesize")

		opt := pipeline.DefaultOptions
		opt.Cutoff = getFlagPositiveInt(cmd, "cutoff")
		opt.NormalizeLimit = getFlagPositiveInt(cmd, "normalize-to")
		opt.VariableCoverage = getFlagBool(cmd, "variable-coverage")
		opt.MaxFPRate = getFlagFloat64(cmd, "max-fp-rate")
		if getFlagBool(cmd, "all-first-passes") {
			opt.Schedule = pipeline.AllFirstPasses
		}
		codec, err := spill.ParseCompression(getFlagString(cmd, "spill-compression"))
		checkError(err)
		opt.SpillCompression = codec
		opt.Logger = log
		checkError(opt.Validate())

		tmpRoot := getFlagString(cmd, "tempdir")
		outDir := getFlagString(cmd, "out-dir")
		outSuffix := getFlagString(cmd, "out-suffix")
		saveTable := getFlagString(cmd, "savetable")
		loadTable := getFlagString(cmd, "loadtable")
		summaryFile := getFlagString(cmd, "summary")

		// ---------------------------------------------------------------

		files := args
		for _, file := range files {
			if file == "-" {
				continue
			}
			ok, err := pathutil.Exists(file)
			checkError(errors.Wrapf(err, "check input file %s", file))
			if !ok {
				checkError(fmt.Errorf("input file not found: %s", file))
			}
			if filepath.Clean(pipeline.OutFile(file, outDir, outSuffix)) == filepath.Clean(file) {
				checkError(fmt.Errorf("output file would overwrite the input file: %s, please change -O/--out-dir or --out-suffix", file))
			}
		}

		ok, err := pathutil.DirExists(outDir)
		checkError(errors.Wrapf(err, "check output directory %s", outDir))
		if !ok {
			checkError(os.MkdirAll(outDir, 0755))
		}

		// go tool pprof -http=:8080 cpu.pprof
		if getFlagBool(cmd, "pprof-cpu") {
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		} else if getFlagBool(cmd, "pprof-mem") {
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."))
		}
		defer stopProfiling()

		// ---------------------------------------------------------------

		var ct *abundtrim.CountingTable
		if loadTable != "" {
			log.Infof("loading k-mer counting table from %s", loadTable)
			ct, err = abundtrim.NewFromFile(loadTable)
			checkError(err)
			if ct.K() != k {
				log.Warningf("k-mer size of the loaded table (%d) is used instead of %d", ct.K(), k)
			}
		} else {
			log.Infof("making k-mer counting table")
			ct, err = abundtrim.New(k, nTables, int64(minTableSize))
			checkError(err)
		}
		log.Infof("  k: %d, tables: %d, table size: %s, memory: %s",
			ct.K(), ct.NumTables(), humanize.Comma(int64(ct.TableSize())), humanize.Bytes(ct.MemoryBytes()))

		tempDir, err := os.MkdirTemp(tmpRoot, "abundtrim-")
		checkError(errors.Wrapf(err, "create temporary directory in %s", tmpRoot))
		log.Infof("created temporary directory %s; use -T to change location", tempDir)
		opt.TempDir = tempDir

		stats, err := run(ct, &opt, files, outDir, outSuffix, quiet)

		log.Infof("removing temp directory & contents (%s)", tempDir)
		if err2 := os.RemoveAll(tempDir); err2 != nil {
			log.Warningf("failed to remove temporary directory %s: %s", tempDir, err2)
		}

		undersized := errors.Is(err, pipeline.ErrTableUndersized)
		if !undersized {
			checkError(err)
		}

		// ---------------------------------------------------------------

		if saveTable != "" {
			n, err := ct.WriteToFile(saveTable)
			checkError(err)
			log.Infof("k-mer counting table saved to %s (%s)", saveTable, humanize.Bytes(uint64(n)))
		}

		log.Info()
		for _, line := range stats.Lines(opt.VariableCoverage) {
			log.Info(line)
		}
		log.Infof("output in %s", filepath.Join(outDir, "*"+outSuffix))

		if summaryFile != "" {
			checkError(pipeline.WriteSummary(summaryFile, &pipeline.Summary{
				K:                ct.K(),
				Tables:           ct.NumTables(),
				TableSize:        ct.TableSize(),
				Cutoff:           opt.Cutoff,
				NormalizeLimit:   opt.NormalizeLimit,
				VariableCoverage: opt.VariableCoverage,
				Stats:            stats,
			}))
			log.Infof("summary saved to %s", summaryFile)
		}

		if undersized {
			fmt.Fprintf(os.Stderr, "fp rate estimated to be %.3f\n", stats.FPRate)
			fmt.Fprintln(os.Stderr, "**")
			fmt.Fprintln(os.Stderr, "** ERROR: the k-mer counting table is too small for this data set. Increase tablesize/# tables.")
			fmt.Fprintln(os.Stderr, "**")
			fmt.Fprintln(os.Stderr, "** Do not use these results!!")
			exit(1)
		}
	},
}

func run(ct *abundtrim.CountingTable, opt *pipeline.Options,
	files []string, outDir, outSuffix string, quiet bool) (*pipeline.Stats, error) {

	var pbs *mpb.Progress
	var bars [2]*mpb.Bar
	if !quiet {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		for i, name := range []string{"first pass: ", "second pass: "} {
			bars[i] = pbs.AddBar(int64(len(files)),
				mpb.PrependDecorators(
					decor.Name(name, decor.WC{W: len("second pass: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.AverageETA(decor.ET_STYLE_GO),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
		}
		opt.OnFileDone = func(pass int, name string) {
			bars[pass-1].Increment()
		}
	}

	jobs := make([]*pipeline.Job, len(files))
	for i, file := range files {
		jobs[i] = pipeline.FileJob(file, outDir, outSuffix)
	}

	p, err := pipeline.New(ct, opt)
	if err != nil {
		return nil, err
	}
	stats, err := p.Run(jobs)

	if pbs != nil {
		if err != nil && !errors.Is(err, pipeline.ErrTableUndersized) {
			for _, bar := range bars {
				bar.Abort(false)
			}
		}
		pbs.Wait()
	}
	return stats, err
}

func init() {
	RootCmd.Version = VERSION

	RootCmd.Flags().IntP("ksize", "k", envInt("ABUNDTRIM_KSIZE", 32),
		`k-mer size, the maximum value is 32. Environment variable: ABUNDTRIM_KSIZE`)
	RootCmd.Flags().IntP("n-tables", "N", envInt("ABUNDTRIM_N_TABLES", 4),
		`number of tables of the k-mer counting table. Environment variable: ABUNDTRIM_N_TABLES`)
	RootCmd.Flags().Float64P("min-tablesize", "x", envFloat64("ABUNDTRIM_MIN_TABLESIZE", 1e6),
		`lower bound of the total number of counters (bytes) of all tables. Environment variable: ABUNDTRIM_MIN_TABLESIZE`)

	RootCmd.Flags().IntP("cutoff", "C", pipeline.DefaultOptions.Cutoff,
		`reads are truncated right before the first k-mer with an abundance below this value`)
	RootCmd.Flags().IntP("normalize-to", "Z", pipeline.DefaultOptions.NormalizeLimit,
		`reads with a median k-mer abundance below this value are kept aside in the first pass`)
	RootCmd.Flags().BoolP("variable-coverage", "V", false,
		`keep reads with a low median k-mer abundance in the second pass untouched`)
	RootCmd.Flags().Float64P("max-fp-rate", "", pipeline.DefaultOptions.MaxFPRate,
		`maximum false positive rate of the k-mer counting table, the run fails if it's exceeded`)
	RootCmd.Flags().BoolP("all-first-passes", "", false,
		`run the first passes of all files before any second pass`)

	RootCmd.Flags().StringP("tempdir", "T", "./",
		`directory for temporary files of reads kept aside`)
	RootCmd.Flags().StringP("spill-compression", "", pipeline.DefaultOptions.SpillCompression.String(),
		`compression codec of temporary files, available: snappy, zstd, none`)
	RootCmd.Flags().StringP("out-dir", "O", "./",
		`output directory`)
	RootCmd.Flags().StringP("out-suffix", "", ".abundtrim",
		`suffix of output files`)

	RootCmd.Flags().StringP("savetable", "", "",
		`save the k-mer counting table to this file, compressed according to the file extension`)
	RootCmd.Flags().StringP("loadtable", "", "",
		`load the k-mer counting table from this file, -k/--ksize, -N/--n-tables and -x/--min-tablesize are ignored`)
	RootCmd.Flags().StringP("summary", "", "",
		`save the summary to this file in TOML format`)

	RootCmd.Flags().BoolP("pprof-cpu", "", false, `pprofile CPU`)
	RootCmd.Flags().BoolP("pprof-mem", "", false, `pprofile memory`)
	RootCmd.Flags().BoolP("quiet", "q", false, `do not print any verbose information`)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
