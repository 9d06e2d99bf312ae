// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/524D/tparty/internal/bioml"
	"github.com/524D/tparty/internal/summary"
)

// partialSuffix marks a FASTA file that is still being written, or whose
// BIOML input could not be read completely
const partialSuffix = ".partial"

func cmdFasta(args []string) error {
	var par params
	fs := flag.NewFlagSet("fasta", flag.ContinueOnError)
	outDir := fs.String("d", "fasta",
		"output `directory` for FASTA files")
	outFile := fs.String("o", "",
		"FASTA output `filename`. Only valid with a single BIOML file")
	par.charge = fs.Bool("z", false,
		`add the precursor charge (z=) to each FASTA header`)
	par.mass = fs.Bool("mh", false,
		`add the precursor mass (mh=) to each FASTA header`)
	verbose, quiet := commonFlags(fs, &par)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE:\n  %s fasta [options] <BIOML file>...\n\nOPTIONS:\n",
			filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sanatizeParams(fs, &par, *verbose, *quiet); err != nil {
		return err
	}
	if *outFile != "" && len(par.args) > 1 {
		return fmt.Errorf("-o can only be used with a single BIOML file")
	}
	for _, fn := range par.args {
		if err := writeFasta(par, fn, *outDir, *outFile); err != nil {
			return err
		}
	}
	return nil
}

// writeFasta converts one BIOML file into a FASTA file
func writeFasta(par params, xmlFile, outDir, outFile string) error {
	t := time.Now()
	path, err := summary.FastaPath(xmlFile, outDir, outFile)
	if err != nil {
		return err
	}
	x, err := bioml.Open(xmlFile, par.extractorConfig())
	if err != nil {
		return err
	}
	defer x.Close()

	// Entries go to <path>.partial, which is renamed when the whole
	// BIOML file has been read. A failed run leaves only the .partial file,
	// also when path exists from an earlier run.
	partial := path + partialSuffix
	f, err := summary.Create(partial)
	if err != nil {
		return err
	}
	e := summary.NewFastaEmitter(f)
	if par.verbosity == infoVerbose || par.debug {
		e.CollectStats()
	}
	err = summary.WriteFasta(e, newDebugRecords(x), par.thresholds)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = &summary.OutputIOError{Path: partial, Err: cerr}
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("%w (incomplete output left in %s)", err, partial)
	}
	if err := os.Rename(partial, path); err != nil {
		return &summary.OutputIOError{Path: path, Err: err}
	}

	if par.verbosity != infoSilent {
		fmt.Fprintf(os.Stderr, "Wrote %d peptide fragments from %d unique protein sequences to %s\n",
			e.Written(), e.Proteins().Len(), path)
	}
	if x.Skipped() > 0 && par.verbosity != infoSilent {
		fmt.Fprintf(os.Stderr, "Skipped %d matches with missing attributes in %s\n",
			x.Skipped(), xmlFile)
	}
	if st := e.Stats(); st != nil {
		logScoreSummary(st.Summary())
	}
	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s: %d elements held at most, done (%.1fs)\n",
			xmlFile, x.PeakNodes(), time.Since(t).Seconds())
	}
	return nil
}

func logScoreSummary(s summary.ScoreSummary) {
	if s.N == 0 {
		fmt.Fprintf(os.Stderr, "No matches passed the score filter\n")
		return
	}
	fmt.Fprintf(os.Stderr, "Hyperscore mean %.2f sd %.2f median %.2f (n=%d)\n",
		s.HyperscoreMean, s.HyperscoreStdDev, s.HyperscoreMedian, s.N)
	if !math.IsNaN(s.LogExpectMean) {
		fmt.Fprintf(os.Stderr, "log10(expect) mean %.2f median %.2f\n",
			s.LogExpectMean, s.LogExpectMedian)
	}
}
