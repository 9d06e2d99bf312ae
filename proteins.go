// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/524D/tparty/internal/bioml"
	"github.com/524D/tparty/internal/summary"
)

func cmdProteins(args []string) error {
	var par params
	fs := flag.NewFlagSet("proteins", flag.ContinueOnError)
	outFile := fs.String("o", "",
		"output `filename`, default is <BIOML file>_unique_proteins.txt. Only valid with a single BIOML file")
	verbose, quiet := commonFlags(fs, &par)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE:\n  %s proteins [options] <BIOML file>...\n\nOPTIONS:\n",
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
		if err := writeUniqueProteins(par, fn, summary.ReportPath(fn, *outFile)); err != nil {
			return err
		}
	}
	return nil
}

// writeUniqueProteins writes the unique protein report of one BIOML file.
// Nothing is written when the BIOML file cannot be read completely.
func writeUniqueProteins(par params, xmlFile, path string) error {
	x, err := bioml.Open(xmlFile, par.extractorConfig())
	if err != nil {
		return err
	}
	defer x.Close()
	set, err := summary.UniqueProteins(newDebugRecords(x), par.thresholds)
	if err != nil {
		return err
	}

	f, err := summary.Create(path)
	if err != nil {
		return err
	}
	err = set.WriteReport(f, xmlFile)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &summary.OutputIOError{Path: path, Err: err}
	}
	if par.verbosity != infoSilent {
		fmt.Fprintf(os.Stderr, "Wrote %d unique proteins to %s\n", set.Len(), path)
	}
	return nil
}
