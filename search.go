// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/524D/tparty/internal/config"
	"github.com/524D/tparty/internal/tandem"
)

func cmdTandem(args []string) error {
	fs := flag.NewFlagSet("tandem", flag.ContinueOnError)
	configFile := fs.String("config", "",
		"pipeline configuration `file` (YAML)")
	workDir := fs.String("w", ".",
		"work `directory` for input, unpacked spectra and output files")
	outFile := fs.String("o", "",
		"BIOML output `filename`. Only valid with a single spectra file")
	threads := fs.Int("threads", 0,
		"number of search threads (default taken from the configuration)")
	prepareOnly := fs.Bool("n", false,
		`only write the X!Tandem input files, don't start the search`)
	verbose := fs.Bool("verbose", false,
		`Print more verbose progress information`)
	quiet := fs.Bool("quiet", false,
		`Don't print any output except for errors`)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE:\n  %s tandem [options] <spectra file>...\n\nOPTIONS:\n",
			filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	verbosity := infoDefault
	if *verbose {
		verbosity = infoVerbose
	}
	if *quiet {
		verbosity = infoSilent
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no spectra file specified.\nType %s tandem -help for usage",
			filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return err
		}
	}
	job := tandem.JobConfig{
		DefaultParameters: cfg.Tandem.DefaultParameters,
		Taxonomy:          cfg.XTandemTaxonomy,
		Taxon:             cfg.Tandem.Taxon,
		Threads:           cfg.Tandem.Threads,
		Output:            *outFile,
		MaxExpect:         cfg.Tandem.MaxExpect,
	}
	if *threads > 0 {
		job.Threads = *threads
	}
	if err := os.MkdirAll(*workDir, 0755); err != nil {
		return err
	}
	jobs, err := tandem.PrepareJobs(fs.Args(), job, *workDir)
	if err != nil {
		return err
	}
	if *prepareOnly {
		for _, j := range jobs {
			if verbosity != infoSilent {
				fmt.Fprintf(os.Stderr, "Wrote %s\n", j.Input)
			}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runSearches(ctx, tandem.ExecRunner{Executable: cfg.Tandem.Executable}, jobs, verbosity)
}

// runSearches runs the jobs one after the other and stops at the first
// search that produced no usable output
func runSearches(ctx context.Context, r tandem.Runner, jobs []tandem.Job, verbosity int) error {
	for _, j := range jobs {
		t := time.Now()
		if verbosity == infoVerbose {
			fmt.Fprintf(os.Stderr, "Searching %s: ", j.Sample)
		}
		res, err := r.Run(ctx, j)
		if err != nil {
			return fmt.Errorf("search %s: %w", j.Sample, err)
		}
		if !res.OK() {
			return fmt.Errorf("search %s failed with exit status %d, see %s",
				j.Sample, res.ExitCode, res.LogFile)
		}
		if verbosity == infoVerbose {
			fmt.Fprintf(os.Stderr, "%.1fs\n", time.Since(t).Seconds())
		}
		if res.ExitCode != 0 && verbosity != infoSilent {
			fmt.Fprintf(os.Stderr, "X!Tandem exited with status %d for %s, but %s looks complete\n",
				res.ExitCode, j.Sample, j.Output)
		}
	}
	return nil
}
