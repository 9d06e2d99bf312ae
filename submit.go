// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/524D/tparty/internal/config"
	"github.com/524D/tparty/internal/report"
)

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configFile := fs.String("config", "",
		"pipeline configuration `file` (YAML)")
	baseDir := fs.String("d", ".",
		"pipeline output `directory` containing 3.fasta and 5.results")
	dryRun := fs.Bool("n", false,
		`only print the result summaries, don't contact the results store`)
	quiet := fs.Bool("quiet", false,
		`Don't print any output except for errors`)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE:\n  %s report [options] <sample id>...\n\nOPTIONS:\n",
			filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no sample id specified.\nType %s report -help for usage",
			filepath.Base(os.Args[0]))
	}

	if *dryRun {
		for _, pid := range fs.Args() {
			sum, err := report.Gather(*baseDir, pid)
			if err != nil {
				return err
			}
			writeSummary(os.Stdout, sum)
		}
		return nil
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return err
		}
	}
	dbv, err := report.GetDBVersions(cfg)
	if err != nil {
		return err
	}
	host, err := os.Hostname()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := report.NewMongoStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	rows, err := report.Submit(ctx, store, *baseDir, fs.Args(), host, dbv)
	if !*quiet {
		for _, r := range rows {
			fmt.Fprintf(os.Stderr, "Stored results of %s\n", r.PID)
		}
	}
	return err
}

// writeSummary prints sum as one tab separated line
func writeSummary(w io.Writer, sum report.Summary) {
	fmt.Fprintln(w, strings.Join([]string{
		sum.PID,
		strconv.Itoa(sum.UniqueProteins),
		strconv.Itoa(sum.HumanProteins),
		strconv.Itoa(sum.Peptides),
		strconv.Itoa(sum.DiscriminativePeptides),
		sum.Completed,
	}, "\t"))
}
