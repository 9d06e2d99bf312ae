// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/524D/tparty/internal/bioml"
	"github.com/524D/tparty/internal/config"
)

// Program name and version
const progName = "tparty"

var progVersion = `Unknown`

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters shared by the BIOML commands
type params struct {
	configFile    *string
	maxExpect     *float64 // Highest accepted expectation value
	minHyperscore *float64 // Lowest accepted hyperscore
	allMatches    *bool    // Use every domain, not only the first of each group
	charge        *bool    // Add z= to FASTA headers
	mass          *bool    // Add mh= to FASTA headers
	skipMissing   *bool    // Skip records with missing attributes instead of aborting
	verbosity     int      // Verbosity of progress messages (infoDefault...)
	args          []string // Additional values passed on the command line
	debug         bool     // Enable debug info (environment variable TPARTY_DEBUG=1)
	cfg           *config.Config
	thresholds    bioml.Thresholds
}

var ErrRangeSpec = errors.New("invalid range specified")

// parseIntRange parses "first:last" as used by -debug. An omitted bound
// is set to min or max, given bounds are clamped to [min, max], and a
// single number n means n:n.
func parseIntRange(r string, min int, max int) (int, int, error) {
	r = strings.TrimSpace(r)
	if r == "" {
		return min, max, nil
	}
	lo, hi, found := strings.Cut(r, ":")
	if !found {
		hi = lo
	}
	minOut, maxOut := min, max
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.Atoi(lo)
		if err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if v > min {
			minOut = v
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.Atoi(hi)
		if err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if v < max {
			maxOut = v
		}
	}
	if minOut > maxOut {
		return maxOut, maxOut, ErrRangeSpec
	}
	return minOut, maxOut, nil
}

// commonFlags registers the flags shared by the commands that read
// BIOML files
func commonFlags(fs *flag.FlagSet, par *params) (verbose, quiet *bool) {
	par.configFile = fs.String("config", "",
		"pipeline configuration `file` (YAML)")
	par.maxExpect = fs.Float64("e", 0,
		`highest accepted expectation value (inclusive).
Default taken from the configuration, otherwise no limit`)
	par.minHyperscore = fs.Float64("H", 0,
		`lowest accepted hyperscore (inclusive).
Default taken from the configuration, otherwise 0`)
	par.allMatches = fs.Bool("all", false,
		`use every domain of a spectrum, not only the first one`)
	par.skipMissing = fs.Bool("skip-missing", false,
		`skip matches with missing attributes instead of stopping`)
	verbose = fs.Bool("verbose", false,
		`Print more verbose progress information`)
	quiet = fs.Bool("quiet", false,
		`Don't print any output except for errors`)
	registerDebugFlag(fs)
	return verbose, quiet
}

// sanatizeParams applies the configuration file and the flags that were
// set explicitly
func sanatizeParams(fs *flag.FlagSet, par *params, verbose, quiet bool) error {
	if verbose {
		par.verbosity = infoVerbose
	}
	if quiet {
		par.verbosity = infoSilent
	}
	par.args = fs.Args()
	par.debug = os.Getenv("TPARTY_DEBUG") == `1`
	if debugRecs != nil {
		if _, _, err := parseIntRange(*debugRecs, 0, math.MaxInt32); err != nil {
			return fmt.Errorf("invalid value for parameter 'debug': %w", err)
		}
	}

	var err error
	par.cfg = config.Default()
	if *par.configFile != "" {
		if par.cfg, err = config.Load(*par.configFile); err != nil {
			return err
		}
	}
	par.thresholds = bioml.Thresholds{
		MaxExpect:     par.cfg.Filter.MaxExpect,
		MinHyperscore: par.cfg.Filter.MinHyperscore,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "e":
			par.thresholds.MaxExpect = *par.maxExpect
		case "H":
			par.thresholds.MinHyperscore = *par.minHyperscore
		}
	})
	if len(par.args) == 0 {
		return fmt.Errorf("no BIOML file specified.\nType %s %s -help for usage",
			filepath.Base(os.Args[0]), fs.Name())
	}
	return nil
}

// extractorConfig converts the command line options to an extractor setup
func (par params) extractorConfig() bioml.Config {
	cfg := bioml.Config{Mode: bioml.FirstMatch}
	if *par.allMatches {
		cfg.Mode = bioml.AllMatches
	}
	if par.charge != nil && *par.charge {
		cfg.Fields |= bioml.FieldCharge
	}
	if par.mass != nil && *par.mass {
		cfg.Fields |= bioml.FieldMass
	}
	if *par.skipMissing {
		cfg.OnMissing = bioml.SkipRecord
	}
	return cfg
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s <command> [options] <file>...

  This program post-processes X!Tandem search results (BIOML files).
  Matches are filtered on expectation value and hyperscore, and written
  as FASTA or as a list of unique proteins.

COMMANDS:
  fasta     Write the matched peptides of each BIOML file as FASTA
  proteins  Write the unique proteins of each BIOML file
  tandem    Prepare X!Tandem input files for spectra files and run the search
  report    Store the result summary of samples in the results database
  version   Show software version

  Type %s <command> -help for the options of a command.

ENVIRONMENT VARIABLES:
    When environment variable TPARTY_DEBUG=1, score statistics are printed
    for every file, also without -verbose.

USAGE EXAMPLES:
  %s fasta -d fasta -e 0.1 sample1.xml sample2.xml
    Write fasta/sample1.fasta and fasta/sample2.fasta with the first match of
    every spectrum that has an expectation value of at most 0.1.

  %s proteins -all -o unique.txt sample1.xml
    Write all proteins with at least one match in sample1.xml to unique.txt.
`, exeName, exeName, exeName, exeName)
}

func showVersion() {
	if progVersion == `Unknown` {
		progVersion = `Unknown
Build with -ldflags "-X main.progVersion=$(git describe --tags)" to show the version here.`
	}
	fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
}

// run executes the command given by args (without the program name)
func run(args []string) error {
	if len(args) == 0 {
		usage()
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]
	switch strings.TrimLeft(cmd, "-") {
	case "fasta":
		return cmdFasta(rest)
	case "proteins":
		return cmdProteins(rest)
	case "tandem":
		return cmdTandem(rest)
	case "report":
		return cmdReport(rest)
	case "version":
		showVersion()
		return nil
	case "h", "help":
		usage()
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	err := run(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", progName, err)
	}
}
