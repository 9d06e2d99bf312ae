// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// Package report collects per-sample pipeline results and stores them
// as rows in the results store.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Summary holds the result counts of one sample
type Summary struct {
	PID                    string
	UniqueProteins         int
	HumanProteins          int
	Peptides               int
	DiscriminativePeptides int
	Completed              string // YYYY-MM-DD
}

// DefaultRanks are the taxonomic ranks counted as discriminative.
// "no rank" is split by the whitespace tokenizer and appears as "no".
var DefaultRanks = []string{"species", "no", "subspecies"}

// dateLayout is the format of all dates in result rows
const dateLayout = "2006-01-02"

// Gather reads the result files of sample pid below the pipeline
// directory baseDir:
//
//	3.fasta/<pid>.bacterial.fasta
//	5.results/<pid>/<pid>.taxonomic_composition.txt
//	5.results/<pid>/<pid>.unique_bacterial_proteins.txt
//	5.results/<pid>/<pid>.unique_human_proteins.txt
//	5.results/<pid>/<pid>.discriminative_peptides.txt
func Gather(baseDir, pid string) (Summary, error) {
	s := Summary{PID: pid}
	base := filepath.Join(baseDir, "5.results", pid, pid)
	var err error

	if s.UniqueProteins, err = CountProteins(base + ".unique_bacterial_proteins.txt"); err != nil {
		return s, err
	}
	if s.HumanProteins, err = CountProteins(base + ".unique_human_proteins.txt"); err != nil {
		return s, err
	}
	if s.Peptides, err = CountPeptides(filepath.Join(baseDir, "3.fasta", pid+".bacterial.fasta")); err != nil {
		return s, err
	}
	if s.DiscriminativePeptides, err = CountDiscriminative(base+".discriminative_peptides.txt", DefaultRanks); err != nil {
		return s, err
	}
	if s.Completed, err = modDate(base + ".taxonomic_composition.txt"); err != nil {
		return s, err
	}
	return s, nil
}

// CountProteins returns N from the "Found N unique proteins" line of a
// unique protein report, or -1 if the file does not start with that line
func CountProteins(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return -1, sc.Err()
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 2 || fields[0] != "Found" {
		return -1, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return -1, fmt.Errorf("%s: invalid protein count %q", path, fields[1])
	}
	return n, nil
}

// CountPeptides returns the number of FASTA entries in path
func CountPeptides(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if bytes.HasPrefix(sc.Bytes(), []byte(">")) {
			n++
		}
	}
	return n, sc.Err()
}

// CountDiscriminative counts the lines of a discriminative peptide table
// whose third column is one of ranks. The first two lines are headers.
func CountDiscriminative(path string, ranks []string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	want := make(map[string]bool, len(ranks))
	for _, r := range ranks {
		want[r] = true
	}
	n := 0
	line := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line++
		if line <= 2 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			return n, fmt.Errorf("%s:%d: expected at least 3 columns", path, line)
		}
		if want[fields[2]] {
			n++
		}
	}
	return n, sc.Err()
}

func modDate(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return st.ModTime().Format(dateLayout), nil
}

// Row is one line of the results table
type Row struct {
	EU         string
	Project    string
	PID        string
	Species    string
	Hostname   string
	DBVersions DBVersions
	Summary    Summary
	Reported   time.Time
}

// NewRow combines sample information, database versions and the summary
func NewRow(sample Sample, host string, dbv DBVersions, sum Summary) Row {
	return Row{
		EU:         sample.EU,
		Project:    sample.Project,
		PID:        sum.PID,
		Species:    sample.Species,
		Hostname:   shortHost(host),
		DBVersions: dbv,
		Summary:    sum,
	}
}

// Values returns the row as spreadsheet cells, in column order
func (r Row) Values() []string {
	return []string{
		r.EU, r.Project, r.PID, r.Species, r.Hostname,
		r.DBVersions.XTandem, r.DBVersions.Genome, r.DBVersions.Taxref, r.DBVersions.Annotation,
		strconv.Itoa(r.Summary.UniqueProteins),
		strconv.Itoa(r.Summary.HumanProteins),
		strconv.Itoa(r.Summary.Peptides),
		strconv.Itoa(r.Summary.DiscriminativePeptides),
		r.Summary.Completed,
	}
}

func shortHost(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}
