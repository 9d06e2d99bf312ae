// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// Package summary reduces match records to FASTA listings and protein reports.
package summary

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/524D/tparty/internal/bioml"
)

// ProteinSet collects distinct protein labels
type ProteinSet struct {
	labels map[string]struct{}
}

// NewProteinSet returns an empty set
func NewProteinSet() *ProteinSet {
	return &ProteinSet{labels: make(map[string]struct{})}
}

// Add inserts label; adding a label twice has no effect
func (s *ProteinSet) Add(label string) {
	s.labels[label] = struct{}{}
}

// AddRecord inserts the protein label of rec
func (s *ProteinSet) AddRecord(rec bioml.MatchRecord) {
	s.Add(rec.ProteinLabel)
}

// Contains reports whether label has been added
func (s *ProteinSet) Contains(label string) bool {
	_, ok := s.labels[label]
	return ok
}

// Len returns the number of distinct labels
func (s *ProteinSet) Len() int {
	return len(s.labels)
}

// Sorted returns the labels in descending lexicographic order
func (s *ProteinSet) Sorted() []string {
	out := make([]string, 0, len(s.labels))
	for l := range s.labels {
		out = append(out, l)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// WriteReport writes the unique protein report for source
func (s *ProteinSet) WriteReport(w io.Writer, source string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Found %d unique proteins for %s\n", s.Len(), source)
	for _, l := range s.Sorted() {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Record is the source of match records consumed by the aggregators
type Record interface {
	Next() (bioml.MatchRecord, error)
}

// UniqueProteins drains src and returns the labels of records that pass th
func UniqueProteins(src Record, th bioml.Thresholds) (*ProteinSet, error) {
	set := NewProteinSet()
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return set, nil
		}
		if err != nil {
			return set, err
		}
		if th.Pass(rec) {
			set.AddRecord(rec)
		}
	}
}
