// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// Package tandem prepares and runs X!Tandem searches
package tandem

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
)

// JobConfig holds the settings of one X!Tandem search
type JobConfig struct {
	DefaultParameters string // default_input.xml
	Taxonomy          string // taxonomy.xml
	Taxon             string
	Threads           int
	Spectra           string // spectrum file to search
	Output            string // BIOML result file
	MaxExpect         float64
}

// note is an X!Tandem input parameter
type note struct {
	Type  string `xml:"type,attr"`
	Label string `xml:"label,attr"`
	Value string `xml:",chardata"`
}

type jobContent struct {
	XMLName xml.Name `xml:"bioml"`
	Notes   []note   `xml:"note"`
}

// ErrIncompleteJob means a required job setting is empty
var ErrIncompleteJob = errors.New("tandem: incomplete job configuration")

// WriteJob writes the X!Tandem input file for job
func WriteJob(writer io.Writer, job JobConfig) error {
	if job.DefaultParameters == "" || job.Taxonomy == "" || job.Spectra == "" ||
		job.Output == "" || job.Taxon == "" {
		return ErrIncompleteJob
	}
	evalue := strconv.FormatFloat(job.MaxExpect, 'g', -1, 64)
	content := jobContent{
		Notes: []note{
			{"input", "list path, default parameters", job.DefaultParameters},
			{"input", "list path, taxonomy information", job.Taxonomy},
			{"input", "protein, taxon", job.Taxon},
			{"input", "spectrum, threads", strconv.Itoa(job.Threads)},
			{"input", "spectrum, path", job.Spectra},
			{"input", "refine, maximum valid expectation value", evalue},
			{"input", "output, path", job.Output},
			{"input", "output, maximum valid expectation value", evalue},
		},
	}
	if _, err := io.WriteString(writer, "<?xml version=\"1.0\"?>\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	enc.Indent("", "\t")
	if err := enc.Encode(&content); err != nil {
		return err
	}
	_, err := io.WriteString(writer, "\n")
	return err
}
