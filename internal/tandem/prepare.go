// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package tandem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
)

// Job is a prepared search: the input file to pass to X!Tandem and
// the BIOML file it will write
type Job struct {
	Sample string
	Input  string
	Output string
}

// ErrOutputForMany means one output name was given for several inputs
var ErrOutputForMany = errors.New("tandem: cannot use one output file for several spectrum files")

// PrepareJobs writes an input_<sample>.xml file in workDir for every
// spectrum file. Gzip compressed spectra are unpacked into workDir first.
// cfg.Spectra is ignored; cfg.Output is used only if there is a single file,
// otherwise each result goes to output_<sample>.xml.
func PrepareJobs(files []string, cfg JobConfig, workDir string) ([]Job, error) {
	if cfg.Output != "" && len(files) > 1 {
		return nil, ErrOutputForMany
	}
	jobs := make([]Job, 0, len(files))
	for _, fn := range files {
		abs, err := filepath.Abs(fn)
		if err != nil {
			return nil, err
		}
		sample := sampleName(abs)
		spectra := abs
		if isGzip(abs) {
			spectra = filepath.Join(workDir, sample)
			if err := gunzip(abs, spectra); err != nil {
				return nil, fmt.Errorf("unpacking %s: %w", fn, err)
			}
		}

		job := cfg
		job.Spectra = spectra
		if job.Output == "" {
			job.Output = filepath.Join(workDir, "output_"+sample+".xml")
		}
		input := filepath.Join(workDir, "input_"+sample+".xml")
		if err := writeJobFile(input, job); err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Sample: sample, Input: input, Output: job.Output})
	}
	return jobs, nil
}

// sampleName strips the directory and the last extension, so
// /data/S01.mzXML.gz gives S01.mzXML, the name of the unpacked file
func sampleName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

func writeJobFile(path string, job JobConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJob(f, job); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func gunzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	z, err := pgzip.NewReader(in)
	if err != nil {
		return err
	}
	defer z.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, z); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
