// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package summary

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputIOError reports an output file or directory that cannot be created
type OutputIOError struct {
	Path string
	Err  error
}

func (e *OutputIOError) Error() string {
	return fmt.Sprintf("cannot create %s: %v", e.Path, e.Err)
}

func (e *OutputIOError) Unwrap() error { return e.Err }

// FastaPath returns the FASTA output name for xmlFile. If outFile is set it
// is used as is; otherwise the name is outDir/<xml base name>.fasta and
// outDir is created when needed.
func FastaPath(xmlFile, outDir, outFile string) (string, error) {
	if outFile != "" {
		return outFile, nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", &OutputIOError{Path: outDir, Err: err}
	}
	base := filepath.Base(xmlFile)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(outDir, base+".fasta"), nil
}

// ReportPath returns the unique protein report name for xmlFile
func ReportPath(xmlFile, outFile string) string {
	if outFile != "" {
		return outFile
	}
	return filepath.Base(xmlFile) + "_unique_proteins.txt"
}

// Create creates path for writing, wrapping failures in *OutputIOError
func Create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &OutputIOError{Path: path, Err: err}
	}
	return f, nil
}
