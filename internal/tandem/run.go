// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package tandem

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Result describes a finished search
type Result struct {
	ExitCode int
	// Complete is true when the output file ends with </bioml>
	Complete bool
	LogFile  string
}

// OK reports whether the output can be used
func (r Result) OK() bool {
	return r.ExitCode == 0 || r.Complete
}

// Runner runs a prepared search
type Runner interface {
	Run(ctx context.Context, job Job) (Result, error)
}

// ExecRunner runs the X!Tandem executable. Output of the program is
// written to <input file>.log.
type ExecRunner struct {
	Executable string
}

// Run starts X!Tandem with the job input file and waits for it to finish.
// A non-zero exit status is reported in the result, not as an error;
// a missing output file is an error.
func (r ExecRunner) Run(ctx context.Context, job Job) (Result, error) {
	res := Result{LogFile: job.Input + ".log"}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Executable, job.Input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, err
	}

	if err := writeLog(res.LogFile, stdout.Bytes(), stderr.Bytes()); err != nil {
		return res, err
	}
	complete, err := LooksComplete(job.Output)
	if err != nil {
		return res, err
	}
	res.Complete = complete
	return res, nil
}

func writeLog(path string, stdout, stderr []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(stdout)
	if err == nil {
		_, err = io.WriteString(f, "\nSTDERR:\n")
	}
	if err == nil {
		_, err = f.Write(stderr)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

var closingTag = []byte("</bioml>")

// LooksComplete reports whether the BIOML file at path ends with the
// closing root tag. This is a weak check; a complete tail does not
// prove the rest of the file is well formed.
func LooksComplete(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	const tail = 64
	off := st.Size() - tail
	if off < 0 {
		off = 0
	}
	buf := make([]byte, st.Size()-off)
	if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
		return false, err
	}
	return bytes.HasSuffix(bytes.TrimRight(buf, " \t\r\n"), closingTag), nil
}
