// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package tandem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/pgzip"
)

func testJob() JobConfig {
	return JobConfig{
		DefaultParameters: "/storage/TTT/xtandem/default_input.xml",
		Taxonomy:          "/storage/TTT/xtandem/taxonomy.xml",
		Taxon:             "bacteria",
		Threads:           10,
		Spectra:           "S01.mzXML",
		Output:            "output_S01.xml",
		MaxExpect:         0.1,
	}
}

func TestWriteJob(t *testing.T) {
	var b bytes.Buffer
	if err := WriteJob(&b, testJob()); err != nil {
		t.Fatalf("WriteJob: error return %v", err)
	}
	want := `<?xml version="1.0"?>
<bioml>
	<note type="input" label="list path, default parameters">/storage/TTT/xtandem/default_input.xml</note>
	<note type="input" label="list path, taxonomy information">/storage/TTT/xtandem/taxonomy.xml</note>
	<note type="input" label="protein, taxon">bacteria</note>
	<note type="input" label="spectrum, threads">10</note>
	<note type="input" label="spectrum, path">S01.mzXML</note>
	<note type="input" label="refine, maximum valid expectation value">0.1</note>
	<note type="input" label="output, path">output_S01.xml</note>
	<note type="input" label="output, maximum valid expectation value">0.1</note>
</bioml>
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("job XML mismatch (-want +got):\n%s", diff)
	}

	job := testJob()
	job.Taxonomy = ""
	if err := WriteJob(&b, job); !errors.Is(err, ErrIncompleteJob) {
		t.Errorf("WriteJob without taxonomy: error return %v, should be ErrIncompleteJob", err)
	}
}

func TestPrepareJobs(t *testing.T) {
	src := t.TempDir()
	work := t.TempDir()

	spectra := []byte("<mzXML>dummy</mzXML>\n")
	gzName := filepath.Join(src, "S02.mzXML.gz")
	f, err := os.Create(gzName)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	z := pgzip.NewWriter(f)
	z.Write(spectra)
	z.Close()
	f.Close()
	plain := filepath.Join(src, "S01.mzXML")
	os.WriteFile(plain, spectra, 0644)

	cfg := testJob()
	cfg.Output = ""
	jobs, err := PrepareJobs([]string{plain, gzName}, cfg, work)
	if err != nil {
		t.Fatalf("PrepareJobs: error return %v", err)
	}
	want := []Job{
		{Sample: "S01", Input: filepath.Join(work, "input_S01.xml"), Output: filepath.Join(work, "output_S01.xml")},
		{Sample: "S02.mzXML", Input: filepath.Join(work, "input_S02.mzXML.xml"), Output: filepath.Join(work, "output_S02.mzXML.xml")},
	}
	if diff := cmp.Diff(want, jobs); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}

	unpacked, err := os.ReadFile(filepath.Join(work, "S02.mzXML"))
	if err != nil {
		t.Fatalf("unpacked spectra: %v", err)
	}
	if !bytes.Equal(unpacked, spectra) {
		t.Errorf("unpacked spectra %q, should be %q", unpacked, spectra)
	}
	input, _ := os.ReadFile(jobs[1].Input)
	if !strings.Contains(string(input), `label="spectrum, path">`+filepath.Join(work, "S02.mzXML")+`<`) {
		t.Errorf("input file does not point at the unpacked spectra:\n%s", input)
	}

	cfg.Output = "one.xml"
	if _, err := PrepareJobs([]string{plain, gzName}, cfg, work); !errors.Is(err, ErrOutputForMany) {
		t.Errorf("PrepareJobs: error return %v, should be ErrOutputForMany", err)
	}
}

func TestLooksComplete(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]bool{
		"<bioml>\n<group/>\n</bioml>\n":   true,
		"<bioml>\n<group/>\n</bioml>":     true,
		"<bioml>\n<group/>\n</bioml>\r\n": true,
		"<bioml>\n<group type=\"mod":      false,
		"":                                false,
	}
	i := 0
	for content, want := range cases {
		fn := filepath.Join(dir, "out"+string(rune('a'+i))+".xml")
		i++
		os.WriteFile(fn, []byte(content), 0644)
		got, err := LooksComplete(fn)
		if err != nil {
			t.Errorf("LooksComplete(%q): error return %v", content, err)
		}
		if got != want {
			t.Errorf("LooksComplete(%q) = %v, should be %v", content, got, want)
		}
	}
	if _, err := LooksComplete(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LooksComplete of missing file: %v", err)
	}
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "output_S01.xml")
	script := filepath.Join(dir, "tandem.sh")
	body := "#!/bin/sh\necho \"searching $1\"\necho oops >&2\nprintf '<bioml>\\n</bioml>\\n' > " + out + "\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	job := Job{Sample: "S01", Input: filepath.Join(dir, "input_S01.xml"), Output: out}

	res, err := ExecRunner{Executable: script}.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: error return %v", err)
	}
	if res.ExitCode != 3 || !res.Complete || !res.OK() {
		t.Errorf("Run result %+v, should be exit 3 with complete output", res)
	}
	log, err := os.ReadFile(res.LogFile)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	wantLog := "searching " + job.Input + "\n\nSTDERR:\noops\n"
	if string(log) != wantLog {
		t.Errorf("log %q, should be %q", log, wantLog)
	}

	// No output file at all
	job.Output = filepath.Join(dir, "never_written.xml")
	if _, err := (ExecRunner{Executable: script}).Run(context.Background(), job); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Run without output: error return %v, should be os.ErrNotExist", err)
	}

	if _, err := (ExecRunner{Executable: filepath.Join(dir, "no-such-tandem")}).Run(context.Background(), job); err == nil {
		t.Errorf("Run of missing executable: no error")
	}
}

func TestWriteLogFullDisk(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("needs /dev/full")
	}
	if err := writeLog("/dev/full", []byte("searching\n"), []byte("oops\n")); err == nil {
		t.Errorf("writeLog to a full device: no error")
	}

	fn := filepath.Join(t.TempDir(), "input.xml.log")
	if err := writeLog(fn, []byte("out"), []byte("err")); err != nil {
		t.Fatalf("writeLog: error return %v", err)
	}
	if got, _ := os.ReadFile(fn); string(got) != "out\nSTDERR:\nerr" {
		t.Errorf("log %q, should be %q", got, "out\nSTDERR:\nerr")
	}
}
