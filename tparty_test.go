package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/524D/tparty/internal/bioml"
	"github.com/524D/tparty/internal/report"
	"github.com/524D/tparty/internal/summary"
	"github.com/524D/tparty/internal/tandem"
)

func TestParseIntRange(t *testing.T) {
	// Test case 1: Valid input range
	min, max, err := parseIntRange("3:6", 0, 100)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if min != 3 || max != 6 {
		t.Errorf("Expected 3:6, got: %d:%d", min, max)
	}

	// Test case 2: Empty input range
	min, max, err = parseIntRange("", 0, 100)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if min != 0 || max != 100 {
		t.Errorf("Expected 0:100, got: %d:%d", min, max)
	}

	// Test case 3: Invalid input range
	min, max, err = parseIntRange("8:2", 0, 100)
	if !errors.Is(err, ErrRangeSpec) {
		t.Errorf("Expected error: %v, got: %v", ErrRangeSpec, err)
	}
	if min != 2 || max != 2 {
		t.Errorf("Expected 2:2, got: %d:%d", min, max)
	}

	// Test case 4: Only min specified, below default
	min, max, err = parseIntRange("-5:", 0, 100)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if min != 0 || max != 100 {
		t.Errorf("Expected 0:100, got: %d:%d", min, max)
	}

	// Test case 5: Single index
	min, max, err = parseIntRange(" 7 ", 0, 100)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if min != 7 || max != 7 {
		t.Errorf("Expected 7:7, got: %d:%d", min, max)
	}

	// Test case 6: Not a number
	for _, r := range []string{"abc", "3:x", "1.5:2", "a:"} {
		if _, _, err := parseIntRange(r, 0, 100); !errors.Is(err, ErrRangeSpec) {
			t.Errorf("parseIntRange(%q): expected error %v, got: %v", r, ErrRangeSpec, err)
		}
	}
}

func TestDebugRangeFlag(t *testing.T) {
	dir := t.TempDir()
	xml := writeTestFile(t, dir, "S01.xml", testBioml)
	out := filepath.Join(dir, "S01.fasta")

	err := run([]string{"fasta", "-quiet", "-debug", "abc", "-o", out, xml})
	if !errors.Is(err, ErrRangeSpec) {
		t.Errorf("fasta -debug abc: error return %v, should be %v", err, ErrRangeSpec)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("fasta -debug abc wrote output")
	}
	if err := run([]string{"fasta", "-quiet", "-debug", "1:1", "-o", out, xml}); err != nil {
		t.Errorf("fasta -debug 1:1: error return %v", err)
	}
}

const testBioml = `<?xml version="1.0"?>
<bioml label="models from 'test.mgf'">
<group id="1" mh="1000.5" z="2" expect="1e-5" label="sp|P1" type="model">
<protein id="1.1" label="sp|P1"><peptide>
<domain id="1.1.1" expect="1.0e-05" hyperscore="45.2" seq="PEPTIDEK"></domain>
</peptide></protein>
<protein id="1.2" label="sp|P1"><peptide>
<domain id="1.2.1" expect="0.5" hyperscore="12.0" seq="AAAK"></domain>
</peptide></protein>
<group label="fragment ion mass spectrum" type="support"></group>
</group>
<group id="2" mh="2000.1" z="3" expect="2e-2" label="sp|P2" type="model">
<protein id="2.1" label="sp|P2"><peptide>
<domain id="2.1.1" expect="2.0e-02" hyperscore="30.0" seq="LLLLR"></domain>
</peptide></protein>
</group>
<group label="input parameters" type="parameters">
<note type="input" label="spectrum, path">test.mgf</note>
</group>
</bioml>
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	if err := os.WriteFile(fn, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return fn
}

func readTestFile(t *testing.T, fn string) string {
	t.Helper()
	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(b)
}

func TestFastaCommand(t *testing.T) {
	dir := t.TempDir()
	xml := writeTestFile(t, dir, "S01.xml", testBioml)
	outDir := filepath.Join(dir, "fasta")

	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			"first match with charge and mass",
			[]string{"-quiet", "-d", outDir, "-e", "0.1", "-z", "-mh", xml},
			">1.1.1_8 expect=1.0e-05 hyperscore=45.2 z=2 mh=1000.5\nPEPTIDEK\n" +
				">2.1.1_5 expect=2.0e-02 hyperscore=30.0 z=3 mh=2000.1\nLLLLR\n",
		},
		{
			"all matches without filter",
			[]string{"-quiet", "-d", outDir, "-all", xml},
			">1.1.1_8 expect=1.0e-05 hyperscore=45.2\nPEPTIDEK\n" +
				">1.2.1_4 expect=0.5 hyperscore=12.0\nAAAK\n" +
				">2.1.1_5 expect=2.0e-02 hyperscore=30.0\nLLLLR\n",
		},
		{
			"hyperscore bound is inclusive",
			[]string{"-quiet", "-d", outDir, "-all", "-H", "30", xml},
			">1.1.1_8 expect=1.0e-05 hyperscore=45.2\nPEPTIDEK\n" +
				">2.1.1_5 expect=2.0e-02 hyperscore=30.0\nLLLLR\n",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := run(append([]string{"fasta"}, c.args...)); err != nil {
				t.Fatalf("fasta: error return %v", err)
			}
			got := readTestFile(t, filepath.Join(outDir, "S01.fasta"))
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("FASTA mismatch (-want +got):\n%s", diff)
			}
		})
	}

	out := filepath.Join(dir, "single.fasta")
	if err := run([]string{"fasta", "-quiet", "-o", out, "-e", "1e-3", xml}); err != nil {
		t.Fatalf("fasta -o: error return %v", err)
	}
	if got, want := readTestFile(t, out), ">1.1.1_8 expect=1.0e-05 hyperscore=45.2\nPEPTIDEK\n"; got != want {
		t.Errorf("fasta -o wrote %q, should be %q", got, want)
	}
	if err := run([]string{"fasta", "-quiet", "-o", out, xml, xml}); err == nil {
		t.Errorf("fasta -o with two inputs: no error")
	}
}

func TestFastaCommandIncomplete(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "S01.fasta")
	complete := writeTestFile(t, dir, "S01.xml", testBioml)
	// Cut inside the second spectrum, after the first one is complete
	cut := strings.Index(testBioml, `<domain id="2.1.1"`)
	truncated := writeTestFile(t, dir, "S01_cut.xml", testBioml[:cut])

	if err := run([]string{"fasta", "-quiet", "-o", out, complete}); err != nil {
		t.Fatalf("fasta: error return %v", err)
	}
	err := run([]string{"fasta", "-quiet", "-o", out, truncated})
	var perr *bioml.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("fasta on truncated file: error return %v, should be *bioml.ParseError", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s still exists after a failed run", out)
	}
	want := ">1.1.1_8 expect=1.0e-05 hyperscore=45.2\nPEPTIDEK\n"
	if diff := cmp.Diff(want, readTestFile(t, out+partialSuffix)); diff != "" {
		t.Errorf("partial FASTA mismatch (-want +got):\n%s", diff)
	}

	// A later complete run replaces the partial output
	if err := run([]string{"fasta", "-quiet", "-o", out, complete}); err != nil {
		t.Fatalf("fasta: error return %v", err)
	}
	if _, err := os.Stat(out + partialSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s left after a complete run", out+partialSuffix)
	}
}

func TestProteinsCommand(t *testing.T) {
	dir := t.TempDir()
	xml := writeTestFile(t, dir, "S01.xml", testBioml)
	out := filepath.Join(dir, "unique.txt")

	if err := run([]string{"proteins", "-quiet", "-o", out, xml}); err != nil {
		t.Fatalf("proteins: error return %v", err)
	}
	want := "Found 2 unique proteins for " + xml + "\nsp|P2\nsp|P1\n"
	if diff := cmp.Diff(want, readTestFile(t, out)); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	// Threshold from the configuration file
	cfg := writeTestFile(t, dir, "tparty.yaml", "filter:\n  max_evalue: 0.01\n")
	if err := run([]string{"proteins", "-quiet", "-config", cfg, "-o", out, xml}); err != nil {
		t.Fatalf("proteins -config: error return %v", err)
	}
	want = "Found 1 unique proteins for " + xml + "\nsp|P1\n"
	if diff := cmp.Diff(want, readTestFile(t, out)); diff != "" {
		t.Errorf("report with configured filter mismatch (-want +got):\n%s", diff)
	}

	// A flag overrides the configuration
	if err := run([]string{"proteins", "-quiet", "-config", cfg, "-e", "0.02", "-o", out, xml}); err != nil {
		t.Fatalf("proteins -config -e: error return %v", err)
	}
	want = "Found 2 unique proteins for " + xml + "\nsp|P2\nsp|P1\n"
	if diff := cmp.Diff(want, readTestFile(t, out)); diff != "" {
		t.Errorf("report with -e mismatch (-want +got):\n%s", diff)
	}
}

func TestProteinsCommandMalformed(t *testing.T) {
	dir := t.TempDir()
	xml := writeTestFile(t, dir, "broken.xml", testBioml[:len(testBioml)/2])
	out := filepath.Join(dir, "unique.txt")

	err := run([]string{"proteins", "-quiet", "-o", out, xml})
	var perr *bioml.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("proteins on truncated file: error return %v, should be *bioml.ParseError", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("report written for truncated file")
	}

	err = run([]string{"proteins", "-quiet", "-o", filepath.Join(dir, "no", "such", "dir.txt"),
		writeTestFile(t, dir, "ok.xml", testBioml)})
	var oerr *summary.OutputIOError
	if !errors.As(err, &oerr) {
		t.Errorf("proteins to missing directory: error return %v, should be *summary.OutputIOError", err)
	}
}

func TestRunUsage(t *testing.T) {
	if err := run(nil); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("run without command: error return %v", err)
	}
	if err := run([]string{"frobnicate"}); err == nil {
		t.Errorf("run of unknown command: no error")
	}
	if err := run([]string{"fasta", "-quiet"}); err == nil {
		t.Errorf("fasta without files: no error")
	}
}

type fakeRunner struct {
	results map[string]tandem.Result
	ran     []string
}

func (f *fakeRunner) Run(_ context.Context, j tandem.Job) (tandem.Result, error) {
	f.ran = append(f.ran, j.Sample)
	res, ok := f.results[j.Sample]
	if !ok {
		return res, os.ErrNotExist
	}
	return res, nil
}

func TestRunSearches(t *testing.T) {
	jobs := []tandem.Job{{Sample: "S01"}, {Sample: "S02"}, {Sample: "S03"}}
	r := &fakeRunner{results: map[string]tandem.Result{
		"S01": {ExitCode: 0, Complete: true},
		"S02": {ExitCode: 1, Complete: true},
		"S03": {ExitCode: 0, Complete: true},
	}}
	if err := runSearches(context.Background(), r, jobs, infoSilent); err != nil {
		t.Errorf("runSearches: error return %v", err)
	}
	if diff := cmp.Diff([]string{"S01", "S02", "S03"}, r.ran); diff != "" {
		t.Errorf("searched samples mismatch (-want +got):\n%s", diff)
	}

	r = &fakeRunner{results: map[string]tandem.Result{
		"S01": {ExitCode: 0, Complete: true},
		"S02": {ExitCode: 1, Complete: false},
	}}
	if err := runSearches(context.Background(), r, jobs, infoSilent); err == nil {
		t.Errorf("runSearches with failed search: no error")
	}
	if diff := cmp.Diff([]string{"S01", "S02"}, r.ran); diff != "" {
		t.Errorf("searches after failure mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummary(t *testing.T) {
	var b bytes.Buffer
	writeSummary(&b, report.Summary{PID: "P001", UniqueProteins: 3, HumanProteins: -1,
		Peptides: 20, DiscriminativePeptides: 4, Completed: "2019-03-14"})
	if got, want := b.String(), "P001\t3\t-1\t20\t4\t2019-03-14\n"; got != want {
		t.Errorf("writeSummary wrote %q, should be %q", got, want)
	}
}
