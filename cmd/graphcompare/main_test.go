package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const graphA = `graph a {
	k1_local [label="10.0.0.1"];
	k2_tcp [label="tcp"];
	k3_80 [label="80"];
	k4_5000 [label="5000"];
	k5_remote [label="10.0.0.2"];
	k1_local -- k2_tcp;
	k2_tcp -- k3_80;
	k3_80 -- k4_5000;
	k4_5000 -- k5_remote;
}`

// same flow, vertices declared in a different order
const graphARenamed = `graph b {
	k5_other [label="10.0.0.2"];
	k4_port [label="5000"];
	k3_port [label="80"];
	k2_proto [label="tcp"];
	k1_host [label="10.0.0.1"];
	k4_port -- k5_other;
	k3_port -- k4_port;
	k2_proto -- k3_port;
	k1_host -- k2_proto;
}`

const graphDifferent = `graph c {
	k1_local [label="10.0.0.1"];
	k2_udp [label="udp"];
	k3_53 [label="53"];
	k4_5000 [label="5000"];
	k5_dns [label="8.8.8.8"];
	k1_local -- k2_udp;
	k2_udp -- k3_53;
	k3_53 -- k4_5000;
	k4_5000 -- k5_dns;
}`

func writeGraph(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--no-color"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunSinglePair(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.dot", graphA)
	renamed := writeGraph(t, dir, "renamed.dot", graphARenamed)
	different := writeGraph(t, dir, "different.dot", graphDifferent)
	broken := writeGraph(t, dir, "broken.dot", `graph { k1_a -- ; }`)
	rootless := writeGraph(t, dir, "rootless.dot", `graph { k2_tcp -- k3_80; }`)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"equal", []string{a, renamed}, exitEqual, "Graphs are equal", ""},
		{"same file", []string{a, a}, exitEqual, "Graphs are equal", ""},
		{"different", []string{a, different}, exitDiffer, "Graphs are not equal", ""},
		{"parse error", []string{a, broken}, exitError, "", "Error: "},
		{"no local root", []string{rootless, a}, exitError, "", "structural invariant violation"},
		{"missing file", []string{a, filepath.Join(dir, "missing.dot")}, exitError, "", "Error: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout, stderr)
			}
			if tt.wantOut != "" && !strings.Contains(stdout, tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantOut)
			}
			if tt.wantErr != "" {
				if stdout != "" {
					t.Errorf("stdout = %q, want errors kept off the report", stdout)
				}
				if !strings.Contains(stderr, tt.wantErr) {
					t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantErr)
				}
			}
		})
	}
}

func TestRunVerbose(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.dot", graphA)
	different := writeGraph(t, dir, "different.dot", graphDifferent)

	code, stdout, _ := runCLI(t, "", "-v", a, different)
	if code != exitDiffer {
		t.Fatalf("exit code = %d, want %d", code, exitDiffer)
	}
	for _, want := range []string{"Local roots: k1_local (A), k1_local (B)", "Unmatched flows in A: 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("verbose output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunStdin(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.dot", graphA)

	code, stdout, stderr := runCLI(t, graphARenamed, a, "-")
	if code != exitEqual {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitEqual, stderr)
	}
	if !strings.Contains(stdout, "Graphs are equal") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.dot", graphA)
	different := writeGraph(t, dir, "different.dot", graphDifferent)

	code, stdout, _ := runCLI(t, "", "--format", "json", a, different)
	if code != exitDiffer {
		t.Fatalf("exit code = %d, want %d", code, exitDiffer)
	}

	var doc struct {
		Equal bool `json:"equal"`
		Pairs []struct {
			Equal bool `json:"equal"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if doc.Equal || len(doc.Pairs) != 1 || doc.Pairs[0].Equal {
		t.Errorf("document = %+v", doc)
	}
}

func TestRunBatch(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeGraph(t, dirA, "same.dot", graphA)
	writeGraph(t, dirB, "same.dot", graphARenamed)
	writeGraph(t, dirA, "nested/changed.dot", graphA)
	writeGraph(t, dirB, "nested/changed.dot", graphDifferent)

	code, stdout, stderr := runCLI(t, "", "--dir-a", dirA, "--dir-b", dirB)
	if code != exitDiffer {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitDiffer, stderr)
	}
	if !strings.Contains(stdout, "Summary: 1 equal, 1 different, 0 failed") {
		t.Errorf("stdout = %q", stdout)
	}

	writeGraph(t, dirB, "broken.dot", `graph {`)
	writeGraph(t, dirA, "broken.dot", graphA)
	code, _, _ = runCLI(t, "", "--dir-a", dirA, "--dir-b", dirB)
	if code != exitError {
		t.Errorf("exit code with a broken pair = %d, want %d", code, exitError)
	}
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.dot", graphA)

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"one argument", []string{a}},
		{"three arguments", []string{a, a, a}},
		{"both stdin", []string{"-", "-"}},
		{"watch stdin", []string{"--watch", a, "-"}},
		{"paths with dirs", []string{"--dir-a", dir, "--dir-b", dir, a, a}},
		{"unknown flag", []string{"--bogus", a, a}},
		{"bad format", []string{"--format", "xml", a, a}},
		{"bad levels", []string{"--levels", "0", a, a}},
		{"bad log level", []string{"--log-level", "loud", a, a}},
		{"missing config", []string{"--config", filepath.Join(dir, "missing.toml"), a, a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, exitUsage, stderr)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	code, _, stderr := runCLI(t, "", "--help")
	if code != exitEqual {
		t.Errorf("exit code = %d, want %d", code, exitEqual)
	}
	if !strings.Contains(stderr, "Usage: graphcompare") {
		t.Errorf("stderr = %q", stderr)
	}
}
