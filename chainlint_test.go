package chainlint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const script = `#!/bin/sh

test_expect_success 'unchained' '
	echo one >expect
	test_cmp expect actual
'
`

func boolPtr(b bool) *bool    { return &b }
func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func testConfig(t *testing.T, stdout, stderr *bytes.Buffer) Config {
	t.Helper()
	// keep the user's real config file out of the run
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return Config{
		Jobs:   intPtr(1),
		Color:  strPtr("never"),
		Stdout: stdout,
		Stderr: stderr,
	}
}

func TestRunFlagsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t0001-broken.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code, err := Run(testConfig(t, &stdout, &stderr), []string{path})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "# chainlint: "+path+"\n") {
		t.Fatalf("stdout %q lacks the script header", out)
	}
	if !strings.Contains(out, "?!AMP?!") {
		t.Fatalf("stdout %q lacks the annotation", out)
	}
}

func TestRunExitCodeMatchesOutput(t *testing.T) {
	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.sh")
	contents := "test_expect_success 'ok' '\nfoo &&\nbar\n'\n"
	if err := os.WriteFile(clean, []byte(contents), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code, err := Run(testConfig(t, &stdout, &stderr), []string{clean})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	// zero exit iff no annotation was written
	if got := strings.Contains(stdout.String(), "?!"); got != (code != 0) {
		t.Fatalf("exit code %d disagrees with output %q", code, stdout.String())
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunNoArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := Run(testConfig(t, &stdout, &stderr), nil)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}
}

func TestRunShowStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t0001.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cfg := testConfig(t, &stdout, &stderr)
	cfg.ShowStats = boolPtr(true)
	if _, err := Run(cfg, []string{path}); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !strings.HasPrefix(stderr.String(), "chainlint: 1 scripts, 1 tests, 1 errors, ") {
		t.Fatalf("stderr = %q, want the stats line", stderr.String())
	}
}

func TestRunGlobPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"t0001.sh", "t0002.sh"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}

	var stdout, stderr bytes.Buffer
	code, err := Run(testConfig(t, &stdout, &stderr), []string{filepath.Join(dir, "t*.sh")})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got, want := strings.Count(stdout.String(), "# chainlint: "+dir), 2; got != want {
		t.Fatalf("script headers = %d, want %d", got, want)
	}
}
