package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "t0001-init.sh"))
	touch(t, filepath.Join(dir, "t0002-clone.sh"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.sh"))

	got := ExpandGlobs([]string{filepath.Join(dir, "*.sh")})
	want := []string{
		filepath.Join(dir, "t0001-init.sh"),
		filepath.Join(dir, "t0002-clone.sh"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExpandGlobs mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandGlobsCharClass(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "t1.sh"))
	touch(t, filepath.Join(dir, "t2.sh"))
	touch(t, filepath.Join(dir, "t3.sh"))

	got := ExpandGlobs([]string{filepath.Join(dir, "t[12].sh")})
	want := []string{
		filepath.Join(dir, "t1.sh"),
		filepath.Join(dir, "t2.sh"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExpandGlobs mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandGlobsAcrossDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a", "run.sh"))
	touch(t, filepath.Join(dir, "b", "run.sh"))

	got := ExpandGlobs([]string{filepath.Join(dir, "*", "run.sh")})
	want := []string{
		filepath.Join(dir, "a", "run.sh"),
		filepath.Join(dir, "b", "run.sh"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExpandGlobs mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandGlobsLiteralPassthrough(t *testing.T) {
	got := ExpandGlobs([]string{"does-not-exist.sh"})
	want := []string{"does-not-exist.sh"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExpandGlobs mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandGlobsNoMatch(t *testing.T) {
	dir := t.TempDir()
	if got := ExpandGlobs([]string{filepath.Join(dir, "*.zzz")}); len(got) != 0 {
		t.Fatalf("ExpandGlobs(no match) = %q, want empty", got)
	}
	if got := ExpandGlobs(nil); len(got) != 0 {
		t.Fatalf("ExpandGlobs(nil) = %q, want empty", got)
	}
}
