package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUniqueRoots(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a")
	b := filepath.Join(tmp, "b")

	roots := UniqueRoots([]string{b, a, a + string(os.PathSeparator), b})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d: %v", len(roots), roots)
	}
	if roots[0] != a || roots[1] != b {
		t.Errorf("expected sorted [%s %s], got %v", a, b, roots)
	}
}

func TestCompileGlobs(t *testing.T) {
	globs, err := CompileGlobs([]string{"__pycache__", ".*"}, "exclude dir")
	if err != nil {
		t.Fatal(err)
	}
	if !globs[0].Match("__pycache__") {
		t.Error("expected __pycache__ to match")
	}
	if !globs[1].Match(".git") {
		t.Error("expected .git to match")
	}

	if _, err := CompileGlobs([]string{"[unbalanced"}, "exclude dir"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "dir", "out.txt")
	if err := WriteStringWithDirs(target, "hello", 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected content: %q", data)
	}
}
