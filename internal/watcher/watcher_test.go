package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(Config{
		Debounce:    100 * time.Millisecond,
		ExcludeDirs: []string{"__pycache__"},
		RateLimit:   100,
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Watch(ctx, []string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	// A new Python source triggers a batch.
	testFile := filepath.Join(tmpDir, "mod.py")
	os.WriteFile(testFile, []byte("import os\n"), 0o644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}

	// Non-Python files are ignored.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignore"), 0o644)
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if filepath.Ext(p) != ".py" {
				t.Errorf("non-source file triggered event: %s", p)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// A new package directory is picked up recursively.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("import sys\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event")
		}
	}
}

func TestWatcherExcludedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	cache := filepath.Join(tmpDir, "__pycache__")
	if err := os.MkdirAll(cache, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 1)
	w, err := New(Config{
		Debounce:    50 * time.Millisecond,
		ExcludeDirs: []string{"__pycache__"},
		RateLimit:   100,
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Watch(ctx, []string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(filepath.Join(cache, "cached.py"), []byte("x = 1\n"), 0o644)

	select {
	case paths := <-changedFiles:
		t.Errorf("excluded directory triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected
	}
}
