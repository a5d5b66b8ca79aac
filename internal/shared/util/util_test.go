package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	keys := SortedStringKeys(map[string]int{"b": 2, "a": 1, "c": 3})
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("unexpected key order: %v", keys)
	}
}

func TestCompileGlobs(t *testing.T) {
	t.Parallel()

	globs, err := CompileGlobs([]string{"*.min.js", " ", "node_modules"}, "exclude.files")
	if err != nil {
		t.Fatalf("compile globs: %v", err)
	}
	if len(globs) != 2 {
		t.Fatalf("expected blank patterns to be skipped, got %d globs", len(globs))
	}
	if !MatchAny(globs, "app.min.js") || !MatchAny(globs, "node_modules") {
		t.Fatal("expected patterns to match")
	}
	if MatchAny(globs, "app.js") {
		t.Fatal("unexpected match for app.js")
	}

	if _, err := CompileGlobs([]string{"[unclosed"}, "exclude.dirs"); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")
	if err := WriteFileWithDirs(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestWriteFileAtomic_ReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.py.annotated")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("expected new content, got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be renamed away, found %d entries", len(entries))
	}
}
