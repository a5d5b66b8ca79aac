package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func notAnnotated(path string) bool {
	return !strings.HasSuffix(path, ".annotated")
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change event on %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"["}, nil, nil, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid exclude pattern")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"*.exclude"}, notAnnotated, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "test.py")
	if err := os.WriteFile(testFile, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile)

	excluded := []string{
		filepath.Join(tmpDir, "test.exclude"),
		filepath.Join(tmpDir, "test.py.annotated"),
	}
	for _, path := range excluded {
		if err := os.WriteFile(path, []byte("skip"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			for _, ex := range excluded {
				if p == ex {
					t.Errorf("excluded file %s triggered event", p)
				}
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.go")
	if err := os.WriteFile(subFile, []byte("package nested"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile)
}

func TestWatcher_FileRoot(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(target, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, target)
}

func TestWatcher_FileRootIgnoresSiblings(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "foo.py")
	sibling := filepath.Join(tmpDir, "bar.py")
	for _, path := range []string{target, sibling} {
		if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sibling, []byte("y = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(target, []byte("z = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == sibling {
					t.Fatalf("sibling of a file root was reported: %v", paths)
				}
			}
			for _, p := range paths {
				if p == target {
					return
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for file root change")
		}
	}
}

func TestWatcher_InScope(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.dirs[filepath.Join("src")] = struct{}{}
	w.fileRoots[filepath.Join("lib", "only.py")] = struct{}{}

	tests := map[string]bool{
		filepath.Join("src", "a.py"):     true,
		filepath.Join("lib", "only.py"):  true,
		filepath.Join("lib", "other.py"): false,
		filepath.Join("src", "sub", "b"): false,
	}
	for path, want := range tests {
		if got := w.inScope(path); got != want {
			t.Errorf("inScope(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWatcher_ShouldExcludeFile(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, []string{"*.min.js"}, notAnnotated, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.shouldExcludeFile("app.min.js") {
		t.Fatal("expected glob-excluded file")
	}
	if !w.shouldExcludeFile("main.go.annotated") {
		t.Fatal("expected filter to reject annotated output")
	}
	if w.shouldExcludeFile("main.go") {
		t.Fatal("expected main.go to be accepted")
	}
}

func TestWatcher_FlushSortsAndDedupes(t *testing.T) {
	got := make(chan []string, 1)
	w, err := NewWatcher(time.Hour, nil, nil, nil, func(paths []string) {
		got <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("b.go")
	w.scheduleChange("a.go")
	w.scheduleChange("b.go")
	w.flushChanges()

	paths := <-got
	if len(paths) != 2 || paths[0] != "a.go" || paths[1] != "b.go" {
		t.Fatalf("expected [a.go b.go], got %v", paths)
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close returned %v", err)
	}
}

func TestWatcher_NonRecursiveIgnoresSubdirs(t *testing.T) {
	tmpDir := t.TempDir()
	subdir := filepath.Join(tmpDir, "sub")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.SetRecursive(false)

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(nested, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(tmpDir, "top.py")
	if err := os.WriteFile(top, []byte("y = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == nested {
					t.Fatalf("nested file reported without recursion: %v", paths)
				}
				if p == top {
					return
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for top-level change")
		}
	}
}
