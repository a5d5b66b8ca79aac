package config

import (
	"path/filepath"
	"testing"
)

func TestResolvePaths_Defaults(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	cwd := t.TempDir()
	cfg := Default()
	cfg.GrammarsPath = "grammars"

	paths, err := ResolvePaths(cfg, cwd)
	if err != nil {
		t.Fatalf("ResolvePaths failed: %v", err)
	}
	if paths.GrammarsPath != filepath.Join(cwd, "grammars") {
		t.Errorf("unexpected grammars path %q", paths.GrammarsPath)
	}
	want := filepath.Join(xdg, "autosg", CacheDB)
	if paths.CachePath != want {
		t.Errorf("expected cache path %q, got %q", want, paths.CachePath)
	}
	if paths.CacheDir != filepath.Join(xdg, "autosg") {
		t.Errorf("unexpected cache dir %q", paths.CacheDir)
	}
}

func TestResolvePaths_ExplicitCache(t *testing.T) {
	cwd := t.TempDir()
	cfg := Default()
	cfg.Cache.Path = "state/cache.db"

	paths, err := ResolvePaths(cfg, cwd)
	if err != nil {
		t.Fatalf("ResolvePaths failed: %v", err)
	}
	if paths.CachePath != filepath.Join(cwd, "state", "cache.db") {
		t.Errorf("unexpected cache path %q", paths.CachePath)
	}
	if paths.GrammarsPath != "" {
		t.Errorf("expected empty grammars path, got %q", paths.GrammarsPath)
	}
}

func TestResolvePaths_EmptyCwd(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}

func TestResolveRelative(t *testing.T) {
	base := filepath.FromSlash("/work/project")
	tests := []struct {
		value string
		want  string
	}{
		{value: "", want: base},
		{value: "sub/dir", want: filepath.Join(base, "sub", "dir")},
		{value: filepath.FromSlash("/abs/path"), want: filepath.FromSlash("/abs/path")},
	}
	for _, tt := range tests {
		if got := ResolveRelative(base, tt.value); got != tt.want {
			t.Errorf("ResolveRelative(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
