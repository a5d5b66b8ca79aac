package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CacheDB is the database file name inside the cache directory.
const CacheDB = "cache.db"

type ResolvedPaths struct {
	GrammarsPath string
	CacheDir     string
	CachePath    string
}

// ResolvePaths makes configured paths absolute. Relative grammars_path is
// taken from cwd; the cache defaults to $XDG_CACHE_HOME/autosg/cache.db, or
// ~/.cache/autosg/cache.db when XDG_CACHE_HOME is unset.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	var grammars string
	if strings.TrimSpace(cfg.GrammarsPath) != "" {
		grammars = ResolveRelative(cwd, cfg.GrammarsPath)
	}

	cachePath := strings.TrimSpace(cfg.Cache.Path)
	if cachePath != "" {
		cachePath = ResolveRelative(cwd, expandHome(cachePath))
	} else {
		dir, err := DefaultCacheDir()
		if err != nil {
			return ResolvedPaths{}, err
		}
		cachePath = filepath.Join(dir, CacheDB)
	}

	return ResolvedPaths{
		GrammarsPath: grammars,
		CacheDir:     filepath.Dir(cachePath),
		CachePath:    filepath.Clean(cachePath),
	}, nil
}

func DefaultCacheDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, "autosg"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for cache: %w", err)
	}
	return filepath.Join(home, ".cache", "autosg"), nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
