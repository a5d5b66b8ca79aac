package app

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"autosg/internal/shared/util"
)

// ExpandPaths turns command-line paths into the list of source files to
// process. Files are yielded as given. Directories contribute their direct
// children with a detectable language, or every descendant when recursive is
// set. Annotated outputs are never sources, and paths that do not exist are
// logged and skipped.
func (a *App) ExpandPaths(paths []string, recursive bool) []string {
	a.mu.RLock()
	dirGlobs, fileGlobs := a.excludeDirs, a.excludeFiles
	a.mu.RUnlock()

	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			slog.Warn("skipping path", "path", root, "error", err)
			continue
		}
		if !info.IsDir() {
			if a.IsAnnotatedOutput(root) {
				slog.Debug("skipping annotated output", "path", root)
				continue
			}
			files = append(files, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path == root {
					return nil
				}
				if !recursive || util.MatchAny(dirGlobs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if a.IsAnnotatedOutput(path) || util.MatchAny(fileGlobs, base) {
				return nil
			}
			if a.Languages.Detect(path) == "" {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			slog.Warn("failed to walk directory", "path", root, "error", err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files
}

// relativePath renders path relative to the working directory when possible.
func relativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil {
		return path
	}
	return rel
}
