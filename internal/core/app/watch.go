package app

import (
	"context"
	"log/slog"

	"autosg/internal/core/watcher"
)

type WatchOptions struct {
	Recursive bool
	GlobalIDs bool
}

// Watch annotates the sources under paths once and then again whenever they
// change, until ctx is cancelled.
func (a *App) Watch(ctx context.Context, paths []string, opts WatchOptions) error {
	annotateOpts := AnnotateOptions{Recursive: opts.Recursive, GlobalIDs: opts.GlobalIDs}
	summary, err := a.AnnotateFiles(ctx, paths, annotateOpts)
	if err != nil {
		return err
	}
	slog.Info("initial annotation complete",
		"files", summary.Files,
		"identifiers", summary.Identifiers,
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failed),
	)

	a.mu.RLock()
	cfg := a.Config
	a.mu.RUnlock()

	w, err := watcher.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		a.isWatchedSource,
		func(changed []string) { a.HandleChanges(ctx, changed, opts.GlobalIDs) },
	)
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetRecursive(opts.Recursive)

	if err := w.Watch(paths); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", paths, "recursive", opts.Recursive)

	<-ctx.Done()
	return nil
}

// HandleChanges re-annotates a debounced batch of changed files.
func (a *App) HandleChanges(ctx context.Context, paths []string, globalIDs bool) {
	summary, err := a.AnnotateFiles(ctx, paths, AnnotateOptions{GlobalIDs: globalIDs})
	if err != nil {
		slog.Warn("re-annotation interrupted", "error", err)
		return
	}
	slog.Info("re-annotated changed files",
		"files", summary.Files,
		"identifiers", summary.Identifiers,
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failed),
	)
}

func (a *App) isWatchedSource(path string) bool {
	return !a.IsAnnotatedOutput(path) && a.Languages.Detect(path) != ""
}
