package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"autosg/internal/core/errors"
	"autosg/internal/engine/encoding"
	"autosg/internal/shared/observability"
	"autosg/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AnnotateOptions struct {
	Recursive bool
	// GlobalIDs threads the id counter across files instead of restarting
	// at zero for each one.
	GlobalIDs bool
}

type FileFailure struct {
	Path string
	Err  error
}

type AnnotateSummary struct {
	Files       int
	Identifiers int
	Skipped     []FileFailure
	Failed      []FileFailure
}

// FileResult describes one annotated source file.
type FileResult struct {
	Path        string
	OutputPath  string
	Language    string
	Encoding    encoding.FileEncoding
	Identifiers int
	NextID      int
}

// AnnotateFiles writes an annotated copy next to every source file under
// paths. A file that cannot be annotated is recorded and the run continues;
// only cancellation stops it early.
func (a *App) AnnotateFiles(ctx context.Context, paths []string, opts AnnotateOptions) (AnnotateSummary, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.AnnotateFiles", trace.WithAttributes(
		attribute.Bool("recursive", opts.Recursive),
		attribute.Bool("global_ids", opts.GlobalIDs),
	))
	defer span.End()

	var summary AnnotateSummary
	nextID := 0
	for _, path := range a.ExpandPaths(paths, opts.Recursive) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		startID := 0
		if opts.GlobalIDs {
			startID = nextID
		}

		res, err := a.AnnotateFile(ctx, path, startID)
		if err != nil {
			failure := FileFailure{Path: path, Err: err}
			if errors.Recoverable(err) {
				slog.Warn("skipping file", "path", path, "code", errors.CodeOf(err), "error", err)
				observability.FilesTotal.WithLabelValues(observability.OutcomeSkipped).Inc()
				summary.Skipped = append(summary.Skipped, failure)
			} else {
				slog.Error("failed to annotate file", "path", path, "error", err)
				observability.FilesTotal.WithLabelValues(observability.OutcomeFailed).Inc()
				summary.Failed = append(summary.Failed, failure)
			}
			continue
		}

		observability.FilesTotal.WithLabelValues(observability.OutcomeAnnotated).Inc()
		summary.Files++
		summary.Identifiers += res.Identifiers
		nextID = res.NextID
	}

	span.SetAttributes(
		attribute.Int("files", summary.Files),
		attribute.Int("identifiers", summary.Identifiers),
		attribute.Int("skipped", len(summary.Skipped)),
		attribute.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

// AnnotateFile annotates one source file, numbering identifiers from startID,
// and writes the result in the file's original encoding and byte-order mark.
func (a *App) AnnotateFile(ctx context.Context, path string, startID int) (FileResult, error) {
	_, span := observability.Tracer.Start(ctx, "app.AnnotateFile", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	annotated, res, err := a.annotateSource(path, startID)
	if err != nil {
		span.RecordError(err)
		return FileResult{}, err
	}

	out, err := encoding.FromCanonical(annotated, res.Encoding)
	if err != nil {
		return FileResult{}, errors.AddContext(err, errors.CtxPath, path)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	res.OutputPath = path + a.suffix()
	if err := util.WriteFileAtomic(res.OutputPath, out, perm); err != nil {
		return FileResult{}, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "write annotated file"),
			errors.CtxPath, res.OutputPath,
		)
	}

	slog.Debug("annotated file",
		"path", path,
		"language", res.Language,
		"encoding", res.Encoding.String(),
		"identifiers", res.Identifiers,
	)
	return res, nil
}

// annotateSource reads path and returns its annotated canonical text.
func (a *App) annotateSource(path string, startID int) ([]byte, FileResult, error) {
	res := FileResult{Path: path}

	lang := a.Languages.Detect(path)
	if lang == "" {
		return nil, res, errors.AddContext(
			errors.New(errors.CodeUnsupportedLanguage, "no language for file"),
			errors.CtxPath, path,
		)
	}
	res.Language = lang

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, res, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxPath, path)
	}
	canonical, enc, err := encoding.Read(raw)
	if err != nil {
		return nil, res, errors.AddContext(err, errors.CtxPath, path)
	}
	res.Encoding = enc

	started := time.Now()
	annotated, next, err := a.annotator.Annotate(canonical, lang, a.Style(), startID)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, res, errors.AddContext(err, errors.CtxPath, path)
	}

	res.Identifiers = next - startID
	res.NextID = next
	observability.IdentifiersTotal.WithLabelValues(lang).Add(float64(res.Identifiers))
	return annotated, res, nil
}

// Clean removes annotated outputs. Source paths remove their sibling output,
// annotated paths are removed directly, and directories are swept (all the
// way down when recursive is set). It returns the number of files removed.
func (a *App) Clean(paths []string, recursive bool) (int, error) {
	suffix := a.suffix()
	removed := 0
	remove := func(path string) error {
		err := os.Remove(path)
		if err == nil {
			slog.Debug("removed annotated file", "path", path)
			removed++
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			slog.Warn("skipping path", "path", root, "error", err)
			continue
		}
		if !info.IsDir() {
			target := root
			if !a.IsAnnotatedOutput(root) {
				target = root + suffix
			}
			if err := remove(target); err != nil {
				return removed, err
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if a.IsAnnotatedOutput(path) {
				return remove(path)
			}
			return nil
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}
