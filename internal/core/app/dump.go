package app

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"

	"autosg/internal/core/errors"
	"autosg/internal/engine/annotate"
	"autosg/internal/engine/encoding"
	"autosg/internal/engine/parser"
	"autosg/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var dumpHeader = []string{"id", "path", "row", "col", "text"}

type DumpSummary struct {
	Files       int
	Identifiers int
	Skipped     []FileFailure
	Failed      []FileFailure
}

// DumpIdentifiers writes one CSV row per identifier occurrence under paths.
// Ids run in a single sequence across files and col is a character column.
func (a *App) DumpIdentifiers(ctx context.Context, w io.Writer, paths []string, recursive bool) (DumpSummary, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.DumpIdentifiers", trace.WithAttributes(
		attribute.Bool("recursive", recursive),
	))
	defer span.End()

	var summary DumpSummary
	out := csv.NewWriter(w)
	if err := out.Write(dumpHeader); err != nil {
		return summary, err
	}

	nextID := 0
	for _, path := range a.ExpandPaths(paths, recursive) {
		if err := ctx.Err(); err != nil {
			out.Flush()
			return summary, err
		}
		occs, lines, err := a.identifiers(path)
		if err != nil {
			failure := FileFailure{Path: path, Err: err}
			if errors.Recoverable(err) {
				slog.Warn("skipping file", "path", path, "code", errors.CodeOf(err), "error", err)
				summary.Skipped = append(summary.Skipped, failure)
			} else {
				slog.Error("failed to extract identifiers", "path", path, "error", err)
				summary.Failed = append(summary.Failed, failure)
			}
			continue
		}

		display := relativePath(path)
		for _, occ := range annotate.AssignIDs(occs, nextID) {
			var line []byte
			if occ.Row-1 < len(lines) {
				line = lines[occ.Row-1]
			}
			record := []string{
				strconv.Itoa(occ.ID),
				display,
				strconv.Itoa(occ.Row),
				strconv.Itoa(parser.ByteColToCharCol(line, occ.ByteCol)),
				occ.Text,
			}
			if err := out.Write(record); err != nil {
				return summary, err
			}
		}
		nextID += len(occs)
		summary.Files++
		summary.Identifiers += len(occs)
	}

	out.Flush()
	return summary, out.Error()
}

func (a *App) identifiers(path string) ([]parser.Occurrence, [][]byte, error) {
	lang := a.Languages.Detect(path)
	if lang == "" {
		return nil, nil, errors.AddContext(
			errors.New(errors.CodeUnsupportedLanguage, "no language for file"),
			errors.CtxPath, path,
		)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxPath, path)
	}
	canonical, _, err := encoding.Read(raw)
	if err != nil {
		return nil, nil, errors.AddContext(err, errors.CtxPath, path)
	}
	occs, err := a.extractor.Extract(canonical, lang)
	if err != nil {
		return nil, nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return occs, annotate.SplitLines(canonical), nil
}
