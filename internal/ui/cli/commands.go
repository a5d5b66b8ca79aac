package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	coreapp "autosg/internal/core/app"
	"autosg/internal/core/config"
	"autosg/internal/core/errors"
)

func runDump(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	opts, err := parseDumpOptions(args, stderr)
	if err != nil {
		return exitUsage
	}
	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}

	out := stdout
	var file *os.File
	if opts.output != "" {
		file, err = os.Create(opts.output)
		if err != nil {
			slog.Error("failed to create output file", "path", opts.output, "error", err)
			return exitFailure
		}
		defer file.Close()
		out = file
	}

	summary, err := a.DumpIdentifiers(ctx, out, opts.paths, opts.recursive)
	if err != nil {
		slog.Error("dump failed", "error", err)
		return exitFailure
	}
	if file != nil {
		if err := file.Close(); err != nil {
			slog.Error("failed to write output file", "path", opts.output, "error", err)
			return exitFailure
		}
	}
	slog.Info("dumped identifiers",
		"files", summary.Files,
		"identifiers", summary.Identifiers,
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failed),
	)
	if len(summary.Failed) > 0 {
		return exitFailure
	}
	return exitOK
}

func runAnnotate(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	opts, err := parseAnnotateOptions(args, stderr)
	if err != nil {
		return exitUsage
	}
	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}

	if opts.clean {
		removed, err := a.Clean(opts.paths, opts.recursive)
		if err != nil {
			slog.Error("clean failed", "error", err)
			return exitFailure
		}
		fmt.Fprintln(stdout, successStyle.Render(fmt.Sprintf("Removed %d annotated file(s).", removed)))
		return exitOK
	}

	summary, err := a.AnnotateFiles(ctx, opts.paths, coreapp.AnnotateOptions{
		Recursive: opts.recursive,
		GlobalIDs: opts.globalIDs || cfg.Annotate.ContinuousIDs,
	})
	if err != nil {
		slog.Error("annotation interrupted", "error", err)
		return exitFailure
	}
	printAnnotateSummary(stdout, summary)
	if len(summary.Failed) > 0 {
		return exitFailure
	}
	return exitOK
}

func runResolve(ctx context.Context, cfg *config.Config, paths config.ResolvedPaths, args []string, stdout, stderr io.Writer) int {
	opts, err := parseResolveOptions(args, stderr)
	if err != nil {
		return exitUsage
	}
	model := opts.model
	if model == "" {
		model = cfg.LLM.Model
	}

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}
	res, closeResolver := buildResolver(cfg, paths, !opts.noCache)
	defer closeResolver()
	a.SetResolver(res)

	result, err := a.Resolve(ctx, opts.path, model, !opts.noCache)
	if err != nil {
		if errors.IsCode(err, errors.CodeAuthRequired) {
			fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
		}
		slog.Error("resolution failed", "path", opts.path, "model", model, "code", errors.CodeOf(err), "error", err)
		return exitFailure
	}

	out, err := result.Indented()
	if err != nil {
		slog.Error("failed to format resolution", "error", err)
		return exitFailure
	}
	fmt.Fprintln(stdout, string(out))
	return exitOK
}

func runWatch(ctx context.Context, cfg *config.Config, configPath string, args []string, stderr io.Writer) int {
	opts, err := parseWatchOptions(args, stderr)
	if err != nil {
		return exitUsage
	}
	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}

	if _, statErr := os.Stat(configPath); statErr == nil {
		cw := config.NewWatcher(configPath, func(next *config.Config) {
			next.GrammarsPath = cfg.GrammarsPath
			if err := a.Reload(next); err != nil {
				slog.Warn("ignoring reloaded config", "error", err)
				return
			}
			slog.Info("configuration reloaded", "style", next.Annotate.Style)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	err = a.Watch(ctx, opts.paths, coreapp.WatchOptions{
		Recursive: opts.recursive,
		GlobalIDs: opts.globalIDs || cfg.Annotate.ContinuousIDs,
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("watch failed", "error", err)
		return exitFailure
	}
	return exitOK
}
