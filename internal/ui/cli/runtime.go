package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"autosg/internal/core/config"
	"autosg/internal/core/ports"
	"autosg/internal/data/cache"
	"autosg/internal/engine/resolver"
	"autosg/internal/llm"
	"autosg/internal/shared/observability"
	"autosg/internal/shared/util"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func Run(args []string) int {
	return run(context.Background(), args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseGlobalOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if opts.version {
		fmt.Fprintf(stdout, "autosg v%s\n", versionString)
		return exitOK
	}
	if opts.command == "" {
		printUsage(stderr)
		return exitUsage
	}

	runID := uuid.NewString()
	configureLogging(stderr, opts.verbose, runID)

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitFailure
	}

	cfg, paths, err := loadConfig(opts.configPath, opts.configExplicit, cwd)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return exitFailure
	}

	if opts.command == "grammars" {
		return runGrammarsCommand(cfg, opts.args, stdout, stderr)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := startObservability(ctx, cfg)
	defer shutdown()

	switch opts.command {
	case "dump-identifiers":
		return runDump(ctx, cfg, opts.args, stdout, stderr)
	case "annotate-files":
		return runAnnotate(ctx, cfg, opts.args, stdout, stderr)
	case "llm-resolve":
		return runResolve(ctx, cfg, paths, opts.args, stdout, stderr)
	case "watch":
		return runWatch(ctx, cfg, opts.configPath, opts.args, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", opts.command)
		printUsage(stderr)
		return exitUsage
	}
}

// loadConfig reads the config file, applies AUTOSG_* overrides and makes
// paths absolute. A missing default file means built-in defaults.
func loadConfig(path string, explicit bool, cwd string) (*config.Config, config.ResolvedPaths, error) {
	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, config.ResolvedPaths{}, err
	}
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, config.ResolvedPaths{}, err
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, config.ResolvedPaths{}, err
	}
	cfg.GrammarsPath = paths.GrammarsPath
	return cfg, paths, nil
}

func configureLogging(w io.Writer, verbose bool, runID string) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger.With("run_id", runID))
}

// startObservability starts the metrics endpoint and trace exporter when they
// are configured and returns a function that stops both.
func startObservability(ctx context.Context, cfg *config.Config) func() {
	var stops []func(context.Context) error

	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		srv := NewObservabilityServer(addr)
		if err := srv.Start(ctx); err != nil {
			slog.Warn("failed to start observability server", "addr", addr, "error", err)
		} else {
			stops = append(stops, srv.Stop)
		}
	}

	if endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint); endpoint != "" {
		shutdownTracing, err := observability.InitTracing(ctx, endpoint)
		if err != nil {
			slog.Warn("failed to initialise tracing", "endpoint", endpoint, "error", err)
		} else {
			stops = append(stops, shutdownTracing)
		}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](shutdownCtx); err != nil {
				slog.Warn("observability shutdown failed", "error", err)
			}
		}
	}
}

// newCompleter routes model ids to providers, pacing requests per model when
// a rate is configured. The returned close function releases the pacer.
func newCompleter(cfg *config.Config) (ports.Completer, func()) {
	router := llm.NewRouter()
	apiKeyEnv := cfg.LLM.APIKeyEnv
	router.Register(llm.ProviderGemini, func(ctx context.Context) (ports.Completer, error) {
		return llm.NewGeminiCompleter(ctx, apiKeyEnv)
	})

	if cfg.LLM.RequestsPerSecond <= 0 {
		return router, func() {}
	}
	limiters := util.NewLimiterRegistry(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst, 10*time.Minute)
	return llm.NewRateLimited(router, limiters), limiters.Close
}

// openCache opens the configured resolution cache, or returns nil when
// caching is off. The sqlite directory is created on demand.
func openCache(cfg *config.Config, paths config.ResolvedPaths) (ports.ResolutionCache, error) {
	if !cfg.Cache.IsEnabled() {
		return nil, nil
	}
	if strings.EqualFold(cfg.Cache.Backend, cache.BackendSQLite) {
		if err := os.MkdirAll(filepath.Dir(paths.CachePath), 0o755); err != nil {
			return nil, err
		}
	}
	return cache.Open(cache.Options{
		Backend:       cfg.Cache.Backend,
		Path:          paths.CachePath,
		MemoryEntries: cfg.Cache.MemoryEntries,
		BusyTimeout:   cfg.Cache.BusyTimeout,
	})
}

func buildResolver(cfg *config.Config, paths config.ResolvedPaths, useCache bool) (*resolver.Resolver, func()) {
	completer, closeCompleter := newCompleter(cfg)

	var store ports.ResolutionCache
	if useCache {
		var err error
		store, err = openCache(cfg, paths)
		if err != nil {
			// The cache only saves model calls; carry on without it.
			slog.Warn("resolution cache unavailable", "path", paths.CachePath, "error", err)
			store = nil
		}
	}

	closeAll := func() {
		closeCompleter()
		if store != nil {
			if err := store.Close(); err != nil {
				slog.Warn("failed to close cache", "error", err)
			}
		}
	}
	return resolver.New(completer, store), closeAll
}
