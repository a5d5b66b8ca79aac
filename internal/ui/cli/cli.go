package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"autosg/internal/core/config"
)

const versionString = "1.0.0"

type globalOptions struct {
	configPath     string
	configExplicit bool
	verbose        bool
	version        bool
	command        string
	args           []string
}

func parseGlobalOptions(args []string, stderr io.Writer) (globalOptions, error) {
	var opts globalOptions
	fs := flag.NewFlagSet("autosg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	fs.StringVar(&opts.configPath, "config", config.DefaultFile, "Path to config file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return globalOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configExplicit = true
		}
	})

	rest := fs.Args()
	if len(rest) > 0 {
		opts.command = rest[0]
		opts.args = rest[1:]
	}
	return opts, nil
}

type dumpOptions struct {
	recursive bool
	output    string
	paths     []string
}

func parseDumpOptions(args []string, stderr io.Writer) (dumpOptions, error) {
	var opts dumpOptions
	fs := newCommandFlagSet("dump-identifiers", "[-r] [-o file] PATHS...", stderr)
	fs.BoolVar(&opts.recursive, "r", false, "Recurse into subdirectories")
	fs.StringVar(&opts.output, "o", "", "Write CSV to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return dumpOptions{}, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) == 0 {
		fs.Usage()
		return dumpOptions{}, errMissingPaths
	}
	return opts, nil
}

type annotateOptions struct {
	recursive bool
	clean     bool
	globalIDs bool
	paths     []string
}

func parseAnnotateOptions(args []string, stderr io.Writer) (annotateOptions, error) {
	var opts annotateOptions
	fs := newCommandFlagSet("annotate-files", "[-r] [--clean] [--global-ids] PATHS...", stderr)
	fs.BoolVar(&opts.recursive, "r", false, "Recurse into subdirectories")
	fs.BoolVar(&opts.clean, "clean", false, "Remove annotated files instead of writing them")
	fs.BoolVar(&opts.globalIDs, "global-ids", false, "Number identifiers continuously across files")
	if err := fs.Parse(args); err != nil {
		return annotateOptions{}, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) == 0 {
		fs.Usage()
		return annotateOptions{}, errMissingPaths
	}
	return opts, nil
}

type resolveOptions struct {
	model   string
	noCache bool
	path    string
}

func parseResolveOptions(args []string, stderr io.Writer) (resolveOptions, error) {
	var opts resolveOptions
	fs := newCommandFlagSet("llm-resolve", "[--model M] [--no-cache] PATH", stderr)
	fs.StringVar(&opts.model, "model", "", "Model id as provider/name (default from config)")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Skip the resolution cache")
	if err := fs.Parse(args); err != nil {
		return resolveOptions{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return resolveOptions{}, fmt.Errorf("llm-resolve takes exactly one path")
	}
	opts.path = fs.Arg(0)
	return opts, nil
}

type watchOptions struct {
	recursive bool
	globalIDs bool
	paths     []string
}

func parseWatchOptions(args []string, stderr io.Writer) (watchOptions, error) {
	var opts watchOptions
	fs := newCommandFlagSet("watch", "[-r] [--global-ids] PATHS...", stderr)
	fs.BoolVar(&opts.recursive, "r", false, "Watch subdirectories")
	fs.BoolVar(&opts.globalIDs, "global-ids", false, "Number identifiers continuously across files")
	if err := fs.Parse(args); err != nil {
		return watchOptions{}, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) == 0 {
		fs.Usage()
		return watchOptions{}, errMissingPaths
	}
	return opts, nil
}

var errMissingPaths = fmt.Errorf("at least one path is required")

func newCommandFlagSet(name, synopsis string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: autosg %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func printUsage(w io.Writer) {
	lines := []string{
		"Usage: autosg [-config file] [-verbose] <command> [args]",
		"",
		"Commands:",
		"  dump-identifiers [-r] [-o file] PATHS...        Print identifier occurrences as CSV",
		"  annotate-files [-r] [--clean] [--global-ids] PATHS...",
		"                                                  Write <file>.annotated next to each source",
		"  llm-resolve [--model M] [--no-cache] PATH       Resolve references with a reasoning model",
		"  watch [-r] [--global-ids] PATHS...              Re-annotate sources as they change",
		"  grammars list|verify                            Inspect available grammars",
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
