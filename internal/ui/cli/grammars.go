package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	coreapp "autosg/internal/core/app"
	"autosg/internal/core/config"
	"autosg/internal/engine/parser"
	"autosg/internal/engine/parser/grammar"
)

func runGrammarsCommand(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printGrammarHelp(stderr)
		return exitUsage
	}

	switch args[0] {
	case "list":
		return runGrammarsList(cfg, stdout, stderr)
	case "verify":
		return runGrammarsVerify(cfg, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown grammar command: %s\n", args[0])
		printGrammarHelp(stderr)
		return exitUsage
	}
}

func printGrammarHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: autosg grammars <command> [args]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  list                    List language tags and where their grammar comes from")
	fmt.Fprintln(w, "  verify [LANG...]        Check manifest artifacts against their sha256 sums")
}

func runGrammarsList(cfg *config.Config, stdout, stderr io.Writer) int {
	loader, err := parser.NewGrammarLoader(cfg.GrammarsPath, cfg.GrammarVerification.IsEnabled())
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("Failed to load grammars: %v", err)))
		return exitFailure
	}

	languages, err := coreapp.BuildLanguages(cfg)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("Invalid language table: %v", err)))
		return exitFailure
	}

	path := cfg.GrammarsPath
	if path == "" {
		path = "(none)"
	}
	fmt.Fprintln(stdout, headerStyle.Render("Grammars path: "+path))

	w := tabwriter.NewWriter(stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tGRAMMAR\tMATCHES")
	for _, tag := range languages.Tags() {
		spec, _ := languages.Spec(tag)
		matches := append(append([]string(nil), spec.Filenames...), spec.Extensions...)
		fmt.Fprintf(w, "%s\t%s\t%s\n", tag, loader.Status(tag), strings.Join(matches, " "))
	}
	if err := w.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}

func runGrammarsVerify(cfg *config.Config, required []string, stdout, stderr io.Writer) int {
	if !cfg.GrammarVerification.IsEnabled() {
		fmt.Fprintln(stdout, "Grammar verification is disabled in config (grammar_verification.enabled=false); no checks were run.")
		return exitOK
	}
	if cfg.GrammarsPath == "" {
		fmt.Fprintln(stdout, "No grammars_path configured; only built-in grammars are in use.")
		return exitOK
	}
	if _, err := os.Stat(filepath.Join(cfg.GrammarsPath, grammar.ManifestFile)); os.IsNotExist(err) {
		fmt.Fprintf(stdout, "No %s in %s; only built-in grammars are in use.\n", grammar.ManifestFile, cfg.GrammarsPath)
		if len(required) > 0 {
			return exitFailure
		}
		return exitOK
	}

	issues, err := grammar.VerifyDirectory(cfg.GrammarsPath, required)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("Grammar verification failed: %v", err)))
		return exitFailure
	}
	if len(issues) == 0 {
		fmt.Fprintln(stdout, successStyle.Render("Grammar verification passed: all manifest artifacts match their checksums and allowed AIB versions."))
		return exitOK
	}
	for _, issue := range issues {
		if issue.ArtifactPath != "" {
			fmt.Fprintf(stdout, "%s: %s (%s)\n", issue.Language, issue.Reason, issue.ArtifactPath)
		} else {
			fmt.Fprintf(stdout, "%s: %s\n", issue.Language, issue.Reason)
		}
	}
	fmt.Fprintln(stdout, errorStyle.Render(fmt.Sprintf("Grammar verification failed: %d issues detected.", len(issues))))
	return exitFailure
}
