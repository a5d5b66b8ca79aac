package cli

import (
	"fmt"
	"io"

	coreapp "autosg/internal/core/app"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)

func printAnnotateSummary(w io.Writer, summary coreapp.AnnotateSummary) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Annotated %d file(s), %d identifier(s).", summary.Files, summary.Identifiers)))
	if len(summary.Skipped) > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("Skipped %d file(s):", len(summary.Skipped))))
		for _, f := range summary.Skipped {
			fmt.Fprintf(w, "  %s: %v\n", f.Path, f.Err)
		}
	}
	if len(summary.Failed) > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Failed %d file(s):", len(summary.Failed))))
		for _, f := range summary.Failed {
			fmt.Fprintf(w, "  %s: %v\n", f.Path, f.Err)
		}
	}
}
