package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// renderMarkdown renders markdown content, using glamour for terminal output or plain text otherwise
func renderMarkdown(markdown string, theme string) string {
	// If stdout is a terminal, render styled markdown using glamour
	if term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, err := glamour.Render(markdown, theme)
		if err != nil {
			// Fall back to plain markdown if rendering fails
			return markdown
		}
		return rendered
	}

	// For non-terminal output (pipes, redirects), return plain markdown
	return markdown
}

// printMarkdown renders and prints markdown using the context's theme
func printMarkdown(ctx *CliContext, markdown string) {
	theme := "auto"
	if ctx != nil && ctx.Context != nil && ctx.Context.Rendering.Theme != "" {
		theme = ctx.Context.Rendering.Theme
	}
	fmt.Print(renderMarkdown(markdown, theme))
}
