package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	hashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

// View renders the visible regions for a terminal. spinner is shown next to
// the loading message. Width 0 disables wrapping.
func View(r Regions, spinner string, width int) string {
	var b strings.Builder

	if r.Loading {
		b.WriteString(spinner)
		b.WriteString(loadingStyle.Render(" Loading digest engine..."))
		b.WriteString("\n")
	}

	if r.LoadError {
		b.WriteString(wrap(errorStyle, width).Render("Engine failed to load: " + r.Message))
		b.WriteString("\n")
	}

	if r.Result {
		b.WriteString(labelStyle.Render("Digest text"))
		b.WriteString("\n")
		b.WriteString(wrap(resultStyle, width).Render(r.Text))
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Digest"))
		b.WriteString("\n")
		b.WriteString(hashStyle.Render(r.Hash))
		b.WriteString("\n")
	}

	if r.Error {
		b.WriteString(wrap(errorStyle, width).Render("Error: " + r.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func wrap(s lipgloss.Style, width int) lipgloss.Style {
	if width > 0 {
		return s.Width(width)
	}
	return s
}
