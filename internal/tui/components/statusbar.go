package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/tui/theme"
)

// StatusInfo is what the bottom bar shows.
type StatusInfo struct {
	Email   string
	Hints   string
	Busy    bool
	Message string // error or notice, shown in warning color
	Age     string // e.g. "updated 2 minutes ago"
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Surface)
	hintStyle := base.Foreground(t.TextMuted)
	userStyle := base.Foreground(t.Accent).Bold(true)
	warnStyle := base.Foreground(t.Orange)
	dimStyle := base.Foreground(t.TextDim)

	hints := info.Hints
	if hints == "" {
		hints = "[?]help  [q]uit"
	}
	left := hintStyle.Render(" " + hints)
	if info.Message != "" {
		left += hintStyle.Render("  ") + warnStyle.Render(info.Message)
	}

	var right string
	switch {
	case info.Busy:
		right = dimStyle.Render("refreshing… ")
	case info.Age != "":
		right = dimStyle.Render(info.Age + " ")
	}
	if info.Email != "" {
		right += userStyle.Render(info.Email + " ")
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + right
}
