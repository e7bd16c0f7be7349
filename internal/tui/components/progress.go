package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

// BudgetBar renders spending goal usage. pct is the clamped percent used.
func BudgetBar(pct int, over bool, width int) string {
	t := theme.Active
	pct = min(100, max(0, pct))
	color := t.Budget(pct, over)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width-6, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(float64(pct)/100) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3d%%", pct))
}

// TierBadge renders "[Low]", "[Medium]" or "[High]" in the tier color.
func TierBadge(tier model.Tier) string {
	t := theme.Active
	return lipgloss.NewStyle().
		Foreground(t.Tier(int(tier))).
		Background(t.Surface).
		Bold(true).
		Render("[" + tier.String() + "]")
}

// InsightBar renders one insight row: label, percent bar, percent and tier.
func InsightBar(m model.InsightMetric, labelW, barWidth int) string {
	t := theme.Active
	color := t.Tier(int(m.Tier))

	frac := min(1, max(0, m.Percent/100))
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, m.Label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(frac) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", m.Percent)) +
		spaceStyle.Render(" ") +
		TierBadge(m.Tier)
}
