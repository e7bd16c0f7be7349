package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

// CategoryChart renders one horizontal bar per category, scaled to the
// largest amount, followed by the amount and share.
func CategoryChart(shares []model.CategoryShare, currency string, width int) string {
	t := theme.Active
	if len(shares) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No transactions yet")
	}

	labelW := 0
	amountW := 0
	peak := 0.0
	for _, s := range shares {
		labelW = max(labelW, lipgloss.Width(s.Category))
		amountW = max(amountW, lipgloss.Width(cli.FormatMoney(currency, s.Amount)))
		peak = max(peak, s.Amount)
	}
	labelW = min(labelW, 16)

	// label + space + bar + space + amount + space + "100.0%"
	barMax := max(width-labelW-amountW-10, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, s := range shares {
		n := 0
		if peak > 0 {
			n = int(s.Amount / peak * float64(barMax))
		}
		barStyle := lipgloss.NewStyle().Foreground(t.SeriesColor(i)).Background(t.Surface)

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, cli.Truncate(s.Category, labelW))))
		b.WriteString(space.Render(" "))
		b.WriteString(barStyle.Render(strings.Repeat("█", n)))
		b.WriteString(space.Render(strings.Repeat(" ", barMax-n+1)))
		b.WriteString(amountStyle.Render(fmt.Sprintf("%*s", amountW, cli.FormatMoney(currency, s.Amount))))
		b.WriteString(space.Render(" "))
		b.WriteString(pctStyle.Render(fmt.Sprintf("%6s", cli.FormatShare(s.Percentage))))
		if i < len(shares)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
