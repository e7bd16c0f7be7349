package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/tui/components"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

const recentLimit = 10

func (a App) renderSpendingTab(cw int) string {
	inner := components.CardInnerWidth(cw)

	title := "Spending by Category"
	if a.data.txLoaded && a.data.txErr == nil {
		title = fmt.Sprintf("Spending by Category · %s total",
			cli.FormatMoney(a.svc.Currency, pipeline.TotalSpend(a.data.txs)))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard(title, a.categoryBody(0, inner), cw))
	b.WriteString("\n")
	if a.data.txLoaded && a.data.txErr == nil {
		b.WriteString(components.ContentCard("Recent Transactions", a.recentBody(inner), cw))
	}
	return b.String()
}

func (a App) recentBody(width int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.data.txs) == 0 {
		return dim.Render("Add one with `finlens tx add <amount> <category>`")
	}

	txs := a.data.txs[:min(recentLimit, len(a.data.txs))]
	noteW := max(width-12-14-12-3, 8)

	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines,
			dim.Render(fmt.Sprintf("%-12s ", cli.Truncate(cli.FormatWhen(tx.CreatedAt), 12)))+
				muted.Render(fmt.Sprintf("%-14s ", cli.Truncate(categoryName(tx), 14)))+
				text.Render(fmt.Sprintf("%12s ", cli.FormatMoney(a.svc.Currency, tx.Amount)))+
				dim.Render(cli.Truncate(tx.Note, noteW)))
	}
	return strings.Join(lines, "\n")
}

func categoryName(tx model.Transaction) string {
	if c := strings.TrimSpace(tx.Category); c != "" {
		return c
	}
	return model.DefaultCategory
}
