package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/tui/components"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	cur := a.svc.Currency

	p, ok := a.gate.Profile()
	if !ok {
		return components.ContentCard("Budget", "Profile not loaded", cw)
	}
	stats, err := pipeline.ComputeBudget(p)
	if err != nil {
		return components.ContentCard("Budget", "Finish onboarding to see your budget", cw)
	}

	remainingColor := t.Green
	if stats.Remaining < 0 {
		remainingColor = t.Red
	}

	metrics := []components.Metric{
		{Label: "Monthly Income", Value: cli.FormatMoney(cur, stats.MonthlyIncome),
			Note: fmt.Sprintf("saving %.0f%%", stats.SavingsRate)},
		{Label: "Spending Goal", Value: cli.FormatMoney(cur, stats.SpendingGoal)},
		{Label: "Spent", Value: cli.FormatMoney(cur, stats.CurrentSpend),
			Note: fmt.Sprintf("%d%% of goal", stats.PercentUsed)},
		{Label: "Remaining", Value: cli.FormatMoney(cur, stats.Remaining), Color: remainingColor},
	}
	if a.isCompactLayout() {
		metrics[0].Note = ""
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	adviceStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	if stats.OverBudget {
		adviceStyle = adviceStyle.Foreground(t.Orange)
	}
	inner := components.CardInnerWidth(cw)
	budget := components.BudgetBar(stats.PercentUsed, stats.OverBudget, inner) + "\n" +
		adviceStyle.Width(inner).Render(pipeline.Advice(stats, cur))
	b.WriteString(components.ContentCard("This Month", budget, cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Top Categories", a.categoryBody(5, inner), cw))
	return b.String()
}

// categoryBody renders the category chart, or the load state when there is
// nothing to chart yet.
func (a App) categoryBody(limit, width int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	switch {
	case a.data.txLoading && !a.data.txLoaded:
		return a.spinner.View() + dim.Render(" Loading transactions…")
	case a.data.txErr != nil:
		return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render(profile.UserMessage(a.data.txErr))
	}
	return components.CategoryChart(pipeline.TopCategories(a.data.shares, limit), a.svc.Currency, width)
}
