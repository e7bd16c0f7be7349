package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/tui/components"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

func (a App) renderInsightsTab(cw int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	in := a.data.insights
	if in == nil {
		return components.ContentCard("Insights", a.spinner.View()+dim.Render(" Fetching insights…"), cw)
	}

	var b strings.Builder
	if in.Error != nil {
		b.WriteString(components.ContentCard("Insights", warn.Render("Some insights are unavailable: "+in.Error.Error()), cw))
		b.WriteString("\n")
	}

	inner := components.CardInnerWidth(cw)
	var cards []string
	if in.Fuzzy != nil {
		cards = append(cards, components.ContentCard("Spending Signals", insightRows(pipeline.FuzzyMetrics(*in.Fuzzy), inner), cw))
	}
	if in.Behavior != nil {
		cards = append(cards, components.ContentCard("Behavior", insightRows(pipeline.BehaviorMetrics(*in.Behavior), inner), cw))
	}
	b.WriteString(strings.Join(cards, "\n"))
	return b.String()
}

func insightRows(metrics []model.InsightMetric, width int) string {
	t := theme.Active
	phrase := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Italic(true)

	labelW := 0
	for _, m := range metrics {
		labelW = max(labelW, lipgloss.Width(m.Label))
	}
	// label + bar + " 100% [Medium]"
	barW := max(width-labelW-16, 6)

	rows := make([]string, 0, len(metrics)*2)
	for _, m := range metrics {
		rows = append(rows, components.InsightBar(m, labelW, barW))
		if m.Phrase != "" {
			rows = append(rows, phrase.Render("  "+m.Phrase))
		}
	}
	return strings.Join(rows, "\n")
}
