package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finlens/internal/conversation"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/tui/components"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

// openAdvisor starts a fresh conversation every time the panel opens.
func (a App) openAdvisor() (tea.Model, tea.Cmd) {
	a.advisor = conversation.New(a.svc.Agent, a.log)

	ti := textinput.New()
	ti.Placeholder = "Ask about your spending…"
	ti.CharLimit = 500
	ti.Prompt = "› "
	a.advisorInput = ti

	a.advisorView = viewport.New(0, 0)
	a.resizeAdvisor()
	a.refreshAdvisorView()
	cmd := a.advisorInput.Focus()
	return a, cmd
}

func (a App) updateAdvisor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.advisor = nil
		return a, nil
	case "enter":
		a.advisor.SetInput(a.advisorInput.Value())
		done, ok := a.advisor.SubmitInput(a.ctx)
		if !ok {
			return a, nil
		}
		a.advisorInput.SetValue("")
		a.refreshAdvisorView()
		id := a.advisor.ID()
		return a, func() tea.Msg {
			<-done
			return advisorDoneMsg{id: id}
		}
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		a.advisorView, cmd = a.advisorView.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.advisorInput, cmd = a.advisorInput.Update(msg)
	return a, cmd
}

// resizeAdvisor fits the transcript viewport to the content area.
func (a *App) resizeAdvisor() {
	if a.advisor == nil {
		return
	}
	cw := a.contentWidth()
	a.advisorView.Width = components.CardInnerWidth(cw)
	a.advisorView.Height = max(a.height-9, 3)
	a.advisorInput.Width = max(cw-10, 10)
	a.refreshAdvisorView()
}

func (a *App) refreshAdvisorView() {
	if a.advisor == nil {
		return
	}
	a.advisorView.SetContent(renderTranscript(a.advisor.Messages(), a.advisor.Loading(), a.advisorView.Width))
	a.advisorView.GotoBottom()
}

func renderTranscript(msgs []model.Message, loading bool, width int) string {
	t := theme.Active
	userStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	botStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(max(width-2, 10))
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if len(msgs) == 0 && !loading {
		return dimStyle.Render("Ask anything about your budget, e.g. \"How can I cut dining costs?\"")
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case m.Role == model.RoleUser:
			b.WriteString(userStyle.Render("You: " + m.Content))
		case strings.HasPrefix(m.Content, "Error: "):
			b.WriteString(errStyle.Render(m.Content))
		default:
			b.WriteString(botStyle.Render(m.Content))
		}
	}
	if loading {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Thinking…"))
	}
	return b.String()
}

func (a App) renderAdvisor(cw, h int) string {
	t := theme.Active
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("enter send · esc close · ↑↓ scroll")

	body := a.advisorView.View() + "\n\n" + a.advisorInput.View() + "\n" + hint
	card := components.ContentCard("Advisor", body, cw)
	return truncateHeight(card, h)
}
