// Package tui provides the interactive Bubble Tea client for finlens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finlens/internal/backend"
	"github.com/theirongolddev/finlens/internal/conversation"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/route"
	"github.com/theirongolddev/finlens/internal/session"
	"github.com/theirongolddev/finlens/internal/tui/components"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

// Auth is the session surface the app drives.
type Auth interface {
	Current() session.Session
	Flagged() bool
	Subscribe(fn func(session.Session)) (cancel func())
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// Profiles reads and writes the user's profile and transactions.
type Profiles interface {
	Get(ctx context.Context, userID string) (model.UserProfile, error)
	Save(ctx context.Context, userID string, in model.ProfileInput) error
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

// InsightSource fetches both insight summaries.
type InsightSource interface {
	FetchInsights(ctx context.Context, month string) *backend.Insights
}

// Services bundles the app's collaborators.
type Services struct {
	Auth     Auth
	Profiles Profiles
	Insights InsightSource
	Agent    conversation.Agent
	Currency string
	Log      zerolog.Logger
}

// sessionMsg carries a new Session value from the manager subscription.
type sessionMsg struct{ s session.Session }

// profileMsg is the result of one gate fetch.
type profileMsg struct {
	fetch   route.Fetch
	profile model.UserProfile
	err     error
}

// transactionsMsg is the result of a transaction load for userID.
type transactionsMsg struct {
	userID string
	txs    []model.Transaction
	err    error
}

// insightsMsg is the result of an insight fetch for userID.
type insightsMsg struct {
	userID string
	data   *backend.Insights
}

type authDoneMsg struct{ err error }

type profileSavedMsg struct{ err error }

type signedOutMsg struct{ err error }

// advisorDoneMsg reports that the conversation id received its reply.
type advisorDoneMsg struct{ id string }

// dashData is what the dashboard tabs render for one user.
type dashData struct {
	userID string

	txs       []model.Transaction
	shares    []model.CategoryShare
	txErr     error
	txLoaded  bool
	txLoading bool

	insights        *backend.Insights
	insightsLoading bool

	updatedAt time.Time
}

// App is the root Bubble Tea model.
type App struct {
	svc  Services
	ctx  context.Context
	log  zerolog.Logger
	gate *route.Gate

	// Session subscription; values are delivered in order through sessCh.
	sessCh      chan session.Session
	unsubscribe func()

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string

	spinner spinner.Model

	// Login (huh form)
	loginForm *huh.Form
	loginVals *loginValues
	loginBusy bool

	// Onboarding (huh form)
	onboardForm *huh.Form
	onboardVals *onboardValues
	onboardBusy bool

	data dashData

	// Advisor panel
	advisor      *conversation.Session
	advisorInput textinput.Model
	advisorView  viewport.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160

	minContentHeight = 5
	requestTimeout   = 30 * time.Second
)

// dashboardRoutes maps tab index to the route whose data it needs.
var dashboardRoutes = []route.Route{route.RouteDashboard, route.RouteSpending, route.RouteInsights}

// NewApp creates the app and subscribes it to session changes. Start the
// session manager after this so the first callback is not missed.
func NewApp(ctx context.Context, svc Services) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	if svc.Currency == "" {
		svc.Currency = "₹"
	}

	ch := make(chan session.Session, 16)
	unsub := svc.Auth.Subscribe(func(s session.Session) { ch <- s })

	gate := route.NewGate()
	gate.SetFlagged(svc.Auth.Flagged())

	a := App{
		svc:         svc,
		ctx:         ctx,
		log:         svc.Log.With().Str("component", "tui").Logger(),
		gate:        gate,
		sessCh:      ch,
		unsubscribe: unsub,
		spinner:     sp,
		loginVals:   &loginValues{},
		onboardVals: &onboardValues{},
	}
	if gate.View() == route.ViewLogin {
		a.loginForm = newLoginForm(a.loginVals)
	}
	return a
}

// Close releases the session subscription.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Init implements tea.Model. The snapshot may land after newer values from
// the subscription; the gate drops it by version.
func (a App) Init() tea.Cmd {
	cur := a.svc.Auth.Current()
	var formInit tea.Cmd
	if a.loginForm != nil {
		formInit = a.loginForm.Init()
	}
	return tea.Batch(
		tea.EnableMouseCellMotion,
		formInit,
		a.spinner.Tick,
		func() tea.Msg { return sessionMsg{cur} },
		waitForSession(a.sessCh),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(formWidth(msg.Width))
		}
		if a.onboardForm != nil {
			a.onboardForm = a.onboardForm.WithWidth(formWidth(msg.Width))
		}
		a.resizeAdvisor()
		return a, nil

	case sessionMsg:
		return a.observe(msg.s)

	case profileMsg:
		if !a.gate.Resolve(msg.fetch, msg.profile, msg.err) {
			a.log.Debug().Str("fetch_id", msg.fetch.ID).Msg("discarding stale profile result")
			return a, nil
		}
		if msg.err != nil {
			a.log.Warn().Err(msg.err).Str("user_id", msg.fetch.UserID).Msg("profile fetch failed")
		}
		return a.enterView()

	case transactionsMsg:
		if msg.userID != a.data.userID {
			return a, nil
		}
		a.data.txLoading = false
		a.data.txLoaded = true
		a.data.txErr = msg.err
		if msg.err == nil {
			a.data.txs = msg.txs
			a.data.shares = pipeline.AggregateCategories(msg.txs)
			a.data.updatedAt = time.Now()
		}
		return a, nil

	case insightsMsg:
		if msg.userID != a.data.userID {
			return a, nil
		}
		a.data.insightsLoading = false
		a.data.insights = msg.data
		return a, nil

	case authDoneMsg:
		a.loginBusy = false
		if msg.err != nil {
			a.loginVals.Password = ""
			a.loginVals.Message = session.UserMessage(msg.err)
			return a.startLogin()
		}
		a.loginVals.Message = ""
		// The session callback moves the gate on.
		return a, nil

	case profileSavedMsg:
		a.onboardBusy = false
		if msg.err != nil {
			a.onboardVals.Message = profile.UserMessage(msg.err)
			return a.startOnboarding()
		}
		a.onboardVals = &onboardValues{}
		a.onboardForm = nil
		return a, a.runFetch(a.gate.Reevaluate())

	case signedOutMsg:
		if msg.err != nil {
			a.notice = "Sign out failed: " + msg.err.Error()
		}
		return a, nil

	case advisorDoneMsg:
		if a.advisor != nil && a.advisor.ID() == msg.id {
			a.refreshAdvisorView()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.gate.View() {
		case route.ViewLogin:
			if a.loginForm != nil && !a.loginBusy {
				return a.updateLoginForm(msg)
			}
			return a, nil
		case route.ViewOnboarding:
			if a.onboardForm != nil && !a.onboardBusy {
				return a.updateOnboardForm(msg)
			}
			return a, nil
		case route.ViewDashboard:
			return a.updateDashboardKeys(msg)
		}
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Forward everything else (cursor blinks etc.) to the active form.
	switch {
	case a.loginForm != nil && a.gate.View() == route.ViewLogin:
		return a.updateLoginForm(msg)
	case a.onboardForm != nil && a.gate.View() == route.ViewOnboarding:
		return a.updateOnboardForm(msg)
	case a.advisor != nil:
		var cmd tea.Cmd
		a.advisorInput, cmd = a.advisorInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

// observe feeds a session value to the gate and starts the resulting fetch.
func (a App) observe(s session.Session) (tea.Model, tea.Cmd) {
	next := waitForSession(a.sessCh)

	fetch := a.gate.Observe(s)
	if a.gate.UserID() != a.data.userID {
		a.data = dashData{userID: a.gate.UserID()}
		a.advisor = nil
		a.notice = ""
		a.onboardVals = &onboardValues{}
	}
	m, cmd := a.enterView()
	return m, tea.Batch(next, cmd, a.runFetch(fetch))
}

// enterView prepares the state the current view needs.
func (a App) enterView() (tea.Model, tea.Cmd) {
	switch a.gate.View() {
	case route.ViewLogin:
		a.onboardForm = nil
		if a.loginForm == nil && !a.loginBusy {
			return a.startLogin()
		}
	case route.ViewOnboarding:
		a.loginForm = nil
		a.loginVals = &loginValues{}
		if err := a.gate.Err(); err != nil {
			a.onboardVals.Message = profile.UserMessage(err)
		}
		if a.onboardForm == nil && !a.onboardBusy {
			return a.startOnboarding()
		}
	case route.ViewDashboard:
		a.loginForm = nil
		a.onboardForm = nil
		a.loginVals = &loginValues{}
		cmd := a.loadTab()
		return a, cmd
	}
	return a, nil
}

// loadTab starts whatever the active tab's route requires and has not been
// loaded yet.
func (a *App) loadTab() tea.Cmd {
	req := route.Requires(dashboardRoutes[a.activeTab])
	var cmds []tea.Cmd
	if req.Transactions && !a.data.txLoaded && !a.data.txLoading {
		a.data.txLoading = true
		cmds = append(cmds, a.loadTransactions())
	}
	if req.Insights && a.data.insights == nil && !a.data.insightsLoading {
		a.data.insightsLoading = true
		cmds = append(cmds, a.loadInsights())
	}
	return tea.Batch(cmds...)
}

func (a App) updateDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.advisor != nil {
		return a.updateAdvisor(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "a":
		return a.openAdvisor()
	case "L":
		a.notice = ""
		return a, a.signOut()
	case "r":
		a.notice = ""
		a.data = dashData{userID: a.data.userID}
		return a, a.runFetch(a.gate.Reevaluate())
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	cmd := a.loadTab()
	return a, cmd
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.gate.View() != route.ViewDashboard || a.showHelp {
		return a, nil
	}
	if a.advisor != nil {
		var cmd tea.Cmd
		a.advisorView, cmd = a.advisorView.Update(msg)
		return a, cmd
	}
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
		if tab := a.tabAtX(msg.X); tab >= 0 {
			a.activeTab = tab
			cmd := a.loadTab()
			return a, cmd
		}
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	switch a.gate.View() {
	case route.ViewLogin:
		if a.loginBusy {
			return a.viewBusy("Signing in…")
		}
		if a.loginForm == nil {
			return a.viewBusy("Checking your session…")
		}
		return a.viewForm(a.loginForm.View())
	case route.ViewOnboarding:
		if a.onboardBusy || a.onboardForm == nil {
			return a.viewBusy("Saving your budget…")
		}
		return a.viewForm(a.onboardForm.View())
	case route.ViewDashboard:
		if a.showHelp {
			return a.viewHelp()
		}
		return a.viewMain()
	}
	return a.viewBusy("Checking your session…")
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finlens needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

// viewBusy renders the centered loading card.
func (a App) viewBusy(label string) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finlens"))
	b.WriteString(subtitleStyle.Render(" · Budget Coach"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" " + label))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm(form string) string {
	t := theme.Active
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Render("◈ finlens")
	body := lipgloss.JoinVertical(lipgloss.Left, logo, "", form)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Key).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"o s i", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"a", "Ask the advisor"},
		{"r", "Refresh data"},
		{"L", "Sign out"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	status := components.StatusInfo{
		Hints:   "[a]dvisor  [r]efresh  [L]ogout  [?]help  [q]uit",
		Busy:    a.data.txLoading || a.data.insightsLoading,
		Message: a.notice,
	}
	if s := a.svc.Auth.Current(); s.Identity != nil {
		status.Email = s.Identity.Email
	}
	if !a.data.updatedAt.IsZero() {
		status.Age = "updated " + a.data.updatedAt.Format("15:04")
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	if a.advisor != nil {
		content = a.renderAdvisor(cw, contentH)
	} else {
		switch a.activeTab {
		case 0:
			content = a.renderOverviewTab(cw)
		case 1:
			content = a.renderSpendingTab(cw)
		case 2:
			content = a.renderInsightsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// waitForSession blocks until the next session value arrives.
func waitForSession(ch <-chan session.Session) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg{s}
	}
}

func (a App) runFetch(f *route.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	fetch := *f
	profiles := a.svc.Profiles
	parent := a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		p, err := profiles.Get(ctx, fetch.UserID)
		return profileMsg{fetch: fetch, profile: p, err: err}
	}
}

func (a App) loadTransactions() tea.Cmd {
	userID := a.data.userID
	profiles := a.svc.Profiles
	parent := a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		txs, err := profiles.Transactions(ctx, userID)
		return transactionsMsg{userID: userID, txs: txs, err: err}
	}
}

func (a App) loadInsights() tea.Cmd {
	userID := a.data.userID
	src := a.svc.Insights
	parent := a.ctx
	return func() tea.Msg {
		return insightsMsg{userID: userID, data: src.FetchInsights(parent, "")}
	}
}

func (a App) signOut() tea.Cmd {
	auth := a.svc.Auth
	parent := a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		return signedOutMsg{err: auth.SignOut(ctx)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
