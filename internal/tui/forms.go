package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/session"
)

// loginValues backs the login form. It is a pointer so the form keeps
// writing into the same values while App is copied by Update.
type loginValues struct {
	Email    string
	Password string
	Create   bool
	Message  string
}

// onboardValues backs the onboarding form.
type onboardValues struct {
	Income  string
	Goal    string
	Spend   string
	Message string
}

func formWidth(termWidth int) int {
	return min(max(termWidth-10, 40), 60)
}

func newLoginForm(v *loginValues) *huh.Form {
	fields := []huh.Field{}
	if v.Message != "" {
		fields = append(fields, huh.NewNote().Title("⚠ "+v.Message))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&v.Email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&v.Password),
		huh.NewConfirm().
			Title("Account").
			Affirmative("Create account").
			Negative("Sign in").
			Value(&v.Create),
	)

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Sign in to finlens").
			Description("Track spending against your monthly goal."),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func newOnboardForm(v *onboardValues) *huh.Form {
	fields := []huh.Field{}
	if v.Message != "" {
		fields = append(fields, huh.NewNote().Title("⚠ "+v.Message))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Monthly income").
			Placeholder("80000").
			Validate(validAmount).
			Value(&v.Income),
		huh.NewInput().
			Title("Monthly spending goal").
			Placeholder("40000").
			Validate(validAmount).
			Value(&v.Goal),
		huh.NewInput().
			Title("Spent so far this month").
			Placeholder("0").
			Validate(validAmount).
			Value(&v.Spend),
	)

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Set up your budget").
			Description("You can change these later with `finlens onboard`."),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// validAmount checks one onboarding field in isolation.
func validAmount(s string) error {
	_, err := profile.ParseInput(s, "0", "0")
	return err
}

func (a App) startLogin() (tea.Model, tea.Cmd) {
	a.loginForm = newLoginForm(a.loginVals)
	if a.width > 0 {
		a.loginForm = a.loginForm.WithWidth(formWidth(a.width))
	}
	return a, a.loginForm.Init()
}

func (a App) startOnboarding() (tea.Model, tea.Cmd) {
	a.onboardForm = newOnboardForm(a.onboardVals)
	if a.width > 0 {
		a.onboardForm = a.onboardForm.WithWidth(formWidth(a.width))
	}
	return a, a.onboardForm.Init()
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	switch a.loginForm.State {
	case huh.StateCompleted:
		v := a.loginVals
		if err := session.ValidateCredentials(v.Email, v.Password); err != nil {
			v.Message = session.UserMessage(err)
			return a.startLogin()
		}
		a.loginForm = nil
		a.loginBusy = true
		return a, a.authenticate(strings.TrimSpace(v.Email), v.Password, v.Create)
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func (a App) updateOnboardForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.onboardForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.onboardForm = f
	}

	switch a.onboardForm.State {
	case huh.StateCompleted:
		v := a.onboardVals
		in, err := profile.ParseInput(v.Income, v.Goal, v.Spend)
		if err != nil {
			v.Message = profile.UserMessage(err)
			return a.startOnboarding()
		}
		a.onboardForm = nil
		a.onboardBusy = true

		userID := a.gate.UserID()
		profiles := a.svc.Profiles
		parent := a.ctx
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(parent, requestTimeout)
			defer cancel()
			return profileSavedMsg{err: profiles.Save(ctx, userID, in)}
		}
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func (a App) authenticate(email, password string, create bool) tea.Cmd {
	auth := a.svc.Auth
	parent := a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		if create {
			return authDoneMsg{err: auth.SignUp(ctx, email, password)}
		}
		return authDoneMsg{err: auth.SignIn(ctx, email, password)}
	}
}
