package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/session"
)

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuth(cmd, false)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuth(cmd, true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved sign-in",
	RunE:  runLogout,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "Account email")
		c.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	}
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd)
}

func runAuth(cmd *cobra.Command, create bool) error {
	email, password := strings.TrimSpace(flagEmail), flagPassword
	if email == "" || password == "" {
		var err error
		email, password, err = promptCredentials(email, create)
		if err != nil {
			return err
		}
	}

	if err := session.ValidateCredentials(email, password); err != nil {
		return errors.New(session.UserMessage(err))
	}

	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	if _, err := d.currentSession(ctx); err != nil {
		return err
	}

	if create {
		err = d.sessions.SignUp(ctx, email, password)
	} else {
		err = d.sessions.SignIn(ctx, email, password)
	}
	if err != nil {
		d.log.Debug().Err(err).Msg("authentication failed")
		return errors.New(session.UserMessage(err))
	}

	if err := waitForStatus(ctx, d, session.StatusAuthenticated); err != nil {
		return err
	}

	verb := "Signed in"
	if create {
		verb = "Account created. Signed in"
	}
	fmt.Printf("  %s as %s\n", verb, email)
	fmt.Println("  Run `finlens` for your budget summary or `finlens tui` for the dashboard.")
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.currentSession(ctx)
	if err != nil {
		return err
	}
	if s.Status != session.StatusAuthenticated {
		fmt.Println("  Not signed in.")
		return nil
	}

	if err := d.sessions.SignOut(ctx); err != nil {
		// The local flag is already cleared; the provider will catch up.
		d.log.Warn().Err(err).Msg("provider sign-out failed")
	}
	fmt.Printf("  Signed out %s\n", s.Identity.Email)
	return nil
}

// waitForStatus blocks until the manager reports want, so the sign-in has
// been persisted before the process exits.
func waitForStatus(ctx context.Context, d *deps, want session.Status) error {
	reached := make(chan struct{})
	cancel := d.sessions.Subscribe(func(s session.Session) {
		if s.Status == want {
			select {
			case <-reached:
			default:
				close(reached)
			}
		}
	})
	defer cancel()

	if d.sessions.Current().Status == want {
		return nil
	}

	ctx, stop := context.WithTimeout(ctx, sessionWait)
	defer stop()
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session to become %s: %w", want, ctx.Err())
	}
}

func promptCredentials(email string, create bool) (string, string, error) {
	var password string
	title := "Sign in to finlens"
	if create {
		title = "Create a finlens account"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		).Title(title),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", errors.New("cancelled")
		}
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}
