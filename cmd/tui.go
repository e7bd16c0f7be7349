package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/config"
	"github.com/theirongolddev/finlens/internal/logger"
	"github.com/theirongolddev/finlens/internal/tui"
	"github.com/theirongolddev/finlens/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	knownTheme := theme.SetActive(cfg.Appearance.Theme)

	// The TUI owns the terminal, so logs go to the file.
	log, logFile, err := logger.NewFile(config.LogPath(cfg), cfg.Logging.Level)
	if err != nil {
		log = zerolog.Nop()
	} else {
		defer func() { _ = logFile.Close() }()
	}

	if !knownTheme {
		log.Warn().Str("theme", cfg.Appearance.Theme).Msg("unknown theme, using flexoki-dark")
	}

	ctx := logger.WithContext(cmd.Context(), log)
	d, err := openDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(ctx, tui.Services{
		Auth:     d.sessions,
		Profiles: d.profiles,
		Insights: d.backend,
		Agent:    d.backend,
		Currency: cfg.General.Currency,
		Log:      log,
	})
	defer app.Close()

	// Subscribed above; provider callbacks may now arrive.
	d.sessions.Start()

	log.Info().Bool("offline", flagOffline).Msg("tui started")
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
