// Package cmd implements the finlens CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/config"
	"github.com/theirongolddev/finlens/internal/logger"
)

var (
	flagAPIURL   string
	flagLogLevel string
	flagProject  string
	flagOffline  bool

	overlay = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:           "finlens",
	Short:         "Personal finance coach for the terminal",
	Long:          "Track spending against a monthly goal, see behavioral insights, and ask the finance advisor.",
	RunE:          runDashboard,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagAPIURL, "api-url", "", "Analytics and advice API base URL")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagProject, "project", "", "Google Cloud project for the document store")
	pf.BoolVar(&flagOffline, "offline", false, "Use in-memory identity and document stores")

	_ = overlay.BindPFlag("backend.base_url", pf.Lookup("api-url"))
	_ = overlay.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = overlay.BindPFlag("firebase.project_id", pf.Lookup("project"))
}

// loadConfig reads the config file and applies env and flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	config.ApplyOverrides(&cfg, overlay)
	return cfg, nil
}

// consoleLogger is the stderr logger for one-shot commands. Only warnings
// and above are shown unless --log-level or FINLENS_LOGGING_LEVEL asks for
// something else.
func consoleLogger(cfg config.Config) zerolog.Logger {
	level := "warn"
	if overlay.IsSet("logging.level") {
		level = cfg.Logging.Level
	}
	return logger.NewConsole(os.Stderr, level)
}
