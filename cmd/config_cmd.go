package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:    %s\n", cfg.General.Currency)
	fmt.Printf("    State file:  %s\n", config.StateDBPath(cfg))
	fmt.Println()

	fmt.Println("  [Backend]")
	fmt.Printf("    Base URL:    %s\n", cfg.Backend.BaseURL)
	if t := config.RequestTimeout(cfg); t > 0 {
		fmt.Printf("    Timeout:     %s\n", t)
	} else {
		fmt.Println("    Timeout:     none")
	}
	fmt.Println()

	fmt.Println("  [Firebase]")
	if p := config.GetProjectID(cfg); p != "" {
		fmt.Printf("    Project:     %s\n", p)
	} else {
		fmt.Println("    Project:     not configured")
	}
	if key := config.GetAPIKey(cfg); key != "" {
		fmt.Printf("    API key:     %s\n", maskAPIKey(key))
	} else {
		fmt.Println("    API key:     not configured")
	}
	if creds := config.GetCredentialsFile(cfg); creds != "" {
		fmt.Printf("    Credentials: %s\n", creds)
	} else {
		fmt.Println("    Credentials: application default")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level: %s\n", cfg.Logging.Level)
	fmt.Printf("    File:  %s\n", config.LogPath(cfg))
	fmt.Println()

	fmt.Printf("  Edit %s to change these, or override with FINLENS_* variables.\n", config.ConfigPath())
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
