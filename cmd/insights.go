package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/backend"
	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/config"
)

var flagMonth string

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Spending signals and behavior patterns for the month",
	RunE:  runInsights,
}

func init() {
	insightsCmd.Flags().StringVar(&flagMonth, "month", "", "Month to analyze as YYYY-MM (default: current)")
	rootCmd.AddCommand(insightsCmd)
}

// newBackend builds the analytics client without touching the identity
// provider or document store.
func newBackend() (*backend.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	return backend.NewClient(cfg.Backend.BaseURL, config.RequestTimeout(cfg), consoleLogger(cfg)), cfg, nil
}

func runInsights(cmd *cobra.Command, _ []string) error {
	client, _, err := newBackend()
	if err != nil {
		return err
	}

	in := client.FetchInsights(cmd.Context(), flagMonth)
	metrics := in.Metrics()
	if len(metrics) == 0 {
		if in.Error != nil {
			return fmt.Errorf("fetching insights: %w", in.Error)
		}
		fmt.Println("\n  No insights available.")
		return nil
	}

	title := "INSIGHTS"
	if flagMonth != "" {
		title += "  " + flagMonth
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Label,
			cli.FormatPercent(m.Percent),
			cli.RenderTier(m.Tier),
			cli.Truncate(m.Phrase, 48),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Signal", "Score", "Tier", "Summary"},
		Rows:    rows,
	}))

	if in.Error != nil {
		fmt.Printf("  %s\n", cli.Warn("Some insights could not be loaded: "+in.Error.Error()))
	}
	return nil
}
