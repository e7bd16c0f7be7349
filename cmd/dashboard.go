package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/route"
	"github.com/theirongolddev/finlens/internal/session"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Budget summary and top spending categories",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// setup loads config and wires dependencies for a one-shot command.
func setup(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openDeps(cmd.Context(), cfg, consoleLogger(cfg))
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	var (
		s    session.Session
		p    model.UserProfile
		view = route.ViewLogin
	)
	if !d.needsLogin(route.RouteDashboard) {
		if s, err = d.currentSession(ctx); err != nil {
			return err
		}
		view, p, err = route.Resolve(ctx, s, d.profiles)
	}
	switch view {
	case route.ViewLogin:
		fmt.Println("\n  You're not signed in.")
		fmt.Println("  Run `finlens login` or `finlens signup` to get started.")
		return nil
	case route.ViewOnboarding:
		if err != nil {
			fmt.Printf("\n  %s\n", cli.Warn(profile.UserMessage(err)))
		}
		fmt.Println("\n  Your budget isn't set up yet.")
		fmt.Println("  Run `finlens onboard` to enter your income and spending goal.")
		return nil
	case route.ViewDashboard:
	default:
		return fmt.Errorf("unexpected view %s", view)
	}

	stats, err := pipeline.ComputeBudget(p)
	if err != nil {
		return err
	}
	cur := d.cfg.General.Currency

	fmt.Println()
	fmt.Println(cli.RenderTitle("FINLENS  " + s.Identity.Email))
	fmt.Println()

	rows := [][]string{
		{"Monthly Income", cli.FormatMoney(cur, stats.MonthlyIncome)},
		{"Spending Goal", cli.FormatMoney(cur, stats.SpendingGoal)},
		{"Spent", cli.FormatMoney(cur, stats.CurrentSpend)},
		{"Remaining", cli.FormatMoney(cur, stats.Remaining)},
		{"---"},
		{"Budget Used", fmt.Sprintf("%d%%", stats.PercentUsed)},
		{"Savings Rate", cli.FormatShare(stats.SavingsRate)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Printf("  %s\n", cli.RenderBudgetBar(stats.PercentUsed, stats.OverBudget, 40))
	advice := pipeline.Advice(stats, cur)
	if stats.OverBudget {
		advice = cli.Warn(advice)
	}
	fmt.Printf("  %s\n\n", advice)

	txs, err := d.profiles.Transactions(ctx, s.UserID())
	if err != nil {
		fmt.Printf("  %s\n", cli.Warn(profile.UserMessage(err)))
		return nil
	}
	top := pipeline.TopCategories(pipeline.AggregateCategories(txs), 5)
	if len(top) == 0 {
		fmt.Println(cli.Muted("  No transactions yet. Add one with `finlens tx add`."))
		return nil
	}

	catRows := make([][]string, 0, len(top))
	for _, c := range top {
		catRows = append(catRows, []string{c.Category, cli.FormatMoney(cur, c.Amount), cli.FormatShare(c.Percentage)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Top Categories",
		Headers: []string{"Category", "Spent", "Share"},
		Rows:    catRows,
	}))
	return nil
}
