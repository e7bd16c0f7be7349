package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/pipeline"
	"github.com/theirongolddev/finlens/internal/profile"
)

var (
	flagIncome string
	flagGoal   string
	flagSpend  string
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Set your monthly income, spending goal and current spend",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().StringVar(&flagIncome, "income", "", "Monthly income")
	onboardCmd.Flags().StringVar(&flagGoal, "goal", "", "Monthly spending goal")
	onboardCmd.Flags().StringVar(&flagSpend, "spend", "", "Spent so far this month")
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.requireUser(ctx)
	if err != nil {
		return err
	}

	income, goal, spend := flagIncome, flagGoal, flagSpend
	if income == "" || goal == "" {
		// Prefill from the stored budget when there is one.
		if p, err := d.profiles.Get(ctx, s.UserID()); err == nil && p.Budget != nil {
			income = orDefault(income, p.Budget.MonthlyIncome)
			goal = orDefault(goal, p.Budget.SpendingGoal)
			spend = orDefault(spend, p.Budget.CurrentSpend)
		}
		if income, goal, spend, err = promptBudget(income, goal, spend); err != nil {
			return err
		}
	}
	if spend == "" {
		spend = "0"
	}

	in, err := profile.ParseInput(income, goal, spend)
	if err != nil {
		return errors.New(profile.UserMessage(err))
	}
	if err := d.profiles.Save(ctx, s.UserID(), in); err != nil {
		return errors.New(profile.UserMessage(err))
	}

	// Re-read so the summary reflects what the store now holds.
	p, err := d.profiles.Get(ctx, s.UserID())
	if err != nil {
		return errors.New(profile.UserMessage(err))
	}
	stats, err := pipeline.ComputeBudget(p)
	if err != nil {
		return err
	}

	fmt.Println("  Budget saved.")
	fmt.Printf("  %s\n", cli.RenderBudgetBar(stats.PercentUsed, stats.OverBudget, 40))
	fmt.Printf("  %s\n", pipeline.Advice(stats, d.cfg.General.Currency))
	return nil
}

func orDefault(s string, v float64) string {
	if s != "" {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func promptBudget(income, goal, spend string) (string, string, string, error) {
	valid := func(s string) error {
		_, err := profile.ParseInput(s, "0", "0")
		return err
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly income").
				Placeholder("80000").
				Validate(valid).
				Value(&income),
			huh.NewInput().
				Title("Monthly spending goal").
				Placeholder("40000").
				Validate(valid).
				Value(&goal),
			huh.NewInput().
				Title("Spent so far this month").
				Placeholder("0").
				Validate(valid).
				Value(&spend),
		).Title("Set up your budget"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", "", errors.New("cancelled")
		}
		return "", "", "", err
	}
	return income, goal, spend, nil
}
