package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/theirongolddev/finlens/internal/model"
)

// ErrNotOnboarded is returned when budget figures are requested for a profile
// that has not completed onboarding.
var ErrNotOnboarded = errors.New("pipeline: profile is not onboarded")

// maxRawPercent caps the unclamped percent so tiny goals cannot overflow int.
const maxRawPercent = math.MaxInt32

// ComputeBudget derives the budget figures for an onboarded profile.
//
// PercentUsed is clamped to 100 while RawPercentUsed keeps the unclamped value
// so the overage can be reported. A zero spending goal reads as 100% used when
// anything has been spent and 0% otherwise.
func ComputeBudget(p model.UserProfile) (model.BudgetStats, error) {
	if !p.Onboarded || p.Budget == nil {
		return model.BudgetStats{}, ErrNotOnboarded
	}
	b := p.Budget

	stats := model.BudgetStats{
		MonthlyIncome: b.MonthlyIncome,
		SpendingGoal:  b.SpendingGoal,
		CurrentSpend:  b.CurrentSpend,
		Remaining:     b.SpendingGoal - b.CurrentSpend,
		OverBudget:    b.CurrentSpend > b.SpendingGoal,
	}

	switch {
	case b.SpendingGoal > 0:
		stats.RawPercentUsed = int(math.Round(min(b.CurrentSpend/b.SpendingGoal*100, maxRawPercent)))
	case b.CurrentSpend > 0:
		stats.RawPercentUsed = 100
	}
	stats.PercentUsed = min(100, max(0, stats.RawPercentUsed))

	if b.MonthlyIncome > 0 {
		stats.SavingsRate = (b.MonthlyIncome - b.CurrentSpend) / b.MonthlyIncome * 100
	}

	return stats, nil
}

// Advice returns the advisory phrase shown next to the budget figures.
func Advice(b model.BudgetStats, currency string) string {
	if b.OverBudget {
		return fmt.Sprintf("You're %d%% over budget. Consider reviewing your top spending categories.", b.Overage())
	}
	msg := fmt.Sprintf("You've used %d%% of your budget.", b.PercentUsed)
	if b.Remaining > 0 {
		msg += fmt.Sprintf(" %s%s remaining this month.", currency, FormatAmount(b.Remaining))
	}
	return msg
}

// FormatAmount renders a money amount rounded to whole units with thousands
// separators, e.g. 12500.4 -> "12,500".
func FormatAmount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
