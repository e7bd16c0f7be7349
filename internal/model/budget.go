package model

// BudgetStats holds the budget figures derived from an onboarded profile.
type BudgetStats struct {
	MonthlyIncome float64
	SpendingGoal  float64
	CurrentSpend  float64

	Remaining      float64
	PercentUsed    int // clamped to 0-100
	RawPercentUsed int // unclamped, used for the overage figure
	OverBudget     bool
	SavingsRate    float64
}

// Overage returns how far past the goal spending has gone, in whole percent.
// Zero unless OverBudget.
func (b BudgetStats) Overage() int {
	if !b.OverBudget {
		return 0
	}
	return b.RawPercentUsed - 100
}
