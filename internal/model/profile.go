package model

import "time"

// Budget is the set of figures collected during onboarding.
type Budget struct {
	MonthlyIncome float64
	SpendingGoal  float64
	CurrentSpend  float64
}

// UserProfile is a user's financial profile as held by the document store.
// Budget is nil until the profile has been onboarded.
type UserProfile struct {
	UserID    string
	Onboarded bool
	Budget    *Budget
	UpdatedAt time.Time
}

// ProfileInput is what the onboarding step submits.
type ProfileInput struct {
	MonthlyIncome float64
	SpendingGoal  float64
	CurrentSpend  float64
}
