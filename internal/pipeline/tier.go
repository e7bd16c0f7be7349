package pipeline

import (
	"math"

	"github.com/theirongolddev/finlens/internal/model"
)

// Tier boundaries. A percent below MediumThreshold is Low, below
// HighThreshold is Medium, anything else is High.
const (
	MediumThreshold = 35
	HighThreshold   = 60
)

// ClassifyPercent maps an insight percent to its tier. The same law applies to
// every insight badge. NaN classifies as Low.
func ClassifyPercent(pct float64) model.Tier {
	switch {
	case math.IsNaN(pct), pct < MediumThreshold:
		return model.TierLow
	case pct < HighThreshold:
		return model.TierMedium
	default:
		return model.TierHigh
	}
}

// Insight keys as they appear in the analytics responses.
const (
	KeyOverspending      = "overspending"
	KeyMonthHighish      = "month_highish"
	KeyBudgetRisk        = "budget_risk"
	KeyLateNightOrders   = "late_night_orders"
	KeySubscriptionCreep = "subscription_creep"
	KeyDiningSpike       = "dining_spike"
	KeyImpulseBuying     = "impulse_buying_tendency"
)

var insightLabels = map[string]string{
	KeyOverspending:      "Overspending Likelihood",
	KeyMonthHighish:      "This Month vs Normal",
	KeyBudgetRisk:        "Budget Risk",
	KeyLateNightOrders:   "Late-night Orders",
	KeySubscriptionCreep: "Subscription Creep",
	KeyDiningSpike:       "Dining Spike",
	KeyImpulseBuying:     "Impulse Buying",
}

// InsightLabel returns the display label for an insight key.
func InsightLabel(key string) string {
	if l, ok := insightLabels[key]; ok {
		return l
	}
	return key
}

// NewInsightMetric classifies a backend-supplied percent.
func NewInsightMetric(key string, raw model.RawInsight) model.InsightMetric {
	return model.InsightMetric{
		Key:     key,
		Label:   InsightLabel(key),
		Percent: raw.Percent,
		Phrase:  raw.Phrase,
		Tier:    ClassifyPercent(raw.Percent),
	}
}

// FuzzyMetrics classifies a fuzzy summary in display order.
func FuzzyMetrics(s model.FuzzySummary) []model.InsightMetric {
	return []model.InsightMetric{
		NewInsightMetric(KeyOverspending, s.Overspending),
		NewInsightMetric(KeyMonthHighish, s.MonthHighish),
		NewInsightMetric(KeyBudgetRisk, s.BudgetRisk),
	}
}

// BehaviorMetrics classifies a behavior summary in display order.
func BehaviorMetrics(s model.BehaviorSummary) []model.InsightMetric {
	return []model.InsightMetric{
		NewInsightMetric(KeyLateNightOrders, s.LateNightOrders),
		NewInsightMetric(KeySubscriptionCreep, s.SubscriptionCreep),
		NewInsightMetric(KeyDiningSpike, s.DiningSpike),
		NewInsightMetric(KeyImpulseBuying, s.ImpulseBuyingTendency),
	}
}
