package model

// Tier is the qualitative bucket an insight percent falls into.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	}
	return "Unknown"
}

// InsightMetric is a backend-scored percent with its phrase and derived tier.
type InsightMetric struct {
	Key     string
	Label   string
	Percent float64
	Phrase  string
	Tier    Tier
}

// RawInsight is one {percent, phrase} pair as returned by the analytics API.
type RawInsight struct {
	Percent float64 `json:"percent"`
	Phrase  string  `json:"phrase"`
}

// FuzzySummary is the response of the fuzzy-summary endpoint.
type FuzzySummary struct {
	Overspending RawInsight `json:"overspending"`
	MonthHighish RawInsight `json:"month_highish"`
	BudgetRisk   RawInsight `json:"budget_risk"`
}

// BehaviorSummary is the response of the behavior-summary endpoint.
type BehaviorSummary struct {
	LateNightOrders       RawInsight `json:"late_night_orders"`
	SubscriptionCreep     RawInsight `json:"subscription_creep"`
	DiningSpike           RawInsight `json:"dining_spike"`
	ImpulseBuyingTendency RawInsight `json:"impulse_buying_tendency"`
}

// AgentReply is the response of the agent endpoint.
type AgentReply struct {
	Prompt      string           `json:"prompt"`
	Suggestions []string         `json:"suggestions"`
	Fuzzy       *FuzzySummary    `json:"fuzzy,omitempty"`
	Behavior    *BehaviorSummary `json:"behavior,omitempty"`
}
