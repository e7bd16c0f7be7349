package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/finlens/internal/model"
)

func TestClassifyPercent(t *testing.T) {
	tests := []struct {
		pct  float64
		want model.Tier
	}{
		{0, model.TierLow},
		{34, model.TierLow},
		{34.99, model.TierLow},
		{35, model.TierMedium},
		{59.9, model.TierMedium},
		{60, model.TierHigh},
		{100, model.TierHigh},
		{math.NaN(), model.TierLow},
	}
	for _, tt := range tests {
		if got := ClassifyPercent(tt.pct); got != tt.want {
			t.Errorf("ClassifyPercent(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestClassifyPercent_Monotonic(t *testing.T) {
	prev := ClassifyPercent(0)
	changes := 0
	for p := 0.0; p <= 100; p += 0.25 {
		cur := ClassifyPercent(p)
		if cur < prev {
			t.Fatalf("tier decreased at %v: %v -> %v", p, prev, cur)
		}
		if cur != prev {
			changes++
		}
		prev = cur
	}
	if changes != 2 {
		t.Errorf("expected exactly 2 tier boundaries in [0,100], got %d", changes)
	}
}

func TestFuzzyMetrics(t *testing.T) {
	got := FuzzyMetrics(model.FuzzySummary{
		Overspending: model.RawInsight{Percent: 72, Phrase: "Overspending likelihood is high."},
		MonthHighish: model.RawInsight{Percent: 40, Phrase: "This month's spending is slightly."},
		BudgetRisk:   model.RawInsight{Percent: 10, Phrase: "Budget risk is low."},
	})
	if len(got) != 3 {
		t.Fatalf("got %d metrics, want 3", len(got))
	}
	want := []struct {
		label string
		tier  model.Tier
	}{
		{"Overspending Likelihood", model.TierHigh},
		{"This Month vs Normal", model.TierMedium},
		{"Budget Risk", model.TierLow},
	}
	for i, w := range want {
		if got[i].Label != w.label || got[i].Tier != w.tier {
			t.Errorf("metric %d = %q/%v, want %q/%v", i, got[i].Label, got[i].Tier, w.label, w.tier)
		}
	}
}

func TestBehaviorMetrics_Labels(t *testing.T) {
	got := BehaviorMetrics(model.BehaviorSummary{})
	labels := []string{"Late-night Orders", "Subscription Creep", "Dining Spike", "Impulse Buying"}
	for i, l := range labels {
		if got[i].Label != l {
			t.Errorf("label %d = %q, want %q", i, got[i].Label, l)
		}
		if got[i].Tier != model.TierLow {
			t.Errorf("zero percent should be Low, got %v", got[i].Tier)
		}
	}
	if InsightLabel("unknown_key") != "unknown_key" {
		t.Error("unknown keys should pass through")
	}
}
