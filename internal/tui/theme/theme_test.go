package theme

import "testing"

func TestByNameFallsBack(t *testing.T) {
	if got, ok := ByName("terminal"); !ok || got.Name != "terminal" {
		t.Fatalf("ByName(terminal) = %s, %v", got.Name, ok)
	}
	if got, ok := ByName("tokyo-night"); ok || got.Name != FlexokiDark.Name {
		t.Fatalf("unknown theme = %s, %v, want %s", got.Name, ok, FlexokiDark.Name)
	}
}

func TestSetActive(t *testing.T) {
	t.Cleanup(func() { Active = FlexokiDark })

	if !SetActive("terminal") || Active.Name != "terminal" {
		t.Fatalf("SetActive(terminal) left %s", Active.Name)
	}
	if SetActive("solarized") {
		t.Fatal("SetActive(solarized) reported a known theme")
	}
	if Active.Name != FlexokiDark.Name {
		t.Fatalf("Active = %s after unknown name, want %s", Active.Name, FlexokiDark.Name)
	}
}

func TestTierAndBudgetColors(t *testing.T) {
	th := FlexokiDark
	if th.Tier(TierHigh) != th.Red || th.Tier(TierMedium) != th.Yellow || th.Tier(TierLow) != th.Green {
		t.Fatal("tier colors do not follow the low/medium/high scale")
	}
	if th.Budget(40, true) != th.Red {
		t.Fatal("over budget should be red regardless of percent")
	}
	if th.Budget(85, false) != th.Orange {
		t.Fatal("85% used should be orange")
	}
	if th.Budget(10, false) != th.Green {
		t.Fatal("10% used should be green")
	}
}

func TestSeriesColorWraps(t *testing.T) {
	th := FlexokiDark
	if th.SeriesColor(len(th.Series)) != th.Series[0] {
		t.Fatal("series colors should wrap")
	}
	if (Theme{Accent: "9"}).SeriesColor(3) != "9" {
		t.Fatal("empty series should fall back to the accent")
	}
}
