// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
)

// FormatMoney renders an amount with the currency symbol and thousands
// separators. e.g., ("₹", 12500) -> "₹12,500", ("₹", -300) -> "-₹300"
func FormatMoney(currency string, amount float64) string {
	if amount < 0 {
		return "-" + currency + pipeline.FormatAmount(-amount)
	}
	return currency + pipeline.FormatAmount(amount)
}

// FormatPercent formats a 0-100 value as a whole-number percentage.
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatShare formats a category share with one decimal place.
func FormatShare(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatTier returns the tier badge text, e.g. "[High]".
func FormatTier(t model.Tier) string {
	return "[" + t.String() + "]"
}

// FormatWhen renders a timestamp relative to now for recent events and as a
// date for older ones.
func FormatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if time.Since(t) < 7*24*time.Hour {
		return humanize.Time(t)
	}
	return t.Local().Format("Jan 2, 2006")
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n <= 0 || len(r) <= n {
		return string(r)
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
