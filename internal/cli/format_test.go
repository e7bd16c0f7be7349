package cli

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/finlens/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{12500, "₹12,500"},
		{1234567.6, "₹1,234,568"},
		{-300, "-₹300"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney("₹", tt.amount), "amount %v", tt.amount)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "72%", FormatPercent(72.4))
	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "-", FormatPercent(math.NaN()))
}

func TestFormatTier(t *testing.T) {
	assert.Equal(t, "[Low]", FormatTier(model.TierLow))
	assert.Equal(t, "[High]", FormatTier(model.TierHigh))
}

func TestFormatWhen(t *testing.T) {
	assert.Equal(t, "-", FormatWhen(time.Time{}))
	old := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "Mar 5, 2024", FormatWhen(old))
	assert.True(t, strings.HasSuffix(FormatWhen(time.Now().Add(-2*time.Hour)), "ago"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "groceries", Truncate("groceries", 12))
	assert.Equal(t, "subscrip…", Truncate("subscriptions", 9))
	assert.Equal(t, "…", Truncate("dining", 1))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Amount"},
		Rows:    [][]string{{"Food", "₹1,200"}, {"---"}, {"Total", "₹1,200"}},
	})
	assert.Contains(t, out, "Category")
	assert.Contains(t, out, "Food")
	assert.Equal(t, 7, strings.Count(out, "\n"))
}

func TestRenderBudgetBar(t *testing.T) {
	out := RenderBudgetBar(150, true, 10)
	assert.True(t, strings.HasSuffix(out, "100%"))
	assert.Equal(t, "", RenderBudgetBar(50, false, 0))
}
