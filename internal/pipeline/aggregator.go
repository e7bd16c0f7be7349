// Package pipeline derives budget, spending and insight figures from profile
// and transaction data. Everything here is pure.
package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/theirongolddev/finlens/internal/model"
)

// AggregateCategories groups transactions by category and computes each
// group's share of total spend. Missing categories fall under
// model.DefaultCategory and non-finite amounts count as zero. When total
// spend is zero every percentage is zero.
//
// Rows are ordered by amount descending, then by category name.
func AggregateCategories(txs []model.Transaction) []model.CategoryShare {
	catMap := make(map[string]*model.CategoryShare)

	var total float64
	for _, t := range txs {
		amount := finiteOrZero(t.Amount)
		cat := categoryOf(t)

		cs, ok := catMap[cat]
		if !ok {
			cs = &model.CategoryShare{Category: cat}
			catMap[cat] = cs
		}
		cs.Amount += amount
		total += amount
	}

	result := make([]model.CategoryShare, 0, len(catMap))
	for _, cs := range catMap {
		if total > 0 {
			cs.Percentage = cs.Amount / total * 100
		}
		result = append(result, *cs)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount != result[j].Amount {
			return result[i].Amount > result[j].Amount
		}
		return result[i].Category < result[j].Category
	})

	return result
}

// TotalSpend sums the finite transaction amounts.
func TotalSpend(txs []model.Transaction) float64 {
	var total float64
	for _, t := range txs {
		total += finiteOrZero(t.Amount)
	}
	return total
}

// TopCategories returns at most n rows of a breakdown.
func TopCategories(shares []model.CategoryShare, n int) []model.CategoryShare {
	if n <= 0 || n >= len(shares) {
		return shares
	}
	return shares[:n]
}

func categoryOf(t model.Transaction) string {
	cat := strings.TrimSpace(t.Category)
	if cat == "" {
		return model.DefaultCategory
	}
	return cat
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
