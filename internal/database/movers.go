package database

import (
	"sort"

	"github.com/shopspring/decimal"
)

// pctChange computes (c - prev) / prev using decimal arithmetic to avoid
// float accumulation error on the ratio surfaced to API clients.
func pctChange(c, prev float64) float64 {
	cd := decimal.NewFromFloat(c)
	pd := decimal.NewFromFloat(prev)
	if pd.IsZero() {
		return 0
	}
	ratio := cd.Sub(pd).Div(pd)
	f, _ := ratio.Float64()
	return f
}

// sortTopMovers orders by pct_change desc, nulls last
func sortTopMovers(rows []TopMoverRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].PctChange, rows[j].PctChange
		if a == nil && b == nil {
			return false
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})
}
