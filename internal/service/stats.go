package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// completionRate is the whole-percent ratio, defined as 0 for an empty set.
func completionRate(marked, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(marked) / float64(total) * 100))
}

// hoursFromMinutes converts minutes to hours with two-decimal rounding via
// the x100-round-/100 scheme the reports have always used.
func hoursFromMinutes(minutes int64) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// budgetUsedPercent is the whole-percent share of budget consumed by
// revenue, 0 when no budget is set.
func budgetUsedPercent(revenue decimal.Decimal, budget *decimal.Decimal) int {
	if budget == nil || budget.IsZero() {
		return 0
	}
	ratio, _ := revenue.Div(*budget).Float64()
	return int(math.Round(ratio * 100))
}
