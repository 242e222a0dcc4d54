/*
aggregate.go - Submission totals

PURPOSE:
  Rolls the per-record remuneration rows into the figures the projection
  and contribution stages consume: the total RMT, the adjusted RMT and
  the minimum monthly remuneration.
*/
package valuation

import (
	"github.com/shopspring/decimal"
)

// Aggregate sums the remuneration of every result row.
func Aggregate(results []AreaResult) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.Remuneration)
	}
	return total
}

// ProjectMinimumMonthly applies the adjustment factor to the total and
// spreads the adjusted figure over the execution months. A non-positive
// month count yields a zero monthly minimum, never a division fault.
func ProjectMinimumMonthly(total, adjustmentFactor decimal.Decimal, executionMonths int) (adjusted, monthly decimal.Decimal) {
	adjusted = total.Mul(adjustmentFactor)
	if executionMonths <= 0 {
		return adjusted, decimal.Zero
	}
	monthly = adjusted.Div(decimal.NewFromInt(int64(executionMonths)))
	return adjusted, monthly
}
