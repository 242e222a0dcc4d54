/*
savings.go - Contribution and savings breakdown

PURPOSE:
  Applies the contribution rate to the total remuneration with and without
  the category reduction, and splits the resulting savings between the
  service fee and the client's net amount.

INVARIANTS:
  - AmountPayable ≤ AmountDue whenever reductionPct ≥ 0
  - Savings = AmountDue − AmountPayable
  - NetSavings = Savings − ServiceFee
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/rules"
)

// DefaultFeePct is the standard service fee share of the savings.
var DefaultFeePct = decimal.NewFromInt(30)

// ComputeSavings derives the contribution breakdown. The calculator is
// reduction-agnostic: the percentage is resolved upstream (see
// ReductionForCategory) and passed in.
func ComputeSavings(total, reductionPct, feePct decimal.Decimal, rs *rules.RuleSet) ContributionResult {
	due := total.Mul(rs.ContributionRate)
	reducedBase := total.Mul(hundred.Sub(reductionPct)).Div(hundred)
	payable := reducedBase.Mul(rs.ContributionRate)
	savings := due.Sub(payable)
	fee := savings.Mul(feePct).Div(hundred)

	return ContributionResult{
		AmountDue:     due,
		AmountPayable: payable,
		Savings:       savings,
		FeePct:        feePct,
		ServiceFee:    fee,
		NetSavings:    savings.Sub(fee),
	}
}

// ReductionForCategory resolves the reduction percentage a submission is
// entitled to. The first record's category speaks for the submission.
func ReductionForCategory(category Category) decimal.Decimal {
	switch category {
	case CategoryRenovation:
		return decimal.NewFromInt(65)
	case CategoryDemolition:
		return decimal.NewFromInt(90)
	default:
		return decimal.Zero
	}
}
