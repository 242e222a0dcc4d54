/*
engine.go - Area valuation cascade

PURPOSE:
  Turns the area records of one submission into result rows. The cascade
  per record is:

    area for calculation  (equivalence % or coverage reduction)
    construction cost     (area × group unit value)
    remuneration          (cost × category × social × labor × invoice)
    concrete credit       (cost × region usage × category credit × 5%)

  Records sharing a destination flag form one group; the group's total
  measured area drives the equivalence and social-factor bands, and the
  group's unit value (VAU) is fixed by the first record declared for it.

PURITY:
  ComputeAreaResults is a pure function of its inputs. Calling it twice
  with the same records yields identical rows; nothing accumulates across
  calls.

SEE ALSO:
  - rules/tables.go: every percentage consulted here
  - aggregate.go: rolls result rows into submission totals
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/rules"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// GROUPING
// =============================================================================

// GroupByDestination builds the destination groups of a submission in
// first-appearance order. The group key is the destination flag, which
// intake defaults to the destination value.
func GroupByDestination(records []AreaRecord, rs *rules.RuleSet) ([]*DestinationGroup, map[string]*DestinationGroup) {
	var order []*DestinationGroup
	byKey := make(map[string]*DestinationGroup)

	for _, rec := range records {
		key := rec.DestinationFlag
		if key == "" {
			key = string(rec.Destination)
		}
		g, ok := byKey[key]
		if !ok {
			g = &DestinationGroup{
				Key:         key,
				Destination: rec.Destination,
				UnitValue:   rec.UnitCost.Mul(rs.VAUAdjustment),
			}
			byKey[key] = g
			order = append(order, g)
		}
		g.TotalArea = g.TotalArea.Add(rec.MeasuredArea)
	}
	return order, byKey
}

// =============================================================================
// VALUATION
// =============================================================================

// ComputeAreaResults derives one result row per record.
func ComputeAreaResults(records []AreaRecord, rs *rules.RuleSet) []AreaResult {
	_, groups := GroupByDestination(records, rs)

	results := make([]AreaResult, 0, len(records))
	for _, rec := range records {
		key := rec.DestinationFlag
		if key == "" {
			key = string(rec.Destination)
		}
		results = append(results, computeOne(rec, groups[key], rs))
	}
	return results
}

func computeOne(rec AreaRecord, group *DestinationGroup, rs *rules.RuleSet) AreaResult {
	res := AreaResult{
		ID:              rec.ID,
		Destination:     rec.Destination,
		DestinationFlag: group.Key,
		AreaType:        rec.AreaType,
		Category:        rec.Category,
		Material:        rec.Material,
		GroupTotalArea:  group.TotalArea,
		UnitValue:       group.UnitValue,
	}

	// Usable area: complementary areas take the coverage reduction and
	// never the equivalence lookup.
	if rec.AreaType == AreaComplementary {
		res.ReductionFactor = rs.CoveredReduction
		if rec.Coverage == CoverageUncovered {
			res.ReductionFactor = rs.UncoveredReduction
		}
		res.AreaForCalc = rec.MeasuredArea.Mul(res.ReductionFactor)
	} else {
		res.EquivalenceApplied = true
		res.EquivalencePct = rs.EquivalencePct(string(rec.Destination), group.TotalArea)
		res.AreaForCalc = rec.MeasuredArea.Mul(res.EquivalencePct).Div(hundred)
	}

	res.ConstructionCost = res.AreaForCalc.Mul(group.UnitValue)

	res.CategoryBasePct = rs.CategoryBasePct(string(rec.Category))
	res.SocialFactorPct = rs.SocialFactorPct(group.TotalArea)
	res.LaborPct = rs.LaborPct(string(rec.Destination), string(rec.Material))
	res.InvoicePct = rs.InvoicePct(rec.InvoiceValue, res.ConstructionCost)
	res.RegionUsagePct = rs.RegionUsagePct(rec.Region, string(rec.Destination))
	res.CategoryCreditPct = rs.CategoryCreditPct(string(rec.Category))

	res.Remuneration = res.ConstructionCost.
		Mul(res.CategoryBasePct).Div(hundred).
		Mul(res.SocialFactorPct).Div(hundred).
		Mul(res.LaborPct).Div(hundred).
		Mul(res.InvoicePct).Div(hundred)

	concretePct := decimal.Zero
	if rec.IsIndustrializedConcrete {
		concretePct = rs.ConcreteCreditPct
	}
	res.Credit = res.ConstructionCost.
		Mul(res.RegionUsagePct).Div(hundred).
		Mul(res.CategoryCreditPct).Div(hundred).
		Mul(concretePct).Div(hundred)

	res.Remuneration = res.Remuneration.Add(res.Credit)
	return res
}
