package valuation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtiva/obra-engine/rules"
	"github.com/construtiva/obra-engine/valuation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func singleFamilyRecord(id string) valuation.AreaRecord {
	return valuation.AreaRecord{
		ID:           id,
		Category:     valuation.CategoryNewConstruction,
		Material:     valuation.MaterialMasonry,
		AreaType:     valuation.AreaPrimary,
		TotalArea:    dec("100"),
		UnitCost:     dec("2000"),
		Region:       "SP",
		Destination:  valuation.DestSingleFamily,
		MeasuredArea: dec("100"),
	}
}

func assertEqual(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: got %s want %s", msg, got, want)
}

// =============================================================================
// SINGLE RECORD CASCADE
// =============================================================================

func TestComputeAreaResults_SingleFamilyCascade(t *testing.T) {
	rs := rules.DefaultRuleSet()
	results := valuation.ComputeAreaResults([]valuation.AreaRecord{singleFamilyRecord("a1")}, rs)
	require.Len(t, results, 1)

	r := results[0]
	// VAU = 2000 × 1.01; equivalence 89 (group area 100 ≤ 1000);
	// cost = 89 × 2020; remuneration = cost × 100% × 20% × 20% × 100%.
	assertEqual(t, "2020", r.UnitValue, "VAU")
	assert.True(t, r.EquivalenceApplied)
	assertEqual(t, "89", r.EquivalencePct, "equivalence")
	assertEqual(t, "89", r.AreaForCalc, "area for calc")
	assertEqual(t, "179780", r.ConstructionCost, "construction cost")
	assertEqual(t, "20", r.SocialFactorPct, "social factor")
	assertEqual(t, "20", r.LaborPct, "labor")
	assertEqual(t, "100", r.InvoicePct, "invoice")
	assertEqual(t, "7191.2", r.Remuneration, "remuneration")
	assert.True(t, r.Credit.IsZero(), "no concrete, no credit")
}

func TestComputeAreaResults_IndustrializedConcreteCredit(t *testing.T) {
	rs := rules.DefaultRuleSet()
	rec := singleFamilyRecord("a1")
	rec.IsIndustrializedConcrete = true

	r := valuation.ComputeAreaResults([]valuation.AreaRecord{rec}, rs)[0]

	// credit = 179780 × 4% × 100% × 5% = 359.56
	assertEqual(t, "359.56", r.Credit, "concrete credit")
	assertEqual(t, "7550.76", r.Remuneration, "remuneration with credit")
}

func TestComputeAreaResults_InvoiceReducesBase(t *testing.T) {
	rs := rules.DefaultRuleSet()
	rec := singleFamilyRecord("a1")
	rec.InvoiceValue = dec("100000") // well over 40% of 179780

	r := valuation.ComputeAreaResults([]valuation.AreaRecord{rec}, rs)[0]

	assertEqual(t, "30", r.InvoicePct, "invoice pct")
	// 179780 × 20% × 20% × 30% = 2157.36
	assertEqual(t, "2157.36", r.Remuneration, "reduced remuneration")
}

// =============================================================================
// GROUPING
// =============================================================================

func TestComputeAreaResults_GroupSharesFirstUnitValue(t *testing.T) {
	rs := rules.DefaultRuleSet()
	first := singleFamilyRecord("a1")
	second := singleFamilyRecord("a2")
	second.UnitCost = dec("9999") // ignored: the first record fixes the VAU

	results := valuation.ComputeAreaResults([]valuation.AreaRecord{first, second}, rs)
	require.Len(t, results, 2)

	assertEqual(t, "2020", results[0].UnitValue, "first VAU")
	assertEqual(t, "2020", results[1].UnitValue, "second row uses the group VAU")
	assertEqual(t, "200", results[0].GroupTotalArea, "group total area")
	assertEqual(t, "200", results[1].GroupTotalArea, "group total area")
}

func TestComputeAreaResults_GroupTotalDrivesBands(t *testing.T) {
	// Two 600 m² records push the group past the 1000 m² equivalence
	// threshold and into the top social band.
	rs := rules.DefaultRuleSet()
	a := singleFamilyRecord("a1")
	a.MeasuredArea = dec("600")
	b := singleFamilyRecord("a2")
	b.MeasuredArea = dec("600")

	results := valuation.ComputeAreaResults([]valuation.AreaRecord{a, b}, rs)

	assertEqual(t, "85", results[0].EquivalencePct, "above-threshold equivalence")
	assertEqual(t, "90", results[0].SocialFactorPct, "top social band")
}

func TestComputeAreaResults_DestinationFlagSplitsGroups(t *testing.T) {
	rs := rules.DefaultRuleSet()
	a := singleFamilyRecord("a1")
	a.DestinationFlag = "bloco-a"
	b := singleFamilyRecord("a2")
	b.DestinationFlag = "bloco-b"
	b.UnitCost = dec("3000")

	results := valuation.ComputeAreaResults([]valuation.AreaRecord{a, b}, rs)

	assertEqual(t, "100", results[0].GroupTotalArea, "separate groups")
	assertEqual(t, "2020", results[0].UnitValue, "bloco-a VAU")
	assertEqual(t, "3030", results[1].UnitValue, "bloco-b keeps its own VAU")
}

// =============================================================================
// COMPLEMENTARY AREAS
// =============================================================================

func TestComputeAreaResults_ComplementaryCoverageReduction(t *testing.T) {
	rs := rules.DefaultRuleSet()

	covered := singleFamilyRecord("c1")
	covered.AreaType = valuation.AreaComplementary
	covered.Coverage = valuation.CoverageCovered

	uncovered := singleFamilyRecord("c2")
	uncovered.AreaType = valuation.AreaComplementary
	uncovered.Coverage = valuation.CoverageUncovered
	uncovered.DestinationFlag = "anexo"

	results := valuation.ComputeAreaResults([]valuation.AreaRecord{covered, uncovered}, rs)

	assert.False(t, results[0].EquivalenceApplied, "complementary areas skip equivalence")
	assertEqual(t, "50", results[0].AreaForCalc, "covered: ×0.50")
	assertEqual(t, "25", results[1].AreaForCalc, "uncovered: ×0.25")
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_SumsEveryRow(t *testing.T) {
	rs := rules.DefaultRuleSet()
	records := []valuation.AreaRecord{singleFamilyRecord("a1"), singleFamilyRecord("a2")}
	results := valuation.ComputeAreaResults(records, rs)

	total := valuation.Aggregate(results)

	manual := decimal.Zero
	for _, r := range results {
		manual = manual.Add(r.Remuneration)
	}
	assert.True(t, total.Equal(manual), "aggregate equals the row sum")
}

func TestProjectMinimumMonthly(t *testing.T) {
	adjusted, monthly := valuation.ProjectMinimumMonthly(dec("1200"), dec("0.5"), 12)
	assertEqual(t, "600", adjusted, "adjusted total")
	assertEqual(t, "50", monthly, "monthly minimum")

	_, monthly = valuation.ProjectMinimumMonthly(dec("1200"), dec("0.5"), 0)
	assert.True(t, monthly.IsZero(), "non-positive months yield zero, not a fault")
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestParseAmount_NamesFieldAndIndex(t *testing.T) {
	_, err := valuation.ParseAmount("areaTotal", 3, "12a.5")
	require.Error(t, err)
	assert.True(t, valuation.IsValidation(err))
	assert.Contains(t, err.Error(), "areaTotal")
	assert.Contains(t, err.Error(), "12a.5")

	v, err := valuation.ParseAmount("areaTotal", 0, "125.40")
	require.NoError(t, err)
	assertEqual(t, "125.40", v, "parsed value")
}
