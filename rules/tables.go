/*
Package rules holds the regulatory percentage tables.

PURPOSE:
  Every percentage the valuation cascade consults lives here as data:
  equivalence, labor share, category base and credit rates, the social
  factor bands, the region-usage table and the tiered band rates. A
  legislative update is an edit to one RuleSet (or a new versioned JSON
  document via the factory), never a code change at a call site.

KEY CONCEPTS:
  - RuleSet: one self-contained generation of all tables and constants
  - Lookups never fail: unmapped keys return the documented default
    (0 for equivalence/labor/credit/region-usage, 100 for category base)
  - Keys are the regulatory string values (destination, material,
    category names as they appear on the submission)

DEFAULTS:
  DefaultRuleSet returns the tables currently in force. The factory
  package can override any section from a stored JSON document.

SEE ALSO:
  - valuation/engine.go: consumes these lookups
  - factory/ruleset.go: JSON to RuleSet conversion
*/
package rules

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet is one versioned generation of the regulatory tables.
type RuleSet struct {
	// Fixed constants of the methodology.
	VAUAdjustment      decimal.Decimal // unit cost multiplier (1.01)
	ContributionRate   decimal.Decimal // payroll contribution rate (0.368)
	ConcreteCreditPct  decimal.Decimal // industrialized concrete credit (5)
	InvoiceThreshold   decimal.Decimal // invoice/cost ratio that reduces the invoice pct (0.40)
	ReducedInvoicePct  decimal.Decimal // invoice pct once the threshold is met (30)
	CoveredReduction   decimal.Decimal // complementary covered area factor (0.50)
	UncoveredReduction decimal.Decimal // complementary uncovered area factor (0.25)
	SurchargeStepPct   decimal.Decimal // monthly surcharge increment (2)
	SurchargeCapPct    decimal.Decimal // monthly surcharge ceiling (20)
	DailyInterestRate  decimal.Decimal // flat daily delinquency interest (0.000333)
	DelinquencyDays    int64           // fixed delinquency assumption (30)
	PrimaryChargeRate  decimal.Decimal // CPP rate on the updated value (0.20)
	PenaltyRate        decimal.Decimal // penalty on the primary charge (0.20)

	// Lookup tables.
	FixedEquivalence  map[string]decimal.Decimal  // destination -> pct
	BandedEquivalence map[string]EquivalenceBand  // destination -> area-banded pct
	Labor             map[string]map[string]decimal.Decimal // destination -> material -> pct
	CategoryBase      map[string]decimal.Decimal  // category -> base pct (default 100)
	CategoryCredit    map[string]decimal.Decimal  // category -> credit pct (default 0)
	SocialBands       []AreaBand                  // ascending thresholds, last is open
	RegionUsage       map[string]map[string]decimal.Decimal // UF -> destination -> pct
	TieredBands       []TierBand                  // auxiliary banded formula
}

// EquivalenceBand holds a two-segment equivalence percentage: Within applies
// while the destination group's total area stays at or under Threshold,
// Above applies beyond it.
type EquivalenceBand struct {
	Threshold decimal.Decimal
	Within    decimal.Decimal
	Above     decimal.Decimal
}

// AreaBand maps a total-area ceiling to a percentage. A nil UpTo marks the
// open-ended last band.
type AreaBand struct {
	UpTo *decimal.Decimal
	Pct  decimal.Decimal
}

// TierBand is one segment of the tiered base-remuneration formula. Width is
// the band width in square meters; a nil Width marks the open-ended last
// band. Rates key on the material string.
type TierBand struct {
	Width *decimal.Decimal
	Rates map[string]decimal.Decimal
}

// =============================================================================
// LOOKUPS
// =============================================================================

// EquivalencePct resolves the equivalence percentage for a primary area:
// fixed destinations ignore the group area, banded destinations pick the
// segment by the group's total measured area. Unmapped destinations yield 0.
func (rs *RuleSet) EquivalencePct(destination string, groupArea decimal.Decimal) decimal.Decimal {
	if pct, ok := rs.FixedEquivalence[destination]; ok {
		return pct
	}
	if band, ok := rs.BandedEquivalence[destination]; ok {
		if groupArea.LessThanOrEqual(band.Threshold) {
			return band.Within
		}
		return band.Above
	}
	return decimal.Zero
}

// LaborPct resolves the labor share for a destination/material pair. 0 when
// either key is unmapped.
func (rs *RuleSet) LaborPct(destination, material string) decimal.Decimal {
	if byMaterial, ok := rs.Labor[destination]; ok {
		if pct, ok := byMaterial[material]; ok {
			return pct
		}
	}
	return decimal.Zero
}

// CategoryBasePct resolves the category base rate, 100 when unmapped.
func (rs *RuleSet) CategoryBasePct(category string) decimal.Decimal {
	if pct, ok := rs.CategoryBase[category]; ok {
		return pct
	}
	return hundred
}

// CategoryCreditPct resolves the credit-eligibility rate, 0 when unmapped.
func (rs *RuleSet) CategoryCreditPct(category string) decimal.Decimal {
	if pct, ok := rs.CategoryCredit[category]; ok {
		return pct
	}
	return decimal.Zero
}

// SocialFactorPct picks the social factor band for a group total area.
func (rs *RuleSet) SocialFactorPct(groupArea decimal.Decimal) decimal.Decimal {
	for _, band := range rs.SocialBands {
		if band.UpTo == nil || groupArea.LessThanOrEqual(*band.UpTo) {
			return band.Pct
		}
	}
	return decimal.Zero
}

// RegionUsagePct resolves the usage percentage for a UF/destination pair,
// 0 when unmapped.
func (rs *RuleSet) RegionUsagePct(region, destination string) decimal.Decimal {
	if byDest, ok := rs.RegionUsage[region]; ok {
		if pct, ok := byDest[destination]; ok {
			return pct
		}
	}
	return decimal.Zero
}

// InvoicePct is 100 unless the declared invoice value reaches the threshold
// share of the construction cost, in which case the reduced rate applies.
// A zero cost keeps the full rate (the ratio is undefined there).
func (rs *RuleSet) InvoicePct(invoiceValue, constructionCost decimal.Decimal) decimal.Decimal {
	if constructionCost.IsZero() {
		return hundred
	}
	ratio := invoiceValue.Div(constructionCost)
	if ratio.GreaterThanOrEqual(rs.InvoiceThreshold) {
		return rs.ReducedInvoicePct
	}
	return hundred
}

// =============================================================================
// DEFAULT TABLES
// =============================================================================

var hundred = decimal.NewFromInt(100)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func areaBand(upTo string, pct string) AreaBand {
	limit := d(upTo)
	return AreaBand{UpTo: &limit, Pct: d(pct)}
}

func tierBand(width string, masonry, wood, mixed string) TierBand {
	b := TierBand{Rates: map[string]decimal.Decimal{
		"Alvenaria": d(masonry),
		"Madeira":   d(wood),
		"Mista":     d(mixed),
	}}
	if width != "" {
		w := d(width)
		b.Width = &w
	}
	return b
}

// DefaultRuleSet returns the tables currently in force.
func DefaultRuleSet() *RuleSet {
	standardLabor := map[string]decimal.Decimal{
		"Alvenaria": d("20"),
		"Madeira":   d("15"),
		"Mista":     d("15"),
	}
	popularLabor := map[string]decimal.Decimal{
		"Alvenaria": d("12"),
		"Madeira":   d("7"),
		"Mista":     d("7"),
	}

	return &RuleSet{
		VAUAdjustment:      d("1.01"),
		ContributionRate:   d("0.368"),
		ConcreteCreditPct:  d("5"),
		InvoiceThreshold:   d("0.40"),
		ReducedInvoicePct:  d("30"),
		CoveredReduction:   d("0.50"),
		UncoveredReduction: d("0.25"),
		SurchargeStepPct:   d("2"),
		SurchargeCapPct:    d("20"),
		DailyInterestRate:  d("0.000333"),
		DelinquencyDays:    30,
		PrimaryChargeRate:  d("0.20"),
		PenaltyRate:        d("0.20"),

		FixedEquivalence: map[string]decimal.Decimal{
			"Galpão Industrial":              d("95"),
			"Casa Popular":                   d("98"),
			"Conjunto Habitacional Popular":  d("98"),
		},
		BandedEquivalence: map[string]EquivalenceBand{
			"Residencial Unifamiliar":  {Threshold: d("1000"), Within: d("89"), Above: d("85")},
			"Residencial Multifamiliar": {Threshold: d("1000"), Within: d("90"), Above: d("86")},
			"Comercial Salas e Lojas":  {Threshold: d("3000"), Within: d("86"), Above: d("83")},
			"Edifício de Garagens":     {Threshold: d("3000"), Within: d("86"), Above: d("83")},
		},
		Labor: map[string]map[string]decimal.Decimal{
			"Residencial Unifamiliar":       standardLabor,
			"Residencial Multifamiliar":     standardLabor,
			"Comercial Salas e Lojas":       standardLabor,
			"Edifício de Garagens":          standardLabor,
			"Galpão Industrial":             standardLabor,
			"Casa Popular":                  popularLabor,
			"Conjunto Habitacional Popular": popularLabor,
		},
		CategoryBase: map[string]decimal.Decimal{
			"Obra Nova":            d("100"),
			"Acréscimo":            d("100"),
			"Reforma":              d("35"),
			"Demolição":            d("10"),
			"Edifício de Garagens": d("80"),
		},
		CategoryCredit: map[string]decimal.Decimal{
			"Obra Nova": d("100"),
			"Acréscimo": d("100"),
			"Reforma":   d("35"),
		},
		SocialBands: []AreaBand{
			areaBand("100", "20"),
			areaBand("200", "40"),
			areaBand("300", "55"),
			areaBand("400", "70"),
			{Pct: d("90")},
		},
		RegionUsage: defaultRegionUsage(),
		TieredBands: []TierBand{
			tierBand("100", "0.04", "0.02", "0.02"),
			tierBand("100", "0.08", "0.05", "0.05"),
			tierBand("100", "0.14", "0.11", "0.11"),
			tierBand("", "0.20", "0.15", "0.15"),
		},
	}
}

// defaultRegionUsage seeds the UF usage table. The published table covers
// every UF; unmapped pairs fall back to 0 until a fuller document is loaded
// through the factory.
func defaultRegionUsage() map[string]map[string]decimal.Decimal {
	residential := func(uni, multi string) map[string]decimal.Decimal {
		return map[string]decimal.Decimal{
			"Residencial Unifamiliar":   d(uni),
			"Residencial Multifamiliar": d(multi),
		}
	}
	return map[string]map[string]decimal.Decimal{
		"SP": residential("4", "6"),
		"RJ": residential("4", "6"),
		"MG": residential("3", "5"),
		"RS": residential("3", "5"),
		"PR": residential("3", "5"),
		"SC": residential("3", "5"),
		"BA": residential("2", "4"),
		"PE": residential("2", "4"),
		"CE": residential("2", "4"),
		"DF": residential("4", "6"),
		"GO": residential("2", "4"),
		"ES": residential("3", "5"),
	}
}
