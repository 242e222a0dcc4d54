/*
Package factory provides JSON to Go rule-set conversion.

PURPOSE:
  Converts JSON rule-set documents into rules.RuleSet values. This keeps
  the regulatory tables configurable without code changes - a legislative
  update is a new JSON document stored next to the old one, and the engine
  picks up the active version.

WHY JSON?
  - Non-developers can revise the tables
  - Version control and database storage of table generations
  - Easy diffing between legislative revisions

JSON SCHEMA (all sections optional; omitted sections keep the built-in
defaults):
  {
    "id": "tabelas-2024",
    "name": "Tabelas vigentes 2024",
    "constants": {"contribution_rate": 0.368, "vau_adjustment": 1.01, ...},
    "fixed_equivalence": {"Galpão Industrial": 95},
    "banded_equivalence": {"Residencial Unifamiliar": {"threshold": 1000, "within": 89, "above": 85}},
    "labor": {"Casa Popular": {"Alvenaria": 12, "Madeira": 7, "Mista": 7}},
    "category_base": {"Reforma": 35},
    "category_credit": {"Obra Nova": 100},
    "social_bands": [{"up_to": 100, "pct": 20}, {"pct": 90}],
    "region_usage": {"SP": {"Residencial Unifamiliar": 4}},
    "tiered_bands": [{"width": 100, "rates": {"Alvenaria": 0.04}}]
  }

USAGE:
  f := factory.NewRuleSetFactory()
  rs, err := f.ParseRuleSet(configJSON)

SEE ALSO:
  - rules/tables.go: RuleSet definition and defaults
  - store/sqlite: versioned storage of these documents
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/rules"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the JSON representation of a rule-set revision.
type RuleSetJSON struct {
	ID                string                        `json:"id"`
	Name              string                        `json:"name"`
	Constants         *ConstantsJSON                `json:"constants,omitempty"`
	FixedEquivalence  map[string]float64            `json:"fixed_equivalence,omitempty"`
	BandedEquivalence map[string]EquivalenceJSON    `json:"banded_equivalence,omitempty"`
	Labor             map[string]map[string]float64 `json:"labor,omitempty"`
	CategoryBase      map[string]float64            `json:"category_base,omitempty"`
	CategoryCredit    map[string]float64            `json:"category_credit,omitempty"`
	SocialBands       []AreaBandJSON                `json:"social_bands,omitempty"`
	RegionUsage       map[string]map[string]float64 `json:"region_usage,omitempty"`
	TieredBands       []TierBandJSON                `json:"tiered_bands,omitempty"`
}

// ConstantsJSON overrides the fixed constants of the methodology.
type ConstantsJSON struct {
	VAUAdjustment      *float64 `json:"vau_adjustment,omitempty"`
	ContributionRate   *float64 `json:"contribution_rate,omitempty"`
	ConcreteCreditPct  *float64 `json:"concrete_credit_pct,omitempty"`
	InvoiceThreshold   *float64 `json:"invoice_threshold,omitempty"`
	ReducedInvoicePct  *float64 `json:"reduced_invoice_pct,omitempty"`
	CoveredReduction   *float64 `json:"covered_reduction,omitempty"`
	UncoveredReduction *float64 `json:"uncovered_reduction,omitempty"`
	SurchargeStepPct   *float64 `json:"surcharge_step_pct,omitempty"`
	SurchargeCapPct    *float64 `json:"surcharge_cap_pct,omitempty"`
	DailyInterestRate  *float64 `json:"daily_interest_rate,omitempty"`
	DelinquencyDays    *int64   `json:"delinquency_days,omitempty"`
}

type EquivalenceJSON struct {
	Threshold float64 `json:"threshold"`
	Within    float64 `json:"within"`
	Above     float64 `json:"above"`
}

type AreaBandJSON struct {
	UpTo *float64 `json:"up_to,omitempty"` // absent on the open last band
	Pct  float64  `json:"pct"`
}

type TierBandJSON struct {
	Width *float64           `json:"width,omitempty"` // absent on the open last band
	Rates map[string]float64 `json:"rates"`
}

// =============================================================================
// FACTORY
// =============================================================================

type RuleSetFactory struct{}

func NewRuleSetFactory() *RuleSetFactory {
	return &RuleSetFactory{}
}

// ParseRuleSet parses a JSON document into a RuleSet layered over the
// built-in defaults.
func (f *RuleSetFactory) ParseRuleSet(jsonStr string) (*rules.RuleSet, error) {
	var rj RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse rule-set JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts RuleSetJSON into a RuleSet. Sections present in the
// document replace the corresponding default section wholesale; absent
// sections are kept as-is.
func (f *RuleSetFactory) FromJSON(rj RuleSetJSON) (*rules.RuleSet, error) {
	rs := rules.DefaultRuleSet()

	if rj.Constants != nil {
		applyConstants(rs, rj.Constants)
	}
	if rj.FixedEquivalence != nil {
		rs.FixedEquivalence = toDecimalMap(rj.FixedEquivalence)
	}
	if rj.BandedEquivalence != nil {
		bands := make(map[string]rules.EquivalenceBand, len(rj.BandedEquivalence))
		for dest, b := range rj.BandedEquivalence {
			bands[dest] = rules.EquivalenceBand{
				Threshold: decimal.NewFromFloat(b.Threshold),
				Within:    decimal.NewFromFloat(b.Within),
				Above:     decimal.NewFromFloat(b.Above),
			}
		}
		rs.BandedEquivalence = bands
	}
	if rj.Labor != nil {
		rs.Labor = toNestedDecimalMap(rj.Labor)
	}
	if rj.CategoryBase != nil {
		rs.CategoryBase = toDecimalMap(rj.CategoryBase)
	}
	if rj.CategoryCredit != nil {
		rs.CategoryCredit = toDecimalMap(rj.CategoryCredit)
	}
	if rj.SocialBands != nil {
		bands, err := toAreaBands(rj.SocialBands)
		if err != nil {
			return nil, err
		}
		rs.SocialBands = bands
	}
	if rj.RegionUsage != nil {
		rs.RegionUsage = toNestedDecimalMap(rj.RegionUsage)
	}
	if rj.TieredBands != nil {
		tiers := make([]rules.TierBand, 0, len(rj.TieredBands))
		for i, tb := range rj.TieredBands {
			band := rules.TierBand{Rates: toDecimalMap(tb.Rates)}
			if tb.Width != nil {
				w := decimal.NewFromFloat(*tb.Width)
				band.Width = &w
			} else if i != len(rj.TieredBands)-1 {
				return nil, fmt.Errorf("tiered band %d: only the last band may omit width", i)
			}
			tiers = append(tiers, band)
		}
		rs.TieredBands = tiers
	}

	return rs, nil
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func applyConstants(rs *rules.RuleSet, c *ConstantsJSON) {
	setDec := func(dst *decimal.Decimal, src *float64) {
		if src != nil {
			*dst = decimal.NewFromFloat(*src)
		}
	}
	setDec(&rs.VAUAdjustment, c.VAUAdjustment)
	setDec(&rs.ContributionRate, c.ContributionRate)
	setDec(&rs.ConcreteCreditPct, c.ConcreteCreditPct)
	setDec(&rs.InvoiceThreshold, c.InvoiceThreshold)
	setDec(&rs.ReducedInvoicePct, c.ReducedInvoicePct)
	setDec(&rs.CoveredReduction, c.CoveredReduction)
	setDec(&rs.UncoveredReduction, c.UncoveredReduction)
	setDec(&rs.SurchargeStepPct, c.SurchargeStepPct)
	setDec(&rs.SurchargeCapPct, c.SurchargeCapPct)
	setDec(&rs.DailyInterestRate, c.DailyInterestRate)
	if c.DelinquencyDays != nil {
		rs.DelinquencyDays = *c.DelinquencyDays
	}
}

func toDecimalMap(src map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(src))
	for k, v := range src {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}

func toNestedDecimalMap(src map[string]map[string]float64) map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal, len(src))
	for k, inner := range src {
		out[k] = toDecimalMap(inner)
	}
	return out
}

func toAreaBands(src []AreaBandJSON) ([]rules.AreaBand, error) {
	bands := make([]rules.AreaBand, 0, len(src))
	for i, b := range src {
		band := rules.AreaBand{Pct: decimal.NewFromFloat(b.Pct)}
		if b.UpTo != nil {
			limit := decimal.NewFromFloat(*b.UpTo)
			band.UpTo = &limit
		} else if i != len(src)-1 {
			return nil, fmt.Errorf("social band %d: only the last band may omit up_to", i)
		}
		bands = append(bands, band)
	}
	return bands, nil
}
