/*
Package valuation computes the labor-remuneration basis of a submission.

PURPOSE:
  Takes the construction-area records of one submission and derives, per
  record, an adjusted usable area, a construction cost and a remuneration
  contribution, then rolls those up into the totals the contribution and
  projection stages consume. Everything here is a pure transform: records
  in, result rows out, no shared state between submissions.

KEY CONCEPTS IN THIS FILE (types.go):
  - AreaRecord: one declared construction area (already numerically parsed)
  - DestinationGroup: per-destination aggregate (total area, unit value)
  - AreaResult: the derived row for one record, percentages preserved
  - ContributionResult: due/payable/savings/fee breakdown

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal end to end; rounding happens only at the
     presentation boundary
  2. Immutability: result rows are built once and never mutated
  3. The regulatory string values (destination, material, category) are the
     lookup keys, typed thinly to keep call sites honest

SEE ALSO:
  - engine.go: the valuation cascade
  - rules/tables.go: the percentage tables consulted here
*/
package valuation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DOMAIN ENUMS - regulatory string values
// =============================================================================

type Category string

const (
	CategoryNewConstruction Category = "Obra Nova"
	CategoryAddition        Category = "Acréscimo"
	CategoryRenovation      Category = "Reforma"
	CategoryDemolition      Category = "Demolição"
)

type Material string

const (
	MaterialMasonry Material = "Alvenaria"
	MaterialWood    Material = "Madeira"
	MaterialMixed   Material = "Mista"
)

type AreaType string

const (
	AreaPrimary       AreaType = "Principal"
	AreaComplementary AreaType = "Complementar"
)

type Coverage string

const (
	CoverageCovered   Coverage = "Coberta"
	CoverageUncovered Coverage = "Descoberta"
)

type Destination string

const (
	DestSingleFamily    Destination = "Residencial Unifamiliar"
	DestMultiFamily     Destination = "Residencial Multifamiliar"
	DestCommercial      Destination = "Comercial Salas e Lojas"
	DestParkingBuilding Destination = "Edifício de Garagens"
	DestIndustrialShed  Destination = "Galpão Industrial"
	DestPopularHouse    Destination = "Casa Popular"
	DestPopularHousing  Destination = "Conjunto Habitacional Popular"
)

// =============================================================================
// AREA RECORD - one declared construction area
// =============================================================================

type AreaRecord struct {
	ID          string
	Category    Category
	Material    Material
	AreaType    AreaType
	Coverage    Coverage // only meaningful for complementary areas
	TotalArea   decimal.Decimal
	UnitCost    decimal.Decimal // CUB, currency per m²
	Region      string          // UF code
	Destination Destination

	// DestinationFlag groups records that share an aferition group; it
	// defaults to the destination value at intake.
	DestinationFlag string

	IsIndustrializedConcrete bool
	InvoiceValue             decimal.Decimal
	MeasuredArea             decimal.Decimal // area aferida for calculation
}

// =============================================================================
// DESTINATION GROUP - shared per-group derived values
// =============================================================================

// DestinationGroup aggregates the records sharing a destination flag.
//
// UnitValue is fixed by the FIRST record appended to the group: its unit
// cost times the VAU adjustment. Later records with a different unit cost do
// not move it. The published methodology treats the first declared CUB as
// representative of the whole group, so divergent costs inside a group are
// accepted as declared, not reconciled.
type DestinationGroup struct {
	Key         string
	Destination Destination
	TotalArea   decimal.Decimal
	UnitValue   decimal.Decimal // VAU: first record's unit cost × adjustment
}

// =============================================================================
// AREA RESULT - derived row for one record
// =============================================================================

// AreaResult preserves every intermediate percentage so the presentation
// layer can show the full cascade, not just the outcome.
type AreaResult struct {
	ID              string
	Destination     Destination
	DestinationFlag string
	AreaType        AreaType
	Category        Category
	Material        Material

	GroupTotalArea decimal.Decimal
	UnitValue      decimal.Decimal

	// EquivalenceApplied is false for complementary areas, where the
	// coverage reduction replaces the equivalence lookup.
	EquivalenceApplied bool
	EquivalencePct     decimal.Decimal
	ReductionFactor    decimal.Decimal

	AreaForCalc      decimal.Decimal
	ConstructionCost decimal.Decimal

	CategoryBasePct   decimal.Decimal
	SocialFactorPct   decimal.Decimal
	LaborPct          decimal.Decimal
	InvoicePct        decimal.Decimal
	RegionUsagePct    decimal.Decimal
	CategoryCreditPct decimal.Decimal

	Credit       decimal.Decimal
	Remuneration decimal.Decimal
}

// =============================================================================
// CONTRIBUTION RESULT
// =============================================================================

type ContributionResult struct {
	AmountDue     decimal.Decimal
	AmountPayable decimal.Decimal
	Savings       decimal.Decimal
	FeePct        decimal.Decimal
	ServiceFee    decimal.Decimal
	NetSavings    decimal.Decimal
}
