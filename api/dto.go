/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

REQUEST SHAPE:
  An estimate submission is a set of parallel arrays: index i across every
  array describes one area record, mirroring the multi-row intake form.
  Numeric fields arrive as strings and are parsed all-or-nothing - one bad
  field aborts the submission.

RESPONSE SHAPE:
  Four tables, each an ordered list of rows with named columns. Currency
  columns carry the raw value and the "R$ 1.234,56" display form; the raw
  figures are never derived back from the display strings.

SEE ALSO:
  - handlers.go: fills these types
  - format.go: the display formatting
*/
package api

import (
	"encoding/json"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EstimateRequest is one submission. All arrays must share the same length.
type EstimateRequest struct {
	Identifiers      []string `json:"identificacao"`
	Categories       []string `json:"categoria"`
	Materials        []string `json:"material"`
	AreaTypes        []string `json:"tipoArea"`
	Coverages        []string `json:"cobertura,omitempty"`
	TotalAreas       []string `json:"areaTotal"`
	UnitCosts        []string `json:"cub"`
	Regions          []string `json:"uf"`
	Concrete         []string `json:"concretoUsinado,omitempty"` // "Sim" marks industrialized concrete
	Destinations     []string `json:"destinacao"`
	DestinationFlags []string `json:"destinacaoFlag,omitempty"`
	InvoiceValues    []string `json:"valorNotasFiscais"`
	MeasuredAreas    []string `json:"areaAferida"`
	StartPeriods     []string `json:"mesInicio,omitempty"` // YYYY-MM per record
	EndPeriods       []string `json:"mesFim,omitempty"`

	AdjustmentFactorPct string `json:"fatorAjuste,omitempty"`   // default 50
	ExecutionMonths     string `json:"mesesExecucao,omitempty"` // default 12
}

// CreateRuleSetRequest stores a new rule-set revision.
type CreateRuleSetRequest struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Active bool            `json:"active"`
	Config json.RawMessage `json:"config"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EstimateResponse carries the four result tables plus the raw totals.
type EstimateResponse struct {
	Areas        []AreaRowDTO       `json:"tabelaAreas"`
	Summary      []LabeledRowDTO    `json:"tabelaAfericao"`
	Accrual      AccrualTableDTO    `json:"tabelaFinanceira"`
	Contribution []LabeledRowDTO    `json:"tabelaInss"`

	TotalRemuneration   float64 `json:"rmtTotal"`
	AdjustmentFactorPct float64 `json:"fatorAjuste"`
	ExecutionMonths     int     `json:"mesesExecucao"`
}

// LabeledRowDTO is one row of a label/value table.
type LabeledRowDTO struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// AreaRowDTO is one valuation row with the full percentage cascade.
type AreaRowDTO struct {
	ID              string `json:"identificacao"`
	Destination     string `json:"destinacao"`
	DestinationFlag string `json:"grupo"`
	AreaType        string `json:"tipoArea"`
	Category        string `json:"categoria"`
	Material        string `json:"material"`

	GroupTotalArea  float64 `json:"areaTotalGrupo"`
	UnitValue       float64 `json:"vau"`
	UnitValueBRL    string  `json:"vauFmt"`
	EquivalencePct  *float64 `json:"percentualEquivalencia,omitempty"` // nil for complementary areas
	ReductionFactor *float64 `json:"fatorReducao,omitempty"`
	AreaForCalc     float64 `json:"areaCalculo"`

	ConstructionCost    float64 `json:"custoConstrucao"`
	ConstructionCostBRL string  `json:"custoConstrucaoFmt"`

	CategoryBasePct   float64 `json:"percentualCategoria"`
	SocialFactorPct   float64 `json:"fatorSocial"`
	LaborPct          float64 `json:"percentualMaoDeObra"`
	InvoicePct        float64 `json:"percentualNotasFiscais"`
	RegionUsagePct    float64 `json:"percentualUtilizacao"`
	CategoryCreditPct float64 `json:"percentualCredito"`

	Credit          float64 `json:"credito"`
	Remuneration    float64 `json:"rmt"`
	RemunerationBRL string  `json:"rmtFmt"`
}

// AccrualTableDTO is the monthly financial table plus its totals row.
type AccrualTableDTO struct {
	Rows   []AccrualRowDTO `json:"rows"`
	Totals AccrualTotalsDTO `json:"totals"`
}

// AccrualRowDTO is one month of the financial table.
type AccrualRowDTO struct {
	Period          string  `json:"mesAno"` // MM/YYYY
	Remuneration    float64 `json:"remuneracao"`
	RemunerationBRL string  `json:"remuneracaoFmt"`
	EffectiveRate   float64 `json:"icm"` // percent, prior period's observation
	UpdatedValue    float64 `json:"valorAtualizado"`
	UpdatedValueBRL string  `json:"valorAtualizadoFmt"`
	PrimaryCharge   float64 `json:"cpp"`
	Penalty         float64 `json:"multa"`
	DailyInterest   float64 `json:"jurosMora"`
	SurchargePct    float64 `json:"maedPercentual"`
	Surcharge       float64 `json:"maedMinima"`
	Total           float64 `json:"total"`
	TotalBRL        string  `json:"totalFmt"`
}

// AccrualTotalsDTO sums the remuneration, updated-value and total columns.
type AccrualTotalsDTO struct {
	Remuneration    float64 `json:"remuneracao"`
	RemunerationBRL string  `json:"remuneracaoFmt"`
	UpdatedValue    float64 `json:"valorAtualizado"`
	UpdatedValueBRL string  `json:"valorAtualizadoFmt"`
	Total           float64 `json:"total"`
	TotalBRL        string  `json:"totalFmt"`
}

// RuleSetDTO describes a stored rule-set revision.
type RuleSetDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Version   int             `json:"version"`
	Active    bool            `json:"active"`
	Config    json.RawMessage `json:"config,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// ScenarioDTO describes a canned demo submission.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
	Value   string `json:"value,omitempty"`
}
