/*
handlers.go - HTTP API handlers for the estimation service

PURPOSE:
  Exposes the estimation pipeline via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the domain packages.

ENDPOINTS:
  Estimates:
    POST   /api/estimates          Run a full estimate for one submission

  Rule sets:
    GET    /api/rules              List stored rule-set revisions
    GET    /api/rules/active       The revision the engine is using
    GET    /api/rules/{id}         One revision with its document
    POST   /api/rules              Store (and optionally activate) a revision

  Scenarios:
    GET    /api/scenarios          List canned demo submissions
    POST   /api/scenarios/{id}/run Run one of them

REQUEST FLOW:
  1. Decode the parallel-array submission
  2. Parse every numeric field - one failure aborts the submission
  3. Valuation cascade -> totals -> projection -> contribution split
  4. Serialize the four tables

ERROR HANDLING:
  - 400: a field failed conversion (field, index and value are named)
  - 404: unknown rule set / scenario
  - 500: unexpected faults, via the router's recoverer - the process
    stays available
  A degraded rate service is NOT an error: the projection proceeds with
  zero rates and the failure is only logged.

SEE ALSO:
  - dto.go: request/response shapes
  - scenarios.go: the canned submissions
  - server.go: router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/factory"
	"github.com/construtiva/obra-engine/projection"
	"github.com/construtiva/obra-engine/rules"
	"github.com/construtiva/obra-engine/store/sqlite"
	"github.com/construtiva/obra-engine/valuation"
)

// Intake defaults, applied when the submission omits the field.
const (
	defaultStartPeriod = "2022-10"
	defaultEndPeriod   = "2023-09"
	defaultFactorPct   = "50"
	defaultMonths      = 12
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	RuleFactory *factory.RuleSetFactory
	Rates       projection.RateSource

	// Active rule set, cached; guarded for concurrent submissions while a
	// revision is being activated.
	mu       sync.RWMutex
	active   *rules.RuleSet
	activeID string
}

// NewHandler creates a handler backed by the given store and rate source.
// Until LoadRules finds a stored active revision, the built-in tables apply.
func NewHandler(store *sqlite.Store, rateSource projection.RateSource) *Handler {
	return &Handler{
		Store:       store,
		RuleFactory: factory.NewRuleSetFactory(),
		Rates:       rateSource,
		active:      rules.DefaultRuleSet(),
		activeID:    "builtin",
	}
}

// LoadRules loads the active stored revision into the cache, if any.
func (h *Handler) LoadRules(ctx context.Context) error {
	rec, err := h.Store.ActiveRuleSet(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rs, err := h.RuleFactory.ParseRuleSet(rec.ConfigJSON)
	if err != nil {
		return fmt.Errorf("stored rule set %q: %w", rec.ID, err)
	}
	h.mu.Lock()
	h.active, h.activeID = rs, rec.ID
	h.mu.Unlock()
	return nil
}

func (h *Handler) activeRules() (*rules.RuleSet, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active, h.activeID
}

// =============================================================================
// ESTIMATE HANDLERS
// =============================================================================

// SubmitEstimate runs the full pipeline for one submission.
func (h *Handler) SubmitEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.computeEstimate(r.Context(), req)
	if err != nil {
		if valuation.IsValidation(err) {
			writeValidationError(w, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to compute estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// computeEstimate is the submission pipeline behind SubmitEstimate and the
// scenario runner. All-or-nothing: any field error aborts before any table
// is built.
func (h *Handler) computeEstimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error) {
	records, err := buildRecords(req)
	if err != nil {
		return nil, err
	}
	start, end, err := projectionRange(req)
	if err != nil {
		return nil, err
	}
	factorPct, months, err := globalParameters(req)
	if err != nil {
		return nil, err
	}

	rs, _ := h.activeRules()

	results := valuation.ComputeAreaResults(records, rs)
	total := valuation.Aggregate(results)
	adjusted, monthly := valuation.ProjectMinimumMonthly(total, factorPct.Div(hundred), months)

	schedule := projection.NewProjector(h.Rates, rs).Project(ctx, start, end, adjusted)

	reduction := valuation.ReductionForCategory(records[0].Category)
	contribution := valuation.ComputeSavings(total, reduction, valuation.DefaultFeePct, rs)

	resp := &EstimateResponse{
		Areas:        toAreaRows(results),
		Summary:      summaryRows(total, factorPct, adjusted, monthly),
		Accrual:      toAccrualTable(schedule),
		Contribution: contributionRows(contribution),

		TotalRemuneration:   roundedFloat(total),
		AdjustmentFactorPct: roundedFloat(factorPct),
		ExecutionMonths:     months,
	}
	return resp, nil
}

// =============================================================================
// SUBMISSION PARSING
// =============================================================================

// buildRecords parses the parallel arrays into area records.
func buildRecords(req EstimateRequest) ([]valuation.AreaRecord, error) {
	n := len(req.Identifiers)
	if n == 0 {
		return nil, valuation.ErrEmptySubmission
	}

	required := map[string]int{
		"categoria":         len(req.Categories),
		"material":          len(req.Materials),
		"tipoArea":          len(req.AreaTypes),
		"areaTotal":         len(req.TotalAreas),
		"cub":               len(req.UnitCosts),
		"uf":                len(req.Regions),
		"destinacao":        len(req.Destinations),
		"valorNotasFiscais": len(req.InvoiceValues),
		"areaAferida":       len(req.MeasuredAreas),
	}
	for field, length := range required {
		if length != n {
			return nil, fmt.Errorf("%w: %s has %d entries, want %d", valuation.ErrFieldCountMismatch, field, length, n)
		}
	}
	optional := map[string]int{
		"cobertura":       len(req.Coverages),
		"concretoUsinado": len(req.Concrete),
		"destinacaoFlag":  len(req.DestinationFlags),
		"mesInicio":       len(req.StartPeriods),
		"mesFim":          len(req.EndPeriods),
	}
	for field, length := range optional {
		if length != 0 && length != n {
			return nil, fmt.Errorf("%w: %s has %d entries, want 0 or %d", valuation.ErrFieldCountMismatch, field, length, n)
		}
	}

	records := make([]valuation.AreaRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := valuation.AreaRecord{
			ID:          req.Identifiers[i],
			Category:    valuation.Category(req.Categories[i]),
			Material:    valuation.Material(req.Materials[i]),
			AreaType:    valuation.AreaType(req.AreaTypes[i]),
			Coverage:    valuation.CoverageCovered,
			Region:      req.Regions[i],
			Destination: valuation.Destination(req.Destinations[i]),
		}
		if len(req.Coverages) == n && req.Coverages[i] != "" {
			rec.Coverage = valuation.Coverage(req.Coverages[i])
		}
		if len(req.DestinationFlags) == n {
			rec.DestinationFlag = req.DestinationFlags[i]
		}
		if len(req.Concrete) == n {
			rec.IsIndustrializedConcrete = req.Concrete[i] == "Sim"
		}

		var err error
		if rec.TotalArea, err = valuation.ParseAmount("areaTotal", i, req.TotalAreas[i]); err != nil {
			return nil, err
		}
		if rec.UnitCost, err = valuation.ParseAmount("cub", i, req.UnitCosts[i]); err != nil {
			return nil, err
		}
		if rec.InvoiceValue, err = valuation.ParseAmount("valorNotasFiscais", i, req.InvoiceValues[i]); err != nil {
			return nil, err
		}
		if rec.MeasuredArea, err = valuation.ParseAmount("areaAferida", i, req.MeasuredAreas[i]); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// projectionRange resolves the schedule bounds: the earliest declared start
// and the latest declared end, with the documented defaults when absent.
func projectionRange(req EstimateRequest) (start, end projection.Period, err error) {
	start, err = projection.ParsePeriod(defaultStartPeriod)
	if err != nil {
		return
	}
	end, err = projection.ParsePeriod(defaultEndPeriod)
	if err != nil {
		return
	}

	haveStart := false
	for i, raw := range req.StartPeriods {
		if raw == "" {
			continue
		}
		p, perr := projection.ParsePeriod(raw)
		if perr != nil {
			return start, end, &valuation.FieldError{Field: "mesInicio", Index: i, Value: raw}
		}
		if !haveStart || p.Before(start) {
			start = p
			haveStart = true
		}
	}
	haveEnd := false
	for i, raw := range req.EndPeriods {
		if raw == "" {
			continue
		}
		p, perr := projection.ParsePeriod(raw)
		if perr != nil {
			return start, end, &valuation.FieldError{Field: "mesFim", Index: i, Value: raw}
		}
		if !haveEnd || p.After(end) {
			end = p
			haveEnd = true
		}
	}
	return start, end, nil
}

func globalParameters(req EstimateRequest) (factorPct decimal.Decimal, months int, err error) {
	rawFactor := req.AdjustmentFactorPct
	if rawFactor == "" {
		rawFactor = defaultFactorPct
	}
	factorPct, err = valuation.ParseAmount("fatorAjuste", 0, rawFactor)
	if err != nil {
		return
	}

	months = defaultMonths
	if req.ExecutionMonths != "" {
		months, err = strconv.Atoi(req.ExecutionMonths)
		if err != nil {
			return factorPct, 0, &valuation.FieldError{Field: "mesesExecucao", Index: 0, Value: req.ExecutionMonths}
		}
	}
	return factorPct, months, nil
}

// =============================================================================
// RESPONSE ASSEMBLY
// =============================================================================

func toAreaRows(results []valuation.AreaResult) []AreaRowDTO {
	rows := make([]AreaRowDTO, 0, len(results))
	for _, r := range results {
		row := AreaRowDTO{
			ID:              r.ID,
			Destination:     string(r.Destination),
			DestinationFlag: r.DestinationFlag,
			AreaType:        string(r.AreaType),
			Category:        string(r.Category),
			Material:        string(r.Material),

			GroupTotalArea: rawFloat(r.GroupTotalArea),
			UnitValue:      roundedFloat(r.UnitValue),
			UnitValueBRL:   FormatBRL(r.UnitValue),
			AreaForCalc:    rawFloat(r.AreaForCalc),

			ConstructionCost:    roundedFloat(r.ConstructionCost),
			ConstructionCostBRL: FormatBRL(r.ConstructionCost),

			CategoryBasePct:   rawFloat(r.CategoryBasePct),
			SocialFactorPct:   rawFloat(r.SocialFactorPct),
			LaborPct:          rawFloat(r.LaborPct),
			InvoicePct:        rawFloat(r.InvoicePct),
			RegionUsagePct:    rawFloat(r.RegionUsagePct),
			CategoryCreditPct: rawFloat(r.CategoryCreditPct),

			Credit:          roundedFloat(r.Credit),
			Remuneration:    roundedFloat(r.Remuneration),
			RemunerationBRL: FormatBRL(r.Remuneration),
		}
		if r.EquivalenceApplied {
			eq := rawFloat(r.EquivalencePct)
			row.EquivalencePct = &eq
		} else {
			red := rawFloat(r.ReductionFactor)
			row.ReductionFactor = &red
		}
		rows = append(rows, row)
	}
	return rows
}

func summaryRows(total, factorPct, adjusted, monthly decimal.Decimal) []LabeledRowDTO {
	return []LabeledRowDTO{
		{Label: "RMT TOTAL", Value: roundedFloat(total), Display: FormatBRL(total)},
		{Label: "Fator de Ajuste", Value: rawFloat(factorPct), Display: factorPct.String() + "%"},
		{Label: "RMT PARA O Fator de Ajuste", Value: roundedFloat(adjusted), Display: FormatBRL(adjusted)},
		{Label: "REMUNERAÇÃO MENSAL (mínima)", Value: roundedFloat(monthly), Display: FormatBRL(monthly)},
	}
}

func toAccrualTable(schedule projection.Schedule) AccrualTableDTO {
	table := AccrualTableDTO{Rows: make([]AccrualRowDTO, 0, len(schedule.Rows))}
	for _, row := range schedule.Rows {
		table.Rows = append(table.Rows, AccrualRowDTO{
			Period:          row.Period.Label(),
			Remuneration:    roundedFloat(row.Base),
			RemunerationBRL: FormatBRL(row.Base),
			EffectiveRate:   rawFloat(row.EffectiveRate),
			UpdatedValue:    roundedFloat(row.UpdatedValue),
			UpdatedValueBRL: FormatBRL(row.UpdatedValue),
			PrimaryCharge:   roundedFloat(row.PrimaryCharge),
			Penalty:         roundedFloat(row.Penalty),
			DailyInterest:   roundedFloat(row.DailyInterest),
			SurchargePct:    rawFloat(row.SurchargePct),
			Surcharge:       roundedFloat(row.Surcharge),
			Total:           roundedFloat(row.Total),
			TotalBRL:        FormatBRL(row.Total),
		})
	}
	table.Totals = AccrualTotalsDTO{
		Remuneration:    roundedFloat(schedule.Totals.Base),
		RemunerationBRL: FormatBRL(schedule.Totals.Base),
		UpdatedValue:    roundedFloat(schedule.Totals.Updated),
		UpdatedValueBRL: FormatBRL(schedule.Totals.Updated),
		Total:           roundedFloat(schedule.Totals.Total),
		TotalBRL:        FormatBRL(schedule.Totals.Total),
	}
	return table
}

func contributionRows(c valuation.ContributionResult) []LabeledRowDTO {
	return []LabeledRowDTO{
		{Label: "INSS Devido", Value: roundedFloat(c.AmountDue), Display: FormatBRL(c.AmountDue)},
		{Label: "INSS a Pagar", Value: roundedFloat(c.AmountPayable), Display: FormatBRL(c.AmountPayable)},
		{Label: "Economia Gerada", Value: roundedFloat(c.Savings), Display: FormatBRL(c.Savings)},
		{Label: "Honorários (%)", Value: rawFloat(c.FeePct), Display: c.FeePct.String() + "%"},
		{Label: "Honorários", Value: roundedFloat(c.ServiceFee), Display: FormatBRL(c.ServiceFee)},
		{Label: "ECONOMIA REAL", Value: roundedFloat(c.NetSavings), Display: FormatBRL(c.NetSavings)},
	}
}

func rawFloat(v decimal.Decimal) float64 {
	f, _ := v.Float64()
	return f
}

// =============================================================================
// RULE SET HANDLERS
// =============================================================================

// ListRuleSets returns every stored revision, without their documents.
func (h *Handler) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRuleSets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rule sets", err)
		return
	}
	dtos := make([]RuleSetDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRuleSetDTO(rec, false))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetActiveRuleSet reports which revision the engine is computing with.
func (h *Handler) GetActiveRuleSet(w http.ResponseWriter, r *http.Request) {
	_, id := h.activeRules()
	rec, err := h.Store.ActiveRuleSet(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get active rule set", err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, RuleSetDTO{ID: id, Name: "Built-in tables", Version: 1, Active: true})
		return
	}
	writeJSON(w, http.StatusOK, toRuleSetDTO(*rec, true))
}

// GetRuleSet returns one revision with its document.
func (h *Handler) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetRuleSet(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rule set", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Rule set not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRuleSetDTO(*rec, true))
}

// CreateRuleSet stores a revision; the document must parse before it is
// accepted. Activating it swaps the cached tables for new submissions.
func (h *Handler) CreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Rule set id is required", nil)
		return
	}
	configJSON := string(req.Config)
	if configJSON == "" {
		configJSON = "{}"
	}
	if _, err := h.RuleFactory.ParseRuleSet(configJSON); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule set document", err)
		return
	}

	rec := sqlite.RuleSetRecord{ID: req.ID, Name: req.Name, ConfigJSON: configJSON, Active: req.Active}
	if err := h.Store.SaveRuleSet(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rule set", err)
		return
	}
	if req.Active {
		if err := h.LoadRules(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to activate rule set", err)
			return
		}
	}

	saved, err := h.Store.GetRuleSet(r.Context(), req.ID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back rule set", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleSetDTO(*saved, true))
}

func toRuleSetDTO(rec sqlite.RuleSetRecord, withConfig bool) RuleSetDTO {
	dto := RuleSetDTO{
		ID:        rec.ID,
		Name:      rec.Name,
		Version:   rec.Version,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withConfig {
		dto.Config = json.RawMessage(rec.ConfigJSON)
	}
	return dto
}

// =============================================================================
// MISC
// =============================================================================

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "Invalid submission", Details: err.Error()}
	var fe *valuation.FieldError
	if errors.As(err, &fe) {
		idx := fe.Index
		resp.Field, resp.Index, resp.Value = fe.Field, &idx, fe.Value
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
