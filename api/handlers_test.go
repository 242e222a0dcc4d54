package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtiva/obra-engine/api"
	"github.com/construtiva/obra-engine/projection"
	"github.com/construtiva/obra-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// stubRates serves a fixed series without touching the network.
type stubRates struct {
	observations []projection.RateObservation
}

func (s *stubRates) AnnualizedSeries(_ context.Context, _, _ projection.Period) ([]projection.RateObservation, error) {
	return s.observations, nil
}

func newTestServer(t *testing.T, rates projection.RateSource) (*httptest.Server, *api.Handler) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store, rates)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, handler
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// renovationRequest is a single renovation record: equivalence 89, social
// factor 20, labor 20, category base 35 - RMT = 89 × 2020 × 0.35 × 0.2 × 0.2
// = 2516.92.
func renovationRequest() api.EstimateRequest {
	return api.EstimateRequest{
		Identifiers:   []string{"obra-1"},
		Categories:    []string{"Reforma"},
		Materials:     []string{"Alvenaria"},
		AreaTypes:     []string{"Principal"},
		TotalAreas:    []string{"100"},
		UnitCosts:     []string{"2000"},
		Regions:       []string{"SP"},
		Destinations:  []string{"Residencial Unifamiliar"},
		InvoiceValues: []string{"0"},
		MeasuredAreas: []string{"100"},
		StartPeriods:  []string{"2023-01"},
		EndPeriods:    []string{"2023-03"},
	}
}

// =============================================================================
// ESTIMATES
// =============================================================================

func TestSubmitEstimate_FullPipeline(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{observations: []projection.RateObservation{
		{Period: projection.NewPeriod(2022, time.December), AnnualizedRate: decimal.RequireFromString("10")},
	}})

	resp := postJSON(t, server.URL+"/api/estimates", renovationRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.EstimateResponse](t, resp)

	// Valuation
	require.Len(t, body.Areas, 1)
	assert.InDelta(t, 2516.92, body.TotalRemuneration, 0.001)
	assert.InDelta(t, 2516.92, body.Areas[0].Remuneration, 0.001)
	assert.Equal(t, "R$ 2.516,92", body.Areas[0].RemunerationBRL)
	require.NotNil(t, body.Areas[0].EquivalencePct)
	assert.InDelta(t, 89, *body.Areas[0].EquivalencePct, 0.001)

	// Summary: total, factor, adjusted (default 50%), monthly (12 months)
	require.Len(t, body.Summary, 4)
	assert.Equal(t, "RMT TOTAL", body.Summary[0].Label)
	assert.InDelta(t, 50, body.Summary[1].Value, 0.001)
	assert.InDelta(t, 1258.46, body.Summary[2].Value, 0.001)
	assert.InDelta(t, 104.87, body.Summary[3].Value, 0.005)

	// Accrual: 3 periods, January settles at December's 10%
	require.Len(t, body.Accrual.Rows, 3)
	assert.Equal(t, "01/2023", body.Accrual.Rows[0].Period)
	assert.InDelta(t, 10, body.Accrual.Rows[0].EffectiveRate, 0.001)
	assert.InDelta(t, 0, body.Accrual.Rows[1].EffectiveRate, 0.001, "no January observation")
	assert.InDelta(t, 2, body.Accrual.Rows[0].SurchargePct, 0.001)
	assert.InDelta(t, 6, body.Accrual.Rows[2].SurchargePct, 0.001)

	// Contribution: renovation reduction of 65%
	require.Len(t, body.Contribution, 6)
	assert.InDelta(t, 926.23, body.Contribution[0].Value, 0.005, "INSS devido")
	assert.InDelta(t, 324.18, body.Contribution[1].Value, 0.005, "INSS a pagar")
	assert.InDelta(t, 602.05, body.Contribution[2].Value, 0.005, "economia")
	assert.InDelta(t, 30, body.Contribution[3].Value, 0.001, "honorários %")
	assert.InDelta(t, 180.61, body.Contribution[4].Value, 0.005, "honorários")
	assert.InDelta(t, 421.43, body.Contribution[5].Value, 0.005, "economia real")
}

func TestSubmitEstimate_DefaultRangeAndParameters(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	req := renovationRequest()
	req.StartPeriods = nil
	req.EndPeriods = nil

	resp := postJSON(t, server.URL+"/api/estimates", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.EstimateResponse](t, resp)

	// Defaults: 2022-10 .. 2023-09, factor 50, 12 months.
	require.Len(t, body.Accrual.Rows, 12)
	assert.Equal(t, "10/2022", body.Accrual.Rows[0].Period)
	assert.Equal(t, "09/2023", body.Accrual.Rows[11].Period)
	assert.InDelta(t, 50, body.AdjustmentFactorPct, 0.001)
	assert.Equal(t, 12, body.ExecutionMonths)
	assert.InDelta(t, 20, body.Accrual.Rows[11].SurchargePct, 0.001, "cap reached")
}

func TestSubmitEstimate_RangeSpansAllRecords(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	req := renovationRequest()
	req.Identifiers = []string{"a", "b"}
	req.Categories = []string{"Reforma", "Reforma"}
	req.Materials = []string{"Alvenaria", "Alvenaria"}
	req.AreaTypes = []string{"Principal", "Principal"}
	req.TotalAreas = []string{"100", "100"}
	req.UnitCosts = []string{"2000", "2000"}
	req.Regions = []string{"SP", "SP"}
	req.Destinations = []string{"Residencial Unifamiliar", "Residencial Unifamiliar"}
	req.InvoiceValues = []string{"0", "0"}
	req.MeasuredAreas = []string{"100", "100"}
	req.StartPeriods = []string{"2023-03", "2023-01"}
	req.EndPeriods = []string{"2023-02", "2023-05"}

	resp := postJSON(t, server.URL+"/api/estimates", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.EstimateResponse](t, resp)

	// Earliest start, latest end.
	require.Len(t, body.Accrual.Rows, 5)
	assert.Equal(t, "01/2023", body.Accrual.Rows[0].Period)
	assert.Equal(t, "05/2023", body.Accrual.Rows[4].Period)
}

// =============================================================================
// VALIDATION - all or nothing
// =============================================================================

func TestSubmitEstimate_BadFieldAbortsWholeSubmission(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	req := renovationRequest()
	req.Identifiers = []string{"a", "b"}
	req.Categories = []string{"Reforma", "Reforma"}
	req.Materials = []string{"Alvenaria", "Alvenaria"}
	req.AreaTypes = []string{"Principal", "Principal"}
	req.TotalAreas = []string{"100", "12a.5"} // record 2 is malformed
	req.UnitCosts = []string{"2000", "2000"}
	req.Regions = []string{"SP", "SP"}
	req.Destinations = []string{"Residencial Unifamiliar", "Residencial Unifamiliar"}
	req.InvoiceValues = []string{"0", "0"}
	req.MeasuredAreas = []string{"100", "100"}
	req.StartPeriods = nil
	req.EndPeriods = nil

	resp := postJSON(t, server.URL+"/api/estimates", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[api.ErrorResponse](t, resp)

	assert.Equal(t, "areaTotal", body.Field)
	require.NotNil(t, body.Index)
	assert.Equal(t, 1, *body.Index)
	assert.Equal(t, "12a.5", body.Value)
}

func TestSubmitEstimate_MismatchedArraysRejected(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	req := renovationRequest()
	req.UnitCosts = []string{"2000", "1500"} // one record, two costs

	resp := postJSON(t, server.URL+"/api/estimates", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitEstimate_EmptySubmissionRejected(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	resp := postJSON(t, server.URL+"/api/estimates", api.EstimateRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitEstimate_BadPeriodRejected(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	req := renovationRequest()
	req.StartPeriods = []string{"outubro/2022"}

	resp := postJSON(t, server.URL+"/api/estimates", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "mesInicio", body.Field)
}

// =============================================================================
// RULE SETS
// =============================================================================

func TestCreateRuleSet_ActivationChangesSubmissions(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	resp := postJSON(t, server.URL+"/api/rules", map[string]any{
		"id":     "revisao-teste",
		"name":   "Revisão de teste",
		"active": true,
		"config": map[string]any{
			"constants": map[string]any{"contribution_rate": 0.5},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	estimate := postJSON(t, server.URL+"/api/estimates", renovationRequest())
	require.Equal(t, http.StatusOK, estimate.StatusCode)
	body := decodeBody[api.EstimateResponse](t, estimate)

	// due = 2516.92 × 0.5 instead of × 0.368
	assert.InDelta(t, 1258.46, body.Contribution[0].Value, 0.005)

	active, err := http.Get(server.URL + "/api/rules/active")
	require.NoError(t, err)
	defer active.Body.Close()
	activeDTO := decodeBody[api.RuleSetDTO](t, active)
	assert.Equal(t, "revisao-teste", activeDTO.ID)
}

func TestCreateRuleSet_InvalidDocumentRejected(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	resp := postJSON(t, server.URL+"/api/rules", map[string]any{
		"id":     "quebrado",
		"config": map[string]any{"social_bands": []map[string]any{{"pct": 20}, {"up_to": 100, "pct": 40}}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRuleSet_UnknownIs404(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	resp, err := http.Get(server.URL + "/api/rules/nao-existe")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListAndRun(t *testing.T) {
	server, _ := newTestServer(t, &stubRates{})

	list, err := http.Get(server.URL + "/api/scenarios")
	require.NoError(t, err)
	defer list.Body.Close()
	scenarios := decodeBody[[]api.ScenarioDTO](t, list)
	require.NotEmpty(t, scenarios)

	run := postJSON(t, server.URL+"/api/scenarios/"+scenarios[0].ID+"/run", nil)
	require.Equal(t, http.StatusOK, run.StatusCode)
	body := decodeBody[api.EstimateResponse](t, run)
	assert.NotEmpty(t, body.Areas)
	assert.Len(t, body.Summary, 4)
	assert.Len(t, body.Contribution, 6)

	missing := postJSON(t, server.URL+"/api/scenarios/nao-existe/run", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
