/*
scenarios.go - Canned demo submissions

PURPOSE:
  A few ready-made submissions for demos and smoke checks. Each scenario
  is a complete EstimateRequest that runs through the exact same pipeline
  as a client submission - nothing is precomputed.

SEE ALSO:
  - handlers.go: computeEstimate, the shared pipeline
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Scenario pairs a description with a ready-made submission.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Request     EstimateRequest
}

// Scenarios returns the built-in demo submissions.
func Scenarios() []Scenario {
	return []Scenario{
		{
			ID:          "casa-unifamiliar",
			Name:        "Casa unifamiliar com anexo",
			Description: "Obra nova residencial de 180 m² com área complementar coberta, concreto usinado",
			Request: EstimateRequest{
				Identifiers:   []string{"principal", "garagem"},
				Categories:    []string{"Obra Nova", "Obra Nova"},
				Materials:     []string{"Alvenaria", "Alvenaria"},
				AreaTypes:     []string{"Principal", "Complementar"},
				Coverages:     []string{"", "Coberta"},
				TotalAreas:    []string{"180", "40"},
				UnitCosts:     []string{"2100.50", "2100.50"},
				Regions:       []string{"SP", "SP"},
				Concrete:      []string{"Sim", ""},
				Destinations:  []string{"Residencial Unifamiliar", "Residencial Unifamiliar"},
				InvoiceValues: []string{"0", "0"},
				MeasuredAreas: []string{"180", "40"},
				StartPeriods:  []string{"2023-01", "2023-01"},
				EndPeriods:    []string{"2023-12", "2023-12"},
			},
		},
		{
			ID:          "reforma-comercial",
			Name:        "Reforma comercial",
			Description: "Reforma de salas comerciais de 850 m² com notas fiscais acima do limite",
			Request: EstimateRequest{
				Identifiers:         []string{"salas"},
				Categories:          []string{"Reforma"},
				Materials:           []string{"Mista"},
				AreaTypes:           []string{"Principal"},
				TotalAreas:          []string{"850"},
				UnitCosts:           []string{"1890"},
				Regions:             []string{"RJ"},
				Destinations:        []string{"Comercial Salas e Lojas"},
				InvoiceValues:       []string{"700000"},
				MeasuredAreas:       []string{"850"},
				AdjustmentFactorPct: "60",
				ExecutionMonths:     "8",
			},
		},
		{
			ID:          "conjunto-popular",
			Name:        "Conjunto habitacional popular",
			Description: "Dois blocos de habitação popular em madeira, 1.200 m² no total",
			Request: EstimateRequest{
				Identifiers:      []string{"bloco-a", "bloco-b"},
				Categories:       []string{"Obra Nova", "Obra Nova"},
				Materials:        []string{"Madeira", "Madeira"},
				AreaTypes:        []string{"Principal", "Principal"},
				TotalAreas:       []string{"600", "600"},
				UnitCosts:        []string{"1450", "1500"},
				Regions:          []string{"RS", "RS"},
				Destinations:     []string{"Conjunto Habitacional Popular", "Conjunto Habitacional Popular"},
				DestinationFlags: []string{"conjunto", "conjunto"},
				InvoiceValues:    []string{"0", "0"},
				MeasuredAreas:    []string{"600", "600"},
				StartPeriods:     []string{"2022-10", "2022-11"},
				EndPeriods:       []string{"2023-08", "2023-09"},
			},
		},
	}
}

// ListScenarios returns the scenario catalog.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := Scenarios()
	dtos := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		dtos = append(dtos, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunScenario runs one canned submission through the pipeline.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, s := range Scenarios() {
		if s.ID != id {
			continue
		}
		resp, err := h.computeEstimate(r.Context(), s.Request)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to run scenario", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeError(w, http.StatusNotFound, "Scenario not found", nil)
}
