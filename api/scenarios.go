/*
scenarios.go - Canned plan scenarios for demos and front-desk training

PURPOSE:

	Provides pre-built plans that show how the same CPAP setup is billed
	under different insurance situations. Each scenario is a plan; running
	it prices the stored fee schedule under that plan.

AVAILABLE SCENARIOS:

	deductible-not-met:  $500 deductible, nothing met yet
	deductible-met:      $500 deductible already met this year
	oop-met:             Out-of-pocket maximum already reached
	mid-rental-reset:    Rental starts in March, plan resets in June
	high-deductible:     $3,000 deductible, 30% coinsurance

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/deductible-met/estimate
	POST /api/scenarios/deductible-met/estimate  {"substitutions": {"A7030": "A7034"}}

	A request body may add items and substitutions; the scenario's plan
	always wins.

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and plan
 2. Add a test in scenarios_test.go

SEE ALSO:
  - handlers.go: estimate handlers
  - factory/estimate.go: PlanJSON definitions
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/cpap-estimator/costshare"
	"github.com/warp/cpap-estimator/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

func money(s string) *costshare.Money {
	m := costshare.MustParseMoney(s)
	return &m
}

func percent(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

var scenarios = []ScenarioDTO{
	{
		ID:          "deductible-not-met",
		Name:        "Deductible Not Met",
		Description: "$500 deductible with nothing met; supplies are paid in full by the patient until it is",
		Plan: factory.PlanJSON{
			DeductibleTotal:    money("500"),
			DeductibleMet:      money("0"),
			OOPMax:             money("4000"),
			CoinsurancePercent: percent(20),
			EffectiveMonth:     1,
			ResetMonth:         1,
		},
	},
	{
		ID:          "deductible-met",
		Name:        "Deductible Met",
		Description: "Deductible already satisfied; patient pays 20% coinsurance on every charge",
		Plan: factory.PlanJSON{
			DeductibleTotal:    money("500"),
			DeductibleMet:      money("500"),
			OOPMax:             money("4000"),
			CoinsurancePercent: percent(20),
			EffectiveMonth:     1,
			ResetMonth:         1,
		},
	},
	{
		ID:          "oop-met",
		Name:        "Out-of-Pocket Met",
		Description: "Out-of-pocket maximum already reached; insurance pays everything",
		Plan: factory.PlanJSON{
			DeductibleTotal:    money("500"),
			DeductibleMet:      money("500"),
			OOPMax:             money("4000"),
			OOPMet:             money("4000"),
			CoinsurancePercent: percent(20),
			EffectiveMonth:     1,
			ResetMonth:         1,
		},
	},
	{
		ID:          "mid-rental-reset",
		Name:        "Mid-Rental Reset",
		Description: "Rental starts in March and the benefit year resets in June, restoring the deductible",
		Plan: factory.PlanJSON{
			DeductibleTotal:    money("500"),
			DeductibleMet:      money("0"),
			OOPMax:             money("4000"),
			CoinsurancePercent: percent(20),
			EffectiveMonth:     3,
			ResetMonth:         6,
		},
	},
	{
		ID:          "high-deductible",
		Name:        "High Deductible",
		Description: "$3,000 deductible and 30% coinsurance; the whole setup falls inside the deductible",
		Plan: factory.PlanJSON{
			DeductibleTotal:    money("3000"),
			DeductibleMet:      money("0"),
			OOPMax:             money("6000"),
			CoinsurancePercent: percent(30),
			EffectiveMonth:     1,
			ResetMonth:         1,
		},
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// RunScenario prices the fee schedule under a scenario's plan.
// POST /api/scenarios/{id}/estimate
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}

	var req factory.EstimateJSON
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Plan = s.Plan

	est, err := h.estimate(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "Failed to run scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, toEstimateDTO(h.newID(), h.now().UTC(), est))
}
