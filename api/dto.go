/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract. Money is always a
  fixed two-decimal string ("28.41"); requests accept numbers too.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Estimate:
    EstimateDTO, ChargeDTO, MonthDTO, TotalsDTO, PlanDTO
    (requests use factory.EstimateJSON directly)

  Statement:
    StatementRequest

  Allocation:
    AllocationRequest, AllocationDTO

  Catalog:
    CatalogItemDTO, AlternateDTO

  Scenarios:
    ScenarioDTO

VALIDATION:
  Validation is done by the engine and the factory, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/estimate.go: EstimateJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/costshare"
	"github.com/warp/cpap-estimator/factory"
)

// =============================================================================
// ESTIMATES
// =============================================================================

// EstimateDTO is a complete estimate.
type EstimateDTO struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Plan      PlanDTO     `json:"plan"`
	DueNow    []ChargeDTO `json:"due_now"`
	Schedule  []MonthDTO  `json:"schedule"`
	Totals    TotalsDTO   `json:"totals"`
}

// PlanDTO echoes the plan the estimate was computed with, defaults applied.
type PlanDTO struct {
	DeductibleTotal costshare.Money `json:"deductible_total"`
	DeductibleMet   costshare.Money `json:"deductible_met"`
	OOPMax          costshare.Money `json:"oop_max"`
	OOPMet          costshare.Money `json:"oop_met"`
	CoinsuranceRate decimal.Decimal `json:"coinsurance_rate"`
	EffectiveMonth  string          `json:"effective_month"`
	ResetMonth      string          `json:"reset_month"`
}

// ChargeDTO is one due-now charge.
type ChargeDTO struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Allowed     costshare.Money `json:"allowed"`
	Patient     costshare.Money `json:"patient"`
	Insurer     costshare.Money `json:"insurer"`
}

// MonthDTO is one rental period.
type MonthDTO struct {
	Period              int             `json:"period"`
	Month               string          `json:"month"`
	Charge              costshare.Money `json:"charge"`
	Patient             costshare.Money `json:"patient"`
	Insurer             costshare.Money `json:"insurer"`
	Reset               bool            `json:"reset"`
	DeductibleRemaining costshare.Money `json:"deductible_remaining"`
	OOPRemaining        costshare.Money `json:"oop_remaining"`
}

// TotalsDTO carries the estimate totals.
type TotalsDTO struct {
	TotalPatient  costshare.Money `json:"total_patient"`
	TotalInsurer  costshare.Money `json:"total_insurer"`
	TotalUpfront  costshare.Money `json:"total_upfront"`
	DueNowAllowed costshare.Money `json:"due_now_allowed"`
	DueNowPatient costshare.Money `json:"due_now_patient"`
	DueNowInsurer costshare.Money `json:"due_now_insurer"`
}

// StatementRequest is an estimate request plus the details printed in the
// statement header. Empty details print as blanks.
type StatementRequest struct {
	factory.EstimateJSON
	PatientName string `json:"patient_name,omitempty"`
	DOB         string `json:"dob,omitempty"`
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// AllocationRequest re-evaluates a single charge against given balances.
type AllocationRequest struct {
	Amount              costshare.Money  `json:"amount"`
	DeductibleRemaining costshare.Money  `json:"deductible_remaining"`
	OOPRemaining        costshare.Money  `json:"oop_remaining"`
	CoinsuranceRate     *decimal.Decimal `json:"coinsurance_rate,omitempty"`
	CoinsurancePercent  *decimal.Decimal `json:"coinsurance_percent,omitempty"`
}

// AllocationDTO is the split of one charge and the balances after it.
type AllocationDTO struct {
	Patient             costshare.Money `json:"patient"`
	Insurer             costshare.Money `json:"insurer"`
	DeductibleRemaining costshare.Money `json:"deductible_remaining"`
	OOPRemaining        costshare.Money `json:"oop_remaining"`
}

// =============================================================================
// CATALOG
// =============================================================================

// CatalogItemDTO is a fee schedule entry.
type CatalogItemDTO struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Allowed     costshare.Money `json:"allowed"`
	Kind        string          `json:"kind"`
	Months      int             `json:"months,omitempty"`
	Position    int             `json:"position,omitempty"`
}

// AlternateDTO is a substitution offered for a slot.
type AlternateDTO struct {
	Slot string `json:"slot"`
	CatalogItemDTO
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a canned plan scenario.
type ScenarioDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Plan        factory.PlanJSON `json:"plan"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEstimateDTO(id string, createdAt time.Time, est costshare.Estimate) EstimateDTO {
	p := est.Plan
	dto := EstimateDTO{
		ID:        id,
		CreatedAt: createdAt,
		Plan: PlanDTO{
			DeductibleTotal: p.DeductibleTotal.Round(),
			DeductibleMet:   p.DeductibleMet.Round(),
			OOPMax:          p.OOPMax.Round(),
			OOPMet:          p.OOPMet.Round(),
			CoinsuranceRate: p.CoinsuranceRate,
			EffectiveMonth:  costshare.MonthLabel(p.EffectiveMonth),
			ResetMonth:      costshare.MonthLabel(p.ResetMonth),
		},
		DueNow:   make([]ChargeDTO, len(est.Outcomes)),
		Schedule: make([]MonthDTO, len(est.Schedule)),
		Totals: TotalsDTO{
			TotalPatient:  est.Totals.TotalPatient,
			TotalInsurer:  est.Totals.TotalInsurer,
			TotalUpfront:  est.Totals.TotalUpfront,
			DueNowAllowed: est.Totals.DueNowAllowed,
			DueNowPatient: est.Totals.DueNowPatient,
			DueNowInsurer: est.Totals.DueNowInsurer,
		},
	}

	for i, o := range est.Outcomes {
		dto.DueNow[i] = ChargeDTO{
			Code:        o.Item.Code,
			Description: o.Item.Description,
			Kind:        string(o.Item.Kind),
			Allowed:     o.Allowed,
			Patient:     o.Patient,
			Insurer:     o.Insurer,
		}
	}
	for i, m := range est.Schedule {
		dto.Schedule[i] = MonthDTO{
			Period:              m.Period,
			Month:               m.MonthLabel,
			Charge:              m.Charge,
			Patient:             m.Patient,
			Insurer:             m.Insurer,
			Reset:               m.Reset,
			DeductibleRemaining: m.Balances.DeductibleRemaining,
			OOPRemaining:        m.Balances.OOPRemaining,
		}
	}
	return dto
}

func toCatalogItemDTO(item costshare.BillableItem, position int) CatalogItemDTO {
	return CatalogItemDTO{
		Code:        item.Code,
		Description: item.Description,
		Allowed:     item.Allowed,
		Kind:        string(item.Kind),
		Months:      item.RepeatCount,
		Position:    position,
	}
}

func (d CatalogItemDTO) toItem() costshare.BillableItem {
	item := costshare.BillableItem{
		Code:        d.Code,
		Description: d.Description,
		Allowed:     d.Allowed,
		Kind:        costshare.ItemKind(d.Kind),
	}
	if item.IsRecurring() {
		item.RepeatCount = d.Months
	}
	return item
}

func toAlternateDTO(a catalog.Alternate) AlternateDTO {
	return AlternateDTO{Slot: a.Slot, CatalogItemDTO: toCatalogItemDTO(a.Item, a.Position)}
}
