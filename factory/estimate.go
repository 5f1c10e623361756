/*
Package factory provides JSON to Go estimate-request conversion.

PURPOSE:
  Converts the JSON an operator (or the web form) submits into the plan
  parameters and billable items the cost-share engine runs on. Fields the
  operator leaves out fall back to the fee schedule and to the default plan.

JSON SCHEMA:
  {
    "plan": {
      "deductible_total": 500,
      "deductible_met": 0,
      "oop_max": 4000,
      "oop_met": 0,
      "coinsurance_percent": 20,
      "effective_date": "2024-01-01",
      "reset_date": "2026-01-01"
    },
    "items": [
      {"code": "A7030"},
      {"code": "E0601", "allowed": 70.00, "months": 13},
      {"code": "A9999", "description": "Travel kit", "allowed": "12.50", "kind": "one-time"}
    ],
    "substitutions": {"A7030": "A7034"}
  }

  - Money accepts JSON numbers or decimal strings.
  - coinsurance_percent (0-100) and coinsurance_rate (0-1) are alternatives.
  - effective_date / reset_date only contribute their month; effective_month
    and reset_month (1-12) may be given instead.
  - An empty items list prices the whole stored fee schedule.
  - Codes not in the fee schedule are accepted when allowed and kind are given.

USAGE:
  f := factory.NewEstimateFactory(catalogStore)
  ej, err := f.ParseEstimate(body)
  req, err := f.Build(ctx, ej)
  est, err := costshare.Simulate(req.Items, req.Plan)

SEE ALSO:
  - costshare/types.go: PlanParameters and BillableItem
  - catalog/resolve.go: Substitutions and overrides
*/
package factory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/costshare"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EstimateJSON is the JSON representation of an estimate request.
type EstimateJSON struct {
	Plan          PlanJSON          `json:"plan"`
	Items         []ItemJSON        `json:"items,omitempty"`
	Substitutions map[string]string `json:"substitutions,omitempty"` // slot code -> alternate code
}

// PlanJSON represents the plan parameters. Nil fields take defaults.
type PlanJSON struct {
	DeductibleTotal    *costshare.Money `json:"deductible_total,omitempty"`
	DeductibleMet      *costshare.Money `json:"deductible_met,omitempty"`
	OOPMax             *costshare.Money `json:"oop_max,omitempty"`
	OOPMet             *costshare.Money `json:"oop_met,omitempty"`
	CoinsurancePercent *decimal.Decimal `json:"coinsurance_percent,omitempty"`
	CoinsuranceRate    *decimal.Decimal `json:"coinsurance_rate,omitempty"`
	EffectiveDate      string           `json:"effective_date,omitempty"` // YYYY-MM-DD
	EffectiveMonth     int              `json:"effective_month,omitempty"`
	ResetDate          string           `json:"reset_date,omitempty"` // YYYY-MM-DD
	ResetMonth         int              `json:"reset_month,omitempty"`
}

// ItemJSON selects a fee schedule item and optionally overrides it.
type ItemJSON struct {
	Code        string           `json:"code"`
	Description *string          `json:"description,omitempty"`
	Allowed     *costshare.Money `json:"allowed,omitempty"`
	Kind        string           `json:"kind,omitempty"` // one-time, recurring
	Months      *int             `json:"months,omitempty"`
}

// Request is a fully resolved estimate request.
type Request struct {
	Plan  costshare.PlanParameters
	Items []costshare.BillableItem
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPlan returns the plan a blank form starts with: no deductible,
// $4,000 out-of-pocket maximum, 20% coinsurance, January benefit year.
func DefaultPlan() costshare.PlanParameters {
	return costshare.PlanParameters{
		DeductibleTotal: costshare.ZeroMoney(),
		DeductibleMet:   costshare.ZeroMoney(),
		OOPMax:          costshare.NewMoneyFromCents(400000),
		OOPMet:          costshare.ZeroMoney(),
		CoinsuranceRate: decimal.New(20, -2),
		EffectiveMonth:  time.January,
		ResetMonth:      time.January,
	}
}

// =============================================================================
// ESTIMATE FACTORY
// =============================================================================

// EstimateFactory converts JSON estimate requests to engine inputs.
type EstimateFactory struct {
	Catalog catalog.Store
}

// NewEstimateFactory creates a factory that resolves items against st.
func NewEstimateFactory(st catalog.Store) *EstimateFactory {
	return &EstimateFactory{Catalog: st}
}

// ParseEstimate parses a JSON document into an EstimateJSON.
func (f *EstimateFactory) ParseEstimate(data []byte) (EstimateJSON, error) {
	var ej EstimateJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return EstimateJSON{}, fmt.Errorf("failed to parse estimate JSON: %w", err)
	}
	return ej, nil
}

// Build resolves plan defaults and items.
func (f *EstimateFactory) Build(ctx context.Context, ej EstimateJSON) (Request, error) {
	plan, err := ParsePlan(ej.Plan)
	if err != nil {
		return Request{}, err
	}

	items, err := f.resolveItems(ctx, ej)
	if err != nil {
		return Request{}, err
	}

	for _, it := range items {
		if err := it.Validate(); err != nil {
			return Request{}, err
		}
	}

	return Request{Plan: plan, Items: items}, nil
}

func (f *EstimateFactory) resolveItems(ctx context.Context, ej EstimateJSON) ([]costshare.BillableItem, error) {
	requested := ej.Items
	if len(requested) == 0 {
		entries, err := f.Catalog.ListItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list fee schedule: %w", err)
		}
		for _, e := range entries {
			requested = append(requested, ItemJSON{Code: e.Item.Code})
		}
	}

	if err := checkSubstitutions(requested, ej.Substitutions); err != nil {
		return nil, err
	}

	items := make([]costshare.BillableItem, 0, len(requested))
	for _, ij := range requested {
		item, err := f.resolveItem(ctx, ij, ej.Substitutions[ij.Code])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (f *EstimateFactory) resolveItem(ctx context.Context, ij ItemJSON, alternate string) (costshare.BillableItem, error) {
	override := catalog.Override{Description: ij.Description, Allowed: ij.Allowed, Months: ij.Months}

	_, err := f.Catalog.GetItem(ctx, ij.Code)
	if errors.Is(err, catalog.ErrItemNotFound) && ij.Kind != "" && ij.Allowed != nil {
		return customItem(ij)
	}
	if err != nil {
		return costshare.BillableItem{}, err
	}

	resolved, err := catalog.Resolve(ctx, f.Catalog, []catalog.Selection{
		{Code: ij.Code, Alternate: alternate, Override: override},
	})
	if err != nil {
		return costshare.BillableItem{}, err
	}
	return resolved[0], nil
}

// checkSubstitutions rejects substitutions for slots that are not billed.
func checkSubstitutions(items []ItemJSON, subs map[string]string) error {
	billed := make(map[string]bool, len(items))
	for _, ij := range items {
		billed[ij.Code] = true
	}

	slots := make([]string, 0, len(subs))
	for slot := range subs {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		if !billed[slot] {
			return &catalog.ItemNotFoundError{Code: slot}
		}
	}
	return nil
}

func customItem(ij ItemJSON) (costshare.BillableItem, error) {
	kind, err := parseKind(ij.Kind)
	if err != nil {
		return costshare.BillableItem{}, err
	}
	item := costshare.BillableItem{
		Code:        ij.Code,
		Description: ij.Code,
		Allowed:     *ij.Allowed,
		Kind:        kind,
	}
	if ij.Description != nil {
		item.Description = *ij.Description
	}
	if kind == costshare.KindRecurring {
		item.RepeatCount = catalog.DefaultRentalMonths
		if ij.Months != nil {
			item.RepeatCount = *ij.Months
		}
	}
	return item, nil
}

// ToJSON converts resolved inputs back to an EstimateJSON with every field set.
func (f *EstimateFactory) ToJSON(req Request) EstimateJSON {
	plan := req.Plan
	rate := plan.CoinsuranceRate
	ej := EstimateJSON{
		Plan: PlanJSON{
			DeductibleTotal: &plan.DeductibleTotal,
			DeductibleMet:   &plan.DeductibleMet,
			OOPMax:          &plan.OOPMax,
			OOPMet:          &plan.OOPMet,
			CoinsuranceRate: &rate,
			EffectiveMonth:  int(plan.EffectiveMonth),
			ResetMonth:      int(plan.ResetMonth),
		},
	}

	for _, it := range req.Items {
		it := it
		ij := ItemJSON{
			Code:        it.Code,
			Description: &it.Description,
			Allowed:     &it.Allowed,
			Kind:        string(it.Kind),
		}
		if it.IsRecurring() {
			ij.Months = &it.RepeatCount
		}
		ej.Items = append(ej.Items, ij)
	}
	return ej
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// ParsePlan applies defaults to pj and converts it to PlanParameters.
func ParsePlan(pj PlanJSON) (costshare.PlanParameters, error) {
	plan := DefaultPlan()

	if pj.DeductibleTotal != nil {
		plan.DeductibleTotal = *pj.DeductibleTotal
	}
	if pj.DeductibleMet != nil {
		plan.DeductibleMet = *pj.DeductibleMet
	}
	if pj.OOPMax != nil {
		plan.OOPMax = *pj.OOPMax
	}
	if pj.OOPMet != nil {
		plan.OOPMet = *pj.OOPMet
	}

	switch {
	case pj.CoinsurancePercent != nil && pj.CoinsuranceRate != nil:
		return costshare.PlanParameters{}, costshare.InvalidInput("coinsurance", "", "give coinsurance_percent or coinsurance_rate, not both")
	case pj.CoinsurancePercent != nil:
		plan.CoinsuranceRate = pj.CoinsurancePercent.Div(decimal.NewFromInt(100))
	case pj.CoinsuranceRate != nil:
		plan.CoinsuranceRate = *pj.CoinsuranceRate
	}

	var err error
	if plan.EffectiveMonth, err = parseMonth("effective", pj.EffectiveDate, pj.EffectiveMonth, plan.EffectiveMonth); err != nil {
		return costshare.PlanParameters{}, err
	}
	if plan.ResetMonth, err = parseMonth("reset", pj.ResetDate, pj.ResetMonth, plan.ResetMonth); err != nil {
		return costshare.PlanParameters{}, err
	}

	if err := plan.Validate(); err != nil {
		return costshare.PlanParameters{}, err
	}
	return plan, nil
}

// parseMonth reads a month from a YYYY-MM-DD date or a 1-12 number. The
// date wins when both are given.
func parseMonth(prefix, date string, month int, fallback time.Month) (time.Month, error) {
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return 0, costshare.InvalidInput(prefix+"_date", date, "use YYYY-MM-DD")
		}
		return t.Month(), nil
	}
	if month == 0 {
		return fallback, nil
	}
	if month < 1 || month > 12 {
		return 0, costshare.InvalidInput(prefix+"_month", fmt.Sprint(month), "must be a month between 1 and 12")
	}
	return time.Month(month), nil
}

func parseKind(s string) (costshare.ItemKind, error) {
	switch s {
	case "one-time", "one_time", "once":
		return costshare.KindOneTime, nil
	case "recurring", "monthly":
		return costshare.KindRecurring, nil
	default:
		return "", costshare.InvalidInput("kind", s, "must be one-time or recurring")
	}
}
