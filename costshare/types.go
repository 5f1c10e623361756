/*
Package costshare provides the cost-share engine for CPAP equipment estimates.

PURPOSE:
  Given a plan (deductible, coinsurance, out-of-pocket maximum) and a set of
  billable items, this package splits every charge between patient and
  insurer and simulates a multi-month rental schedule with an annual
  benefit-year reset.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-decimal dollar amount
  - PlanParameters: The insurance plan a calculation runs under
  - BillableItem: A supply (one-time) or rental (recurring) charge
  - ChargeOutcome / MonthlyResult / Totals: Simulation output records
  - RunningBalances: Remaining deductible and out-of-pocket during a run

DESIGN PRINCIPLES:
  1. Purity: Allocate and Simulate have no package-level state
  2. Precision: Uses decimal.Decimal, rounds to cents only on output
  3. Immutability: Everything except RunningBalances is a value record

USAGE:
  plan := costshare.PlanParameters{
      OOPMax:          costshare.NewMoneyFromCents(400000),
      CoinsuranceRate: decimal.RequireFromString("0.20"),
      EffectiveMonth:  time.January,
      ResetMonth:      time.January,
  }
  est, err := costshare.Simulate(items, plan)

SEE ALSO:
  - allocate.go: The per-charge allocation algorithm
  - simulate.go: The rental schedule simulation
  - calendar.go: Benefit-year month arithmetic
*/
package costshare

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-decimal dollars
// =============================================================================

// Money is a dollar amount. The zero value is $0.00.
type Money struct {
	Value decimal.Decimal
}

// Cents is the number of decimal places money is rounded to on output.
const Cents = 2

func NewMoneyFromCents(cents int64) Money { return Money{Value: decimal.New(cents, -Cents)} }

// ParseMoney parses a decimal string such as "142.03".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for literal amounts. It panics on malformed
// input.
func MustParseMoney(s string) Money {
	return Money{Value: decimal.RequireFromString(s)}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money { return Money{Value: m.Value.Sub(b.Value)} }

func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))}
}

// Round rounds half away from zero to whole cents.
func (m Money) Round() Money { return Money{Value: m.Value.Round(Cents)} }

func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsPositive() bool                { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool              { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool        { return m.Value.GreaterThan(b.Value) }
func (m Money) GreaterThanOrEqual(b Money) bool { return m.Value.GreaterThanOrEqual(b.Value) }
func (m Money) LessThan(b Money) bool           { return m.Value.LessThan(b.Value) }

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// String renders the amount with exactly two decimals, e.g. "28.41".
func (m Money) String() string { return m.Value.StringFixed(Cents) }

// MarshalJSON writes money as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Value.UnmarshalJSON(b)
}

// =============================================================================
// PLAN
// =============================================================================

// PlanParameters describe the insurance plan a run is priced under.
// DeductibleMet <= DeductibleTotal and OOPMet <= OOPMax are expected but not
// enforced; negative remainders clamp to zero.
type PlanParameters struct {
	DeductibleTotal Money
	DeductibleMet   Money
	OOPMax          Money
	OOPMet          Money
	CoinsuranceRate decimal.Decimal // fraction in [0,1]
	EffectiveMonth  time.Month
	ResetMonth      time.Month
}

// InitialBalances returns the remaining deductible and out-of-pocket amounts
// at the start of a run, clamped at zero.
func (p PlanParameters) InitialBalances() RunningBalances {
	return RunningBalances{
		DeductibleRemaining: p.DeductibleTotal.Sub(p.DeductibleMet).Max(ZeroMoney()),
		OOPRemaining:        p.OOPMax.Sub(p.OOPMet).Max(ZeroMoney()),
	}
}

// FullBalances returns the balances at the start of a fresh benefit year.
func (p PlanParameters) FullBalances() RunningBalances {
	return RunningBalances{
		DeductibleRemaining: p.DeductibleTotal,
		OOPRemaining:        p.OOPMax,
	}
}

// =============================================================================
// BILLABLE ITEMS
// =============================================================================

type ItemKind string

const (
	KindOneTime   ItemKind = "one-time"
	KindRecurring ItemKind = "recurring"
)

// BillableItem is a single HCPCS-coded charge. Recurring items bill Allowed
// once per period for RepeatCount periods.
type BillableItem struct {
	Code        string
	Description string
	Allowed     Money
	Kind        ItemKind
	RepeatCount int
}

func (i BillableItem) IsRecurring() bool { return i.Kind == KindRecurring }

// =============================================================================
// RESULTS
// =============================================================================

// ChargeOutcome is the split of one due-now charge.
// Patient + Insurer == Allowed, to the cent.
type ChargeOutcome struct {
	Item    BillableItem
	Allowed Money
	Patient Money
	Insurer Money
}

// RunningBalances is the only mutable state in a run. It is owned by a
// single simulation pass and never shared. Inside a run the amounts are
// exact; reported balances are rounded.
type RunningBalances struct {
	DeductibleRemaining Money
	OOPRemaining        Money
}

// Round returns the balances rounded to cents for reporting.
func (b RunningBalances) Round() RunningBalances {
	return RunningBalances{
		DeductibleRemaining: b.DeductibleRemaining.Round(),
		OOPRemaining:        b.OOPRemaining.Round(),
	}
}

// MonthlyResult is one simulated rental period.
type MonthlyResult struct {
	Period     int
	Month      time.Month
	MonthLabel string
	Charge     Money
	Patient    Money
	Insurer    Money
	Reset      bool            // benefit year rolled over before this period
	Balances   RunningBalances // after this period's charge
}

// Totals are derived once over outcomes and the schedule.
type Totals struct {
	TotalPatient Money
	TotalInsurer Money

	// TotalUpfront is the undiscounted full cost ignoring insurance. It is a
	// reference figure only and is not what the patient owes.
	TotalUpfront Money

	DueNowAllowed Money
	DueNowPatient Money
	DueNowInsurer Money
}

// Estimate bundles everything Simulate produces for one run.
type Estimate struct {
	Plan     PlanParameters
	Outcomes []ChargeOutcome
	Schedule []MonthlyResult
	Totals   Totals
}

// MaxRepeatCount returns the longest recurring item's period count.
func MaxRepeatCount(items []BillableItem) int {
	max := 0
	for _, it := range items {
		if it.IsRecurring() && it.RepeatCount > max {
			max = it.RepeatCount
		}
	}
	return max
}
