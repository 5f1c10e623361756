/*
allocate.go - Per-charge cost-share allocation

PURPOSE:
  Splits one charge between patient and insurer given the patient's
  remaining deductible and out-of-pocket balances.

ALGORITHM (order matters, it decides who absorbs partial amounts):
  1. Deductible: the patient pays min(amount, deductibleRemaining).
  2. Coinsurance on what is left:
       oopRemaining > 0: patient pays min(left * rate, oopRemaining),
                         insurer pays the rest
       oopRemaining = 0: insurer pays all of it
  3. Rounding to cents happens once, on the way out. The unrounded
     coinsurance share is what comes off oopRemaining, and a simulation
     carries the exact balances from one charge to the next.

EXAMPLE:
  a, _ := Allocate(MustParseMoney("142.03"), ZeroMoney(), NewMoneyFromCents(400000), rate20)
  // a.Patient = 28.41, a.Insurer = 113.62, a.OOPRemaining = 3971.59
*/
package costshare

import "github.com/shopspring/decimal"

// Allocation is the result of splitting one charge.
type Allocation struct {
	Patient             Money
	Insurer             Money
	DeductibleRemaining Money
	OOPRemaining        Money
}

// Allocate splits amount between patient and insurer.
//
// The insurer share is derived from the rounded amount minus the rounded
// patient share so that Patient + Insurer equals the charge to the cent.
func Allocate(amount, deductibleRemaining, oopRemaining Money, rate decimal.Decimal) (Allocation, error) {
	if err := requireNonNegative("amount", amount); err != nil {
		return Allocation{}, err
	}
	if err := requireNonNegative("deductible_remaining", deductibleRemaining); err != nil {
		return Allocation{}, err
	}
	if err := requireNonNegative("oop_remaining", oopRemaining); err != nil {
		return Allocation{}, err
	}
	if err := requireRate("coinsurance_rate", rate); err != nil {
		return Allocation{}, err
	}
	a, _ := allocate(amount, RunningBalances{DeductibleRemaining: deductibleRemaining, OOPRemaining: oopRemaining}, rate)
	return a, nil
}

// allocate is Allocate without validation; callers have already checked
// their inputs. Besides the rounded Allocation it returns the exact
// post-charge balances for the next charge in a run.
func allocate(amount Money, bal RunningBalances, rate decimal.Decimal) (Allocation, RunningBalances) {
	if amount.IsZero() {
		return Allocation{
			Patient:             ZeroMoney(),
			Insurer:             ZeroMoney(),
			DeductibleRemaining: bal.DeductibleRemaining.Round(),
			OOPRemaining:        bal.OOPRemaining.Round(),
		}, bal
	}

	left := amount
	patient := ZeroMoney()
	dedRem := bal.DeductibleRemaining
	oopRem := bal.OOPRemaining

	if dedRem.IsPositive() {
		d := left.Min(dedRem)
		patient = patient.Add(d)
		dedRem = dedRem.Sub(d)
		left = left.Sub(d)
	}

	if left.IsPositive() && oopRem.IsPositive() {
		coins := left.Mul(rate).Min(oopRem)
		patient = patient.Add(coins)
		oopRem = oopRem.Sub(coins)
	}

	exact := RunningBalances{
		DeductibleRemaining: dedRem.Max(ZeroMoney()),
		OOPRemaining:        oopRem.Max(ZeroMoney()),
	}
	patient = patient.Round()
	return Allocation{
		Patient:             patient,
		Insurer:             amount.Round().Sub(patient),
		DeductibleRemaining: exact.DeductibleRemaining.Round(),
		OOPRemaining:        exact.OOPRemaining.Round(),
	}, exact
}
