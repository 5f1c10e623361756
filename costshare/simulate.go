/*
simulate.go - Rental schedule simulation

PURPOSE:
  Drives Allocate across everything billed for a CPAP setup: the one-time
  supplies and the first rental month are due now, the remaining rental
  months are billed one period at a time with an annual benefit-year reset.

PROCESSING ORDER:
  1. Balances start at max(total - met, 0) for deductible and OOP.
  2. One pass over the items, in order: one-time items and period 1 of
     each recurring item. Balances thread from one item to the next.
  3. Periods 2..maxRepeat: if the period's calendar month is the plan's
     reset month, balances go back to the full deductible and OOP maximum
     BEFORE the charge. All recurring items still active in the period
     are summed into one charge and allocated once.
  4. Totals: outcomes plus periods 2..max. Period 1 of the schedule is a
     view over the due-now outcomes and is not counted twice. TotalUpfront
     is the one-time items plus one period of every recurring item times
     the longest rental, whatever each rental's own length.

SEE ALSO:
  - allocate.go: Per-charge split
  - calendar.go: Period to calendar month mapping
*/
package costshare

// Simulate prices items under plan. It is a pure function: the same inputs
// always produce the same Estimate.
func Simulate(items []BillableItem, plan PlanParameters) (Estimate, error) {
	if err := plan.Validate(); err != nil {
		return Estimate{}, err
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return Estimate{}, err
		}
	}

	s := simulator{plan: plan, year: plan.BenefitYear(), balances: plan.InitialBalances()}
	s.dueNow(items)
	s.rentalPeriods(items)

	return Estimate{
		Plan:     plan,
		Outcomes: s.outcomes,
		Schedule: s.schedule,
		Totals:   s.totals(items),
	}, nil
}

// simulator holds the state of one pass. It never escapes Simulate.
type simulator struct {
	plan     PlanParameters
	year     BenefitYear
	balances RunningBalances
	outcomes []ChargeOutcome
	schedule []MonthlyResult
}

func (s *simulator) charge(amount Money) Allocation {
	a, exact := allocate(amount, s.balances, s.plan.CoinsuranceRate)
	s.balances = exact
	return a
}

// dueNow prices one-time items and the first period of recurring items.
func (s *simulator) dueNow(items []BillableItem) {
	first := MonthlyResult{
		Period:     1,
		Month:      s.year.CalendarMonth(1),
		MonthLabel: MonthLabel(s.year.CalendarMonth(1)),
		Charge:     ZeroMoney(),
		Patient:    ZeroMoney(),
		Insurer:    ZeroMoney(),
	}
	hasRental := false

	for _, it := range items {
		a := s.charge(it.Allowed)
		s.outcomes = append(s.outcomes, ChargeOutcome{
			Item:    it,
			Allowed: it.Allowed.Round(),
			Patient: a.Patient,
			Insurer: a.Insurer,
		})
		if it.IsRecurring() {
			hasRental = true
			first.Charge = first.Charge.Add(it.Allowed.Round())
			first.Patient = first.Patient.Add(a.Patient)
			first.Insurer = first.Insurer.Add(a.Insurer)
		}
	}

	if hasRental {
		first.Balances = s.balances.Round()
		s.schedule = append(s.schedule, first)
	}
}

// rentalPeriods bills periods 2..max of the recurring items.
func (s *simulator) rentalPeriods(items []BillableItem) {
	for period := 2; period <= MaxRepeatCount(items); period++ {
		reset := s.year.ResetsAt(period)
		if reset {
			s.balances = s.plan.FullBalances()
		}

		combined := ZeroMoney()
		for _, it := range items {
			if it.IsRecurring() && it.RepeatCount >= period {
				combined = combined.Add(it.Allowed)
			}
		}

		a := s.charge(combined)
		month := s.year.CalendarMonth(period)
		s.schedule = append(s.schedule, MonthlyResult{
			Period:     period,
			Month:      month,
			MonthLabel: MonthLabel(month),
			Charge:     combined.Round(),
			Patient:    a.Patient,
			Insurer:    a.Insurer,
			Reset:      reset,
			Balances:   s.balances.Round(),
		})
	}
}

func (s *simulator) totals(items []BillableItem) Totals {
	t := Totals{
		TotalPatient:  ZeroMoney(),
		TotalInsurer:  ZeroMoney(),
		TotalUpfront:  ZeroMoney(),
		DueNowAllowed: ZeroMoney(),
		DueNowPatient: ZeroMoney(),
		DueNowInsurer: ZeroMoney(),
	}

	for _, o := range s.outcomes {
		t.DueNowAllowed = t.DueNowAllowed.Add(o.Allowed)
		t.DueNowPatient = t.DueNowPatient.Add(o.Patient)
		t.DueNowInsurer = t.DueNowInsurer.Add(o.Insurer)
	}
	t.TotalPatient = t.DueNowPatient
	t.TotalInsurer = t.DueNowInsurer

	for _, m := range s.schedule {
		if m.Period == 1 {
			continue
		}
		t.TotalPatient = t.TotalPatient.Add(m.Patient)
		t.TotalInsurer = t.TotalInsurer.Add(m.Insurer)
	}

	monthly := ZeroMoney()
	for _, it := range items {
		if it.IsRecurring() {
			monthly = monthly.Add(it.Allowed)
		} else {
			t.TotalUpfront = t.TotalUpfront.Add(it.Allowed)
		}
	}
	t.TotalUpfront = t.TotalUpfront.Add(monthly.MulInt(MaxRepeatCount(items))).Round()

	return t
}
