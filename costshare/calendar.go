package costshare

import "time"

// =============================================================================
// BENEFIT YEAR - Month arithmetic for the rental schedule
// =============================================================================

// BenefitYear describes when a rental starts and when the plan's deductible
// and out-of-pocket balances roll over.
//
// Examples:
//   - Calendar-year plan, rental starting in March: {March, January}
//   - Fiscal-year plan starting July, rental starting in May: {May, July}
type BenefitYear struct {
	EffectiveMonth time.Month
	ResetMonth     time.Month
}

// BenefitYear returns the plan's benefit-year configuration.
func (p PlanParameters) BenefitYear() BenefitYear {
	return BenefitYear{EffectiveMonth: p.EffectiveMonth, ResetMonth: p.ResetMonth}
}

// CalendarMonth returns the calendar month billed in the given 1-based period.
// Period 1 is the effective month; later periods wrap around December.
func (b BenefitYear) CalendarMonth(period int) time.Month {
	if period <= 1 {
		return b.EffectiveMonth
	}
	return time.Month((int(b.EffectiveMonth)+period-2)%12 + 1)
}

// ResetsAt reports whether balances roll over before the given period.
// Period 1 never resets: it is priced against the balances the plan
// reports as already met.
func (b BenefitYear) ResetsAt(period int) bool {
	if period <= 1 {
		return false
	}
	return b.CalendarMonth(period) == b.ResetMonth
}

// FirstReset returns the first period (>= 2) at which balances roll over.
func (b BenefitYear) FirstReset() int {
	for p := 2; p <= 13; p++ {
		if b.ResetsAt(p) {
			return p
		}
	}
	return 0
}

// MonthLabel returns the English month name used on statements.
func MonthLabel(m time.Month) string {
	return m.String()
}
