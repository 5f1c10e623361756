/*
simulate_test.go - Schedule simulation tests

Covers the due-now pass, rental periods, benefit-year reset, the OOP cap
and the totals (no double counting of the first rental month).
*/
package costshare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cpap-estimator/costshare"
)

// =============================================================================
// FIXTURES
// =============================================================================

func oneTime(code, allowed string) costshare.BillableItem {
	return costshare.BillableItem{Code: code, Description: code, Allowed: usd(allowed), Kind: costshare.KindOneTime}
}

func rental(code, allowed string, months int) costshare.BillableItem {
	return costshare.BillableItem{Code: code, Description: code, Allowed: usd(allowed), Kind: costshare.KindRecurring, RepeatCount: months}
}

// cpapSetup mirrors the standard CPAP fee schedule.
func cpapSetup() []costshare.BillableItem {
	return []costshare.BillableItem{
		oneTime("A7030", "142.03"),
		oneTime("A7031", "53.03"),
		oneTime("A7035", "27.22"),
		oneTime("A7036", "7.80"),
		oneTime("A4604", "31.87"),
		oneTime("A7038", "7.38"),
		rental("E0601", "73.18", 10),
		rental("E0562", "22.38", 10),
	}
}

func plan(ded, oop, coinsurance string, effective, reset time.Month) costshare.PlanParameters {
	return costshare.PlanParameters{
		DeductibleTotal: usd(ded),
		OOPMax:          usd(oop),
		CoinsuranceRate: rate(coinsurance),
		EffectiveMonth:  effective,
		ResetMonth:      reset,
	}
}

// =============================================================================
// DUE NOW + SCHEDULE
// =============================================================================

func TestSimulate_NoDeductible(t *testing.T) {
	// GIVEN: $0 deductible, $4000 OOP, 20% coinsurance, January start
	// WHEN: Simulating the standard setup
	// THEN: Every charge is 20% patient

	est, err := costshare.Simulate(cpapSetup(), plan("0", "4000", "0.20", time.January, time.January))
	require.NoError(t, err)

	require.Len(t, est.Outcomes, 8)
	assertMoney(t, "28.41", est.Outcomes[0].Patient)
	assertMoney(t, "113.62", est.Outcomes[0].Insurer)
	assertMoney(t, "14.64", est.Outcomes[6].Patient)
	assertMoney(t, "4.48", est.Outcomes[7].Patient)

	require.Len(t, est.Schedule, 10)
	first := est.Schedule[0]
	assert.Equal(t, 1, first.Period)
	assert.Equal(t, "January", first.MonthLabel)
	assertMoney(t, "95.56", first.Charge)
	assertMoney(t, "19.12", first.Patient, "sum of the two first-month rental outcomes")
	assertMoney(t, "76.44", first.Insurer)

	for _, m := range est.Schedule[1:] {
		assertMoney(t, "19.11", m.Patient)
		assertMoney(t, "76.45", m.Insurer)
		assert.False(t, m.Reset)
	}
	assert.Equal(t, "October", est.Schedule[9].MonthLabel)

	assertMoney(t, "72.99", est.Totals.DueNowPatient)
	assertMoney(t, "244.98", est.Totals.TotalPatient)
	assertMoney(t, "979.95", est.Totals.TotalInsurer)
	assertMoney(t, "1224.93", est.Totals.TotalUpfront)
}

func TestSimulate_DeductibleAbsorbsFirstCharges(t *testing.T) {
	// GIVEN: $500 deductible not met
	// WHEN: Simulating the standard setup
	// THEN: Patient pays everything until the deductible is exhausted in period 3

	est, err := costshare.Simulate(cpapSetup(), plan("500", "4000", "0.20", time.January, time.January))
	require.NoError(t, err)

	for _, o := range est.Outcomes {
		assert.True(t, o.Insurer.IsZero(), "%s is inside the deductible", o.Item.Code)
		assert.True(t, o.Patient.Equal(o.Allowed))
	}

	assertMoney(t, "135.11", est.Schedule[0].Balances.DeductibleRemaining)
	assertMoney(t, "95.56", est.Schedule[1].Patient)
	assertMoney(t, "39.55", est.Schedule[1].Balances.DeductibleRemaining)
	assertMoney(t, "50.75", est.Schedule[2].Patient)
	assertMoney(t, "44.81", est.Schedule[2].Insurer)
	assertMoney(t, "19.11", est.Schedule[3].Patient)

	assertMoney(t, "364.89", est.Totals.DueNowPatient)
	assertMoney(t, "644.97", est.Totals.TotalPatient)
	assertMoney(t, "579.96", est.Totals.TotalInsurer)
	assertMoney(t, "1224.93", est.Totals.TotalUpfront)
}

func TestSimulate_MidRentalReset(t *testing.T) {
	// GIVEN: Rental starts in March, plan resets in June
	// WHEN: Simulating the standard setup
	// THEN: Period 4 (June) resets the deductible before billing

	est, err := costshare.Simulate(cpapSetup(), plan("500", "4000", "0.20", time.March, time.June))
	require.NoError(t, err)

	june := est.Schedule[3]
	assert.Equal(t, time.June, june.Month)
	assert.True(t, june.Reset)
	assertMoney(t, "95.56", june.Patient, "fresh deductible absorbs the charge")
	assertMoney(t, "404.44", june.Balances.DeductibleRemaining)

	assertMoney(t, "36.87", est.Schedule[8].Patient)
	assertMoney(t, "1044.98", est.Totals.TotalPatient)
	assertMoney(t, "179.95", est.Totals.TotalInsurer)

	resets := 0
	for _, m := range est.Schedule {
		if m.Reset {
			resets++
		}
	}
	assert.Equal(t, 1, resets)
}

func TestSimulate_ResetOnEffectiveMonth_FiresInPeriod13(t *testing.T) {
	// GIVEN: January start, January reset, a 14-month rental
	// WHEN: Simulating
	// THEN: Period 13 is the first reset and restores both balances

	items := []costshare.BillableItem{rental("E0601", "100", 14)}
	est, err := costshare.Simulate(items, plan("200", "300", "0.20", time.January, time.January))
	require.NoError(t, err)
	require.Len(t, est.Schedule, 14)

	for _, m := range est.Schedule[:12] {
		assert.False(t, m.Reset, "period %d", m.Period)
	}

	p12 := est.Schedule[11]
	assertMoney(t, "100.00", p12.Balances.OOPRemaining)

	p13 := est.Schedule[12]
	assert.True(t, p13.Reset)
	assert.Equal(t, time.January, p13.Month)
	assertMoney(t, "100.00", p13.Patient)
	assertMoney(t, "100.00", p13.Balances.DeductibleRemaining)
	assertMoney(t, "300.00", p13.Balances.OOPRemaining)

	assertMoney(t, "600.00", est.Totals.TotalPatient)
	assertMoney(t, "800.00", est.Totals.TotalInsurer)
	assertMoney(t, "1400.00", est.Totals.TotalUpfront)
}

func TestSimulate_OOPCap(t *testing.T) {
	// GIVEN: Only $30 of OOP room, 20% coinsurance
	// WHEN: Billing four $100 months
	// THEN: Once OOP hits zero the insurer pays every later charge in full

	items := []costshare.BillableItem{rental("E0601", "100", 4)}
	est, err := costshare.Simulate(items, plan("0", "30", "0.20", time.January, time.January))
	require.NoError(t, err)

	assertMoney(t, "20.00", est.Schedule[0].Patient)
	assertMoney(t, "10.00", est.Schedule[1].Patient)
	assertMoney(t, "0.00", est.Schedule[1].Balances.OOPRemaining)
	for _, m := range est.Schedule[2:] {
		assertMoney(t, "0.00", m.Patient)
		assertMoney(t, "100.00", m.Insurer)
	}
	assertMoney(t, "30.00", est.Totals.TotalPatient)
	assertMoney(t, "370.00", est.Totals.TotalInsurer)
}

func TestSimulate_CarriesExactBalancesBetweenPeriods(t *testing.T) {
	// GIVEN: A $73.18 rental at 25%, a half-cent share every month
	// WHEN: Two periods are billed
	// THEN: OOP drops by 2 x 18.295, not by the rounded 2 x 18.30

	items := []costshare.BillableItem{rental("E0601", "73.18", 2)}
	est, err := costshare.Simulate(items, plan("0", "4000", "0.25", time.January, time.January))
	require.NoError(t, err)

	require.Len(t, est.Schedule, 2)
	assertMoney(t, "18.30", est.Schedule[0].Patient)
	assertMoney(t, "18.30", est.Schedule[1].Patient)
	assertMoney(t, "3963.41", est.Schedule[1].Balances.OOPRemaining)
}

func TestSimulate_BalancesMonotonicWithinBenefitYear(t *testing.T) {
	est, err := costshare.Simulate(cpapSetup(), plan("500", "600", "0.35", time.August, time.January))
	require.NoError(t, err)

	prev := est.Schedule[0].Balances
	for _, m := range est.Schedule[1:] {
		assert.False(t, m.Balances.DeductibleRemaining.IsNegative())
		assert.False(t, m.Balances.OOPRemaining.IsNegative())
		if !m.Reset {
			assert.False(t, m.Balances.DeductibleRemaining.GreaterThan(prev.DeductibleRemaining), "period %d", m.Period)
			assert.False(t, m.Balances.OOPRemaining.GreaterThan(prev.OOPRemaining), "period %d", m.Period)
		}
		assert.Equal(t, m.Charge.String(), m.Patient.Add(m.Insurer).String())
		prev = m.Balances
	}
}

func TestSimulate_TotalsDoNotDoubleCountFirstMonth(t *testing.T) {
	est, err := costshare.Simulate(cpapSetup(), plan("250", "1500", "0.20", time.May, time.January))
	require.NoError(t, err)

	want := costshare.ZeroMoney()
	for _, o := range est.Outcomes {
		want = want.Add(o.Patient)
	}
	for _, m := range est.Schedule[1:] {
		want = want.Add(m.Patient)
	}
	assert.Equal(t, want.String(), est.Totals.TotalPatient.String())

	sum := est.Totals.TotalPatient.Add(est.Totals.TotalInsurer)
	assert.Equal(t, est.Totals.TotalUpfront.String(), sum.String(),
		"every dollar billed is paid by someone")
}

func TestSimulate_UnevenRentalLengths(t *testing.T) {
	// GIVEN: A 3-month and a 5-month rental
	// THEN: Periods 4-5 bill only the longer rental
	// AND: Upfront prices one combined period over the longest rental, so it
	//      is above what is actually billed

	items := []costshare.BillableItem{
		rental("E0601", "50", 5),
		rental("E0562", "20", 3),
	}
	est, err := costshare.Simulate(items, plan("0", "4000", "0", time.January, time.January))
	require.NoError(t, err)

	require.Len(t, est.Schedule, 5)
	assertMoney(t, "70.00", est.Schedule[2].Charge)
	assertMoney(t, "50.00", est.Schedule[3].Charge)
	assertMoney(t, "350.00", est.Totals.TotalUpfront)
	assertMoney(t, "310.00", est.Totals.TotalPatient.Add(est.Totals.TotalInsurer))
}

func TestSimulate_OneTimeOnly_HasNoSchedule(t *testing.T) {
	items := []costshare.BillableItem{oneTime("A7030", "142.03")}
	est, err := costshare.Simulate(items, plan("0", "4000", "0.20", time.January, time.January))
	require.NoError(t, err)

	assert.Empty(t, est.Schedule)
	assertMoney(t, "28.41", est.Totals.TotalPatient)
	assertMoney(t, "142.03", est.Totals.TotalUpfront)
}

func TestSimulate_MetAboveTotal_ClampsToZero(t *testing.T) {
	p := plan("500", "4000", "0.20", time.January, time.January)
	p.DeductibleMet = usd("600")
	p.OOPMet = usd("5000")

	est, err := costshare.Simulate(cpapSetup(), p)
	require.NoError(t, err)

	for _, o := range est.Outcomes {
		assert.True(t, o.Patient.IsZero(), "OOP already met")
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	p := plan("300", "2000", "0.25", time.October, time.January)

	a, err := costshare.Simulate(cpapSetup(), p)
	require.NoError(t, err)
	b, err := costshare.Simulate(cpapSetup(), p)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// =============================================================================
// INVALID INPUT
// =============================================================================

func TestSimulate_RejectsInvalidInput(t *testing.T) {
	valid := plan("500", "4000", "0.20", time.January, time.January)

	cases := []struct {
		name  string
		items []costshare.BillableItem
		plan  func() costshare.PlanParameters
	}{
		{"negative deductible", cpapSetup(), func() costshare.PlanParameters { p := valid; p.DeductibleTotal = usd("-1"); return p }},
		{"negative oop met", cpapSetup(), func() costshare.PlanParameters { p := valid; p.OOPMet = usd("-5"); return p }},
		{"rate above one", cpapSetup(), func() costshare.PlanParameters { p := valid; p.CoinsuranceRate = rate("20"); return p }},
		{"month zero", cpapSetup(), func() costshare.PlanParameters { p := valid; p.EffectiveMonth = 0; return p }},
		{"month thirteen", cpapSetup(), func() costshare.PlanParameters { p := valid; p.ResetMonth = 13; return p }},
		{"negative item", []costshare.BillableItem{oneTime("A7030", "-1")}, func() costshare.PlanParameters { return valid }},
		{"rental without months", []costshare.BillableItem{rental("E0601", "73.18", 0)}, func() costshare.PlanParameters { return valid }},
		{"unknown kind", []costshare.BillableItem{{Code: "X", Allowed: usd("1"), Kind: "weekly"}}, func() costshare.PlanParameters { return valid }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est, err := costshare.Simulate(tc.items, tc.plan())

			assert.ErrorIs(t, err, costshare.ErrInvalidInput)
			assert.Empty(t, est.Outcomes)
			assert.Empty(t, est.Schedule)
		})
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestBenefitYear_CalendarMonth(t *testing.T) {
	by := costshare.BenefitYear{EffectiveMonth: time.November, ResetMonth: time.January}

	assert.Equal(t, time.November, by.CalendarMonth(1))
	assert.Equal(t, time.December, by.CalendarMonth(2))
	assert.Equal(t, time.January, by.CalendarMonth(3))
	assert.Equal(t, time.November, by.CalendarMonth(13))
	assert.Equal(t, 3, by.FirstReset())
	assert.False(t, by.ResetsAt(1))
}

func TestBenefitYear_ResetOnEffectiveMonth(t *testing.T) {
	by := costshare.BenefitYear{EffectiveMonth: time.April, ResetMonth: time.April}
	assert.Equal(t, 13, by.FirstReset())
}
