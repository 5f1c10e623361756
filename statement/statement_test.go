package statement_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/costshare"
	"github.com/warp/cpap-estimator/statement"
)

func standardEstimate(t *testing.T) costshare.Estimate {
	t.Helper()
	est, err := costshare.Simulate(catalog.Items(catalog.DefaultSchedule()), costshare.PlanParameters{
		OOPMax:          costshare.MustParseMoney("4000"),
		CoinsuranceRate: decimal.RequireFromString("0.20"),
		EffectiveMonth:  time.January,
		ResetMonth:      time.January,
	})
	require.NoError(t, err)
	return est
}

var statementDate = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

// =============================================================================
// MONEY FORMAT
// =============================================================================

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"7.8", "$7.80"},
		{"142.03", "$142.03"},
		{"1224.93", "$1,224.93"},
		{"1234567.891", "$1,234,567.89"},
		{"100000", "$100,000.00"},
		{"-2500.5", "-$2,500.50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, statement.FormatMoney(costshare.MustParseMoney(tt.in)))
		})
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestBuild_SectionsInOrder(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate})

	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{
		statement.HeadingDueNow,
		statement.HeadingSchedule,
		statement.HeadingTotals,
		statement.HeadingPrepay,
		statement.HeadingSummary,
	}, headings)

	assert.Contains(t, doc.Header, "Date: 03/05/2024")
	assert.Contains(t, doc.Header, "Patient Name: ____")
	assert.Equal(t, statement.SelectionLine, doc.Selection)
	assert.Equal(t, statement.SignatureLine, doc.Signature)
}

func TestBuild_DueNowSection(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate})

	s := doc.Section(statement.HeadingDueNow)
	require.NotNil(t, s)
	require.Len(t, s.Rows, 9, "eight charges plus the setup total")

	assert.Equal(t, []string{"A7030", "Full Face Mask", "$142.03", "$28.41", "$113.62"}, s.Rows[0].Cells)
	assert.Equal(t, "CPAP Device Rental (1st Month)", s.Rows[6].Cells[1])

	total := s.Rows[8]
	assert.True(t, total.Total)
	assert.Equal(t, "Setup Total", total.Cells[1])
	assert.Equal(t, "$72.99", total.Cells[3])
}

func TestBuild_ScheduleSection(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate})

	s := doc.Section(statement.HeadingSchedule)
	require.NotNil(t, s)
	require.Len(t, s.Rows, 10)

	assert.Equal(t, []string{"January", "$19.12", "$76.44"}, s.Rows[0].Cells)
	assert.Equal(t, []string{"October", "$19.11", "$76.45"}, s.Rows[9].Cells)
}

func TestBuild_ResetIsMarked(t *testing.T) {
	est := standardEstimate(t)
	est.Schedule[5].Reset = true

	doc := statement.Build(est, statement.Options{Date: statementDate})
	s := doc.Section(statement.HeadingSchedule)
	require.NotNil(t, s)
	assert.Equal(t, "June (benefit year resets)", s.Rows[5].Cells[0])
}

func TestBuild_TotalsPrepayAndSummary(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate})

	totals := doc.Section(statement.HeadingTotals)
	require.NotNil(t, totals)
	assert.Equal(t, []string{"Patient Paid", "$244.98"}, totals.Rows[0].Cells)
	assert.Equal(t, []string{"Insurance Paid", "$979.95"}, totals.Rows[1].Cells)

	// GIVEN a patient who prepays
	// WHEN the prepay row is laid out
	// THEN it shows the patient total, not the combined cost
	prepay := doc.Section(statement.HeadingPrepay)
	require.NotNil(t, prepay)
	assert.True(t, prepay.HideHeader)
	assert.Equal(t, "$244.98", prepay.Rows[0].Cells[1])

	summary := doc.Section(statement.HeadingSummary)
	require.NotNil(t, summary)
	assert.Equal(t, []string{"Combined Cost", "$1,224.93"}, summary.Rows[0].Cells)
}

func TestBuild_NoRentals(t *testing.T) {
	items := catalog.Items(catalog.DefaultSchedule())[:6]
	est, err := costshare.Simulate(items, costshare.PlanParameters{
		OOPMax:          costshare.MustParseMoney("4000"),
		CoinsuranceRate: decimal.RequireFromString("0.20"),
		EffectiveMonth:  time.January,
		ResetMonth:      time.January,
	})
	require.NoError(t, err)

	doc := statement.Build(est, statement.Options{Date: statementDate})
	s := doc.Section(statement.HeadingSchedule)
	require.NotNil(t, s)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "No rental charges", s.Rows[0].Cells[0])
}

func TestBuild_PatientDetails(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{
		Date:        statementDate,
		PatientName: "Jordan Smith",
		DOB:         "07/14/1961",
		Reference:   "est-123",
	})

	assert.Equal(t, "Patient Name: Jordan Smith   DOB: 07/14/1961      Date: 03/05/2024", doc.Header)
	assert.Equal(t, "est-123", doc.Reference)
}

// =============================================================================
// RENDERERS
// =============================================================================

func TestRenderText(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate})

	var buf bytes.Buffer
	require.NoError(t, statement.RenderText(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, statement.Title))
	for _, heading := range []string{statement.HeadingDueNow, statement.HeadingSchedule, statement.HeadingSummary} {
		assert.Contains(t, out, heading)
	}
	assert.Contains(t, out, "Setup Total")
	assert.Contains(t, out, "$1,224.93")
	assert.Contains(t, out, statement.SignatureLine)
}

func TestRenderPDF(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate, Reference: "est-123"})

	var buf bytes.Buffer
	require.NoError(t, statement.RenderPDF(&buf, doc))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderPDF_BadLogo(t *testing.T) {
	doc := statement.Build(standardEstimate(t), statement.Options{Date: statementDate, Logo: []byte("not a png")})

	var buf bytes.Buffer
	assert.Error(t, statement.RenderPDF(&buf, doc))
}
