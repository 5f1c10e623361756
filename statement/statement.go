/*
Package statement lays out a cost-share estimate as the patient-facing
statement the office prints and has signed.

PURPOSE:
  The engine produces numbers. This package decides what the patient sees:
  five numbered sections, a payment-option selection line and a signature
  block. The layout is a plain data model (Document) so the PDF and text
  renderers print exactly the same rows.

SECTIONS:
  1) Total Due Now (Supplies + First Month)  one row per due-now charge
  2) Monthly Rental Schedule                 one row per rental period
  3) Estimated Totals                        patient and insurance totals
  4) Optional Full Prepay Amount             what the patient pays upfront
  5) Overall Cost Summary                    combined undiscounted cost

  The prepay row repeats the patient total: prepaying does not change what
  the patient owes, only when it is collected.

USAGE:
  doc := statement.Build(est, statement.Options{Date: time.Now()})
  err := statement.RenderPDF(w, doc)
  err = statement.RenderText(os.Stdout, doc)
*/
package statement

import (
	"strings"
	"time"

	"github.com/warp/cpap-estimator/costshare"
)

// =============================================================================
// DOCUMENT MODEL
// =============================================================================

// Align is a column alignment understood by both renderers.
type Align string

const (
	AlignLeft  Align = "L"
	AlignRight Align = "R"
)

// Column describes one table column. Width is in PDF points.
type Column struct {
	Title string
	Width float64
	Align Align
}

// Row is one table row. Total rows are printed in bold.
type Row struct {
	Cells []string
	Total bool
}

// Section is a numbered heading followed by a table.
type Section struct {
	Heading    string
	Columns    []Column
	HideHeader bool
	Rows       []Row
}

// Document is a fully laid-out statement.
type Document struct {
	Title     string
	Reference string
	Header    string
	Logo      []byte // PNG, optional
	Sections  []Section
	Selection string
	Signature string
}

// Options carries the parts of a statement that do not come from the
// estimate. Empty names print as blanks to be filled in by hand.
type Options struct {
	Date        time.Time
	PatientName string
	DOB         string
	Reference   string
	Logo        []byte
}

// =============================================================================
// LABELS
// =============================================================================

const (
	Title = "CPAP Cost-Share Estimate"

	HeadingDueNow   = "1) Total Due Now (Supplies + First Month)"
	HeadingSchedule = "2) Monthly Rental Schedule"
	HeadingTotals   = "3) Estimated Totals"
	HeadingPrepay   = "4) Optional Full Prepay Amount"
	HeadingSummary  = "5) Overall Cost Summary"

	SelectionLine = "Please select one:   [ ] Monthly Rental Option     [ ] Lump Sum Payment"
	SignatureLine = "Patient Signature: __________________________   Date: __________________"

	dateLayout = "01/02/2006"
)

// =============================================================================
// BUILD
// =============================================================================

// Build lays out est. It does no arithmetic beyond formatting.
func Build(est costshare.Estimate, opts Options) Document {
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}

	return Document{
		Title:     Title,
		Reference: opts.Reference,
		Header:    header(opts),
		Logo:      opts.Logo,
		Sections: []Section{
			dueNowSection(est),
			scheduleSection(est),
			totalsSection(est.Totals),
			prepaySection(est.Totals),
			summarySection(est.Totals),
		},
		Selection: SelectionLine,
		Signature: SignatureLine,
	}
}

func header(opts Options) string {
	name := blankOr(opts.PatientName, 23)
	dob := blankOr(opts.DOB, 10)
	return "Patient Name: " + name + "   DOB: " + dob + "      Date: " + opts.Date.Format(dateLayout)
}

func blankOr(s string, n int) string {
	if strings.TrimSpace(s) == "" {
		return strings.Repeat("_", n)
	}
	return s
}

func dueNowSection(est costshare.Estimate) Section {
	s := Section{
		Heading: HeadingDueNow,
		Columns: []Column{
			{Title: "CPT", Width: 50, Align: AlignLeft},
			{Title: "Description", Width: 175, Align: AlignLeft},
			{Title: "Allowed", Width: 60, Align: AlignRight},
			{Title: "Patient", Width: 60, Align: AlignRight},
			{Title: "Insurance", Width: 60, Align: AlignRight},
		},
	}

	for _, o := range est.Outcomes {
		desc := o.Item.Description
		if o.Item.IsRecurring() {
			desc += " (1st Month)"
		}
		s.Rows = append(s.Rows, Row{Cells: []string{
			o.Item.Code,
			desc,
			FormatMoney(o.Allowed),
			FormatMoney(o.Patient),
			FormatMoney(o.Insurer),
		}})
	}

	t := est.Totals
	s.Rows = append(s.Rows, Row{Total: true, Cells: []string{
		"",
		"Setup Total",
		FormatMoney(t.DueNowAllowed),
		FormatMoney(t.DueNowPatient),
		FormatMoney(t.DueNowInsurer),
	}})
	return s
}

func scheduleSection(est costshare.Estimate) Section {
	s := Section{
		Heading: HeadingSchedule,
		Columns: []Column{
			{Title: "Month", Width: 160, Align: AlignLeft},
			{Title: "Patient", Width: 70, Align: AlignRight},
			{Title: "Insurance", Width: 70, Align: AlignRight},
		},
	}

	if len(est.Schedule) == 0 {
		s.Rows = append(s.Rows, Row{Cells: []string{"No rental charges", "", ""}})
		return s
	}

	for _, m := range est.Schedule {
		label := m.MonthLabel
		if m.Reset {
			label += " (benefit year resets)"
		}
		s.Rows = append(s.Rows, Row{Cells: []string{
			label,
			FormatMoney(m.Patient),
			FormatMoney(m.Insurer),
		}})
	}
	return s
}

func totalsSection(t costshare.Totals) Section {
	return Section{
		Heading: HeadingTotals,
		Columns: twoColumns("Category", "Total"),
		Rows: []Row{
			{Cells: []string{"Patient Paid", FormatMoney(t.TotalPatient)}},
			{Cells: []string{"Insurance Paid", FormatMoney(t.TotalInsurer)}},
		},
	}
}

func prepaySection(t costshare.Totals) Section {
	return Section{
		Heading:    HeadingPrepay,
		Columns:    twoColumns("", ""),
		HideHeader: true,
		Rows: []Row{
			{Cells: []string{"If patient pays everything upfront:", FormatMoney(t.TotalPatient)}},
		},
	}
}

func summarySection(t costshare.Totals) Section {
	return Section{
		Heading: HeadingSummary,
		Columns: twoColumns("Description", "Total"),
		Rows: []Row{
			{Cells: []string{"Combined Cost", FormatMoney(t.TotalUpfront)}},
		},
	}
}

func twoColumns(label, value string) []Column {
	return []Column{
		{Title: label, Width: 180, Align: AlignLeft},
		{Title: value, Width: 100, Align: AlignRight},
	}
}

// Section returns the section with the given heading, or nil.
func (d Document) Section(heading string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Heading == heading {
			return &d.Sections[i]
		}
	}
	return nil
}
