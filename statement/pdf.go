package statement

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// US letter, in points.
const (
	pageWidth    = 612.0
	marginLeft   = 20.0
	marginRight  = 20.0
	marginTop    = 14.0
	marginBottom = 14.0
	contentWidth = pageWidth - marginLeft - marginRight

	logoWidth  = 420.0
	logoHeight = 60.0

	rowHeight     = 14.0
	headingHeight = 16.0
	fontFamily    = "Helvetica"
)

// Section heading fill and table header fill.
var lavender = [3]int{184, 148, 245}

type pdfRenderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderPDF writes doc as a single-page US letter PDF.
func RenderPDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle(doc.Title, false)
	pdf.SetCreator("cpap-estimator", false)
	if doc.Reference != "" {
		pdf.SetSubject("Estimate "+doc.Reference, false)
	}

	r := &pdfRenderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	r.addLogo(doc.Logo)
	r.addHeader(doc)
	for _, s := range doc.Sections {
		r.addSection(s)
	}
	r.addFooter(doc)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to lay out statement: %w", err)
	}
	return pdf.Output(w)
}

func (r *pdfRenderer) addLogo(logo []byte) {
	if len(logo) == 0 {
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
	r.pdf.ImageOptions("logo", marginLeft, r.pdf.GetY(), logoWidth, logoHeight, true, opts, 0, "")
	r.pdf.Ln(6)
}

func (r *pdfRenderer) addHeader(doc Document) {
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetFont(fontFamily, "B", 10)
	r.pdf.CellFormat(contentWidth, 14, r.tr(doc.Header), "", 1, "L", false, 0, "")

	if doc.Reference != "" {
		r.pdf.SetFont(fontFamily, "", 7)
		r.pdf.SetTextColor(90, 90, 90)
		r.pdf.CellFormat(contentWidth, 9, "Ref: "+doc.Reference, "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(6)
}

func (r *pdfRenderer) addSection(s Section) {
	// Full-width lavender heading bar
	r.pdf.SetFont(fontFamily, "B", 10)
	r.pdf.SetFillColor(lavender[0], lavender[1], lavender[2])
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.CellFormat(contentWidth, headingHeight, "  "+r.tr(s.Heading), "", 1, "L", true, 0, "")
	r.pdf.Ln(4)

	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetLineWidth(0.5)

	if !s.HideHeader {
		r.pdf.SetFont(fontFamily, "B", 10)
		r.pdf.SetFillColor(lavender[0], lavender[1], lavender[2])
		r.pdf.SetTextColor(255, 255, 255)
		for _, c := range s.Columns {
			r.pdf.CellFormat(c.Width, rowHeight, r.tr(c.Title), "1", 0, "L", true, 0, "")
		}
		r.pdf.Ln(-1)
	}

	border := "1"
	if s.HideHeader {
		border = ""
	}

	r.pdf.SetTextColor(0, 0, 0)
	for _, row := range s.Rows {
		style := ""
		if row.Total {
			style = "B"
		}
		r.pdf.SetFont(fontFamily, style, 10)
		for i, c := range s.Columns {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			r.pdf.CellFormat(c.Width, rowHeight, r.tr(cell), border, 0, string(c.Align), false, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(6)
}

func (r *pdfRenderer) addFooter(doc Document) {
	r.pdf.SetFont(fontFamily, "", 8)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.CellFormat(contentWidth, 10, doc.Selection, "", 1, "L", false, 0, "")
	r.pdf.Ln(6)
	r.pdf.CellFormat(contentWidth, 10, doc.Signature, "", 1, "L", false, 0, "")
}
