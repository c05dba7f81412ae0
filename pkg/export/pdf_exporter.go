package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const landscapeColumns = 7

// PDFExporter renders datasets as a titled A4 document with an optional table.
type PDFExporter struct {
	footer string
}

// NewPDFExporter constructs a PDF exporter. footer is printed on every page.
func NewPDFExporter(footer string) *PDFExporter {
	return &PDFExporter{footer: footer}
}

// Render creates the PDF. Wide tables switch the page to landscape.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 && len(data.Fields) == 0 {
		return nil, fmt.Errorf("pdf requires fields or a table")
	}
	orientation := "P"
	if len(data.Headers) >= landscapeColumns {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.footer != "" {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-12)
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %d", e.footer, pdf.PageNo())), "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	if len(data.Fields) > 0 {
		labelWidth := usable * 0.35
		for _, f := range data.Fields {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(labelWidth, 7, tr(f.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(usable-labelWidth, 7, tr(f.Value), "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(data.Headers) > 0 {
		colWidth := usable / float64(len(data.Headers))
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range data.Rows {
			for _, header := range data.Headers {
				pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
