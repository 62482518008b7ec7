package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/jung-kurt/gofpdf"
)

type pdfRenderer struct{}

func NewPDF() Renderer {
	return pdfRenderer{}
}

func (pdfRenderer) Format() domain.ReportFormat {
	return domain.FormatPDF
}

func (pdfRenderer) Render(report *domain.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, report.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Account: %s", report.Account), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf(
		"Period: %s to %s (%d days)",
		report.Period.Start.Format("02 Jan 2006"),
		report.Period.End.Format("02 Jan 2006"),
		report.Period.Duration,
	), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, section := range report.Sections {
		writeSection(pdf, section)
	}

	if report.TotalAmount != 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Total: %.2f %s", report.TotalAmount, report.Currency),
			"T", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, section domain.ReportSection) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, section.Title, "", 1, "L", false, 0, "")

	if len(section.Summary) > 0 {
		pdf.SetFont("Helvetica", "I", 9)
		for _, key := range sortedKeys(section.Summary) {
			pdf.CellFormat(0, 5, fmt.Sprintf("%s: %s", key, formatValue(section.Summary[key])),
				"", 1, "L", false, 0, "")
		}
		pdf.Ln(1)
	}

	if len(section.Details) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(70, 6, "Name", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 6, "Value", "1", 0, "R", true, 0, "")
		pdf.CellFormat(20, 6, "Unit", "1", 0, "L", true, 0, "")
		pdf.CellFormat(70, 6, "Description", "1", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, detail := range section.Details {
			pdf.CellFormat(70, 6, detail.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, formatValue(detail.Value), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, detail.Unit, "1", 0, "L", false, 0, "")
			pdf.CellFormat(70, 6, detail.Description, "1", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(4)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
