package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

type csvRenderer struct{}

func NewCSV() Renderer {
	return csvRenderer{}
}

func (csvRenderer) Format() domain.ReportFormat {
	return domain.FormatCSV
}

// Render flattens the report into one row per detail line so the file
// opens cleanly in spreadsheet tools.
func (csvRenderer) Render(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Section", "Name", "Value", "Unit", "Description"},
	}
	for _, section := range report.Sections {
		for _, detail := range section.Details {
			rows = append(rows, []string{
				section.Title,
				detail.Name,
				formatValue(detail.Value),
				detail.Unit,
				detail.Description,
			})
		}
	}
	if report.TotalAmount != 0 {
		rows = append(rows, []string{
			"", "Total", fmt.Sprintf("%.2f", report.TotalAmount), report.Currency, "",
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatValue(v interface{}) string {
	switch value := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
