package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/api"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		Title:   "Billing Report 2026-07",
		Account: "prod",
		Period: domain.TimePeriod{
			Start:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Duration: 31,
		},
		Sections: []domain.ReportSection{
			{
				Title:   "Costs in us-east-1",
				Summary: map[string]interface{}{"total_cost": 120.5},
				Details: []domain.ReportDetail{
					{Name: "Amazon EC2", Value: 120.5, Unit: "USD", Description: "Compute charges"},
				},
				Metadata: map[string]interface{}{"region": "us-east-1"},
			},
		},
		TotalAmount: 120.5,
		Currency:    "USD",
	}
}

func TestRegistry_CoversAllFormats(t *testing.T) {
	renderers := Registry()

	require.Len(t, renderers, 3)
	for _, format := range []domain.ReportFormat{domain.FormatPDF, domain.FormatCSV, domain.FormatJSON} {
		r, ok := renderers[format]
		require.True(t, ok, "missing renderer for %s", format)
		assert.Equal(t, format, r.Format())
	}
}

func TestJSONRenderer(t *testing.T) {
	data, err := NewJSON().Render(sampleReport())
	require.NoError(t, err)

	var decoded api.Report
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "Billing Report 2026-07", decoded.Title)
	assert.Equal(t, "prod", decoded.AccountName)
	assert.Equal(t, 31, decoded.Period.Duration)
	require.Len(t, decoded.Sections, 1)
	assert.Equal(t, "us-east-1", decoded.Sections[0].Metadata["region"])
	assert.Equal(t, 120.5, decoded.TotalAmount)
}

func TestCSVRenderer(t *testing.T) {
	data, err := NewCSV().Render(sampleReport())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Section", "Name", "Value", "Unit", "Description"}, rows[0])
	assert.Equal(t, []string{"Costs in us-east-1", "Amazon EC2", "120.50", "USD", "Compute charges"}, rows[1])
	assert.Equal(t, []string{"", "Total", "120.50", "USD", ""}, rows[2])
}

func TestPDFRenderer(t *testing.T) {
	data, err := NewPDF().Render(sampleReport())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output should start with a PDF header")
	assert.Greater(t, len(data), 500)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "prod-23-08-2026.pdf", FileName("prod", at, domain.FormatPDF))
	assert.Equal(t, "my-team-account-23-08-2026.csv", FileName("my team/account", at, domain.FormatCSV))
	assert.Equal(t, "report-23-08-2026.json", FileName("", at, domain.FormatJSON))
}
