package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	report := &domain.Report{
		Title:   "Billing Report 2026-07",
		Account: "prod",
		Period:  domain.TimePeriod{Start: start, End: start.AddDate(0, 1, 0), Duration: 31},
		Sections: []domain.ReportSection{{
			Title:   "Costs in us-east-1",
			Summary: map[string]interface{}{"total_cost": 125.56},
			Details: []domain.ReportDetail{
				{Name: "Amazon EC2", Value: 100.0, Unit: "USD"},
				{Name: "Amazon S3", Value: 25.56, Unit: "USD"},
			},
		}},
		TotalAmount: 125.56,
		Currency:    "USD",
	}

	require.NoError(t, reporter.Handle(report))

	out := buf.String()
	assert.Contains(t, out, "Billing Report 2026-07 (31 days)")
	assert.Contains(t, out, "Account: prod")
	assert.Contains(t, out, "Period: 2026-07-01 to 2026-08-01")
	assert.Contains(t, out, "Total: USD 125.56")
	assert.Contains(t, out, "=== Costs in us-east-1 ===")
	assert.Contains(t, out, "total_cost: 125.56")
	assert.Contains(t, out, "Amazon EC2")
	assert.Contains(t, out, "Amazon S3")
}

func TestReporter_SkipsTotalWhenZero(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	start := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	report := &domain.Report{
		Title:   "Utilization Report",
		Account: "prod",
		Period:  domain.TimePeriod{Start: start, End: start.AddDate(0, 0, 1), Duration: 1},
		Sections: []domain.ReportSection{{
			Title: "EC2 i-1 (us-east-1)",
			Details: []domain.ReportDetail{
				{Name: "CPU Utilization", Value: 41.24, Unit: "Percent", Description: "peak 93.1 over 288 samples"},
			},
		}},
	}

	require.NoError(t, reporter.Handle(report))

	out := buf.String()
	assert.Contains(t, out, "Utilization Report (1 days)")
	assert.Contains(t, out, "CPU Utilization")
	assert.NotContains(t, out, "Total:")
}
