package billing

import (
	"context"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Collector reads the billed costs of one account over a time window,
// grouped by service and region.
type Collector interface {
	Collect(ctx context.Context, period domain.TimePeriod) ([]domain.ResourceCost, error)
}

// Factory builds a provider collector from validated credentials.
type Factory func(ctx context.Context, creds domain.Credentials) (Collector, error)

// MonthPeriod expands a billing timeframe into the calendar month it
// names, in UTC.
func MonthPeriod(tf domain.Timeframe) domain.TimePeriod {
	start := time.Date(tf.Year, time.Month(tf.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return domain.TimePeriod{
		Start:    start,
		End:      end,
		Duration: int(end.Sub(start).Hours() / 24),
	}
}
