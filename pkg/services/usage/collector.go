package usage

import (
	"context"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Collector gathers utilization metrics for one resource over a
// report period.
type Collector interface {
	Collect(ctx context.Context, ref domain.ResourceRef, period domain.TimePeriod) ([]domain.MetricStat, error)
}

// Factory binds validated credentials to a provider collector.
type Factory func(ctx context.Context, creds domain.Credentials) (Collector, error)
