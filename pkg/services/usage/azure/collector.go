package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	azureacct "github.com/ct-tools/cloudscope/pkg/services/account/azure"
	"github.com/ct-tools/cloudscope/pkg/services/usage"
)

type collector struct {
	cfg azureacct.Config
}

func NewCollector(creds domain.Credentials) (usage.Collector, error) {
	cfg, err := azureacct.NewConfig(creds)
	if err != nil {
		return nil, err
	}
	return &collector{cfg: cfg}, nil
}

func Factory() usage.Factory {
	return func(_ context.Context, creds domain.Credentials) (usage.Collector, error) {
		return NewCollector(creds)
	}
}

// Collect reads per-meter usage quantities for a single resource from
// the Cost Management query API. Azure has no CloudWatch equivalent
// that works across resource types with one credential, so meter
// quantities stand in for utilization samples.
func (c *collector) Collect(ctx context.Context, ref domain.ResourceRef, period domain.TimePeriod) ([]domain.MetricStat, error) {
	clientFactory, err := armcostmanagement.NewClientFactory(c.cfg.Credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	queryParams := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(period.Start),
			To:   to.Ptr(period.End),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
				"usageQuantity": {
					Name:     to.Ptr("UsageQuantity"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
					Name: to.Ptr("Meter"),
				},
			},
			Filter: &armcostmanagement.QueryFilter{
				Dimensions: &armcostmanagement.QueryComparisonExpression{
					Name:     to.Ptr("ResourceId"),
					Operator: to.Ptr(armcostmanagement.QueryOperatorTypeIn),
					Values:   []*string{to.Ptr(ref.ID)},
				},
			},
		},
	}

	scope := fmt.Sprintf("/subscriptions/%s", c.cfg.SubscriptionID)
	result, err := clientFactory.NewQueryClient().Usage(ctx, scope, queryParams, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage for %s: %w", ref.ID, err)
	}

	return aggregateMeters(result.Properties), nil
}

// aggregateMeters folds the daily per-meter rows into one stat per
// meter. Column order follows the aggregation map and is not stable,
// so indexes are resolved by name.
func aggregateMeters(props *armcostmanagement.QueryProperties) []domain.MetricStat {
	if props == nil {
		return nil
	}

	quantityIdx := columnIndex(props.Columns, "UsageQuantity")
	meterIdx := columnIndex(props.Columns, "Meter")
	if quantityIdx < 0 || meterIdx < 0 {
		return nil
	}

	type meterUsage struct {
		total float64
		peak  float64
		days  int
	}

	perMeter := make(map[string]*meterUsage)
	order := make([]string, 0)

	for _, row := range props.Rows {
		if len(row) <= quantityIdx || len(row) <= meterIdx {
			continue
		}
		quantity, ok := row[quantityIdx].(float64)
		if !ok {
			continue
		}
		meter, ok := row[meterIdx].(string)
		if !ok || meter == "" {
			meter = "Other"
		}

		mu := perMeter[meter]
		if mu == nil {
			mu = &meterUsage{}
			perMeter[meter] = mu
			order = append(order, meter)
		}
		mu.total += quantity
		if quantity > mu.peak {
			mu.peak = quantity
		}
		mu.days++
	}

	stats := make([]domain.MetricStat, 0, len(order))
	for _, meter := range order {
		mu := perMeter[meter]
		stats = append(stats, domain.MetricStat{
			Name:    meter,
			Unit:    "units/day",
			Average: mu.total / float64(mu.days),
			Peak:    mu.peak,
			Samples: mu.days,
		})
	}
	return stats
}

func columnIndex(columns []*armcostmanagement.QueryColumn, name string) int {
	for i, col := range columns {
		if col != nil && col.Name != nil && strings.EqualFold(*col.Name, name) {
			return i
		}
	}
	return -1
}
