package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	azureacct "github.com/ct-tools/cloudscope/pkg/services/account/azure"
	"github.com/ct-tools/cloudscope/pkg/services/billing"
)

type collector struct {
	cfg     azureacct.Config
	account string
}

func NewCollector(creds domain.Credentials) (billing.Collector, error) {
	cfg, err := azureacct.NewConfig(creds)
	if err != nil {
		return nil, err
	}
	return &collector{cfg: cfg, account: creds.AccountName}, nil
}

func Factory() billing.Factory {
	return func(_ context.Context, creds domain.Credentials) (billing.Collector, error) {
		return NewCollector(creds)
	}
}

func (c *collector) Collect(ctx context.Context, period domain.TimePeriod) ([]domain.ResourceCost, error) {
	clientFactory, err := armcostmanagement.NewClientFactory(c.cfg.Credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	// No granularity: one row per service and region for the whole window.
	queryParams := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(period.Start),
			To:   to.Ptr(period.End),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
					Name: to.Ptr("ServiceName"),
				},
				{
					Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
					Name: to.Ptr("ResourceLocation"),
				},
			},
		},
	}

	scope := fmt.Sprintf("/subscriptions/%s", c.cfg.SubscriptionID)
	result, err := clientFactory.NewQueryClient().Usage(ctx, scope, queryParams, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	return transformQueryResult(result.Properties, period, c.account), nil
}

// transformQueryResult maps the query rows onto cost entries. Indexes
// are resolved by column name because the aggregation map does not
// guarantee an order.
func transformQueryResult(
	props *armcostmanagement.QueryProperties,
	period domain.TimePeriod,
	account string,
) []domain.ResourceCost {
	if props == nil {
		return nil
	}

	costIdx := columnIndex(props.Columns, "Cost")
	serviceIdx := columnIndex(props.Columns, "ServiceName")
	locationIdx := columnIndex(props.Columns, "ResourceLocation")
	currencyIdx := columnIndex(props.Columns, "Currency")
	if costIdx < 0 || serviceIdx < 0 {
		return nil
	}

	var costs []domain.ResourceCost
	for _, row := range props.Rows {
		amount, ok := cell(row, costIdx).(float64)
		if !ok {
			continue
		}
		service, _ := cell(row, serviceIdx).(string)
		if service == "" {
			service = "Other"
		}
		location, _ := cell(row, locationIdx).(string)
		currency, _ := cell(row, currencyIdx).(string)

		costs = append(costs, domain.ResourceCost{
			StartTime: period.Start,
			EndTime:   period.End,
			Resource: domain.CostDef{
				Provider: domain.ProviderAzure,
				Service:  service,
				Name:     service,
				Region:   location,
				Account:  account,
			},
			Costs: []domain.CostComponent{
				{
					Type:        costType(service),
					TotalAmount: amount,
					Currency:    currency,
					Description: fmt.Sprintf("%s charges", service),
				},
			},
		})
	}

	return costs
}

func cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func columnIndex(columns []*armcostmanagement.QueryColumn, name string) int {
	for i, col := range columns {
		if col != nil && col.Name != nil && strings.EqualFold(*col.Name, name) {
			return i
		}
	}
	return -1
}

func costType(service string) string {
	lower := strings.ToLower(service)
	switch {
	case strings.Contains(lower, "virtual machines") || strings.Contains(lower, "compute"):
		return "compute"
	case strings.Contains(lower, "storage"):
		return "storage"
	case strings.Contains(lower, "sql") || strings.Contains(lower, "database"):
		return "database"
	default:
		return "service"
	}
}
