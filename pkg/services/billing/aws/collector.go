package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	awsacct "github.com/ct-tools/cloudscope/pkg/services/account/aws"
	"github.com/ct-tools/cloudscope/pkg/services/billing"
)

type collector struct {
	client  *costexplorer.Client
	account string
}

func NewCollector(ctx context.Context, creds domain.Credentials) (billing.Collector, error) {
	cfg, err := awsacct.NewConfig(ctx, creds)
	if err != nil {
		return nil, err
	}
	return &collector{
		client:  costexplorer.NewFromConfig(cfg),
		account: creds.AccountName,
	}, nil
}

func Factory() billing.Factory {
	return func(ctx context.Context, creds domain.Credentials) (billing.Collector, error) {
		return NewCollector(ctx, creds)
	}
}

func (c *collector) Collect(ctx context.Context, period domain.TimePeriod) ([]domain.ResourceCost, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: awssdk.String(period.Start.Format("2006-01-02")),
			End:   awssdk.String(period.End.Format("2006-01-02")),
		},
		Granularity: types.GranularityMonthly,
		Metrics: []string{
			"UnblendedCost",
			"UsageQuantity",
		},
		Filter: &types.Expression{
			Not: &types.Expression{
				Dimensions: &types.DimensionValues{
					Key:    types.DimensionRecordType,
					Values: []string{"Credit", "Refund"},
				},
			},
		},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  awssdk.String("SERVICE"),
			},
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  awssdk.String("REGION"),
			},
		},
	}

	var costs []domain.ResourceCost
	for {
		result, err := c.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage: %w", err)
		}

		page, err := transformCostAndUsageResult(result, c.account)
		if err != nil {
			return nil, err
		}
		costs = append(costs, page...)

		if result.NextPageToken == nil {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	return costs, nil
}

func transformCostAndUsageResult(
	result *costexplorer.GetCostAndUsageOutput,
	account string,
) ([]domain.ResourceCost, error) {
	var costs []domain.ResourceCost

	for _, resultByTime := range result.ResultsByTime {
		startTime, err := time.Parse("2006-01-02", awssdk.ToString(resultByTime.TimePeriod.Start))
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time: %w", err)
		}

		endTime, err := time.Parse("2006-01-02", awssdk.ToString(resultByTime.TimePeriod.End))
		if err != nil {
			return nil, fmt.Errorf("failed to parse end time: %w", err)
		}

		for _, group := range resultByTime.Groups {
			service, region := groupKeys(group.Keys)
			components := createCostComponents(group.Metrics, service)
			if len(components) == 0 {
				continue
			}

			costs = append(costs, domain.ResourceCost{
				StartTime: startTime,
				EndTime:   endTime,
				Resource: domain.CostDef{
					Provider: domain.ProviderAWS,
					Service:  service,
					Name:     service,
					Region:   region,
					Account:  account,
				},
				Costs: components,
			})
		}
	}

	return costs, nil
}

func groupKeys(keys []string) (service, region string) {
	// Keys follow the GroupBy order: SERVICE, then REGION.
	if len(keys) > 0 {
		service = keys[0]
	}
	if len(keys) > 1 {
		region = keys[1]
	}
	return service, region
}

func createCostComponents(metrics map[string]types.MetricValue, service string) []domain.CostComponent {
	var components []domain.CostComponent

	if unblendedCost, ok := metrics["UnblendedCost"]; ok {
		amount, _ := strconv.ParseFloat(awssdk.ToString(unblendedCost.Amount), 64)

		var usage float64
		unit := "units"
		if usageQuantity, ok := metrics["UsageQuantity"]; ok {
			usage, _ = strconv.ParseFloat(awssdk.ToString(usageQuantity.Amount), 64)
			if u := awssdk.ToString(usageQuantity.Unit); u != "" {
				unit = u
			}
		}

		var rate float64
		if usage > 0 {
			rate = amount / usage
		}

		components = append(components, domain.CostComponent{
			Type:        costType(service, unit),
			Value:       usage,
			Unit:        unit,
			TotalAmount: amount,
			Rate:        rate,
			Currency:    awssdk.ToString(unblendedCost.Unit),
			Description: fmt.Sprintf("%s usage for %v %s", service, usage, unit),
		})
	}

	return components
}

func costType(service, unit string) string {
	lower := strings.ToLower(service)
	switch {
	case strings.Contains(lower, "compute"):
		return "compute"
	case strings.Contains(lower, "storage") || unit == "GB" || unit == "GB-Mo":
		return "storage"
	case strings.Contains(lower, "database"):
		return "database"
	default:
		return "service"
	}
}
