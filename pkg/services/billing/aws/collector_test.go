package aws

import (
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func costAndUsagePage(groups []types.Group) *costexplorer.GetCostAndUsageOutput {
	return &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				TimePeriod: &types.DateInterval{
					Start: awssdk.String("2026-07-01"),
					End:   awssdk.String("2026-08-01"),
				},
				Groups: groups,
			},
		},
	}
}

func TestTransformCostAndUsageResult(t *testing.T) {
	result := costAndUsagePage([]types.Group{
		{
			Keys: []string{"Amazon Elastic Compute Cloud - Compute", "us-east-1"},
			Metrics: map[string]types.MetricValue{
				"UnblendedCost": {Amount: awssdk.String("120.50"), Unit: awssdk.String("USD")},
				"UsageQuantity": {Amount: awssdk.String("241"), Unit: awssdk.String("Hrs")},
			},
		},
		{
			Keys: []string{"Amazon Simple Storage Service", "eu-west-1"},
			Metrics: map[string]types.MetricValue{
				"UnblendedCost": {Amount: awssdk.String("3.20"), Unit: awssdk.String("USD")},
				"UsageQuantity": {Amount: awssdk.String("160"), Unit: awssdk.String("GB-Mo")},
			},
		},
	})

	costs, err := transformCostAndUsageResult(result, "prod")
	require.NoError(t, err)
	require.Len(t, costs, 2)

	compute := costs[0]
	assert.Equal(t, "2026-07-01", compute.StartTime.Format("2006-01-02"))
	assert.Equal(t, "2026-08-01", compute.EndTime.Format("2006-01-02"))
	assert.Equal(t, domain.ProviderAWS, compute.Resource.Provider)
	assert.Equal(t, "Amazon Elastic Compute Cloud - Compute", compute.Resource.Service)
	assert.Equal(t, "us-east-1", compute.Resource.Region)
	assert.Equal(t, "prod", compute.Resource.Account)

	require.Len(t, compute.Costs, 1)
	assert.Equal(t, "compute", compute.Costs[0].Type)
	assert.Equal(t, 120.50, compute.Costs[0].TotalAmount)
	assert.Equal(t, 241.0, compute.Costs[0].Value)
	assert.Equal(t, "Hrs", compute.Costs[0].Unit)
	assert.Equal(t, "USD", compute.Costs[0].Currency)
	assert.InDelta(t, 0.5, compute.Costs[0].Rate, 0.001)

	storage := costs[1]
	assert.Equal(t, "storage", storage.Costs[0].Type)
	assert.Equal(t, "eu-west-1", storage.Resource.Region)
}

func TestTransformCostAndUsageResult_SkipsGroupsWithoutCost(t *testing.T) {
	result := costAndUsagePage([]types.Group{
		{
			Keys:    []string{"AWS CloudTrail", "us-east-1"},
			Metrics: map[string]types.MetricValue{},
		},
	})

	costs, err := transformCostAndUsageResult(result, "prod")
	require.NoError(t, err)
	assert.Empty(t, costs)
}

func TestTransformCostAndUsageResult_BadDate(t *testing.T) {
	result := &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				TimePeriod: &types.DateInterval{
					Start: awssdk.String("yesterday"),
					End:   awssdk.String("2026-08-01"),
				},
			},
		},
	}

	_, err := transformCostAndUsageResult(result, "prod")
	assert.Error(t, err)
}

func TestCostType(t *testing.T) {
	tests := []struct {
		service string
		unit    string
		want    string
	}{
		{"Amazon Elastic Compute Cloud - Compute", "Hrs", "compute"},
		{"Amazon Simple Storage Service", "GB-Mo", "storage"},
		{"Amazon Relational Database Service", "Hrs", "database"},
		{"AWS Lambda", "GB", "storage"},
		{"AWS CloudTrail", "Requests", "service"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			assert.Equal(t, tt.want, costType(tt.service, tt.unit))
		})
	}
}

func TestCreateCostComponents_MissingUsage(t *testing.T) {
	components := createCostComponents(map[string]types.MetricValue{
		"UnblendedCost": {Amount: awssdk.String("10"), Unit: awssdk.String("USD")},
	}, "AWS Config")

	require.Len(t, components, 1)
	assert.Equal(t, 10.0, components[0].TotalAmount)
	assert.Equal(t, 0.0, components[0].Value)
	assert.Equal(t, 0.0, components[0].Rate)
	assert.Equal(t, "units", components[0].Unit)
}
