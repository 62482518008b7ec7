package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/rs/zerolog"
)

const discoveryWindowDays = 30

type explorer struct{}

func NewExplorer() account.Explorer {
	return &explorer{}
}

// Validate probes the cost API with a one day query. Azure has no
// cheap "who am i" for service principals scoped to a subscription,
// so a minimal query doubles as the credential check.
func (e *explorer) Validate(ctx context.Context, creds domain.Credentials) (domain.CredentialCheck, error) {
	cfg, err := NewConfig(creds)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.CredentialCheck{Message: ve.Message}, nil
		}
		return domain.CredentialCheck{Message: "could not verify Azure credentials"}, nil
	}

	if _, err := queryUsage(ctx, cfg, 1); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("account", creds.AccountName).Msg("Azure credential check failed")
		return domain.CredentialCheck{Message: "Azure rejected the credentials"}, nil
	}

	resources, err := e.ListResources(ctx, creds)
	if err != nil {
		return domain.CredentialCheck{}, err
	}
	return domain.CredentialCheck{Valid: true, Resources: resources}, nil
}

// ListResources derives the resource inventory from recent cost rows.
// Anything that produced cost in the discovery window shows up.
func (e *explorer) ListResources(ctx context.Context, creds domain.Credentials) ([]domain.Resource, error) {
	cfg, err := NewConfig(creds)
	if err != nil {
		return nil, err
	}

	rows, err := queryUsage(ctx, cfg, discoveryWindowDays)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	resources := make([]domain.Resource, 0, len(rows))
	for _, row := range rows {
		if row.resourceID == "" || seen[row.resourceID] {
			continue
		}
		seen[row.resourceID] = true

		resources = append(resources, domain.Resource{
			ID:       row.resourceID,
			Name:     resourceName(row.resourceID),
			Type:     row.resourceType,
			Service:  shortService(row.resourceType),
			Region:   row.location,
			Status:   "active",
			Provider: domain.ProviderAzure,
			Details: map[string]string{
				"subscription_id": cfg.SubscriptionID,
			},
		})
	}
	return resources, nil
}

type usageRow struct {
	cost         float64
	resourceID   string
	resourceType string
	location     string
	currency     string
}

func queryUsage(ctx context.Context, cfg *Config, days int) ([]usageRow, error) {
	clientFactory, err := armcostmanagement.NewClientFactory(cfg.Credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client factory: %w", err)
	}
	client := clientFactory.NewQueryClient()

	timeFrom := time.Now().AddDate(0, 0, -days)
	timeTo := time.Now()

	exportType := armcostmanagement.ExportTypeActualCost
	timeframe := armcostmanagement.TimeframeTypeCustom
	dimension := armcostmanagement.QueryColumnTypeDimension
	sum := armcostmanagement.FunctionTypeSum

	params := armcostmanagement.QueryDefinition{
		Type:      &exportType,
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
		Dataset: &armcostmanagement.QueryDataset{
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: &sum,
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{Name: to.Ptr("ResourceId"), Type: &dimension},
				{Name: to.Ptr("ResourceType"), Type: &dimension},
				{Name: to.Ptr("ResourceLocation"), Type: &dimension},
			},
		},
	}

	scope := fmt.Sprintf("/subscriptions/%s", cfg.SubscriptionID)
	result, err := client.Usage(ctx, scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	// Columns: cost, ResourceId, ResourceType, ResourceLocation, currency.
	rows := make([]usageRow, 0, len(result.Properties.Rows))
	for _, raw := range result.Properties.Rows {
		if len(raw) < 5 {
			continue
		}
		cost, _ := raw[0].(float64)
		rows = append(rows, usageRow{
			cost:         cost,
			resourceID:   asString(raw[1]),
			resourceType: asString(raw[2]),
			location:     asString(raw[3]),
			currency:     asString(raw[4]),
		})
	}
	return rows, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// resourceName extracts the trailing segment of a full Azure resource
// id, e.g. ".../virtualMachines/web-1" yields "web-1".
func resourceName(resourceID string) string {
	idx := strings.LastIndex(resourceID, "/")
	if idx < 0 || idx == len(resourceID)-1 {
		return resourceID
	}
	return resourceID[idx+1:]
}

// shortService maps an ARM resource type to the service token used in
// composite resource references.
func shortService(resourceType string) string {
	switch {
	case strings.EqualFold(resourceType, "Microsoft.Compute/virtualMachines"):
		return "vm"
	case strings.EqualFold(resourceType, "Microsoft.Sql/servers/databases"),
		strings.EqualFold(resourceType, "Microsoft.Sql/servers"):
		return "sql"
	case strings.EqualFold(resourceType, "Microsoft.Storage/storageAccounts"):
		return "storage"
	}
	if idx := strings.LastIndex(resourceType, "/"); idx >= 0 {
		return strings.ToLower(resourceType[idx+1:])
	}
	return strings.ToLower(resourceType)
}
