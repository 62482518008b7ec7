package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

type Config struct {
	SubscriptionID string
	Credentials    azcore.TokenCredential
}

// NewConfig builds a service principal credential from the secrets
// collected by the wizard: tenant_id, client_id, client_secret and
// subscription_id.
func NewConfig(creds domain.Credentials) (*Config, error) {
	tenantID := creds.Secrets["tenant_id"]
	clientID := creds.Secrets["client_id"]
	clientSecret := creds.Secrets["client_secret"]
	subscriptionID := creds.Secrets["subscription_id"]

	if tenantID == "" || clientID == "" || clientSecret == "" || subscriptionID == "" {
		return nil, &domain.ValidationError{
			Message: "tenant_id, client_id, client_secret and subscription_id are required",
		}
	}

	credential, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return &Config{
		SubscriptionID: subscriptionID,
		Credentials:    credential,
	}, nil
}
