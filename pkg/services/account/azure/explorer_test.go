package azure

import (
	"testing"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("missing secrets", func(t *testing.T) {
		_, err := NewConfig(domain.Credentials{
			AccountName: "prod",
			Secrets:     map[string]string{"tenant_id": "t", "client_id": "c"},
		})
		require.Error(t, err)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("complete secrets", func(t *testing.T) {
		cfg, err := NewConfig(domain.Credentials{
			AccountName: "prod",
			Secrets: map[string]string{
				"tenant_id":       "11111111-1111-1111-1111-111111111111",
				"client_id":       "22222222-2222-2222-2222-222222222222",
				"client_secret":   "shh",
				"subscription_id": "33333333-3333-3333-3333-333333333333",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "33333333-3333-3333-3333-333333333333", cfg.SubscriptionID)
		assert.NotNil(t, cfg.Credentials)
	})
}

func TestResourceName(t *testing.T) {
	id := "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/web-1"
	assert.Equal(t, "web-1", resourceName(id))
	assert.Equal(t, "plain", resourceName("plain"))
}

func TestShortService(t *testing.T) {
	tests := []struct {
		resourceType string
		want         string
	}{
		{"Microsoft.Compute/virtualMachines", "vm"},
		{"microsoft.compute/virtualmachines", "vm"},
		{"Microsoft.Sql/servers/databases", "sql"},
		{"Microsoft.Storage/storageAccounts", "storage"},
		{"Microsoft.Web/sites", "sites"},
		{"oddball", "oddball"},
	}

	for _, tt := range tests {
		t.Run(tt.resourceType, func(t *testing.T) {
			assert.Equal(t, tt.want, shortService(tt.resourceType))
		})
	}
}
