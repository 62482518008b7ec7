package account

import (
	"context"
	"testing"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExplorer struct{}

func (stubExplorer) Validate(context.Context, domain.Credentials) (domain.CredentialCheck, error) {
	return domain.CredentialCheck{Valid: true}, nil
}

func (stubExplorer) ListResources(context.Context, domain.Credentials) ([]domain.Resource, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.ProviderAWS, stubExplorer{}))

		got, err := r.Get(domain.ProviderAWS)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("unknown provider", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Get(domain.ProviderAzure)
		assert.Error(t, err)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.ProviderAWS, stubExplorer{}))
		assert.Error(t, r.Register(domain.ProviderAWS, stubExplorer{}))
	})

	t.Run("empty provider", func(t *testing.T) {
		r := NewRegistry()
		assert.Error(t, r.Register("", stubExplorer{}))
	})

	t.Run("nil explorer", func(t *testing.T) {
		r := NewRegistry()
		assert.Error(t, r.Register(domain.ProviderAWS, nil))
	})

	t.Run("providers lists registrations", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.ProviderAWS, stubExplorer{}))
		require.NoError(t, r.Register(domain.ProviderAzure, stubExplorer{}))
		assert.ElementsMatch(t, []domain.Provider{domain.ProviderAWS, domain.ProviderAzure}, r.Providers())
	})
}
