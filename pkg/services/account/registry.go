package account

import (
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Registry resolves explorers by provider. Providers are registered
// once at startup; lookups after that are read-only.
type Registry struct {
	explorers map[domain.Provider]Explorer
}

func NewRegistry() *Registry {
	return &Registry{
		explorers: make(map[domain.Provider]Explorer),
	}
}

func (r *Registry) Register(provider domain.Provider, explorer Explorer) error {
	if provider == "" {
		return fmt.Errorf("provider must not be empty")
	}
	if explorer == nil {
		return fmt.Errorf("explorer must not be nil")
	}
	if _, exists := r.explorers[provider]; exists {
		return fmt.Errorf("duplicate explorer for provider: %s", provider)
	}
	r.explorers[provider] = explorer
	return nil
}

func (r *Registry) Get(provider domain.Provider) (Explorer, error) {
	explorer, exists := r.explorers[provider]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	return explorer, nil
}

func (r *Registry) Providers() []domain.Provider {
	providers := make([]domain.Provider, 0, len(r.explorers))
	for provider := range r.explorers {
		providers = append(providers, provider)
	}
	return providers
}
