package registry

import (
	"context"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// Reserved keys inside a profile section. Everything else is treated
// as opaque secret material for the provider.
const (
	keyProvider    = "provider"
	keyAccountName = "account_name"
)

type fileRegistry struct {
	cfg *ini.File
}

// NewFileRegistry loads profiles from an ini file. Each section is one
// profile: a provider key, an optional account_name, and the secret
// keys the provider expects.
func NewFileRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles from %s: %w", path, err)
	}
	return &fileRegistry{cfg: cfg}, nil
}

// NewEmptyRegistry backs deployments without a profiles file. Every
// lookup fails with a not-found error.
func NewEmptyRegistry() Registry {
	return &fileRegistry{cfg: ini.Empty()}
}

func (fr *fileRegistry) GetProfiles(_ context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	for _, section := range fr.cfg.Sections() {
		if section.Name() == ini.DefaultSection || len(section.Keys()) == 0 {
			continue
		}
		profiles = append(profiles, domain.Profile{
			Name:     section.Name(),
			Provider: domain.Provider(section.Key(keyProvider).String()),
		})
	}
	return profiles, nil
}

func (fr *fileRegistry) GetProfile(_ context.Context, name string) (domain.Profile, error) {
	section, err := fr.section(name)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		Name:     section.Name(),
		Provider: domain.Provider(section.Key(keyProvider).String()),
	}, nil
}

func (fr *fileRegistry) GetCredentials(_ context.Context, name string) (domain.Credentials, error) {
	section, err := fr.section(name)
	if err != nil {
		return domain.Credentials{}, err
	}

	creds := domain.Credentials{
		AccountName: name,
		Secrets:     make(map[string]string),
	}
	for _, key := range section.Keys() {
		switch key.Name() {
		case keyProvider:
		case keyAccountName:
			creds.AccountName = key.String()
		default:
			creds.Secrets[key.Name()] = key.String()
		}
	}

	if len(creds.Secrets) == 0 {
		return domain.Credentials{}, fmt.Errorf("profile %s has no credentials", name)
	}
	return creds, nil
}

func (fr *fileRegistry) section(name string) (*ini.Section, error) {
	section, err := fr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}
	return section, nil
}
