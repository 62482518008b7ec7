package registry

import (
	"context"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Registry resolves stored account profiles to credentials. It backs
// the CLI's profile flag and scheduled report runs, which must not
// persist secrets alongside the schedule.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.Profile, error)
	GetProfile(ctx context.Context, name string) (domain.Profile, error)
	GetCredentials(ctx context.Context, name string) (domain.Credentials, error)
}
