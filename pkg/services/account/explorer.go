package account

import (
	"context"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Explorer verifies credentials for one provider and lists the
// resources they grant access to. An invalid credential set is a
// value, not an error: errors are reserved for transport failures.
type Explorer interface {
	Validate(ctx context.Context, creds domain.Credentials) (domain.CredentialCheck, error)
	ListResources(ctx context.Context, creds domain.Credentials) ([]domain.Resource, error)
}
