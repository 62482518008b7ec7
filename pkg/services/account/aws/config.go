package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

const (
	DefaultRegion = "us-east-1" // Used when a call is not bound to a specific region
)

// NewConfig builds an SDK config from the secrets collected by the
// wizard: access_key_id, secret_access_key and an optional
// session_token.
func NewConfig(ctx context.Context, creds domain.Credentials) (awssdk.Config, error) {
	accessKey := creds.Secrets["access_key_id"]
	secretKey := creds.Secrets["secret_access_key"]
	if accessKey == "" || secretKey == "" {
		return awssdk.Config{}, &domain.ValidationError{
			Message: "access_key_id and secret_access_key are required",
		}
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, creds.Secrets["session_token"],
		)),
		config.WithDefaultRegion(DefaultRegion),
	)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return awssdk.Config{}, fmt.Errorf("invalid AWS credentials for account %s: %w", creds.AccountName, err)
	}

	return awsCfg, nil
}
