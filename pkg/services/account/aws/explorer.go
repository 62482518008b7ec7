package aws

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/rs/zerolog"
)

// Queried when the account is not allowed to call DescribeRegions.
var fallbackRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"eu-west-1", "eu-central-1", "ap-southeast-1", "ap-northeast-1",
}

type explorer struct{}

func NewExplorer() account.Explorer {
	return &explorer{}
}

func (e *explorer) Validate(ctx context.Context, creds domain.Credentials) (domain.CredentialCheck, error) {
	cfg, err := NewConfig(ctx, creds)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.CredentialCheck{Message: ve.Message}, nil
		}
		return domain.CredentialCheck{Message: "could not verify AWS credentials"}, nil
	}

	client := ec2.NewFromConfig(cfg)
	if _, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("account", creds.AccountName).Msg("AWS credential check failed")
		return domain.CredentialCheck{Message: "AWS rejected the credentials"}, nil
	}

	resources, err := e.ListResources(ctx, creds)
	if err != nil {
		return domain.CredentialCheck{}, err
	}
	return domain.CredentialCheck{Valid: true, Resources: resources}, nil
}

func (e *explorer) ListResources(ctx context.Context, creds domain.Credentials) ([]domain.Resource, error) {
	cfg, err := NewConfig(ctx, creds)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	regions := e.listRegions(ctx, cfg)
	resources := make([]domain.Resource, 0)
	for _, region := range regions {
		regionCfg := cfg.Copy()
		regionCfg.Region = region

		instances, err := listEC2Instances(ctx, regionCfg, region)
		if err != nil {
			// Disabled or restricted regions are expected, skip them.
			logger.Warn().Err(err).Str("region", region).Msg("skipping EC2 discovery")
		} else {
			resources = append(resources, instances...)
		}

		databases, err := listRDSInstances(ctx, regionCfg, region)
		if err != nil {
			logger.Warn().Err(err).Str("region", region).Msg("skipping RDS discovery")
		} else {
			resources = append(resources, databases...)
		}
	}
	return resources, nil
}

func (e *explorer) listRegions(ctx context.Context, cfg awssdk.Config) []string {
	client := ec2.NewFromConfig(cfg)
	resp, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil || len(resp.Regions) == 0 {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("falling back to the default region list")
		return fallbackRegions
	}

	regions := make([]string, 0, len(resp.Regions))
	for _, region := range resp.Regions {
		regions = append(regions, awssdk.ToString(region.RegionName))
	}
	return regions
}

func listEC2Instances(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)
	resp, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awssdk.String("instance-state-name"),
				Values: []string{"running"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe EC2 instances: %w", err)
	}

	var resources []domain.Resource
	for _, reservation := range resp.Reservations {
		for _, instance := range reservation.Instances {
			name := "Unnamed"
			for _, tag := range instance.Tags {
				if awssdk.ToString(tag.Key) == "Name" {
					name = awssdk.ToString(tag.Value)
					break
				}
			}

			platform := "Linux"
			if instance.Platform != "" {
				platform = string(instance.Platform)
			}

			status := "running"
			if instance.State != nil {
				status = string(instance.State.Name)
			}

			resources = append(resources, domain.Resource{
				ID:       awssdk.ToString(instance.InstanceId),
				Name:     name,
				Type:     string(instance.InstanceType),
				Service:  "ec2",
				Region:   region,
				Status:   status,
				Provider: domain.ProviderAWS,
				Details: map[string]string{
					"platform": platform,
				},
			})
		}
	}
	return resources, nil
}

func listRDSInstances(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := rds.NewFromConfig(cfg)
	resp, err := client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe RDS instances: %w", err)
	}

	var resources []domain.Resource
	for _, instance := range resp.DBInstances {
		resources = append(resources, domain.Resource{
			ID:       awssdk.ToString(instance.DBInstanceIdentifier),
			Name:     awssdk.ToString(instance.DBInstanceIdentifier),
			Type:     awssdk.ToString(instance.DBInstanceClass),
			Service:  "rds",
			Region:   region,
			Status:   awssdk.ToString(instance.DBInstanceStatus),
			Provider: domain.ProviderAWS,
			Details: map[string]string{
				"engine":               awssdk.ToString(instance.Engine),
				"allocated_storage_gb": strconv.Itoa(int(awssdk.ToInt32(instance.AllocatedStorage))),
			},
		})
	}
	return resources, nil
}
