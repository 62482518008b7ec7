package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	awsacct "github.com/ct-tools/cloudscope/pkg/services/account/aws"
	"github.com/ct-tools/cloudscope/pkg/services/usage"
	"github.com/ct-tools/cloudscope/pkg/store/specs"
	"github.com/rs/zerolog"
)

// CloudWatch sampling window. 300s matches the detail level the agent
// publishes at.
const metricPeriodSeconds = 300

type collector struct {
	cfg   awssdk.Config
	specs specs.Store
}

func NewCollector(ctx context.Context, creds domain.Credentials, specsStore specs.Store) (usage.Collector, error) {
	cfg, err := awsacct.NewConfig(ctx, creds)
	if err != nil {
		return nil, err
	}
	return &collector{cfg: cfg, specs: specsStore}, nil
}

func Factory(specsStore specs.Store) usage.Factory {
	return func(ctx context.Context, creds domain.Credentials) (usage.Collector, error) {
		return NewCollector(ctx, creds, specsStore)
	}
}

func (c *collector) Collect(ctx context.Context, ref domain.ResourceRef, period domain.TimePeriod) ([]domain.MetricStat, error) {
	cfg := c.cfg.Copy()
	if ref.Region != "" {
		cfg.Region = ref.Region
	}
	client := cloudwatch.NewFromConfig(cfg)

	switch ref.Service {
	case "ec2":
		return c.collectEC2(ctx, client, ref, period)
	case "rds":
		return c.collectRDS(ctx, cfg, client, ref, period)
	default:
		return nil, fmt.Errorf("unsupported AWS service: %s", ref.Service)
	}
}

func (c *collector) collectEC2(
	ctx context.Context,
	client *cloudwatch.Client,
	ref domain.ResourceRef,
	period domain.TimePeriod,
) ([]domain.MetricStat, error) {
	dims := []cwtypes.Dimension{
		{Name: awssdk.String("InstanceId"), Value: awssdk.String(ref.ID)},
	}

	stats := make([]domain.MetricStat, 0, 3)

	cpu, err := fetchMetric(ctx, client, "AWS/EC2", "CPUUtilization", dims, period)
	if err != nil {
		return nil, err
	}
	stats = append(stats, domain.MetricStat{
		Name:    "CPU Utilization",
		Unit:    "%",
		Average: cpu.avg,
		Peak:    cpu.max,
		Samples: cpu.samples,
	})

	// Memory and disk need the CloudWatch agent; without it the
	// datapoints are simply absent.
	agentMetrics := []struct {
		metric string
		label  string
	}{
		{"mem_used_percent", "Memory Used"},
		{"disk_used_percent", "Disk Used"},
	}
	for _, m := range agentMetrics {
		sample, err := fetchMetric(ctx, client, "CWAgent", m.metric, dims, period)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("metric", m.metric).Str("instance", ref.ID).
				Msg("skipping agent metric")
			continue
		}
		if sample.samples == 0 {
			continue
		}
		stats = append(stats, domain.MetricStat{
			Name:    m.label,
			Unit:    "%",
			Average: sample.avg,
			Peak:    sample.max,
			Samples: sample.samples,
		})
	}

	return stats, nil
}

func (c *collector) collectRDS(
	ctx context.Context,
	cfg awssdk.Config,
	client *cloudwatch.Client,
	ref domain.ResourceRef,
	period domain.TimePeriod,
) ([]domain.MetricStat, error) {
	dims := []cwtypes.Dimension{
		{Name: awssdk.String("DBInstanceIdentifier"), Value: awssdk.String(ref.ID)},
	}

	stats := make([]domain.MetricStat, 0, 3)

	cpu, err := fetchMetric(ctx, client, "AWS/RDS", "CPUUtilization", dims, period)
	if err != nil {
		return nil, err
	}
	stats = append(stats, domain.MetricStat{
		Name:    "CPU Utilization",
		Unit:    "%",
		Average: cpu.avg,
		Peak:    cpu.max,
		Samples: cpu.samples,
	})

	instanceClass, allocatedGB := c.describeInstance(ctx, cfg, ref.ID)

	// RDS publishes free bytes, not used percent. Peak usage is the
	// point of minimum free memory.
	freeMem, err := fetchMetric(ctx, client, "AWS/RDS", "FreeableMemory", dims, period)
	if err == nil && freeMem.samples > 0 {
		totalGB := c.specs.GetInstanceSpec(ctx, instanceClass).MemoryGB
		stats = append(stats, domain.MetricStat{
			Name:    "Memory Used",
			Unit:    "%",
			Average: usedPercent(freeMem.avg, totalGB),
			Peak:    usedPercent(freeMem.min, totalGB),
			Samples: freeMem.samples,
		})
	}

	if allocatedGB > 0 {
		freeDisk, err := fetchMetric(ctx, client, "AWS/RDS", "FreeStorageSpace", dims, period)
		if err == nil && freeDisk.samples > 0 {
			stats = append(stats, domain.MetricStat{
				Name:    "Storage Used",
				Unit:    "%",
				Average: usedPercent(freeDisk.avg, allocatedGB),
				Peak:    usedPercent(freeDisk.min, allocatedGB),
				Samples: freeDisk.samples,
			})
		}
	}

	return stats, nil
}

// describeInstance resolves the instance class and allocated storage.
// Failures degrade to the default instance spec rather than aborting
// the whole report.
func (c *collector) describeInstance(ctx context.Context, cfg awssdk.Config, id string) (string, float64) {
	client := rds.NewFromConfig(cfg)
	resp, err := client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: awssdk.String(id),
	})
	if err != nil || len(resp.DBInstances) == 0 {
		zerolog.Ctx(ctx).Warn().Err(err).Str("instance", id).Msg("could not describe RDS instance")
		return "", 0
	}

	instance := resp.DBInstances[0]
	return awssdk.ToString(instance.DBInstanceClass), float64(awssdk.ToInt32(instance.AllocatedStorage))
}

type metricSample struct {
	avg     float64
	max     float64
	min     float64
	samples int
}

func fetchMetric(
	ctx context.Context,
	client *cloudwatch.Client,
	namespace, metricName string,
	dims []cwtypes.Dimension,
	period domain.TimePeriod,
) (metricSample, error) {
	resp, err := client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String(namespace),
		MetricName: awssdk.String(metricName),
		Dimensions: dims,
		StartTime:  awssdk.Time(period.Start),
		EndTime:    awssdk.Time(period.End),
		Period:     awssdk.Int32(metricPeriodSeconds),
		Statistics: []cwtypes.Statistic{
			cwtypes.StatisticAverage,
			cwtypes.StatisticMaximum,
			cwtypes.StatisticMinimum,
		},
	})
	if err != nil {
		return metricSample{}, fmt.Errorf("failed to get %s/%s statistics: %w", namespace, metricName, err)
	}

	return foldDatapoints(resp.Datapoints), nil
}

func foldDatapoints(datapoints []cwtypes.Datapoint) metricSample {
	var sample metricSample
	for i, dp := range datapoints {
		sample.avg += awssdk.ToFloat64(dp.Average)
		if max := awssdk.ToFloat64(dp.Maximum); max > sample.max {
			sample.max = max
		}
		if min := awssdk.ToFloat64(dp.Minimum); i == 0 || min < sample.min {
			sample.min = min
		}
	}

	sample.samples = len(datapoints)
	if sample.samples > 0 {
		sample.avg /= float64(sample.samples)
	}
	return sample
}

// usedPercent converts a free-bytes reading into a used percentage of
// the given total, clamped to [0, 100].
func usedPercent(freeBytes, totalGB float64) float64 {
	if totalGB <= 0 {
		return 0
	}
	freeGB := freeBytes / (1024 * 1024 * 1024)
	used := (1 - freeGB/totalGB) * 100
	if used < 0 {
		return 0
	}
	if used > 100 {
		return 100
	}
	return used
}
