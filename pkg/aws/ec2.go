package aws

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"

	appconfig "github.com/younsl/idlemon/internal/config"
	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/pkg/utils"
)

const (
	// DefaultCPUThreshold is the average CPU percentage below which every
	// datapoint must fall for an instance to count as idle
	DefaultCPUThreshold = 1.0

	// DefaultTimeRangeMinutes is how far back utilization is inspected
	DefaultTimeRangeMinutes = 360

	// DefaultPeriodMinutes is the width of one CloudWatch datapoint
	DefaultPeriodMinutes = 360

	// CloudWatch returns at most this many datapoints per request
	maxDatapoints = 1000

	stateRunning = string(types.InstanceStateNameRunning)
)

// ComputeAuditor finds running EC2 instances with persistently low CPU usage
type ComputeAuditor struct {
	ec2Client        EC2API
	cwClient         CloudWatchAPI
	region           string
	timeRangeMinutes int
	periodMinutes    int
	now              func() time.Time
}

// NewComputeAuditor assumes the configured role and builds the EC2 and
// CloudWatch clients used by the audit
func NewComputeAuditor(ctx context.Context, cfg *appconfig.Config) (*ComputeAuditor, error) {
	awsCfg, _, err := NewAssumedRoleConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auditor := newComputeAuditor(ec2.NewFromConfig(awsCfg), cloudwatch.NewFromConfig(awsCfg), cfg.Region)
	if cfg.Compute.TimeRangeMinutes > 0 {
		auditor.timeRangeMinutes = cfg.Compute.TimeRangeMinutes
	}
	if cfg.Compute.PeriodMinutes > 0 {
		auditor.periodMinutes = cfg.Compute.PeriodMinutes
	}
	return auditor, nil
}

func newComputeAuditor(ec2Client EC2API, cwClient CloudWatchAPI, region string) *ComputeAuditor {
	return &ComputeAuditor{
		ec2Client:        ec2Client,
		cwClient:         cwClient,
		region:           region,
		timeRangeMinutes: DefaultTimeRangeMinutes,
		periodMinutes:    DefaultPeriodMinutes,
		now:              time.Now,
	}
}

// ListInstances returns every instance in the region, following pagination
func (c *ComputeAuditor) ListInstances(ctx context.Context) ([]models.InstanceInfo, error) {
	paginator := ec2.NewDescribeInstancesPaginator(c.ec2Client, &ec2.DescribeInstancesInput{})

	instances := []models.InstanceInfo{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EC2 instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, c.toInstanceInfo(instance))
			}
		}
	}

	log.Debug().Str("region", c.region).Int("count", len(instances)).Msg("listed instances")
	return instances, nil
}

func (c *ComputeAuditor) toInstanceInfo(instance types.Instance) models.InstanceInfo {
	var state string
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return models.InstanceInfo{
		InstanceID:   aws.ToString(instance.InstanceId),
		State:        state,
		ImageID:      aws.ToString(instance.ImageId),
		InstanceType: string(instance.InstanceType),
		LaunchTime:   aws.ToTime(instance.LaunchTime),
		Region:       c.region,
		Name:         utils.LookupTag(instance.Tags, "Name"),
		App:          utils.LookupTag(instance.Tags, "App"),
		Owner:        utils.LookupTag(instance.Tags, "Owner"),
	}
}

// GetCPUUtilization returns the Average and Maximum CPUUtilization of an
// instance over the last timeRangeMinutes, bucketed into periodMinutes.
// Datapoints are ordered oldest first.
func (c *ComputeAuditor) GetCPUUtilization(ctx context.Context, instanceID string, timeRangeMinutes, periodMinutes int) ([]models.Datapoint, error) {
	if timeRangeMinutes <= 0 || periodMinutes <= 0 || periodMinutes > math.MaxInt32/60 {
		return nil, fmt.Errorf("%w (time range %d min, period %d min)", ErrInvalidPeriod, timeRangeMinutes, periodMinutes)
	}
	if float64(timeRangeMinutes)/float64(periodMinutes) > maxDatapoints {
		return nil, fmt.Errorf("%w (time range %d min, period %d min)", ErrTooManyDatapoints, timeRangeMinutes, periodMinutes)
	}

	endTime := c.now()
	startTime := endTime.Add(-time.Duration(timeRangeMinutes) * time.Minute)

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []cwTypes.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(instanceID),
			},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(int32(periodMinutes * 60)),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage, cwTypes.StatisticMaximum},
	}

	result, err := c.cwClient.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error getting CPU utilization for %s: %w", instanceID, err)
	}

	datapoints := make([]models.Datapoint, 0, len(result.Datapoints))
	for _, dp := range result.Datapoints {
		datapoints = append(datapoints, models.Datapoint{
			Timestamp: aws.ToTime(dp.Timestamp),
			Average:   dp.Average,
			Maximum:   aws.ToFloat64(dp.Maximum),
		})
	}
	sort.SliceStable(datapoints, func(i, j int) bool {
		return datapoints[i].Timestamp.Before(datapoints[j].Timestamp)
	})

	return datapoints, nil
}

// FindCandidates returns running instances whose every datapoint has an
// Average strictly below thresholdPercentage, sorted by instance type.
// Instances without datapoints are skipped.
func (c *ComputeAuditor) FindCandidates(ctx context.Context, thresholdPercentage float64) ([]models.InstanceInfo, error) {
	log.Info().Str("region", c.region).Float64("threshold", thresholdPercentage).Msg("Finding idle instances")

	instances, err := c.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	candidates := []models.InstanceInfo{}
	for _, instance := range instances {
		if instance.State != stateRunning {
			continue
		}

		datapoints, err := c.GetCPUUtilization(ctx, instance.InstanceID, c.timeRangeMinutes, c.periodMinutes)
		if err != nil {
			return nil, err
		}

		if !isIdle(datapoints, thresholdPercentage) {
			continue
		}

		instance.Datapoints = len(datapoints)
		instance.PeakAverage, instance.PeakMaximum = peakUtilization(datapoints)
		candidates = append(candidates, instance)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].InstanceType < candidates[j].InstanceType
	})

	log.Debug().Int("scanned", len(instances)).Int("idle", len(candidates)).Msg("compute audit complete")
	return candidates, nil
}

// isIdle reports whether there is at least one datapoint and every Average is
// present and below the threshold. Maximum does not take part in the decision.
func isIdle(datapoints []models.Datapoint, threshold float64) bool {
	if len(datapoints) == 0 {
		return false
	}
	for _, dp := range datapoints {
		if dp.Average == nil || *dp.Average >= threshold {
			return false
		}
	}
	return true
}

func peakUtilization(datapoints []models.Datapoint) (peakAverage, peakMaximum float64) {
	for _, dp := range datapoints {
		peakAverage = math.Max(peakAverage, aws.ToFloat64(dp.Average))
		peakMaximum = math.Max(peakMaximum, dp.Maximum)
	}
	return peakAverage, peakMaximum
}
