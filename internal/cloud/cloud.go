// Package cloud builds the AWS SDK clients used by stepbench.
package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/watzon/stepbench/internal/config"
)

var ErrNoRegion = errors.New("aws region is required")

// Clients bundles the service clients for a single region.
type Clients struct {
	Region string
	SFN    *sfn.Client
	Logs   *cloudwatchlogs.Client
	S3     *s3.Client
}

// NewAWSConfig loads an aws.Config for region. Static credentials win over
// a named profile; with neither set the SDK default chain applies.
func NewAWSConfig(ctx context.Context, cfg config.AWSConfig, region string) (aws.Config, error) {
	if region == "" {
		region = cfg.Region
	}
	if region == "" {
		return aws.Config{}, ErrNoRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	} else if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}

	return awsCfg, nil
}

// NewClients creates the Step Functions, CloudWatch Logs and S3 clients for region.
func NewClients(ctx context.Context, cfg config.AWSConfig, region string) (*Clients, error) {
	awsCfg, err := NewAWSConfig(ctx, cfg, region)
	if err != nil {
		return nil, err
	}

	var (
		sfnOpts  []func(*sfn.Options)
		logsOpts []func(*cloudwatchlogs.Options)
		s3Opts   []func(*s3.Options)
	)

	if cfg.Endpoint != "" {
		sfnOpts = append(sfnOpts, func(o *sfn.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
		logsOpts = append(logsOpts, func(o *cloudwatchlogs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Clients{
		Region: awsCfg.Region,
		SFN:    sfn.NewFromConfig(awsCfg, sfnOpts...),
		Logs:   cloudwatchlogs.NewFromConfig(awsCfg, logsOpts...),
		S3:     s3.NewFromConfig(awsCfg, s3Opts...),
	}, nil
}
