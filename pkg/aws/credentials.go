package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	appconfig "github.com/younsl/idlemon/internal/config"
	"github.com/younsl/idlemon/internal/models"
)

// CredentialProvider exchanges an IAM role for temporary credentials
type CredentialProvider struct {
	client          STSAPI
	durationSeconds int32
}

// NewCredentialProvider creates a CredentialProvider. A zero durationSeconds
// leaves the session length to STS.
func NewCredentialProvider(client STSAPI, durationSeconds int32) *CredentialProvider {
	return &CredentialProvider{
		client:          client,
		durationSeconds: durationSeconds,
	}
}

// AssumeRole performs a single sts:AssumeRole call. There is no retry and
// the returned credentials are never refreshed.
func (p *CredentialProvider) AssumeRole(ctx context.Context, roleARN, sessionName string) (models.Credentials, error) {
	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	}
	if p.durationSeconds > 0 {
		input.DurationSeconds = aws.Int32(p.durationSeconds)
	}

	output, err := p.client.AssumeRole(ctx, input)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("error assuming role %s: %w", roleARN, err)
	}
	if output.Credentials == nil {
		return models.Credentials{}, fmt.Errorf("role %s: %w", roleARN, ErrMissingCredentials)
	}

	creds := models.Credentials{
		AccessKeyID:     aws.ToString(output.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(output.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(output.Credentials.SessionToken),
		Expiration:      aws.ToTime(output.Credentials.Expiration),
	}

	log.Debug().
		Str("role", roleARN).
		Str("session", sessionName).
		Time("expiration", creds.Expiration).
		Msg("assumed role")

	return creds, nil
}

// LoadBaseConfig loads the caller's own SDK configuration. SDK retries are
// capped at one attempt so a throttled or failed call surfaces immediately.
func LoadBaseConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(1),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewAssumedRoleConfig assumes the configured role once and returns an SDK
// configuration signed with the resulting credentials.
func NewAssumedRoleConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, models.Credentials, error) {
	base, err := LoadBaseConfig(ctx, cfg)
	if err != nil {
		return aws.Config{}, models.Credentials{}, err
	}

	provider := NewCredentialProvider(sts.NewFromConfig(base), cfg.Role.DurationSeconds)
	creds, err := provider.AssumeRole(ctx, cfg.Role.ARN, cfg.Role.SessionName)
	if err != nil {
		return aws.Config{}, models.Credentials{}, err
	}

	return WithCredentials(base, creds), creds, nil
}

// WithCredentials returns a copy of base that signs requests with creds
func WithCredentials(base aws.Config, creds models.Credentials) aws.Config {
	assumed := base.Copy()
	assumed.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID,
		creds.SecretAccessKey,
		creds.SessionToken,
	))
	return assumed
}
