package mainconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/kinesio-agenda/internal/app/bootstrap"
	appconfig "github.com/wolfman30/kinesio-agenda/internal/config"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}
	return awsCfg, nil
}

// NewSESClient builds the SES v2 client, honoring AWS_ENDPOINT_OVERRIDE for
// LocalStack.
func NewSESClient(ctx context.Context, cfg *appconfig.Config) (*sesv2.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mainconfig: load aws config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// BuildApp creates the infrastructure clients the config asks for and
// assembles the application.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*bootstrap.App, error) {
	var deps bootstrap.Deps

	if cfg.EmailProvider == "ses" {
		client, err := NewSESClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.SES = client
	}
	if cfg.BookingGuard {
		if client := bootstrap.BuildRedisClient(ctx, cfg, logger, true); client != nil {
			deps.Redis = client
		}
	}

	return bootstrap.Build(ctx, cfg, deps, logger)
}
