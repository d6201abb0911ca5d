// Package awsclient holds the AWS plumbing shared by the Bedrock inference
// and knowledge-base adapters.
package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"

	"github.com/vasifvortex/azercell-project3/config"
	"github.com/vasifvortex/azercell-project3/domain"
)

// LoadConfig resolves AWS settings. A static key pair from the environment
// wins over the default credential chain.
func LoadConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return awsCfg, nil
}

// ClassifyError turns service faults into *domain.ProviderError. Errors that
// never reached the service are wrapped as-is so callers treat them as
// unexpected.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider: provider,
			Kind:     kindForCode(apiErr.ErrorCode()),
			Message:  apiErr.ErrorMessage(),
			Err:      err,
		}
	}

	return fmt.Errorf("%s: %w", provider, err)
}

func kindForCode(code string) domain.ErrorKind {
	switch code {
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException",
		"InvalidSignatureException", "MissingAuthenticationTokenException":
		return domain.KindAuth
	case "ThrottlingException", "TooManyRequestsException":
		return domain.KindThrottled
	case "ServiceQuotaExceededException":
		return domain.KindQuota
	case "ValidationException", "ResourceNotFoundException", "ConflictException":
		return domain.KindInvalidRequest
	case "ServiceUnavailableException", "ModelNotReadyException", "ModelTimeoutException",
		"InternalServerException", "ModelStreamErrorException", "BadGatewayException",
		"DependencyFailedException":
		return domain.KindUnavailable
	default:
		return domain.KindUnknown
	}
}
