package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmMaxBatchSize is the GetParameters per-call limit imposed by AWS.
const ssmMaxBatchSize = 10

type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider resolves secrets (Stripe keys, the Firebase service account)
// from AWS SSM Parameter Store SecureString parameters.
type SSMProvider struct {
	region string
	client ssmClient
}

// NewSSMProvider creates a provider for the given region. The SDK client is
// created lazily on first use.
func NewSSMProvider(region string) *SSMProvider {
	return &SSMProvider{region: region}
}

func newSSMProviderWithClient(region string, client ssmClient) *SSMProvider {
	return &SSMProvider{region: region, client: client}
}

func (p *SSMProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return fmt.Errorf("loading AWS config for SSM (region=%s): %w", p.region, err)
	}
	p.client = ssm.NewFromConfig(cfg)
	return nil
}

// GetParametersBatch implements SecretProvider. Keys are fetched with
// decryption in batches of ssmMaxBatchSize; any parameter SSM reports as
// invalid fails the whole call.
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for i := 0; i < len(keys); i += ssmMaxBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during SSM parameter retrieval: %w", err)
		}

		end := min(i+ssmMaxBatchSize, len(keys))
		output, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          keys[i:end],
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("SSM GetParameters failed (batch %d-%d of %d): %w", i, end-1, len(keys), err)
		}

		for _, param := range output.Parameters {
			if param.Name != nil && param.Value != nil {
				result[*param.Name] = *param.Value
			}
		}
		if len(output.InvalidParameters) > 0 {
			return nil, fmt.Errorf("SSM parameters not found: %v", output.InvalidParameters)
		}
	}

	return result, nil
}
