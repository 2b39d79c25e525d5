package config

import (
	"context"
	"os"
)

// EnvVarProvider resolves each key as an environment variable name. It lets
// local and CI runs exercise the _SSM_PARAM indirection without AWS.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch implements SecretProvider.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}
