package config

import "context"

// SecretProvider resolves secret references (SSM parameter paths locally
// mirrored as env vars) into plaintext values.
type SecretProvider interface {
	// GetParametersBatch returns key -> plaintext for every key it could
	// resolve. Unresolvable keys are omitted rather than reported as errors.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
