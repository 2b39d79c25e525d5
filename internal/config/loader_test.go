package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSecretProvider is a configurable SecretProvider for SSM resolution tests.
type testSecretProvider struct {
	values     map[string]string
	err        error
	calledWith []string
	callCount  int
}

func (p *testSecretProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	p.callCount++
	p.calledWith = append(p.calledWith, keys...)
	if p.err != nil {
		return nil, p.err
	}
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := p.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

// setRequiredTestEnv sets the minimal environment for a valid Config.
func setRequiredTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("FRONTEND_URL", "https://app.synkcamp.test")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_abc123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test_456")
}

// fakeDeps returns loaderDeps backed by an in-memory environment.
func fakeDeps(env map[string]string) loaderDeps {
	return loaderDeps{
		lookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		setEnv: func(key, value string) error {
			env[key] = value
			return nil
		},
		environ: func() []string {
			out := make([]string, 0, len(env))
			for k, v := range env {
				out = append(out, fmt.Sprintf("%s=%s", k, v))
			}
			return out
		},
	}
}

func TestLoadConfig_LocalDefaults(t *testing.T) {
	setRequiredTestEnv(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "4242", cfg.Server.Port)
	assert.Equal(t, 29*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "https://api.stripe.com", cfg.Stripe.APIBase)
	assert.Equal(t, 20*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, []string{"card"}, cfg.Checkout.PaymentMethodTypes)
	assert.Equal(t, "users", cfg.Store.UsersCollection)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Webhook.RetryOnApplyError)
	assert.Equal(t, int64(65536), cfg.Webhook.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Security.CorsAllowedOrigins)
	assert.Equal(t, OriginMatchExact, cfg.Security.CorsOriginMatch)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.StoreConfigured())
	assert.Equal(t, "dev", cfg.Build.Version)
}

func TestLoadConfig_SecretsAreUnmaskable(t *testing.T) {
	setRequiredTestEnv(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "sk_test_abc123", cfg.Stripe.SecretKey.Unmask())
	assert.Equal(t, "whsec_test_456", cfg.Stripe.WebhookSecret.Unmask())

	dump, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(dump), "sk_test_abc123")
	assert.NotContains(t, string(dump), "whsec_test_456")
	assert.NotContains(t, fmt.Sprintf("%v", cfg.Stripe), "sk_test_abc123")
}

func TestLoadConfig_ListsAreTrimmed(t *testing.T) {
	setRequiredTestEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,,")
	t.Setenv("CHECKOUT_PAYMENT_METHOD_TYPES", "card, boleto")
	t.Setenv("CORS_ORIGIN_MATCH", "prefix")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Security.CorsAllowedOrigins)
	assert.Equal(t, []string{"card", "boleto"}, cfg.Checkout.PaymentMethodTypes)
	assert.Equal(t, OriginMatchPrefix, cfg.Security.CorsOriginMatch)
}

func TestLoadConfig_StoreConfigured(t *testing.T) {
	setRequiredTestEnv(t)
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", `{"type":"service_account","project_id":"synkcamp"}`)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.StoreConfigured())
}

func TestLoadConfig_MalformedServiceAccountStillLoads(t *testing.T) {
	setRequiredTestEnv(t)
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "{nope")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.StoreConfigured())
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing frontend url", env: map[string]string{"FRONTEND_URL": ""}},
		{name: "frontend url not a url", env: map[string]string{"FRONTEND_URL": "not a url"}},
		{name: "missing stripe key", env: map[string]string{"STRIPE_SECRET_KEY": ""}},
		{name: "missing webhook secret", env: map[string]string{"STRIPE_WEBHOOK_SECRET": ""}},
		{name: "bad environment", env: map[string]string{"APP_ENV": "qa"}},
		{name: "bad origin match", env: map[string]string{"CORS_ORIGIN_MATCH": "regex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredTestEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(nil)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, ErrValidation, cfgErr.Type)
		})
	}
}

func TestLoadConfig_ParsingFailure(t *testing.T) {
	setRequiredTestEnv(t)
	t.Setenv("STRIPE_TIMEOUT", "twenty seconds")

	_, err := LoadConfig(nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrParsing, cfgErr.Type)
}

func TestResolveSSMParams_InjectsResolvedValues(t *testing.T) {
	env := map[string]string{
		"STRIPE_SECRET_KEY_SSM_PARAM":            "/prod/synkcamp/stripe/secret",
		"FIREBASE_SERVICE_ACCOUNT_KEY_SSM_PARAM": "/prod/synkcamp/firebase/sa",
	}
	provider := &testSecretProvider{values: map[string]string{
		"/prod/synkcamp/stripe/secret": "sk_live_x",
		"/prod/synkcamp/firebase/sa":   `{"type":"service_account"}`,
	}}

	err := resolveSSMParams(provider, fakeDeps(env))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount)
	assert.ElementsMatch(t, []string{"/prod/synkcamp/stripe/secret", "/prod/synkcamp/firebase/sa"}, provider.calledWith)
	assert.Equal(t, "sk_live_x", env["STRIPE_SECRET_KEY"])
	assert.Equal(t, `{"type":"service_account"}`, env["FIREBASE_SERVICE_ACCOUNT_KEY"])
}

func TestResolveSSMParams_EnvOverridesSSM(t *testing.T) {
	env := map[string]string{
		"STRIPE_SECRET_KEY":           "sk_from_env",
		"STRIPE_SECRET_KEY_SSM_PARAM": "/prod/synkcamp/stripe/secret",
	}
	provider := &testSecretProvider{}

	require.NoError(t, resolveSSMParams(provider, fakeDeps(env)))
	assert.Equal(t, 0, provider.callCount)
	assert.Equal(t, "sk_from_env", env["STRIPE_SECRET_KEY"])
}

func TestResolveSSMParams_NoParamsIsNoop(t *testing.T) {
	require.NoError(t, resolveSSMParams(nil, fakeDeps(map[string]string{"PORT": "8080"})))
}

func TestResolveSSMParams_NilProvider(t *testing.T) {
	env := map[string]string{"STRIPE_WEBHOOK_SECRET_SSM_PARAM": "/prod/synkcamp/stripe/whsec"}

	err := resolveSSMParams(nil, fakeDeps(env))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrSSMResolution, cfgErr.Type)
	assert.Contains(t, cfgErr.Message, "STRIPE_WEBHOOK_SECRET")
}

func TestResolveSSMParams_ProviderError(t *testing.T) {
	env := map[string]string{"STRIPE_SECRET_KEY_SSM_PARAM": "/prod/synkcamp/stripe/secret"}
	provider := &testSecretProvider{err: errors.New("throttled")}

	err := resolveSSMParams(provider, fakeDeps(env))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "throttled"))
}

func TestResolveSSMParams_MissingParameter(t *testing.T) {
	env := map[string]string{"STRIPE_SECRET_KEY_SSM_PARAM": "/prod/synkcamp/stripe/secret"}
	provider := &testSecretProvider{values: map[string]string{}}

	err := resolveSSMParams(provider, fakeDeps(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
	_, set := env["STRIPE_SECRET_KEY"]
	assert.False(t, set)
}

func TestTrimEntries(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, trimEntries([]string{" a", "", "b ", "  "}))
	assert.Empty(t, trimEntries(nil))
}
