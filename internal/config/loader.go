package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is returned by LoadConfig to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks pointer variables: STRIPE_SECRET_KEY_SSM_PARAM holds the
// SSM path whose value becomes STRIPE_SECRET_KEY.
const ssmParamSuffix = "_SSM_PARAM"

const localEnv = "local"

// ssmResolveTimeout bounds the whole secret-resolution step at startup.
const ssmResolveTimeout = 30 * time.Second

// loaderDeps holds the injectable environment accessors so tests do not have
// to mutate process state for SSM resolution.
type loaderDeps struct {
	lookupEnv func(key string) (string, bool)
	setEnv    func(key, value string) error
	environ   func() []string
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// LoadConfig loads and validates the relay configuration.
//
//  1. Sets the process timezone to UTC.
//  2. Loads a .env file if present.
//  3. If APP_ENV != "local", resolves _SSM_PARAM pointers via provider.
//  4. Populates Config from the environment with envconfig.
//  5. Fills Build from linker-injected variables.
//  6. Validates the struct.
//
// provider may be nil when no _SSM_PARAM variables are set.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// Does not override variables already present in the environment.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()
	cfg.Security.CorsAllowedOrigins = trimEntries(cfg.Security.CorsAllowedOrigins)
	cfg.Checkout.PaymentMethodTypes = trimEntries(cfg.Checkout.PaymentMethodTypes)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// ResolveSecrets performs only the SSM resolution step. It is a no-op when
// APP_ENV is "local".
func ResolveSecrets(provider SecretProvider) error {
	appEnv, _ := os.LookupEnv("APP_ENV")
	if appEnv == localEnv {
		return nil
	}
	return resolveSSMParams(provider, defaultDeps())
}

// resolveSSMParams scans the environment for *_SSM_PARAM variables, fetches the
// referenced values in one batch, and injects them under the target name.
// A target that is already set wins over SSM (Env > Dotenv > SSM).
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	pathToTarget := make(map[string]string)
	var paths []string

	for _, entry := range deps.environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) || value == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		if _, dup := pathToTarget[value]; !dup {
			paths = append(paths, value)
		}
		pathToTarget[value] = target
	}

	if len(paths) == 0 {
		return nil
	}

	if provider == nil {
		targets := make([]string, 0, len(paths))
		for _, p := range paths {
			targets = append(targets, pathToTarget[p])
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targets, ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ssmResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, p := range paths {
		value, ok := resolved[p]
		if !ok {
			missing = append(missing, pathToTarget[p])
			continue
		}
		if err := deps.setEnv(pathToTarget[p], value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", pathToTarget[p]),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}

// trimEntries drops surrounding whitespace and empty entries from a
// comma-split env list ("a, b,," -> [a b]).
func trimEntries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
