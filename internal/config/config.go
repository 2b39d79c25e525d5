// Package config defines the process-wide configuration for the checkout relay.
// Configuration is loaded once at startup, validated, and passed by pointer to
// every component; nothing reads the environment ad hoc after that.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
package config

import (
	"strings"
	"time"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Origin matching modes for CORS_ORIGIN_MATCH.
const (
	OriginMatchExact  = "exact"
	OriginMatchPrefix = "prefix"
)

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	Store    StoreConfig
	Webhook  WebhookConfig
	Security SecurityConfig
	AWS      AWSConfig
	Metrics  MetricsConfig

	// Injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig holds HTTP listener settings and the public frontend origin.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"4242"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	// Redirect targets are derived from this origin (no trailing slash).
	FrontendURL string `envconfig:"FRONTEND_URL" validate:"required,url"`
}

// StripeConfig holds the payment processor credentials.
type StripeConfig struct {
	SecretKey     SecretString  `envconfig:"STRIPE_SECRET_KEY" validate:"required"`
	WebhookSecret SecretString  `envconfig:"STRIPE_WEBHOOK_SECRET" validate:"required"`
	APIBase       string        `envconfig:"STRIPE_API_BASE" default:"https://api.stripe.com" validate:"url"`
	Timeout       time.Duration `envconfig:"STRIPE_TIMEOUT" default:"20s"`
}

// CheckoutConfig shapes the sessions created by the initiator.
type CheckoutConfig struct {
	PaymentMethodTypes []string `envconfig:"CHECKOUT_PAYMENT_METHOD_TYPES" default:"card"`
}

// StoreConfig holds the document store (Firestore) settings. An empty or
// unusable ServiceAccountKey leaves the store unconfigured: checkout creation
// still works, webhook events are verified and acknowledged but cannot be
// applied.
type StoreConfig struct {
	ServiceAccountKey SecretString  `envconfig:"FIREBASE_SERVICE_ACCOUNT_KEY"`
	ProjectID         string        `envconfig:"FIREBASE_PROJECT_ID"`
	UsersCollection   string        `envconfig:"FIRESTORE_USERS_COLLECTION" default:"users" validate:"required"`
	Timeout           time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
}

// WebhookConfig controls the event receiver's acknowledgment policy.
type WebhookConfig struct {
	// RetryOnApplyError makes a store-write failure answer 500 so the
	// processor redelivers. Off by default: every verified event is acked.
	RetryOnApplyError bool  `envconfig:"WEBHOOK_RETRY_ON_APPLY_ERROR" default:"false"`
	MaxBodyBytes      int64 `envconfig:"WEBHOOK_MAX_BODY_BYTES" default:"65536" validate:"gt=0"`
}

// SecurityConfig holds the browser-facing CORS allow-list.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CorsOriginMatch    string   `envconfig:"CORS_ORIGIN_MATCH" default:"exact" validate:"oneof=exact prefix"`
}

// AWSConfig holds the region used for SSM and CloudWatch.
type AWSConfig struct {
	Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// MetricsConfig toggles CloudWatch publishing.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"SynkCamp"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// StoreConfigured reports whether a document-store credential was supplied.
func (c *Config) StoreConfigured() bool {
	return c.Store.ServiceAccountKey.IsSet()
}

// FrontendBase returns FrontendURL without a trailing slash.
func (c *Config) FrontendBase() string {
	return strings.TrimRight(c.Server.FrontendURL, "/")
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv    ConfigErrorType = "MISSING_ENV"
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing       ConfigErrorType = "PARSING_FAILED"
)
