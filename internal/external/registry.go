package external

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lucascsr96/SynkCamp/internal/config"
)

// ClientRegistry holds the initialized payment provider clients.
type ClientRegistry struct {
	Billing        *StripeClient
	StripeVerifier *StripeVerifier
}

// NewClientRegistry builds the Stripe client and webhook verifier from
// configuration. STRIPE_API_BASE may point at stripe-mock for local runs.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) (*ClientRegistry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if !cfg.Stripe.SecretKey.IsSet() {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing stripe client",
		"environment", cfg.Environment,
		"api_base", cfg.Stripe.APIBase,
		"timeout", cfg.Stripe.Timeout,
	)

	httpClient := &http.Client{Timeout: cfg.Stripe.Timeout}
	return &ClientRegistry{
		Billing: NewStripeClient(httpClient, StripeClientConfig{
			SecretKey: cfg.Stripe.SecretKey,
			BaseURL:   cfg.Stripe.APIBase,
			Logger:    logger.With("client", "stripe"),
		}),
		StripeVerifier: NewStripeVerifier(),
	}, nil
}
