package external

import (
	"context"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// BillingService abstracts the payment provider calls the relay makes.
type BillingService interface {
	// CreateCheckoutSession creates a hosted checkout page for one price at
	// the given quantity, tagged with the user ID in metadata.
	CreateCheckoutSession(ctx context.Context, in types.CheckoutSessionInput) (*types.CheckoutSession, error)
}

// WebhookVerifier abstracts Stripe webhook signature checking.
type WebhookVerifier interface {
	// Verify validates payload against the signature header and signing
	// secret. Returns nil on success.
	Verify(payload []byte, header string, secret string) error
}

var (
	_ BillingService  = (*StripeClient)(nil)
	_ WebhookVerifier = (*StripeVerifier)(nil)
)
