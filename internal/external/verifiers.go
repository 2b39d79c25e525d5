package external

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// StripeVerifier checks the Stripe-Signature header (HMAC-SHA256 over
// "timestamp.payload") against the endpoint signing secret.
type StripeVerifier struct {
	// Tolerance bounds the age of the signed timestamp. Zero means
	// webhook.DefaultTolerance (five minutes).
	Tolerance time.Duration
}

// NewStripeVerifier creates a verifier with the default tolerance.
func NewStripeVerifier() *StripeVerifier {
	return &StripeVerifier{Tolerance: webhook.DefaultTolerance}
}

// Verify returns nil when header carries a valid, fresh signature of payload.
// Failures are auth_webhook_* AppErrors; the library error is kept as the
// cause.
func (v *StripeVerifier) Verify(payload []byte, header string, secret string) error {
	if header == "" {
		return types.NewAppError(types.ErrCodeAuthSignatureMissing, "missing Stripe-Signature header", webhook.ErrNotSigned)
	}

	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	err := webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrNotSigned):
		return types.NewAppError(types.ErrCodeAuthSignatureMissing, "missing Stripe-Signature header", err)
	default:
		return types.NewAppError(types.ErrCodeAuthSignatureInvalid, "webhook signature verification failed", err)
	}
}
