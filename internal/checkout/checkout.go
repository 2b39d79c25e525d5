// Package checkout holds the two halves of the payment flow: the Initiator,
// which asks Stripe for a hosted checkout session on behalf of a user, and
// the Receiver, which turns verified Stripe webhook events into subscription
// status writes.
//
// The two never call each other. The only thing linking a session to its
// completion event is the userId tag placed in the session metadata.
package checkout

import (
	"context"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// SessionCreator creates a hosted checkout session with the payment processor.
// Implemented by external.StripeClient.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in types.CheckoutSessionInput) (*types.CheckoutSession, error)
}

// EventVerifier checks a webhook signature header against the raw payload.
// Implemented by external.StripeVerifier.
type EventVerifier interface {
	Verify(payload []byte, header string, secret string) error
}

// UserStore writes the subscription field of a user record. The write is an
// unconditional overwrite, so applying the same event twice is harmless.
// Implemented by store.FirestoreUserStore and store.MemoryUserStore.
type UserStore interface {
	SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error
}

// RequestValidator validates a decoded request struct. Implemented by
// core.Validator.
type RequestValidator interface {
	ValidateStruct(s any, message string) error
}

// Recorder receives business-level counters. Implemented by
// telemetry.CloudWatchCollector and telemetry.NoopCollector.
type Recorder interface {
	RecordCheckout(ctx context.Context, success bool)
	RecordWebhookOutcome(ctx context.Context, eventType string, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordCheckout(context.Context, bool)                 {}
func (noopRecorder) RecordWebhookOutcome(context.Context, string, string) {}
