package checkout

import (
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// EventTypeCheckoutCompleted is the only event type the receiver acts on.
const EventTypeCheckoutCompleted = string(stripe.EventTypeCheckoutSessionCompleted)

// Event is a verified webhook event. The set of implementations is closed:
// CheckoutCompleted and Unrecognized.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

// CheckoutCompleted reports that a customer finished a hosted checkout.
// UserID is empty when the session carried no userId metadata.
type CheckoutCompleted struct {
	ID        string
	SessionID string
	UserID    string
}

func (e CheckoutCompleted) EventID() string   { return e.ID }
func (e CheckoutCompleted) EventType() string { return EventTypeCheckoutCompleted }
func (CheckoutCompleted) isEvent()            {}

// Unrecognized is any event type the receiver does not handle.
type Unrecognized struct {
	ID   string
	Type string
}

func (e Unrecognized) EventID() string   { return e.ID }
func (e Unrecognized) EventType() string { return e.Type }
func (Unrecognized) isEvent()            {}

// ParseEvent decodes a Stripe event payload. It must only be called on a
// payload whose signature has already been verified.
//
// The user ID is read from the session's metadata.userId and nowhere else.
func ParseEvent(payload []byte) (Event, error) {
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, malformed("decoding event", err)
	}
	if ev.Type == "" {
		return nil, malformed("event has no type", nil)
	}

	if string(ev.Type) != EventTypeCheckoutCompleted {
		return Unrecognized{ID: ev.ID, Type: string(ev.Type)}, nil
	}

	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return nil, malformed("checkout event has no data object", nil)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
		return nil, malformed("decoding checkout session", err)
	}

	return CheckoutCompleted{
		ID:        ev.ID,
		SessionID: session.ID,
		UserID:    session.Metadata[types.MetadataKeyUserID],
	}, nil
}

func malformed(what string, err error) error {
	cause := errors.New(what)
	if err != nil {
		cause = fmt.Errorf("%s: %w", what, err)
	}
	return types.NewAppError(types.ErrCodeApplyMalformedEvent, "malformed webhook event", cause)
}
