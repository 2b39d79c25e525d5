package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucascsr96/SynkCamp/internal/checkout"
	"github.com/lucascsr96/SynkCamp/internal/core"
	"github.com/lucascsr96/SynkCamp/internal/types"
)

// maxWebhookBodySize is the default cap on a Stripe webhook payload (64 KB).
const maxWebhookBodySize = 64 * 1024

// WebhookReceiver authenticates and applies a raw Stripe delivery.
// Implemented by checkout.Receiver.
type WebhookReceiver interface {
	Receive(ctx context.Context, payload []byte, signature string) (checkout.Result, error)
}

// WebhookAck is the acknowledgment body Stripe receives.
type WebhookAck struct {
	Received bool `json:"received"`
}

// StripeWebhookHandler handles asynchronous events from Stripe.
// It is unauthenticated; the Stripe-Signature header is the only credential.
type StripeWebhookHandler struct {
	receiver    WebhookReceiver
	maxBodySize int64
	logger      *slog.Logger
}

// NewStripeWebhookHandler creates a StripeWebhookHandler. A maxBodySize of
// zero uses 64 KB.
func NewStripeWebhookHandler(receiver WebhookReceiver, maxBodySize int64, logger *slog.Logger) *StripeWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBodySize <= 0 {
		maxBodySize = maxWebhookBodySize
	}
	return &StripeWebhookHandler{
		receiver:    receiver,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// RegisterRoutes mounts the webhook endpoint and its aliases.
func (h *StripeWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.Handle)
	r.Post("/webhooks/stripe", h.Handle)
	r.Post("/api/webhook", h.Handle)
}

// Handle processes one Stripe delivery.
//
//  1. Read the raw body. It must not be decoded before verification.
//  2. Verify Stripe-Signature; failures answer 400.
//  3. Dispatch the event and acknowledge with {"received": true}.
//
// A verified event is acknowledged even when it could not be applied, unless
// the receiver asks for a retry.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationBodyTooLarge, "request body too large", err))
			return
		}
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidJSON, "failed to read request body", err))
		return
	}

	res, err := h.receiver.Receive(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if res.Retry {
		core.Error(w, r, res.Err)
		return
	}

	h.logger.DebugContext(r.Context(), "webhook acknowledged",
		"event_id", res.EventID,
		"event_type", res.EventType,
		"outcome", res.Outcome,
	)
	core.JSON(w, r, http.StatusOK, WebhookAck{Received: true})
}
