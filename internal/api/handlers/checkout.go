// Package handlers contains the HTTP handlers of the checkout relay.
//
// Service contracts are declared next to the handler that uses them and
// injected through the constructor so tests can swap in fakes.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucascsr96/SynkCamp/internal/core"
	"github.com/lucascsr96/SynkCamp/internal/types"
)

// CheckoutService creates checkout sessions for validated purchase intents.
// Implemented by checkout.Initiator.
type CheckoutService interface {
	Create(ctx context.Context, req types.CheckoutRequest) (*types.CheckoutSession, error)
}

// CheckoutResponse is the body returned by POST /create-checkout-session.
// URL is the hosted page; clients that still call redirectToCheckout only
// need ID.
type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// CheckoutHandler serves the session initiator endpoint.
type CheckoutHandler struct {
	service CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(svc CheckoutService, l *slog.Logger) *CheckoutHandler {
	if l == nil {
		l = slog.Default()
	}
	return &CheckoutHandler{service: svc, logger: l}
}

// RegisterRoutes mounts the endpoint and its historical /api alias.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-checkout-session", h.CreateCheckoutSession)
	r.Post("/api/create-checkout-session", h.CreateCheckoutSession)
}

// CreateCheckoutSession handles POST /create-checkout-session.
//
//  1. Decode {priceId, userId}.
//  2. Hand off to the service, which validates before calling Stripe.
//  3. Return {id, url}.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req types.CheckoutRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		h.logger.InfoContext(r.Context(), "rejected checkout request body", "error", err)
		core.Error(w, r, err)
		return
	}

	session, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, CheckoutResponse{ID: session.ID, URL: session.URL})
}
