package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// MsgMissingFields is returned to the client when priceId or userId is absent
// or blank.
const MsgMissingFields = "Price ID e User ID são obrigatórios."

// msgSessionFailed is the only text a client sees when Stripe rejects or
// cannot be reached.
const msgSessionFailed = "failed to create checkout session"

// DefaultPaymentMethodTypes is used when no list is configured.
var DefaultPaymentMethodTypes = []string{"card"}

// InitiatorConfig holds the settings that shape every session.
type InitiatorConfig struct {
	// FrontendURL is the public origin of the client app. Redirect targets
	// are built from it; a trailing slash is ignored.
	FrontendURL        string
	PaymentMethodTypes []string
}

// Initiator validates purchase intents and creates checkout sessions.
type Initiator struct {
	creator            SessionCreator
	validator          RequestValidator
	urls               types.RedirectURLs
	paymentMethodTypes []string
	logger             *slog.Logger
	recorder           Recorder
}

// NewInitiator creates an Initiator. recorder may be nil.
func NewInitiator(
	creator SessionCreator,
	validator RequestValidator,
	cfg InitiatorConfig,
	logger *slog.Logger,
	recorder Recorder,
) *Initiator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	pmt := cfg.PaymentMethodTypes
	if len(pmt) == 0 {
		pmt = DefaultPaymentMethodTypes
	}

	return &Initiator{
		creator:            creator,
		validator:          validator,
		urls:               RedirectURLsFor(cfg.FrontendURL),
		paymentMethodTypes: pmt,
		logger:             logger,
		recorder:           recorder,
	}
}

// RedirectURLsFor builds the success and cancel targets for a frontend origin.
func RedirectURLsFor(frontendURL string) types.RedirectURLs {
	base := strings.TrimRight(frontendURL, "/")
	return types.RedirectURLs{
		Success: base + "/?payment=success",
		Cancel:  base + "/?payment=cancel",
	}
}

// Create validates req and asks the processor for a subscription session with
// one line item at quantity 1, tagged with the user ID.
//
// Invalid input returns a validation AppError without contacting Stripe. Any
// processor failure returns an upstream AppError with a fixed message; the
// processor's own error text is logged and never returned.
func (i *Initiator) Create(ctx context.Context, req types.CheckoutRequest) (*types.CheckoutSession, error) {
	if err := i.validate(req); err != nil {
		return nil, err
	}

	session, err := i.creator.CreateCheckoutSession(ctx, types.CheckoutSessionInput{
		PriceID:            req.PriceID,
		Quantity:           1,
		UserID:             req.UserID,
		PaymentMethodTypes: i.paymentMethodTypes,
		URLs:               i.urls,
	})
	if err != nil {
		i.recorder.RecordCheckout(ctx, false)
		i.logger.ErrorContext(ctx, "checkout session creation failed",
			"user_id", req.UserID,
			"price_id", req.PriceID,
			"error", err,
		)
		return nil, upstreamError(err)
	}

	i.recorder.RecordCheckout(ctx, true)
	i.logger.InfoContext(ctx, "checkout session created",
		"user_id", req.UserID,
		"price_id", req.PriceID,
		"session_id", session.ID,
	)
	return session, nil
}

func (i *Initiator) validate(req types.CheckoutRequest) error {
	if i.validator != nil {
		return i.validator.ValidateStruct(req, MsgMissingFields)
	}

	var missing []string
	if strings.TrimSpace(req.PriceID) == "" {
		missing = append(missing, "priceId")
	}
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField, MsgMissingFields, nil,
			map[string]any{"fields": missing})
	}
	return nil
}

// upstreamError keeps the upstream code family when the client already
// classified the failure, and always replaces the message.
func upstreamError(err error) error {
	code := types.ErrCodeUpstreamStripe
	var appErr *types.AppError
	if errors.As(err, &appErr) && strings.HasPrefix(string(appErr.Code), "upstream_") {
		code = appErr.Code
	}
	return types.NewAppError(code, msgSessionFailed, err)
}
