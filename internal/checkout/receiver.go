package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// Outcome is the terminal state of one webhook delivery.
//
//	received -> recognized -> applied | failed
//	received -> ignored
//	received -> failed (unparseable payload)
type Outcome string

const (
	OutcomeReceived   Outcome = "received"
	OutcomeRecognized Outcome = "recognized"
	OutcomeApplied    Outcome = "applied"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeFailed     Outcome = "failed"
)

const defaultStoreTimeout = 10 * time.Second

// Result describes what happened to a verified event.
type Result struct {
	EventID   string
	EventType string
	Outcome   Outcome
	// Err is set when Outcome is OutcomeFailed. It is logged, not returned
	// to the processor.
	Err error
	// Retry asks the transport to answer with a server error so the
	// processor redelivers. Only set for store-write failures when
	// ReceiverConfig.RetryOnApplyError is on.
	Retry bool
}

// ReceiverConfig holds the Receiver settings.
type ReceiverConfig struct {
	WebhookSecret     types.SecretString
	StoreTimeout      time.Duration
	RetryOnApplyError bool
}

// Receiver verifies webhook deliveries and applies checkout completions.
type Receiver struct {
	verifier     EventVerifier
	store        UserStore
	secret       types.SecretString
	storeTimeout time.Duration
	retryOnApply bool
	logger       *slog.Logger
	recorder     Recorder
}

// NewReceiver creates a Receiver. store may be nil when no document store is
// configured; completed checkouts are then verified, logged and reported as
// failed. recorder may be nil.
func NewReceiver(
	verifier EventVerifier,
	store UserStore,
	cfg ReceiverConfig,
	logger *slog.Logger,
	recorder Recorder,
) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}

	return &Receiver{
		verifier:     verifier,
		store:        store,
		secret:       cfg.WebhookSecret,
		storeTimeout: timeout,
		retryOnApply: cfg.RetryOnApplyError,
		logger:       logger,
		recorder:     recorder,
	}
}

// Receive authenticates payload with the signature header and, only if that
// succeeds, parses and dispatches it.
//
// A non-nil error means authentication failed: nothing was parsed and the
// store was not touched. Every other path returns a nil error and a Result;
// the delivery should then be acknowledged unless Result.Retry is set.
func (r *Receiver) Receive(ctx context.Context, payload []byte, signature string) (Result, error) {
	if err := r.verify(payload, signature); err != nil {
		r.logger.WarnContext(ctx, "webhook rejected", "error", err)
		return Result{}, err
	}

	res := Result{Outcome: OutcomeReceived}
	event, err := ParseEvent(payload)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		r.finish(ctx, res)
		return res, nil
	}
	res.EventID = event.EventID()
	res.EventType = event.EventType()

	switch e := event.(type) {
	case CheckoutCompleted:
		res.Outcome = OutcomeRecognized
		r.applyCheckoutCompleted(ctx, e, &res)
	case Unrecognized:
		res.Outcome = OutcomeIgnored
	default:
		res.Outcome = OutcomeIgnored
	}

	r.finish(ctx, res)
	return res, nil
}

func (r *Receiver) verify(payload []byte, signature string) error {
	if signature == "" {
		return types.NewAppError(types.ErrCodeAuthSignatureMissing, "missing Stripe-Signature header", nil)
	}
	err := r.verifier.Verify(payload, signature, r.secret.Unmask())
	if err == nil {
		return nil
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(types.ErrCodeAuthSignatureInvalid, "webhook signature verification failed", err)
}

func (r *Receiver) applyCheckoutCompleted(ctx context.Context, e CheckoutCompleted, res *Result) {
	if e.UserID == "" {
		res.Outcome = OutcomeFailed
		res.Err = types.NewAppError(types.ErrCodeApplyMissingUserID, "checkout session has no userId metadata", nil)
		return
	}
	if r.store == nil {
		res.Outcome = OutcomeFailed
		res.Err = types.NewAppError(types.ErrCodeApplyStoreUnavailable, "document store is not configured", nil)
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	if err := r.store.SetSubscriptionStatus(storeCtx, e.UserID, types.SubStatusPremium); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = types.NewAppError(types.ErrCodeApplyStoreWrite, "failed to update subscription status", err)
		res.Retry = r.retryOnApply
		return
	}

	res.Outcome = OutcomeApplied
	r.logger.InfoContext(ctx, "subscription upgraded",
		"event_id", e.ID,
		"session_id", e.SessionID,
		"user_id", e.UserID,
		"status", types.SubStatusPremium,
	)
}

func (r *Receiver) finish(ctx context.Context, res Result) {
	eventType := res.EventType
	if eventType == "" {
		eventType = "unknown"
	}
	r.recorder.RecordWebhookOutcome(ctx, eventType, string(res.Outcome))

	switch res.Outcome {
	case OutcomeFailed:
		r.logger.ErrorContext(ctx, "webhook event not applied",
			"event_id", res.EventID,
			"event_type", eventType,
			"retry", res.Retry,
			"error", res.Err,
		)
	case OutcomeIgnored:
		r.logger.InfoContext(ctx, "ignoring unhandled webhook event type",
			"event_id", res.EventID,
			"event_type", eventType,
		)
	}
}
