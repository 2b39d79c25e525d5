package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/form"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

const stripeAPIBase = "https://api.stripe.com"

// stripeFailureMessage is the only text a caller ever sees for a failed
// Stripe call. Stripe's own message is kept in AppError.Err for the logs.
const stripeFailureMessage = "payment provider request failed"

// StripeClientConfig holds the settings for NewStripeClient.
type StripeClientConfig struct {
	SecretKey types.SecretString
	BaseURL   string // defaults to https://api.stripe.com
	Logger    *slog.Logger
}

// StripeClient calls the Stripe REST API directly through BaseClient, so every
// request gets the breaker, retries and error mapping, and tests can point it
// at an httptest server.
type StripeClient struct {
	base       *BaseClient
	secretKey  types.SecretString
	baseURL    string
	logger     *slog.Logger
	newIdemKey func() string
}

// NewStripeClient creates a StripeClient. httpClient should carry the Stripe
// timeout (STRIPE_TIMEOUT).
func NewStripeClient(httpClient *http.Client, cfg StripeClientConfig) *StripeClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	base := NewBaseClient(httpClient, "stripe", DefaultRetryPolicy(), "SynkCamp/1.0", WithBreaker(breaker))
	return NewStripeClientWithBase(base, cfg)
}

// NewStripeClientWithBase creates a StripeClient around a caller-built
// BaseClient.
func NewStripeClientWithBase(base *BaseClient, cfg StripeClientConfig) *StripeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &StripeClient{
		base:       base,
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
		newIdemKey: uuid.NewString,
	}
}

// CreateCheckoutSession creates a subscription-mode Checkout Session with one
// line item and the user ID in metadata. One Idempotency-Key is used for all
// retries of the call so Stripe never creates two sessions for one request.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, in types.CheckoutSessionInput) (*types.CheckoutSession, error) {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(in.URLs.Success),
		CancelURL:  stripe.String(in.URLs.Cancel),
	}
	if len(in.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(in.PaymentMethodTypes)
	}
	params.AddMetadata(types.MetadataKeyUserID, in.UserID)

	values := &form.Values{}
	form.AppendTo(values, params)

	resp, err := s.doPost(ctx, "/v1/checkout/sessions", values.Encode(), s.newIdemKey())
	if err != nil {
		return nil, s.wrapStripeError("CreateCheckoutSession", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.handleErrorResponse(resp, "CreateCheckoutSession")
	}

	var session stripe.CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage,
			fmt.Errorf("CreateCheckoutSession: decoding response: %w", err))
	}
	if session.ID == "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage,
			errors.New("CreateCheckoutSession: response has no session id"))
	}

	s.logger.DebugContext(ctx, "stripe checkout session created", "session_id", session.ID)
	return &types.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// Name implements core.HealthProbe.
func (s *StripeClient) Name() string {
	return "stripe"
}

// Check implements core.HealthProbe. It fails while the breaker is open and
// makes no network call.
func (s *StripeClient) Check(_ context.Context) error {
	if state := s.base.BreakerState(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state.String())
	}
	return nil
}

func (s *StripeClient) doPost(ctx context.Context, path, body, idempotencyKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.secretKey.Unmask())
	req.Header.Set("Stripe-Version", stripe.APIVersion)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	return s.base.Do(req)
}

type stripeErrorResponse struct {
	Error stripeErrorBody `json:"error"`
}

type stripeErrorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

// handleErrorResponse reads a non-200 Stripe response into an AppError.
func (s *StripeClient) handleErrorResponse(resp *http.Response, operation string) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if readErr != nil {
		return types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage,
			fmt.Errorf("%s: status %d, unreadable body: %w", operation, resp.StatusCode, readErr))
	}

	var stripeErr stripeErrorResponse
	if jsonErr := json.Unmarshal(body, &stripeErr); jsonErr != nil {
		return types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage,
			fmt.Errorf("%s: status %d, non-JSON body: %w", operation, resp.StatusCode, jsonErr))
	}
	return mapStripeError(operation, resp.StatusCode, &stripeErr.Error)
}

// mapStripeError keeps Stripe's detail in the cause only.
func mapStripeError(operation string, statusCode int, e *stripeErrorBody) error {
	cause := fmt.Errorf("%s: stripe %s (status %d, code %q, param %q): %s",
		operation, e.Type, statusCode, e.Code, e.Param, e.Message)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, stripeFailureMessage, cause)
	case statusCode >= 500:
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, stripeFailureMessage, cause)
	case statusCode >= 400:
		return types.NewAppError(types.ErrCodeUpstreamRejected, stripeFailureMessage, cause)
	default:
		return types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage, cause)
	}
}

// wrapStripeError leaves BaseClient AppErrors untouched and wraps anything
// else (request construction failures).
func (s *StripeClient) wrapStripeError(operation string, err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(types.ErrCodeUpstreamStripe, stripeFailureMessage,
		fmt.Errorf("%s: %w", operation, err))
}
