package checkout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// --- Mock implementations ---

type mockSessionCreator struct {
	mock.Mock
}

func (m *mockSessionCreator) CreateCheckoutSession(ctx context.Context, in types.CheckoutSessionInput) (*types.CheckoutSession, error) {
	args := m.Called(ctx, in)
	if s := args.Get(0); s != nil {
		return s.(*types.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

type recordedOutcome struct {
	EventType string
	Outcome   string
}

// fakeRecorder captures Recorder calls.
type fakeRecorder struct {
	mu        sync.Mutex
	checkouts []bool
	outcomes  []recordedOutcome
}

func (f *fakeRecorder) RecordCheckout(_ context.Context, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, success)
}

func (f *fakeRecorder) RecordWebhookOutcome(_ context.Context, eventType string, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, recordedOutcome{EventType: eventType, Outcome: outcome})
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildEvent returns a Stripe event envelope around object.
func buildEvent(t *testing.T, eventType, eventID string, object map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"created":     1735689600,
		"api_version": "2025-06-30.basil",
		"data": map[string]any{
			"object": object,
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}

// checkoutCompletedEvent builds a checkout.session.completed event. An empty
// userID leaves metadata empty.
func checkoutCompletedEvent(t *testing.T, eventID, userID string) []byte {
	t.Helper()
	metadata := map[string]string{}
	if userID != "" {
		metadata["userId"] = userID
	}
	return buildEvent(t, EventTypeCheckoutCompleted, eventID, map[string]any{
		"id":       "cs_test_" + eventID,
		"object":   "checkout.session",
		"mode":     "subscription",
		"metadata": metadata,
	})
}
