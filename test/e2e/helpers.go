//go:build e2e

// Package e2e provides helpers for end-to-end tests of the checkout relay
// running on the local stack.
//
// The flow under test is:
//
//	Relay (HTTP) -> Stripe (stripe-mock) and Relay (webhook) -> Firestore (emulator)
//
// Prerequisites:
//   - Relay running with APP_ENV=local, STRIPE_API_BASE pointing at stripe-mock
//     and FIRESTORE_EMULATOR_HOST set
//   - The relay's STRIPE_WEBHOOK_SECRET exported as E2E_WEBHOOK_SECRET
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// TestConfig holds addresses and credentials for the E2E environment.
type TestConfig struct {
	// RelayURL is the base URL of the running relay.
	RelayURL string

	// WebhookSecret must match the relay's STRIPE_WEBHOOK_SECRET.
	WebhookSecret string

	// ProjectID is the Firestore project used by the emulator.
	ProjectID string

	// UsersCollection must match the relay's FIRESTORE_USERS_COLLECTION.
	UsersCollection string

	// PriceID is sent to stripe-mock, which accepts any well-formed id.
	PriceID string
}

// DefaultTestConfig returns a TestConfig populated from environment variables
// with defaults for the local stack.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		RelayURL:        envOrDefault("E2E_RELAY_URL", "http://localhost:4242"),
		WebhookSecret:   envOrDefault("E2E_WEBHOOK_SECRET", "whsec_local"),
		ProjectID:       envOrDefault("FIREBASE_PROJECT_ID", "synkcamp-local"),
		UsersCollection: envOrDefault("FIRESTORE_USERS_COLLECTION", "users"),
		PriceID:         envOrDefault("E2E_PRICE_ID", "price_1234"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Test Environment
// ---------------------------------------------------------------------------

// TestEnv holds the shared HTTP and Firestore clients.
type TestEnv struct {
	Config    TestConfig
	Client    *http.Client
	Firestore *firestore.Client
}

// NewTestEnv connects to the emulator and verifies the relay is healthy.
func NewTestEnv(cfg TestConfig) (*TestEnv, error) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		return nil, fmt.Errorf("FIRESTORE_EMULATOR_HOST is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fs, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Get(cfg.RelayURL + "/health")
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("relay not reachable at %s: %w", cfg.RelayURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fs.Close()
		return nil, fmt.Errorf("relay health check returned %d", resp.StatusCode)
	}

	return &TestEnv{Config: cfg, Client: httpClient, Firestore: fs}, nil
}

// Close releases the Firestore client.
func (e *TestEnv) Close() {
	if e.Firestore != nil {
		e.Firestore.Close()
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// SeedUser creates a user document with no subscription and deletes it when
// the test ends.
func SeedUser(t *testing.T, env *TestEnv) string {
	t.Helper()
	userID := "e2e_" + uuid.NewString()
	doc := env.Firestore.Collection(env.Config.UsersCollection).Doc(userID)

	ctx := context.Background()
	if _, err := doc.Set(ctx, map[string]any{"email": userID + "@example.com"}); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = doc.Delete(context.Background())
	})
	return userID
}

// SubscriptionStatus reads the user's subscriptionStatus field, or "" when
// the field is absent.
func SubscriptionStatus(t *testing.T, env *TestEnv, userID string) string {
	t.Helper()
	snap, err := env.Firestore.Collection(env.Config.UsersCollection).Doc(userID).Get(context.Background())
	if err != nil {
		t.Fatalf("reading user %s: %v", userID, err)
	}
	v, err := snap.DataAt("subscriptionStatus")
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ---------------------------------------------------------------------------
// Relay calls
// ---------------------------------------------------------------------------

// PostJSON sends body as JSON to the relay.
func PostJSON(t *testing.T, env *TestEnv, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := env.Client.Post(env.Config.RelayURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// PostSignedWebhook signs payload with the shared secret and delivers it.
// An empty secret sends the payload unsigned.
func PostSignedWebhook(t *testing.T, env *TestEnv, payload []byte, secret string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.Config.RelayURL+"/webhook", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("building webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: payload,
			Secret:  secret,
		})
		req.Header.Set("Stripe-Signature", signed.Header)
	}

	resp, err := env.Client.Do(req)
	if err != nil {
		t.Fatalf("POST /webhook: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// CheckoutCompletedEvent builds a checkout.session.completed payload carrying
// userID in the session metadata.
func CheckoutCompletedEvent(t *testing.T, userID string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":     "evt_e2e_" + uuid.NewString(),
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_e2e_" + uuid.NewString(),
				"object":   "checkout.session",
				"metadata": map[string]string{"userId": userID},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}
