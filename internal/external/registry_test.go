package external

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lucascsr96/SynkCamp/internal/config"
)

func TestNewClientRegistry(t *testing.T) {
	cfg := &config.Config{
		Environment: "local",
		Stripe: config.StripeConfig{
			SecretKey: "sk_test_123",
			APIBase:   "http://localhost:12111",
			Timeout:   3 * time.Second,
		},
	}

	reg, err := NewClientRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Billing == nil || reg.StripeVerifier == nil {
		t.Fatal("expected billing client and verifier")
	}
	if reg.Billing.baseURL != "http://localhost:12111" {
		t.Errorf("expected configured base URL, got %q", reg.Billing.baseURL)
	}
	if reg.Billing.base.client.Timeout != 3*time.Second {
		t.Errorf("expected configured timeout, got %v", reg.Billing.base.client.Timeout)
	}
}

func TestNewClientRegistry_Errors(t *testing.T) {
	if _, err := NewClientRegistry(nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewClientRegistry(&config.Config{}, nil); err == nil {
		t.Error("expected error for missing secret key")
	}
}
