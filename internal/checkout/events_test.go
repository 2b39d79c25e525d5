package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	ev, err := ParseEvent(checkoutCompletedEvent(t, "evt_1", "u42"))
	require.NoError(t, err)

	cc, ok := ev.(CheckoutCompleted)
	require.True(t, ok, "expected CheckoutCompleted, got %T", ev)
	assert.Equal(t, "evt_1", cc.ID)
	assert.Equal(t, "cs_test_evt_1", cc.SessionID)
	assert.Equal(t, "u42", cc.UserID)
	assert.Equal(t, "checkout.session.completed", cc.EventType())
}

func TestParseEvent_NeverFallsBackToClientReferenceID(t *testing.T) {
	payload := buildEvent(t, EventTypeCheckoutCompleted, "evt_ref", map[string]any{
		"id":                  "cs_test_ref",
		"object":              "checkout.session",
		"client_reference_id": "u1",
	})

	ev, err := ParseEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "", ev.(CheckoutCompleted).UserID)
}

func TestParseEvent_Unrecognized(t *testing.T) {
	ev, err := ParseEvent(buildEvent(t, "customer.subscription.updated", "evt_sub", map[string]any{
		"id":     "sub_1",
		"object": "subscription",
	}))
	require.NoError(t, err)

	u, ok := ev.(Unrecognized)
	require.True(t, ok)
	assert.Equal(t, "evt_sub", u.EventID())
	assert.Equal(t, "customer.subscription.updated", u.EventType())
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not json`},
		{"truncated", `{"id":"evt_1","type":"checkout.session.completed"`},
		{"no type", `{"id":"evt_1","data":{"object":{}}}`},
		{"checkout without data", `{"id":"evt_1","type":"checkout.session.completed"}`},
		{"session is not an object", `{"id":"evt_1","type":"checkout.session.completed","data":{"object":[1,2]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.payload))
			assert.Nil(t, ev)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeApplyMalformedEvent, appErr.Code)
		})
	}
}
