package webhook

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedStripeHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now()
	signature := stripewebhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(signature))
}

func TestStripeAdapterVerify(t *testing.T) {
	ctx := context.Background()
	secret := "whsec_test_secret"
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	t.Run("missing signature header fails", func(t *testing.T) {
		adapter := NewStripeAdapter(secret, zap.NewNop())
		err := adapter.Verify(ctx, http.Header{}, payload)
		assert.ErrorIs(t, err, payment.ErrMissingSignature)
	})

	t.Run("valid signature passes", func(t *testing.T) {
		adapter := NewStripeAdapter(secret, zap.NewNop())
		headers := http.Header{}
		headers.Set("Stripe-Signature", signedStripeHeader(t, payload, secret))

		err := adapter.Verify(ctx, headers, payload)
		assert.NoError(t, err)
	})

	t.Run("signature for different payload fails", func(t *testing.T) {
		adapter := NewStripeAdapter(secret, zap.NewNop())
		headers := http.Header{}
		headers.Set("Stripe-Signature", signedStripeHeader(t, []byte(`{"id":"evt_other"}`), secret))

		err := adapter.Verify(ctx, headers, payload)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("garbage signature fails", func(t *testing.T) {
		adapter := NewStripeAdapter(secret, zap.NewNop())
		headers := http.Header{}
		headers.Set("Stripe-Signature", "t=1,v1=deadbeef")

		err := adapter.Verify(ctx, headers, payload)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("presence suffices without configured secret", func(t *testing.T) {
		adapter := NewStripeAdapter("", zap.NewNop())
		headers := http.Header{}
		headers.Set("Stripe-Signature", "anything")

		err := adapter.Verify(ctx, headers, payload)
		assert.NoError(t, err)
	})

	t.Run("missing header still fails without configured secret", func(t *testing.T) {
		adapter := NewStripeAdapter("", zap.NewNop())
		err := adapter.Verify(ctx, http.Header{}, payload)
		assert.ErrorIs(t, err, payment.ErrMissingSignature)
	})
}

func TestStripeAdapterNormalize(t *testing.T) {
	ctx := context.Background()
	adapter := NewStripeAdapter("", zap.NewNop())

	t.Run("full payment intent", func(t *testing.T) {
		body := []byte(`{
			"id": "evt_1",
			"type": "payment_intent.succeeded",
			"data": {"object": {
				"id": "pi_123",
				"amount_received": 1999,
				"currency": "uzs",
				"status": "succeeded",
				"metadata": {"user_id": "user-42"}
			}}
		}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		require.NotNil(t, n.Event)

		assert.Equal(t, "payment_intent.succeeded", n.EventType)
		assert.Equal(t, payment.ProviderStripe, n.Event.Provider)
		assert.Equal(t, "pi_123", n.Event.ProviderTransactionID)
		assert.Equal(t, int64(1999), n.Event.AmountMinorUnits)
		assert.Equal(t, "UZS", n.Event.Currency)
		assert.Equal(t, payment.StatusSucceeded, n.Event.Status)
		require.NotNil(t, n.Event.UserID)
		assert.Equal(t, "user-42", *n.Event.UserID)
	})

	t.Run("amount falls back to generic field", func(t *testing.T) {
		body := []byte(`{"id":"evt_2","type":"charge.pending","data":{"object":{"id":"ch_1","amount":500,"currency":"eur","status":"processing"}}}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		require.NotNil(t, n.Event)

		assert.Equal(t, int64(500), n.Event.AmountMinorUnits)
		assert.Equal(t, "EUR", n.Event.Currency)
		assert.Equal(t, payment.StatusPending, n.Event.Status)
	})

	t.Run("missing amount and currency get defaults", func(t *testing.T) {
		body := []byte(`{"id":"evt_3","type":"charge.pending","data":{"object":{"id":"ch_2"}}}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		require.NotNil(t, n.Event)

		assert.Equal(t, int64(0), n.Event.AmountMinorUnits)
		assert.Equal(t, "USD", n.Event.Currency)
		assert.Nil(t, n.Event.UserID)
	})

	t.Run("transaction ID falls back to event ID", func(t *testing.T) {
		body := []byte(`{"id":"evt_4","type":"charge.pending","data":{"object":{"amount":100}}}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		require.NotNil(t, n.Event)
		assert.Equal(t, "evt_4", n.Event.ProviderTransactionID)
	})

	t.Run("trace ID is stable across redeliveries", func(t *testing.T) {
		body := []byte(`{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{"id":"pi_same","amount_received":100}}}`)

		first, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		second, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)

		assert.Equal(t, first.Event.TraceID, second.Event.TraceID)
	})

	t.Run("malformed JSON rejected", func(t *testing.T) {
		_, err := adapter.Normalize(ctx, []byte(`{not-json`))
		assert.ErrorIs(t, err, payment.ErrInvalidPayload)
	})
}
