package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTraceIDFor(t *testing.T) {
	t.Run("deterministic for same provider and transaction", func(t *testing.T) {
		a := TraceIDFor(ProviderStripe, "pi_123")
		b := TraceIDFor(ProviderStripe, "pi_123")
		assert.Equal(t, a, b, "retries of the same event must share a trace ID")
	})

	t.Run("differs across providers", func(t *testing.T) {
		a := TraceIDFor(ProviderStripe, "tx_1")
		b := TraceIDFor(ProviderPayPal, "tx_1")
		assert.NotEqual(t, a, b)
	})

	t.Run("differs across transactions", func(t *testing.T) {
		a := TraceIDFor(ProviderStripe, "tx_1")
		b := TraceIDFor(ProviderStripe, "tx_2")
		assert.NotEqual(t, a, b)
	})

	t.Run("random when transaction ID is missing", func(t *testing.T) {
		a := TraceIDFor(ProviderTelegram, "")
		b := TraceIDFor(ProviderTelegram, "")
		assert.NotEqual(t, uuid.Nil, a)
		assert.NotEqual(t, a, b)
	})
}
