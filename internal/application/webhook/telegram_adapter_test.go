package webhook

import (
	"context"
	"net/http"
	"testing"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTelegramAdapterVerify(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"update_id":1}`)

	t.Run("no configured token accepts anything", func(t *testing.T) {
		adapter := NewTelegramAdapter("", zap.NewNop())
		assert.NoError(t, adapter.Verify(ctx, http.Header{}, body))
	})

	t.Run("matching token passes", func(t *testing.T) {
		adapter := NewTelegramAdapter("s3cret", zap.NewNop())
		headers := http.Header{}
		headers.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
		assert.NoError(t, adapter.Verify(ctx, headers, body))
	})

	t.Run("missing token fails", func(t *testing.T) {
		adapter := NewTelegramAdapter("s3cret", zap.NewNop())
		err := adapter.Verify(ctx, http.Header{}, body)
		assert.ErrorIs(t, err, payment.ErrMissingSignature)
	})

	t.Run("wrong token fails", func(t *testing.T) {
		adapter := NewTelegramAdapter("s3cret", zap.NewNop())
		headers := http.Header{}
		headers.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
		err := adapter.Verify(ctx, headers, body)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})
}

func TestTelegramAdapterNormalize(t *testing.T) {
	ctx := context.Background()
	adapter := NewTelegramAdapter("", zap.NewNop())

	t.Run("plain update acknowledged without payment", func(t *testing.T) {
		body := []byte(`{"update_id": 12345, "message": {"text": "hi"}}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)

		assert.Equal(t, UpdateTypeTelegramUpdate, n.EventType)
		assert.Nil(t, n.Event)
	})

	t.Run("payload without update_id is a stars payment notification", func(t *testing.T) {
		body := []byte(`{"some_field": true}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)

		assert.Equal(t, UpdateTypeStarsPayment, n.EventType)
		assert.Nil(t, n.Event)
	})

	t.Run("successful payment produces a payment event", func(t *testing.T) {
		body := []byte(`{
			"update_id": 99,
			"message": {
				"from": {"id": 123456789},
				"successful_payment": {
					"currency": "XTR",
					"total_amount": 250,
					"telegram_payment_charge_id": "tg_charge_1"
				}
			}
		}`)

		n, err := adapter.Normalize(ctx, body)
		require.NoError(t, err)
		require.NotNil(t, n.Event)

		assert.Equal(t, UpdateTypeTelegramUpdate, n.EventType)
		assert.Equal(t, payment.ProviderTelegram, n.Event.Provider)
		assert.Equal(t, "tg_charge_1", n.Event.ProviderTransactionID)
		assert.Equal(t, int64(250), n.Event.AmountMinorUnits)
		assert.Equal(t, "XTR", n.Event.Currency)
		assert.Equal(t, payment.StatusSucceeded, n.Event.Status)
		require.NotNil(t, n.Event.UserID)
		assert.Equal(t, "123456789", *n.Event.UserID)
	})

	t.Run("malformed JSON rejected", func(t *testing.T) {
		_, err := adapter.Normalize(ctx, []byte(`{`))
		assert.ErrorIs(t, err, payment.ErrInvalidPayload)
	})
}
