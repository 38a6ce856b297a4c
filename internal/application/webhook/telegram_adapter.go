package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
	"go.uber.org/zap"
)

const telegramSecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Telegram update discriminators. A payload carrying an update_id is a
// regular bot update; anything else on this endpoint is a Stars payment
// notification delivered directly.
const (
	UpdateTypeTelegramUpdate = "telegram_update"
	UpdateTypeStarsPayment   = "stars_payment"
)

// TelegramAdapter verifies and normalizes Telegram bot webhook deliveries
type TelegramAdapter struct {
	secretToken string
	logger      *zap.Logger
}

// NewTelegramAdapter creates a new TelegramAdapter. When secretToken is
// empty, deliveries are accepted without a header check.
func NewTelegramAdapter(secretToken string, logger *zap.Logger) *TelegramAdapter {
	return &TelegramAdapter{
		secretToken: secretToken,
		logger:      logger,
	}
}

// Provider returns the provider this adapter handles
func (a *TelegramAdapter) Provider() payment.Provider {
	return payment.ProviderTelegram
}

// Verify checks the secret token Telegram echoes back on every delivery
// when one was registered with setWebhook.
func (a *TelegramAdapter) Verify(ctx context.Context, headers http.Header, body []byte) error {
	if a.secretToken == "" {
		return nil
	}

	token := headers.Get(telegramSecretTokenHeader)
	if token == "" {
		return payment.ErrMissingSignature
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.secretToken)) != 1 {
		return payment.ErrInvalidSignature
	}
	return nil
}

// telegramUpdate is the subset of a Telegram update we normalize from
type telegramUpdate struct {
	UpdateID *int64 `json:"update_id"`
	Message  *struct {
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
		SuccessfulPayment *telegramSuccessfulPayment `json:"successful_payment"`
	} `json:"message"`
}

type telegramSuccessfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int64  `json:"total_amount"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
}

// Normalize maps a Telegram update into the canonical payment record.
// Updates without a successful_payment are acknowledged without a write.
func (a *TelegramAdapter) Normalize(ctx context.Context, body []byte) (*payment.Notification, error) {
	var update telegramUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, payment.ErrInvalidPayload
	}

	updateType := UpdateTypeStarsPayment
	if update.UpdateID != nil {
		updateType = UpdateTypeTelegramUpdate
	}

	notification := &payment.Notification{EventType: updateType}

	if update.Message == nil || update.Message.SuccessfulPayment == nil {
		return notification, nil
	}

	paid := update.Message.SuccessfulPayment

	// Telegram reports total_amount in the currency's smallest unit already
	// (XTR stars are whole units with no subdivision).
	currency := paid.Currency
	if currency == "" {
		currency = "XTR"
	}
	currency = strings.ToUpper(currency)

	var userID *string
	if update.Message.From != nil {
		id := strconv.FormatInt(update.Message.From.ID, 10)
		userID = &id
	}

	notification.Event = &payment.Event{
		Provider:              payment.ProviderTelegram,
		ProviderTransactionID: paid.TelegramPaymentChargeID,
		UserID:                userID,
		AmountMinorUnits:      paid.TotalAmount,
		Currency:              currency,
		Status:                payment.StatusSucceeded,
		TraceID:               payment.TraceIDFor(payment.ProviderTelegram, paid.TelegramPaymentChargeID),
		RawPayload:            json.RawMessage(body),
		ReceivedAt:            time.Now().UTC(),
	}
	return notification, nil
}
