package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const paypalCaptureEventPrefix = "PAYMENT.CAPTURE."

// zeroDecimalCurrencies are the currencies PayPal reports in whole units
// (ISO 4217 exponent 0). Everything else PayPal supports uses exponent 2.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"HUF": {},
	"TWD": {},
}

// currencyExponent returns the ISO 4217 minor-unit exponent for a currency
func currencyExponent(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	return 2
}

// PayPalAdapter normalizes PayPal webhook deliveries.
// PayPal authenticity is checked out-of-band via webhook ID verification in
// the provider dashboard, so Verify accepts every delivery.
type PayPalAdapter struct {
	logger *zap.Logger
}

// NewPayPalAdapter creates a new PayPalAdapter
func NewPayPalAdapter(logger *zap.Logger) *PayPalAdapter {
	return &PayPalAdapter{logger: logger}
}

// Provider returns the provider this adapter handles
func (a *PayPalAdapter) Provider() payment.Provider {
	return payment.ProviderPayPal
}

// Verify accepts every delivery
func (a *PayPalAdapter) Verify(ctx context.Context, headers http.Header, body []byte) error {
	return nil
}

// paypalEnvelope is the subset of a PayPal webhook event we normalize from
type paypalEnvelope struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
		CustomID string `json:"custom_id"`
	} `json:"resource"`
}

// Normalize maps a PayPal event into the canonical payment record.
// Only capture events carry a payment; every other event type is
// acknowledged without a persistence write.
func (a *PayPalAdapter) Normalize(ctx context.Context, body []byte) (*payment.Notification, error) {
	var envelope paypalEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, payment.ErrInvalidPayload
	}

	notification := &payment.Notification{EventType: envelope.EventType}

	if !strings.HasPrefix(envelope.EventType, paypalCaptureEventPrefix) {
		return notification, nil
	}

	resource := envelope.Resource

	transactionID := resource.ID
	if transactionID == "" {
		transactionID = envelope.ID
	}

	currency := resource.Amount.CurrencyCode
	if currency == "" {
		currency = "USD"
	}
	currency = strings.ToUpper(currency)

	// PayPal amounts are decimal strings in major units ("19.99", or "1000"
	// for zero-decimal currencies). The shift to minor units must match the
	// currency's ISO 4217 exponent, and a value carrying more decimal places
	// than the exponent allows cannot be represented as minor units.
	var amount int64
	if resource.Amount.Value != "" {
		value, err := decimal.NewFromString(resource.Amount.Value)
		if err != nil {
			a.logger.Warn("Unparseable PayPal amount",
				zap.String("value", resource.Amount.Value))
			return nil, payment.ErrInvalidPayload
		}
		shifted := value.Shift(currencyExponent(currency))
		if !shifted.IsInteger() {
			a.logger.Warn("PayPal amount has more decimal places than the currency allows",
				zap.String("value", resource.Amount.Value),
				zap.String("currency", currency))
			return nil, payment.ErrInvalidPayload
		}
		amount = shifted.IntPart()
	}

	status := payment.StatusPending
	if resource.Status == "COMPLETED" {
		status = payment.StatusSucceeded
	}

	var userID *string
	if resource.CustomID != "" {
		userID = &resource.CustomID
	}

	notification.Event = &payment.Event{
		Provider:              payment.ProviderPayPal,
		ProviderTransactionID: transactionID,
		UserID:                userID,
		AmountMinorUnits:      amount,
		Currency:              currency,
		Status:                status,
		TraceID:               payment.TraceIDFor(payment.ProviderPayPal, transactionID),
		RawPayload:            json.RawMessage(body),
		ReceivedAt:            time.Now().UTC(),
	}
	return notification, nil
}
