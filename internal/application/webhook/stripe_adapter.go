package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const stripeSignatureHeader = "Stripe-Signature"

// StripeAdapter verifies and normalizes Stripe webhook deliveries
type StripeAdapter struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeAdapter creates a new StripeAdapter. When webhookSecret is empty,
// verification degrades to requiring the signature header to be present;
// with a secret configured the signature is verified cryptographically.
func NewStripeAdapter(webhookSecret string, logger *zap.Logger) *StripeAdapter {
	return &StripeAdapter{
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// Provider returns the provider this adapter handles
func (a *StripeAdapter) Provider() payment.Provider {
	return payment.ProviderStripe
}

// Verify checks the Stripe-Signature header. A missing header always fails;
// an invalid signature fails only when a webhook secret is configured.
func (a *StripeAdapter) Verify(ctx context.Context, headers http.Header, body []byte) error {
	signature := headers.Get(stripeSignatureHeader)
	if signature == "" {
		return payment.ErrMissingSignature
	}

	if a.webhookSecret == "" {
		a.logger.Warn("Stripe webhook secret not configured, accepting signature on presence only")
		return nil
	}

	_, err := webhook.ConstructEventWithOptions(body, signature, a.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		a.logger.Warn("Stripe signature verification failed", zap.Error(err))
		return payment.ErrInvalidSignature
	}
	return nil
}

// stripeEnvelope is the subset of a Stripe event we normalize from
type stripeEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string            `json:"id"`
			AmountReceived *int64            `json:"amount_received"`
			Amount         *int64            `json:"amount"`
			Currency       string            `json:"currency"`
			Status         string            `json:"status"`
			Metadata       map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Normalize maps a Stripe event into the canonical payment record.
// The nested payment object's ID is preferred as the transaction ID,
// falling back to the event's own ID.
func (a *StripeAdapter) Normalize(ctx context.Context, body []byte) (*payment.Notification, error) {
	var envelope stripeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, payment.ErrInvalidPayload
	}

	object := envelope.Data.Object

	transactionID := object.ID
	if transactionID == "" {
		transactionID = envelope.ID
	}

	var amount int64
	switch {
	case object.AmountReceived != nil:
		amount = *object.AmountReceived
	case object.Amount != nil:
		amount = *object.Amount
	}

	currency := object.Currency
	if currency == "" {
		currency = "USD"
	}
	currency = strings.ToUpper(currency)

	status := payment.StatusPending
	if object.Status == "succeeded" {
		status = payment.StatusSucceeded
	}

	var userID *string
	if id, ok := object.Metadata["user_id"]; ok && id != "" {
		userID = &id
	}

	return &payment.Notification{
		EventType: envelope.Type,
		Event: &payment.Event{
			Provider:              payment.ProviderStripe,
			ProviderTransactionID: transactionID,
			UserID:                userID,
			AmountMinorUnits:      amount,
			Currency:              currency,
			Status:                status,
			TraceID:               payment.TraceIDFor(payment.ProviderStripe, transactionID),
			RawPayload:            json.RawMessage(body),
			ReceivedAt:            time.Now().UTC(),
		},
	}, nil
}
