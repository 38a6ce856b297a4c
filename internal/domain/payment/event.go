package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external payment provider that delivered a webhook
type Provider string

const (
	ProviderStripe   Provider = "stripe"
	ProviderPayPal   Provider = "paypal"
	ProviderTelegram Provider = "telegram"
)

// Status represents the canonical payment status
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
)

// traceNamespace is the UUIDv5 namespace for deterministic trace IDs.
// Deriving the trace ID from (provider, transaction id) keeps retries of the
// same logical event correlated across systems.
var traceNamespace = uuid.MustParse("8f3c1d6a-2b45-4c18-9e07-5a1f0d9b6c42")

// Event is the canonical, provider-agnostic payment record.
// It is created once per accepted webhook delivery and never mutated.
type Event struct {
	Provider              Provider        `json:"provider" validate:"required,oneof=stripe paypal telegram"`
	ProviderTransactionID string          `json:"provider_transaction_id" validate:"required"`
	UserID                *string         `json:"user_id"`
	AmountMinorUnits      int64           `json:"amount_minor_units" validate:"min=0"`
	Currency              string          `json:"currency" validate:"required,len=3,alpha,uppercase"`
	Status                Status          `json:"status" validate:"required,oneof=pending succeeded"`
	TraceID               uuid.UUID       `json:"trace_id"`
	RawPayload            json.RawMessage `json:"raw_payload"`
	ReceivedAt            time.Time       `json:"received_at"`
}

// TraceIDFor derives a deterministic trace ID from the provider and its
// transaction ID so redeliveries of the same event share a trace ID.
func TraceIDFor(provider Provider, transactionID string) uuid.UUID {
	if transactionID == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(traceNamespace, []byte(string(provider)+":"+transactionID))
}

// Notification is the outcome of normalizing a provider payload.
// Event is nil when the notification carries no payment to persist
// (e.g. a plain Telegram update or a non-capture PayPal event).
type Notification struct {
	EventType string
	Event     *Event
}
