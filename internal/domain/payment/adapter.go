package payment

import (
	"context"
	"net/http"
)

// Adapter normalizes a provider-specific webhook payload into the canonical
// payment record and verifies provider-specific authenticity where applicable
type Adapter interface {
	// Provider returns the provider this adapter handles
	Provider() Provider

	// Verify checks the authenticity of an inbound delivery.
	// Adapters without an authenticity mechanism return nil.
	Verify(ctx context.Context, headers http.Header, payload []byte) error

	// Normalize parses the payload into a Notification. The returned
	// Notification's Event is nil when the payload carries no payment.
	Normalize(ctx context.Context, payload []byte) (*Notification, error)
}

// StoredEvent is a durably recorded payment event with its storage ID
type StoredEvent struct {
	ID    int64 `json:"id"`
	Event Event `json:"event"`
}

// Store durably records canonical payment events.
// Insert returns ErrDuplicateTransaction when the storage-level uniqueness
// constraint on (provider, provider_transaction_id) rejects the write.
type Store interface {
	Insert(ctx context.Context, event *Event) (*StoredEvent, error)
}
