// Package dto defines the JSON envelopes of the webhook HTTP surface.
package dto

import "time"

// WebhookResponse is the success envelope for an accepted webhook delivery
type WebhookResponse struct {
	OK         bool      `json:"ok"`
	Provider   string    `json:"provider"`
	EventType  string    `json:"event_type,omitempty"`
	UpdateType string    `json:"update_type,omitempty"`
	PaymentID  int64     `json:"payment_id,omitempty"`
	Duplicate  bool      `json:"duplicate,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// DuplicateResponse is returned when an idempotency key collapses a retry
// without re-invoking the webhook pipeline
type DuplicateResponse struct {
	OK        bool      `json:"ok"`
	Duplicate bool      `json:"duplicate"`
	CachedAt  time.Time `json:"cached_at"`
}

// ErrorResponse is the uniform error envelope. Message carries the failure
// description when one is safe to surface.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the health check envelope
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Version     string `json:"version"`
	Idempotency string `json:"idempotency"`
}
