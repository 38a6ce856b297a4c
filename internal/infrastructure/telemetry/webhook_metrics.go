package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// WebhookMetrics bundles the instruments recorded along the webhook ingestion path.
type WebhookMetrics struct {
	received  *Counter
	duplicate *Counter
	persisted *Counter
	failed    *Counter
	duration  *Histogram
	enabled   bool
}

// NewWebhookMetrics creates webhook ingestion instruments on the given meter.
func NewWebhookMetrics(meter metric.Meter) (*WebhookMetrics, error) {
	received, err := NewCounter(meter,
		"webhook_events_received_total",
		"Total webhook events received, by provider",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	duplicate, err := NewCounter(meter,
		"webhook_events_duplicate_total",
		"Webhook events discarded as duplicates, by provider and dedup source",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	persisted, err := NewCounter(meter,
		"webhook_payments_persisted_total",
		"Payment events successfully written to storage, by provider and status",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	failed, err := NewCounter(meter,
		"webhook_events_failed_total",
		"Webhook events that failed processing, by provider",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "webhook_processing_duration_seconds",
		Description: "End-to-end webhook processing duration, by provider",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &WebhookMetrics{
		received:  received,
		duplicate: duplicate,
		persisted: persisted,
		failed:    failed,
		duration:  duration,
		enabled:   true,
	}, nil
}

// NoopWebhookMetrics returns a WebhookMetrics whose recorders do nothing.
// Used when telemetry is disabled so callers never need nil checks.
func NoopWebhookMetrics() *WebhookMetrics {
	return &WebhookMetrics{}
}

// RecordReceived counts a received webhook event.
func (m *WebhookMetrics) RecordReceived(ctx context.Context, provider string) {
	if !m.enabled {
		return
	}
	m.received.Inc(ctx, AttrProvider.String(provider))
}

// RecordDuplicate counts a deduplicated event. Source is "cache" or "storage".
func (m *WebhookMetrics) RecordDuplicate(ctx context.Context, provider, source string) {
	if !m.enabled {
		return
	}
	m.duplicate.Inc(ctx, AttrProvider.String(provider), AttrDedupSource.String(source))
}

// RecordPersisted counts a payment event written to storage.
func (m *WebhookMetrics) RecordPersisted(ctx context.Context, provider, status string) {
	if !m.enabled {
		return
	}
	m.persisted.Inc(ctx, AttrProvider.String(provider), AttrPaymentStatus.String(status))
}

// RecordFailed counts a processing failure.
func (m *WebhookMetrics) RecordFailed(ctx context.Context, provider string) {
	if !m.enabled {
		return
	}
	m.failed.Inc(ctx, AttrProvider.String(provider))
}

// RecordDuration records the processing latency of one event.
func (m *WebhookMetrics) RecordDuration(ctx context.Context, provider string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.duration.RecordDuration(ctx, d, AttrProvider.String(provider))
}
