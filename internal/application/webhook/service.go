// Package webhook implements the payment webhook ingestion pipeline:
// provider verification, payload normalization, and durable recording.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/infrastructure/logger"
	"github.com/neuropul/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Result contains the outcome of processing one webhook delivery
type Result struct {
	Provider   payment.Provider `json:"provider"`
	EventType  string           `json:"event_type,omitempty"`
	PaymentID  int64            `json:"payment_id,omitempty"`
	Duplicate  bool             `json:"duplicate,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}

// Service dispatches webhook deliveries to provider adapters and records
// the resulting payment events
type Service struct {
	adapters map[payment.Provider]payment.Adapter
	store    payment.Store
	metrics  *telemetry.WebhookMetrics
	logger   *zap.Logger
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Adapters []payment.Adapter
	Store    payment.Store
	Metrics  *telemetry.WebhookMetrics
	Logger   *zap.Logger
}

// NewService creates a new webhook Service
func NewService(cfg ServiceConfig) *Service {
	adapters := make(map[payment.Provider]payment.Adapter, len(cfg.Adapters))
	for _, a := range cfg.Adapters {
		adapters[a.Provider()] = a
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NoopWebhookMetrics()
	}

	return &Service{
		adapters: adapters,
		store:    cfg.Store,
		metrics:  metrics,
		logger:   cfg.Logger,
	}
}

// Process verifies, normalizes and records a single webhook delivery.
// A storage-level duplicate is reported as success with Duplicate set;
// providers must not see an error for an event that is already recorded.
func (s *Service) Process(ctx context.Context, provider payment.Provider, headers http.Header, body []byte) (*Result, error) {
	start := time.Now()
	ctx, log := logger.WithProvider(ctx, s.logger, string(provider))
	s.metrics.RecordReceived(ctx, string(provider))

	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", provider)
	}

	if err := adapter.Verify(ctx, headers, body); err != nil {
		log.Warn("Webhook verification failed", zap.Error(err))
		s.metrics.RecordFailed(ctx, string(provider))
		return nil, err
	}

	notification, err := adapter.Normalize(ctx, body)
	if err != nil {
		log.Error("Webhook normalization failed", zap.Error(err))
		s.metrics.RecordFailed(ctx, string(provider))
		return nil, err
	}

	result := &Result{
		Provider:   provider,
		EventType:  notification.EventType,
		ReceivedAt: time.Now().UTC(),
	}

	// Plain notifications carry no payment and are acknowledged without a write.
	if notification.Event == nil {
		log.Info("Webhook acknowledged without payment",
			zap.String("event_type", notification.EventType))
		s.metrics.RecordDuration(ctx, string(provider), time.Since(start))
		return result, nil
	}

	stored, err := s.store.Insert(ctx, notification.Event)
	if err != nil {
		if errors.Is(err, payment.ErrDuplicateTransaction) {
			log.Info("Payment already recorded",
				zap.String("transaction_id", notification.Event.ProviderTransactionID))
			s.metrics.RecordDuplicate(ctx, string(provider), "storage")
			result.Duplicate = true
			s.metrics.RecordDuration(ctx, string(provider), time.Since(start))
			return result, nil
		}

		log.Error("Failed to record payment",
			zap.String("transaction_id", notification.Event.ProviderTransactionID),
			zap.Error(err))
		s.metrics.RecordFailed(ctx, string(provider))
		return nil, err
	}

	result.PaymentID = stored.ID
	s.metrics.RecordPersisted(ctx, string(provider), string(notification.Event.Status))
	s.metrics.RecordDuration(ctx, string(provider), time.Since(start))

	log.Info("Payment recorded",
		zap.String("transaction_id", notification.Event.ProviderTransactionID),
		zap.String("trace_id", notification.Event.TraceID.String()),
		zap.Int64("payment_id", stored.ID),
		zap.Int64("amount_minor_units", notification.Event.AmountMinorUnits),
		zap.String("currency", notification.Event.Currency))

	return result, nil
}
