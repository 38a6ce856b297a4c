package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/infrastructure/config"
)

// maxErrorBodySize bounds how much of an error response body is retained
const maxErrorBodySize = 4096

var validate = validator.New()

// PaymentsStore writes canonical payment events to a PostgREST endpoint with
// service-level credentials. Durable deduplication lives here: the table has
// a uniqueness constraint on (provider, provider_transaction_id), surfaced
// as HTTP 409 and translated to payment.ErrDuplicateTransaction.
type PaymentsStore struct {
	baseURL    string
	serviceKey string
	table      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPaymentsStore creates a new PostgREST-backed payments store
func NewPaymentsStore(cfg config.StorageConfig, logger *zap.Logger) *PaymentsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentsStore{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceRoleKey,
		table:      cfg.PaymentsTable,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// paymentRow is the wire shape of a payments_log row
type paymentRow struct {
	ID                    int64           `json:"id,omitempty"`
	Provider              string          `json:"provider"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	UserID                *string         `json:"user_id"`
	AmountMinorUnits      int64           `json:"amount_minor_units"`
	Currency              string          `json:"currency"`
	Status                string          `json:"status"`
	TraceID               string          `json:"trace_id"`
	RawPayload            json.RawMessage `json:"raw_payload,omitempty"`
	ReceivedAt            time.Time       `json:"received_at"`
}

// Insert performs a single write of the canonical record.
// A 409 from the endpoint means the transaction was already recorded and is
// returned as payment.ErrDuplicateTransaction; any other non-success response
// becomes a payment.TransportError carrying the response body.
func (s *PaymentsStore) Insert(ctx context.Context, event *payment.Event) (*payment.StoredEvent, error) {
	if err := validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %s", payment.ErrInvalidPayload, err.Error())
	}

	row := paymentRow{
		Provider:              string(event.Provider),
		ProviderTransactionID: event.ProviderTransactionID,
		UserID:                event.UserID,
		AmountMinorUnits:      event.AmountMinorUnits,
		Currency:              event.Currency,
		Status:                string(event.Status),
		TraceID:               event.TraceID.String(),
		RawPayload:            event.RawPayload,
		ReceivedAt:            event.ReceivedAt,
	}

	body, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &payment.TransportError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, &payment.TransportError{StatusCode: resp.StatusCode, Body: "failed to read response body"}
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		s.logger.Info("duplicate payment transaction",
			zap.String("provider", string(event.Provider)),
			zap.String("transaction_id", event.ProviderTransactionID),
		)
		return nil, payment.ErrDuplicateTransaction

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &payment.TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// PostgREST returns the inserted rows as an array
	var rows []paymentRow
	if err := json.Unmarshal(respBody, &rows); err != nil || len(rows) == 0 {
		// Write succeeded; a malformed representation is not a failure
		s.logger.Warn("payment stored but response representation was not parseable",
			zap.String("transaction_id", event.ProviderTransactionID),
		)
		return &payment.StoredEvent{Event: *event}, nil
	}

	return &payment.StoredEvent{ID: rows[0].ID, Event: *event}, nil
}

// Ensure PaymentsStore implements payment.Store
var _ payment.Store = (*PaymentsStore)(nil)
