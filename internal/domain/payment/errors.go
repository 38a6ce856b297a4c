package payment

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrMissingSignature is returned when a provider signature header is absent
	ErrMissingSignature = NewDomainError("MISSING_SIGNATURE", "Missing provider signature header")
	// ErrInvalidSignature is returned when signature verification fails
	ErrInvalidSignature = NewDomainError("INVALID_SIGNATURE", "Invalid signature")
	// ErrInvalidPayload is returned when the webhook body is not valid JSON
	// or fails canonical record validation
	ErrInvalidPayload = NewDomainError("INVALID_PAYLOAD", "Invalid webhook payload")
	// ErrDuplicateTransaction is returned by the store when the
	// (provider, transaction id) pair has already been recorded.
	// Callers must treat it as "already recorded", not as a failure.
	ErrDuplicateTransaction = NewDomainError("DUPLICATE_TRANSACTION", "Payment already recorded")
)

// TransportError indicates the durable store rejected or failed the write.
// It is fatal for the current request; recovery relies on the provider's
// own webhook redelivery, never on internal retry.
type TransportError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("payment store write failed with status %d: %s", e.StatusCode, e.Body)
}
