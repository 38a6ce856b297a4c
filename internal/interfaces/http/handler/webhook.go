// Package handler contains the gin HTTP handlers of the webhook server.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/application/webhook"
	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/interfaces/http/dto"
)

// WebhookHandler exposes the provider webhook endpoints
type WebhookHandler struct {
	service *webhook.Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *webhook.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	webhooks.POST("/stripe", h.handleProvider(payment.ProviderStripe))
	webhooks.POST("/paypal", h.handleProvider(payment.ProviderPayPal))
	webhooks.POST("/telegram", h.handleProvider(payment.ProviderTelegram))
}

func (h *WebhookHandler) handleProvider(provider payment.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			// Chunked bodies bypass the Content-Length check in the body
			// limit middleware and trip its MaxBytesReader here instead.
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
					Error: "Request body too large",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Webhook processing failed",
				Message: err.Error(),
			})
			return
		}

		result, err := h.service.Process(c.Request.Context(), provider, c.Request.Header, body)
		if err != nil {
			h.respondError(c, provider, err)
			return
		}

		response := dto.WebhookResponse{
			OK:         true,
			Provider:   string(result.Provider),
			PaymentID:  result.PaymentID,
			Duplicate:  result.Duplicate,
			ReceivedAt: result.ReceivedAt,
		}
		// Telegram reports an update discriminator rather than an event type.
		if provider == payment.ProviderTelegram {
			response.UpdateType = result.EventType
		} else {
			response.EventType = result.EventType
		}

		c.JSON(http.StatusOK, response)
	}
}

func (h *WebhookHandler) respondError(c *gin.Context, provider payment.Provider, err error) {
	switch {
	case errors.Is(err, payment.ErrMissingSignature), errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Invalid signature",
		})
	default:
		// Invalid payloads and transport failures alike surface as a 500 so
		// the provider's retry policy takes over.
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Webhook processing failed",
			Message: err.Error(),
		})
	}
}
