package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/domain/payment"
	"github.com/neuropul/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-supplied deduplication token
const IdempotencyKeyHeader = "X-Idempotency-Key"

// Idempotency collapses retried deliveries that carry the same idempotency
// key within the freshness window. Requests without the header pass through
// untouched. The key is recorded before the handler runs so rapid-fire
// retries racing the first delivery are also caught.
//
// A failing store fails open: dropping dedup is preferable to dropping
// webhooks, and the storage layer's uniqueness constraint still prevents
// double recording.
func Idempotency(store payment.IdempotencyStore, cfg payment.IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		fresh, firstSeen, err := store.MarkProcessed(c.Request.Context(), key, cfg.FreshnessWindow)
		if err != nil {
			logger.Warn("Idempotency check failed, processing without dedup",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		if !fresh {
			logger.Info("Duplicate request collapsed by idempotency key",
				zap.String("key", key),
				zap.Time("first_seen", firstSeen))
			c.AbortWithStatusJSON(http.StatusOK, dto.DuplicateResponse{
				OK:        true,
				Duplicate: true,
				CachedAt:  firstSeen,
			})
			return
		}

		c.Next()
	}
}
