package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neuropul/backend/internal/infrastructure/logger"
	"github.com/neuropul/backend/internal/interfaces/http/dto"
)

// Recovery is the top-level failure boundary. No fault may ever surface as a
// non-JSON response; a panic becomes a 500 with the uniform error envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered in request handler",
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", logger.GetRequestID(c.Request.Context())),
					zap.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Error:   "Internal server error",
					Message: fmt.Sprint(r),
				})
			}
		}()
		c.Next()
	}
}
