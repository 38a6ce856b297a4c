package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuropul/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size.
// Provider webhook payloads are small; anything larger is rejected outright.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error: "Request body too large",
			})
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
