package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuropul/backend/internal/interfaces/http/dto"
)

// SystemHandler exposes operational endpoints
type SystemHandler struct {
	serviceName     string
	version         string
	idempotencyMode string
}

// NewSystemHandler creates a new SystemHandler. idempotencyMode names the
// active deduplication tier ("shared" or "local").
func NewSystemHandler(serviceName, version, idempotencyMode string) *SystemHandler {
	return &SystemHandler{
		serviceName:     serviceName,
		version:         version,
		idempotencyMode: idempotencyMode,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "ok",
		Service:     h.serviceName,
		Version:     h.version,
		Idempotency: h.idempotencyMode,
	})
}
