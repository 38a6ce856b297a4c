// Package middleware contains the HTTP middleware chain of the webhook server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig returns the CORS configuration webhook providers and the
// mini-app front-end expect. Webhook endpoints are server-to-server, so a
// wildcard origin is acceptable here.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey", "X-Idempotency-Key", "Stripe-Signature"},
		MaxAge:       12 * time.Hour,
	}
}

// CORS returns a middleware applying uniform CORS headers to every response.
// OPTIONS preflight requests are answered directly with 200 and an empty body.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS middleware with custom configuration.
// Access-Control-Allow-Origin carries a single value: "*" or one configured
// origin is sent as-is; with several configured origins the matching request
// origin is echoed back.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	staticOrigin := ""
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			staticOrigin = "*"
		}
		allowed[o] = struct{}{}
	}
	if staticOrigin == "" && len(cfg.AllowOrigins) == 1 {
		staticOrigin = cfg.AllowOrigins[0]
	}
	if len(cfg.AllowOrigins) == 0 {
		staticOrigin = "*"
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(c *gin.Context) {
		h := c.Writer.Header()

		if staticOrigin != "" {
			h.Set("Access-Control-Allow-Origin", staticOrigin)
		} else {
			origin := c.Request.Header.Get("Origin")
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
