package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	LogReportIDKey   = "reportId"
	LogOCRBackendKey = "ocrBackend"
	LogErrorCodeKey  = "errorCode"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		reportID, _ := c.Get(LogReportIDKey)
		backend, _ := c.Get(LogOCRBackendKey)
		errorCode, _ := c.Get(LogErrorCodeKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"is_guest":    isGuest,
			"report_id":   reportID,
			"ocr_backend": backend,
			"error_code":  errorCode,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
