package analysis

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/images"
	"openlabel-backend/internal/ocr"
	"openlabel-backend/internal/shared/server/respond"
)

// RespondError maps pipeline errors onto the HTTP error envelope.
func RespondError(c *gin.Context, err error) {
	var upstream *callclient.UpstreamError
	var failed *ocr.FailedError
	switch {
	case errors.Is(err, callclient.ErrQuotaExceeded):
		c.Header("Retry-After", "86400")
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "Daily limit reached, try again tomorrow", nil)
	case errors.Is(err, callclient.ErrRetriesExhausted):
		respond.Error(c, http.StatusServiceUnavailable, "retries_exhausted", "Upstream service is busy, please retry shortly", nil)
	case errors.As(err, &upstream):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Upstream service rejected the request", gin.H{
			"status": upstream.Status,
			"body":   string(upstream.Body),
		})
	case errors.As(err, &failed):
		respond.Error(c, http.StatusUnprocessableEntity, "recognition_failed", "Could not read text from the image", gin.H{"reason": failed.Message})
	case errors.Is(err, ocr.ErrRecognitionTimedOut):
		respond.Error(c, http.StatusGatewayTimeout, "recognition_timed_out", "Text recognition did not finish in time", nil)
	case errors.Is(err, ocr.ErrMalformedResponse):
		respond.Error(c, http.StatusBadGateway, "malformed_upstream_response", "Unexpected response from text recognition service", nil)
	case errors.Is(err, images.ErrNotImage), errors.Is(err, images.ErrEmpty):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Only image files are allowed", nil)
	case errors.Is(err, images.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "Image exceeds 10 MiB", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to analyze image", nil)
	}
}
