package usage

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.getUsage)
}

// RegisterDevRoutes attaches dev-only usage routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/usage/reset", h.resetUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	counters, err := h.Svc.Snapshot(c.Request.Context())
	if err != nil {
		writeUsageError(c, err, "failed to fetch usage")
		return
	}
	respond.OK(c, gin.H{"counters": counters})
}

func (h *Handler) resetUsage(c *gin.Context) {
	categories := h.Svc.Categories()
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		categories = []string{category}
	}

	out := make([]Counter, 0, len(categories))
	for _, category := range categories {
		counter, err := h.Svc.Reset(c.Request.Context(), category)
		if err != nil {
			writeUsageError(c, err, "failed to reset usage")
			return
		}
		out = append(out, counter)
	}
	respond.OK(c, gin.H{"counters": out})
}

func writeUsageError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
