package products

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/analysis"
	"openlabel-backend/internal/images"
	"openlabel-backend/internal/llm"
	"openlabel-backend/internal/shared/server/middleware"
	"openlabel-backend/internal/shared/server/respond"
)

const formOverhead = 1 << 20

// Handler wires HTTP handlers to the product service.
type Handler struct {
	Svc     *Service
	Backend string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, backend string) *Handler {
	return &Handler{Svc: svc, Backend: backend}
}

// RegisterRoutes attaches product routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scan-product", h.scanProduct)
}

func (h *Handler) scanProduct(c *gin.Context) {
	c.Set(middleware.LogOCRBackendKey, h.Backend)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, images.MaxBytes+formOverhead)

	fh, err := c.FormFile("productImage")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "Image exceeds 10 MiB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Could not read uploaded image", nil)
		return
	}
	defer f.Close()

	scan, err := h.Svc.ScanUpload(c.Request.Context(), middleware.UserIDFromContext(c), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			respond.Error(c, http.StatusServiceUnavailable, "llm_not_configured", "Product lookup is not configured", nil)
			return
		}
		analysis.RespondError(c, err)
		return
	}
	respond.OK(c, scan)
}
