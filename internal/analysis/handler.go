package analysis

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/images"
	"openlabel-backend/internal/shared/server/middleware"
	"openlabel-backend/internal/shared/server/respond"
)

// formOverhead leaves room for multipart framing around the image part.
const formOverhead = 1 << 20

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc        *Service
	Backend    string
	HasOCRKeys bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, backend string, hasOCRKeys bool) *Handler {
	return &Handler{Svc: svc, Backend: backend, HasOCRKeys: hasOCRKeys}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-image", h.analyzeImage)
	rg.GET("/health", h.health)
}

func (h *Handler) analyzeImage(c *gin.Context) {
	c.Set(middleware.LogOCRBackendKey, h.Backend)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, images.MaxBytes+formOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "Image exceeds 10 MiB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", `No image file provided. Use "image" as field name.`, nil)
		return
	}
	if fh.Size > images.MaxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "Image exceeds 10 MiB", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Could not read uploaded image", nil)
		return
	}
	defer f.Close()

	userID := middleware.UserIDFromContext(c)
	result, err := h.Svc.AnalyzeUpload(c.Request.Context(), userID, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		RespondError(c, err)
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "Image analyzed successfully with WHO/OpenFoodFacts standards",
		"data":    result,
	})
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{
		"success":      true,
		"message":      "Analysis service with WHO/OpenFoodFacts standards is running",
		"backend":      h.Backend,
		"hasAzureKeys": h.HasOCRKeys,
		"standards":    Standards,
		"version":      Version,
		"timestamp":    time.Now().UTC(),
	})
}
