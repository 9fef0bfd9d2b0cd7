package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/shared/server/middleware"
	"openlabel-backend/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the report service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/save-report", h.saveReport)
	rg.GET("/saved-reports", h.listReports)
	rg.GET("/saved-reports/export.xlsx", h.exportReports)
	rg.GET("/saved-reports/:id", h.getReport)
	rg.POST("/save-purchase-decision", h.savePurchaseDecision)
}

type saveReportRequest struct {
	Data       json.RawMessage `json:"data"`
	SavedFrom  string          `json:"savedFrom"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
}

type purchaseDecisionRequest struct {
	ReportID string `json:"reportId"`
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (h *Handler) saveReport(c *gin.Context) {
	var req saveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid JSON body", nil)
		return
	}
	data := strings.TrimSpace(string(req.Data))
	if data == "" || data == "null" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No report data provided", nil)
		return
	}

	report, err := h.Svc.Save(c.Request.Context(), SaveInput{
		Analysis:   req.Data,
		UserID:     middleware.UserIDFromContext(c),
		SavedFrom:  req.SavedFrom,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		respondError(c, err, "Failed to save report")
		return
	}
	c.Set(middleware.LogReportIDKey, report.ID)
	respond.OK(c, gin.H{
		"success":  true,
		"message":  "Report saved successfully!",
		"reportId": report.ID,
		"savedAt":  report.SavedAt,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get saved reports")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"reports": list,
		"total":   len(list),
		"message": fmt.Sprintf("Found %d saved reports", len(list)),
	})
}

func (h *Handler) getReport(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.LogReportIDKey, id)
	report, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get report")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"report":  report,
		"message": "Report retrieved successfully",
	})
}

func (h *Handler) savePurchaseDecision(c *gin.Context) {
	var req purchaseDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.ReportID) == "" || strings.TrimSpace(req.Decision) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Missing reportId or decision", nil)
		return
	}
	c.Set(middleware.LogReportIDKey, req.ReportID)

	report, err := h.Svc.AttachDecision(c.Request.Context(), req.ReportID, req.Decision, req.Notes)
	if err != nil {
		respondError(c, err, "Failed to save purchase decision")
		return
	}
	respond.OK(c, gin.H{
		"success":  true,
		"message":  "Purchase decision saved successfully!",
		"decision": report.PurchaseDecision.Decision,
		"reportId": report.ID,
		"report":   report,
	})
}

func (h *Handler) exportReports(c *gin.Context) {
	raw, err := h.Svc.ExportXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to export reports")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="saved-reports.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, raw)
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Report not found", nil)
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "Report id already exists", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
