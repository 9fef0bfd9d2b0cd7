package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/analysis"
	"openlabel-backend/internal/products"
	"openlabel-backend/internal/reports"
	"openlabel-backend/internal/shared/auth"
	"openlabel-backend/internal/shared/config"
	"openlabel-backend/internal/shared/metrics"
	"openlabel-backend/internal/shared/server/middleware"
	"openlabel-backend/internal/shared/server/respond"
	"openlabel-backend/internal/shared/storage/object"
	"openlabel-backend/internal/usage"
)

const (
	rateGroupAnalyze = "ANALYZE"
	// filesPrefix is the only key space served publicly; report records share the store.
	filesPrefix = "images/"
)

// RouterDeps carries the handlers and collaborators the router mounts.
type RouterDeps struct {
	Config          config.Config
	Verifier        *auth.Verifier
	AnalysisHandler *analysis.Handler
	ReportsHandler  *reports.Handler
	ProductsHandler *products.Handler
	UsageHandler    *usage.Handler
	// Files serves uploaded images under /files when set.
	Files object.ObjectStore
	// RateLimits overrides the default per-group rules.
	RateLimits map[string]middleware.RateLimitRule
}

// DefaultRateLimits throttles the routes that spend OCR and LLM quota.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		rateGroupAnalyze: {Rate: 0.2, Burst: 5},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = DefaultRateLimits()
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier, "/api/v1/health", "/metrics", "/files/"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rules,
			GroupFor: rateGroupFor,
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Files != nil {
		r.GET("/files/*key", serveFile(deps.Files))
	}

	api := r.Group("/api/v1")
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	} else {
		api.GET("/health", func(c *gin.Context) {
			respond.OK(c, gin.H{"success": true})
		})
	}
	if deps.ReportsHandler != nil {
		deps.ReportsHandler.RegisterRoutes(api)
	}
	if deps.ProductsHandler != nil {
		deps.ProductsHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.UsageHandler.RegisterDevRoutes(api.Group("/dev"))
		}
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/api/v1/analyze-image", "/api/v1/scan-product":
		return rateGroupAnalyze
	}
	return ""
}

func serveFile(store object.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if !strings.HasPrefix(key, filesPrefix) || strings.Contains(key, "..") {
			respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
			return
		}
		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to read file", nil)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Type", contentType)
		c.Header("Cache-Control", "private, max-age=3600")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, rc)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
