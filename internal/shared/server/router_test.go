package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlabel-backend/internal/reports"
	"openlabel-backend/internal/shared/auth"
	"openlabel-backend/internal/shared/config"
	"openlabel-backend/internal/shared/server/middleware"
	localstore "openlabel-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T) (*gin.Engine, *localstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewVerifier("test-secret", "dev")
	require.NoError(t, err)
	store := localstore.New(t.TempDir(), "http://api.test")
	router := NewRouter(RouterDeps{
		Config:         config.Config{Env: "dev"},
		Verifier:       verifier,
		ReportsHandler: reports.NewHandler(reports.NewService(reports.NewObjectRepo(store))),
		Files:          store,
		RateLimits: map[string]middleware.RateLimitRule{
			rateGroupAnalyze: {Rate: 0.001, Burst: 1},
		},
	})
	return router, store
}

func get(router *gin.Engine, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRouterPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/health").Code)
	metricsResp := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, metricsResp.Code)
	assert.Contains(t, metricsResp.Body.String(), "analysis_started_total")
}

func TestRouterRequiresIdentityForReports(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(router, "/api/v1/saved-reports").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/saved-reports", "X-Guest-Id", "device-1").Code)
}

func TestRouterServesImagesOnly(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()
	_, err := store.SaveWithKey(ctx, "images/u1/abc_label.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	_, err = store.SaveWithKey(ctx, "reports/report_1_abcdef.json", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)

	resp := get(router, "/files/images/u1/abc_label.png")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "png-bytes", resp.Body.String())
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, get(router, "/files/reports/report_1_abcdef.json").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/files/images/missing.png").Code)
}

func TestRateGroupFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var groups []string
	record := func(c *gin.Context) { groups = append(groups, rateGroupFor(c)) }
	r.POST("/api/v1/analyze-image", record)
	r.POST("/api/v1/scan-product", record)
	r.POST("/api/v1/save-report", record)
	r.GET("/api/v1/saved-reports", record)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/analyze-image"},
		{http.MethodPost, "/api/v1/scan-product"},
		{http.MethodPost, "/api/v1/save-report"},
		{http.MethodGet, "/api/v1/saved-reports"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
	}
	assert.Equal(t, []string{rateGroupAnalyze, rateGroupAnalyze, "", ""}, groups)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
