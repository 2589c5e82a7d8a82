package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"

	"github.com/eros-universe/motion-backend/internal/middleware"
)

func TestMetrics_CountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Metrics())
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	req, _ := http.NewRequest("GET", "/api/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req, _ = http.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/api/health"`)
}

// The origin allowlist is exact-match: an unlisted origin is rejected while a
// request with no Origin header (curl, same-origin) passes. Mirrors the server
// wiring in cmd/server.
func TestCORS_OriginAllowlist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"https://erosuniverse.com"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	// allowlisted origin
	req, _ := http.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://erosuniverse.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://erosuniverse.com", w.Header().Get("Access-Control-Allow-Origin"))

	// unlisted origin is rejected
	req, _ = http.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// no Origin header passes through
	req, _ = http.NewRequest("GET", "/api/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
