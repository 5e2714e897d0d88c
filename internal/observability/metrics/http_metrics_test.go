package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "salesdesk", Environment: "test"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/leads/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/42", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/leads/:id", http.MethodGet, "404")))
}

func TestNewHTTPMetricsRejectsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := newHTTPMetrics(registry, Config{})
	require.NoError(t, err)

	_, err = newHTTPMetrics(registry, Config{})
	require.Error(t, err)
}

func TestNilHTTPMetricsMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var m *HTTPMetrics
	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
