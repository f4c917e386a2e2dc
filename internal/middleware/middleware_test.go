package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-service/internal/cache"
	"inventory-service/internal/repository"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(requestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})
}

func TestHealthCheckMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := repository.NewMemoryStore("", nil)
	require.NoError(t, err)
	bc := cache.NewBalanceCache(nil, 10, 0, nil)
	defer bc.Close()

	checker := NewHealthChecker(store, nil, nil, bc, zap.NewNop())
	router := gin.New()
	router.GET("/health", checker.HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string                            `json:"status"`
		Services map[string]map[string]interface{} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, repository.DriverMemory, body.Services["store"]["driver"])
	assert.Contains(t, body.Services, "balance_cache")
	assert.NotContains(t, body.Services, "redis")
}

func TestPrometheusMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PrometheusMiddleware())
	router.GET("/clients/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clients/42", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	var m dto.Metric
	require.NoError(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/clients/:id", "204").Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
}

func TestStatusAndMethodColors(t *testing.T) {
	assert.Equal(t, greenColor, getStatusColor(http.StatusOK))
	assert.Equal(t, redColor, getStatusColor(http.StatusInternalServerError))
	assert.Equal(t, blueColor, getMethodColor(http.MethodGet))
}
