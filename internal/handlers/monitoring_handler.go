package handlers

import (
	"net/http"
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	metricsPushInterval = 10 * time.Second
	wsPongWait          = 60 * time.Second
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// GetMetrics métricas operativas del servicio
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	h.logger.Debug("Métricas obtenidas",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Int("clients_sync_failed", metrics.Clients.SyncFailed))

	c.JSON(http.StatusOK, metrics)
}

// GetMetricsSummary resumen compacto para dashboards
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"requests": gin.H{
			"total":         metrics.Requests.TotalRequests,
			"errors":        metrics.Requests.ErrorsCount,
			"slow_requests": metrics.Requests.SlowRequestsCount,
			"avg_time":      metrics.Performance.AvgResponseTimeMs,
		},
		"ledgers": gin.H{
			"driver":      metrics.Storage.Driver,
			"products":    metrics.Storage.Products,
			"purchases":   metrics.Storage.Purchases,
			"sales":       metrics.Storage.Sales,
			"consumption": metrics.Storage.Consumption,
		},
		"clients":   metrics.Clients,
		"cache":     gin.H{"hit_rate": metrics.Cache.HitRatePercentage, "keys": metrics.Cache.TotalKeys},
		"timestamp": metrics.Timestamp,
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Permitir todas las conexiones para desarrollo
	},
}

// WebSocketMetrics envía métricas en tiempo real cada 10 segundos
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("Conexión WebSocket establecida")

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Lector en segundo plano para detectar el cierre del cliente
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	if err := conn.WriteJSON(h.monitoringService.GetMetrics(ctx)); err != nil {
		return
	}

	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := h.monitoringService.GetMetrics(ctx)
			if err := conn.WriteJSON(metrics); err != nil {
				logger.Error("Error enviando métricas por WebSocket", zap.Error(err))
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}

		case <-closed:
			logger.Info("Conexión WebSocket cerrada por el cliente")
			return

		case <-ctx.Done():
			logger.Info("Conexión WebSocket cerrada por contexto")
			return
		}
	}
}

// RecordRequestMiddleware registra cada request en el servicio de monitoreo
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if shouldSkipMonitoring(path) {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

// shouldSkipMonitoring excluye endpoints de monitoreo y health
func shouldSkipMonitoring(path string) bool {
	return path == "/" ||
		path == "/health" ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/api/v1/monitoring")
}
