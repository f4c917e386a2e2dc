package middleware

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/database"
	"inventory-service/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker verifica el store y las dependencias opcionales (Postgres, Redis)
type HealthChecker struct {
	store        repository.Store
	postgresDB   *database.PostgresDB
	redisDB      *database.RedisDB
	balanceCache *cache.BalanceCache
	logger       *zap.Logger
}

// NewHealthChecker postgresDB, redisDB y balanceCache pueden ser nil
func NewHealthChecker(store repository.Store, postgresDB *database.PostgresDB, redisDB *database.RedisDB, balanceCache *cache.BalanceCache, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		store:        store,
		postgresDB:   postgresDB,
		redisDB:      redisDB,
		balanceCache: balanceCache,
		logger:       logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := "healthy"
	services := gin.H{}

	services["store"] = gin.H{"status": "healthy", "driver": h.store.Driver()}

	// PostgreSQL es crítico cuando es el store
	if h.postgresDB != nil {
		postgresStatus := "healthy"
		if err := h.postgresDB.Ping(ctx); err != nil {
			postgresStatus = "unhealthy"
			overall = "unhealthy"
			h.logger.Error("PostgreSQL health check failed", zap.Error(err))
		}
		stats := h.postgresDB.GetStats()
		services["postgresql"] = gin.H{
			"status": postgresStatus,
			"stats": gin.H{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
			},
		}
	}

	// Redis solo respalda el caché: si cae, el servicio queda degradado
	if h.redisDB != nil {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			if overall == "healthy" {
				overall = "degraded"
			}
			h.logger.Warn("Redis health check failed", zap.Error(err))
		}
		services["redis"] = gin.H{"status": redisStatus}
	}

	if h.balanceCache != nil {
		services["balance_cache"] = h.balanceCache.Stats()
	}

	httpStatus := http.StatusOK
	if overall == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}
