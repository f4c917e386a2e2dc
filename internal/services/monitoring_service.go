package services

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxTrackedRequests   = 100
)

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
	GetCacheStats() models.CacheMetrics
	GetStorageStats(ctx context.Context) models.StorageMetrics
	GetClientStats(ctx context.Context) models.ClientSyncMetrics
	GetSystemStats() models.SystemMetrics
	GetRedisStats(ctx context.Context) models.RedisMetrics
}

type monitoringService struct {
	logger       *zap.Logger
	environment  string
	store        repository.Store
	redisClient  *redis.Client
	dbPool       *sql.DB
	balanceCache *cache.BalanceCache

	// Métricas de requests
	requestsMutex sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int64

	startTime time.Time
}

// NewMonitoringService crea el servicio; redisClient, dbPool y balanceCache pueden ser nil
func NewMonitoringService(
	logger *zap.Logger,
	environment string,
	store repository.Store,
	redisClient *redis.Client,
	dbPool *sql.DB,
	balanceCache *cache.BalanceCache,
) MonitoringService {
	return &monitoringService{
		logger:       logger,
		environment:  environment,
		store:        store,
		redisClient:  redisClient,
		dbPool:       dbPool,
		balanceCache: balanceCache,
		requests:     make(map[string]*models.EndpointMetrics),
		startTime:    time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.requestsMutex.Lock()
	defer s.requestsMutex.Unlock()

	endpointKey := fmt.Sprintf("%s %s", data.Method, data.Endpoint)

	metrics, exists := s.requests[endpointKey]
	if !exists {
		metrics = &models.EndpointMetrics{}
		s.requests[endpointKey] = metrics
	}

	durationMs := data.Duration.Milliseconds()
	metrics.Count++
	metrics.TotalTime += durationMs
	metrics.AvgTime = float64(metrics.TotalTime) / float64(metrics.Count)
	if durationMs > metrics.MaxTime {
		metrics.MaxTime = durationMs
	}
	s.totalRequests++

	if data.Duration > slowRequestThreshold {
		s.slowRequests = append(s.slowRequests, models.SlowRequest{
			Endpoint:  endpointKey,
			Duration:  durationMs,
			Timestamp: data.Timestamp,
		})
		if len(s.slowRequests) > maxTrackedRequests {
			s.slowRequests = s.slowRequests[1:]
		}
	}

	if data.StatusCode >= 400 {
		s.errors = append(s.errors, models.RequestError{
			Endpoint:   endpointKey,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
		if len(s.errors) > maxTrackedRequests {
			s.errors = s.errors[1:]
		}
	}
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.requestsMutex.RLock()
	requestMetrics := s.calculateRequestMetrics()
	performanceMetrics := s.calculatePerformanceMetrics()
	s.requestsMutex.RUnlock()

	return &models.MonitoringResponse{
		Requests:    requestMetrics,
		Performance: performanceMetrics,
		Cache:       s.GetCacheStats(),
		Storage:     s.GetStorageStats(ctx),
		Clients:     s.GetClientStats(ctx),
		System:      s.GetSystemStats(),
		Redis:       s.GetRedisStats(ctx),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     "1.0",
	}
}

func (s *monitoringService) calculateRequestMetrics() models.RequestMetrics {
	keys := make([]string, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for key, metrics := range s.requests {
		keys = append(keys, key)
		byEndpoint[key] = *metrics
	}

	// Más usados primero
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := s.requests[keys[i]].Count, s.requests[keys[j]].Count
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})

	topEndpoints := make([]models.TopEndpoint, 0, 10)
	for i, key := range keys {
		if i >= 10 {
			break
		}
		m := s.requests[key]
		topEndpoints = append(topEndpoints, models.TopEndpoint{
			Endpoint:  key,
			Count:     m.Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", m.AvgTime),
		})
	}

	return models.RequestMetrics{
		Endpoints:         len(s.requests),
		ByEndpoint:        byEndpoint,
		SlowRequests:      append([]models.SlowRequest(nil), s.slowRequests...),
		Errors:            append([]models.RequestError(nil), s.errors...),
		TotalRequests:     int(s.totalRequests),
		SlowRequestsCount: len(s.slowRequests),
		ErrorsCount:       len(s.errors),
		TopEndpoints:      topEndpoints,
	}
}

func (s *monitoringService) calculatePerformanceMetrics() models.PerformanceMetrics {
	var totalTime, maxTime int64
	var count int
	for _, m := range s.requests {
		totalTime += m.TotalTime
		count += m.Count
		if m.MaxTime > maxTime {
			maxTime = m.MaxTime
		}
	}

	var avgTime float64
	if count > 0 {
		avgTime = float64(totalTime) / float64(count)
	}

	return models.PerformanceMetrics{
		AvgResponseTime:   avgTime,
		MaxResponseTime:   maxTime,
		AvgResponseTimeMs: fmt.Sprintf("%.2fms", avgTime),
		MaxResponseTimeMs: fmt.Sprintf("%dms", maxTime),
	}
}

func (s *monitoringService) GetCacheStats() models.CacheMetrics {
	if s.balanceCache == nil {
		return models.CacheMetrics{Status: "disabled", HitRatePercentage: "0.00%"}
	}

	stats := s.balanceCache.GetStats()
	var hitRate float64
	if stats.TotalRequests > 0 {
		hitRate = float64(stats.Hits) / float64(stats.TotalRequests)
	}

	return models.CacheMetrics{
		L2Enabled:         stats.L2Enabled,
		TotalKeys:         stats.TotalKeys,
		HitRate:           hitRate,
		HitRatePercentage: fmt.Sprintf("%.2f%%", hitRate*100),
		TotalHits:         stats.Hits,
		TotalMisses:       stats.Misses,
		Status:            "online",
	}
}

func (s *monitoringService) GetStorageStats(ctx context.Context) models.StorageMetrics {
	metrics := models.StorageMetrics{Driver: s.store.Driver(), Status: "online"}

	fail := func(err error) models.StorageMetrics {
		s.logger.Warn("⚠️ Error leyendo estado del store", zap.Error(err))
		metrics.Status = "offline"
		metrics.LastError = err.Error()
		return metrics
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return fail(err)
	}
	purchases, err := s.store.ListPurchases(ctx, nil)
	if err != nil {
		return fail(err)
	}
	sales, err := s.store.ListSales(ctx, nil)
	if err != nil {
		return fail(err)
	}
	consumption, err := s.store.ListConsumption(ctx, nil)
	if err != nil {
		return fail(err)
	}
	metrics.Products = len(products)
	metrics.Purchases = len(purchases)
	metrics.Sales = len(sales)
	metrics.Consumption = len(consumption)

	if s.dbPool != nil {
		stats := s.dbPool.Stats()
		metrics.OpenConnections = stats.OpenConnections
		metrics.InUseConnections = stats.InUse
		metrics.WaitCount = stats.WaitCount
	}
	return metrics
}

func (s *monitoringService) GetClientStats(ctx context.Context) models.ClientSyncMetrics {
	var metrics models.ClientSyncMetrics

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.logger.Warn("⚠️ Error leyendo clientes", zap.Error(err))
		return metrics
	}

	metrics.Total = len(clients)
	for _, c := range clients {
		switch c.SyncState() {
		case models.ClientStateSynced:
			metrics.Synced++
		case models.ClientStateSyncFailed:
			metrics.SyncFailed++
		default:
			metrics.Local++
		}
	}
	return metrics
}

func (s *monitoringService) GetSystemStats() models.SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(s.startTime).Seconds()

	return models.SystemMetrics{
		HeapUsed:    fmt.Sprintf("%.2f MB", float64(m.HeapAlloc)/1024/1024),
		HeapTotal:   fmt.Sprintf("%.2f MB", float64(m.HeapSys)/1024/1024),
		RSS:         fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		Goroutines:  runtime.NumGoroutine(),
		Uptime:      uptime,
		UptimeHours: fmt.Sprintf("%.2fh", uptime/3600),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		Environment: s.environment,
	}
}

func (s *monitoringService) GetRedisStats(ctx context.Context) models.RedisMetrics {
	if s.redisClient == nil {
		return models.RedisMetrics{Status: "disabled"}
	}

	metrics := models.RedisMetrics{Enabled: true, Status: "offline"}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return metrics
	}
	metrics.Connected = true
	metrics.Status = "online"

	if keys, err := s.redisClient.DBSize(ctx).Result(); err == nil {
		metrics.Keys = int(keys)
	}

	if info, err := s.redisClient.Info(ctx, "memory").Result(); err == nil {
		for _, line := range strings.Split(info, "\n") {
			if !strings.HasPrefix(line, "used_memory:") {
				continue
			}
			raw := strings.TrimSpace(strings.TrimPrefix(line, "used_memory:"))
			if memBytes, err := strconv.ParseInt(raw, 10, 64); err == nil {
				metrics.MemoryMB = fmt.Sprintf("%.2f MB", float64(memBytes)/1024/1024)
			}
			break
		}
	}
	return metrics
}
