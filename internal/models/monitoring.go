package models

import "time"

// MonitoringResponse estado operativo del servicio de inventario
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Cache       CacheMetrics       `json:"cache"`
	Storage     StorageMetrics     `json:"storage"`
	Clients     ClientSyncMetrics  `json:"clients"`
	System      SystemMetrics      `json:"system"`
	Redis       RedisMetrics       `json:"redis"`
	Timestamp   string             `json:"timestamp"`
	Version     string             `json:"version"`
}

// RequestMetrics métricas de requests HTTP
type RequestMetrics struct {
	Endpoints         int                        `json:"endpoints"`
	ByEndpoint        map[string]EndpointMetrics `json:"by_endpoint"`
	SlowRequests      []SlowRequest              `json:"slow_requests"`
	Errors            []RequestError             `json:"errors"`
	TotalRequests     int                        `json:"total_requests"`
	SlowRequestsCount int                        `json:"slow_requests_count"`
	ErrorsCount       int                        `json:"errors_count"`
	TopEndpoints      []TopEndpoint              `json:"top_endpoints"`
}

// EndpointMetrics métricas por endpoint
type EndpointMetrics struct {
	Count     int     `json:"count"`
	AvgTime   float64 `json:"avg_time_ms"`
	TotalTime int64   `json:"total_time_ms"`
	MaxTime   int64   `json:"max_time_ms"`
}

// SlowRequest request lento
type SlowRequest struct {
	Endpoint  string    `json:"endpoint"`
	Duration  int64     `json:"duration_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestError request con status >= 400
type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// TopEndpoint endpoint más usado
type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

// PerformanceMetrics tiempos de respuesta agregados
type PerformanceMetrics struct {
	AvgResponseTime   float64 `json:"avg_response_time"`
	MaxResponseTime   int64   `json:"max_response_time"`
	AvgResponseTimeMs string  `json:"avg_response_time_ms"`
	MaxResponseTimeMs string  `json:"max_response_time_ms"`
}

// CacheMetrics métricas del caché de balance
type CacheMetrics struct {
	L2Enabled         bool    `json:"l2_enabled"`
	TotalKeys         int     `json:"total_keys"`
	HitRate           float64 `json:"hit_rate"`
	HitRatePercentage string  `json:"hit_rate_percentage"`
	TotalHits         int64   `json:"total_hits"`
	TotalMisses       int64   `json:"total_misses"`
	Status            string  `json:"status"`
}

// StorageMetrics tamaño de los ledgers y estado del store
type StorageMetrics struct {
	Driver           string `json:"driver"`
	Status           string `json:"status"`
	Products         int    `json:"products"`
	Purchases        int    `json:"purchases"`
	Sales            int    `json:"sales"`
	Consumption      int    `json:"consumption"`
	OpenConnections  int    `json:"open_connections,omitempty"`
	InUseConnections int    `json:"in_use_connections,omitempty"`
	WaitCount        int64  `json:"wait_count,omitempty"`
	LastError        string `json:"last_error,omitempty"`
}

// ClientSyncMetrics estado de sincronización de clientes con el POS
type ClientSyncMetrics struct {
	Total      int `json:"total"`
	Synced     int `json:"synced"`
	Local      int `json:"local"`
	SyncFailed int `json:"sync_failed"`
}

// SystemMetrics métricas del proceso
type SystemMetrics struct {
	HeapUsed    string  `json:"heap_used"`
	HeapTotal   string  `json:"heap_total"`
	RSS         string  `json:"rss"`
	Goroutines  int     `json:"goroutines"`
	Uptime      float64 `json:"uptime_seconds"`
	UptimeHours string  `json:"uptime_hours"`
	GoVersion   string  `json:"go_version"`
	Platform    string  `json:"platform"`
	Environment string  `json:"environment"`
}

// RedisMetrics métricas de Redis (L2 del caché)
type RedisMetrics struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Keys      int    `json:"keys"`
	MemoryMB  string `json:"memory_mb"`
	Status    string `json:"status"`
}

// RequestData datos de un request individual
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}
