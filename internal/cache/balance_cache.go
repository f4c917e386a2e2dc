package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"inventory-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	keyPrefix = "balance:"
	// AllKey clave del balance completo
	AllKey = keyPrefix + "all"
)

// ProductKey clave de caché del balance de un producto
func ProductKey(key models.ProductKey) string {
	return keyPrefix + "product:" + key.ID()
}

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
	L2Enabled     bool
}

// Entry valor cacheado: entradas de balance y advertencias de agregación
type Entry struct {
	Entries  []*models.BalanceStockEntry `json:"entries"`
	Warnings []string                    `json:"warnings"`
}

type l1Item struct {
	entry     *Entry
	expiresAt time.Time
}

// BalanceCache caché multi-nivel del balance de stock.
// Sin cliente Redis funciona solo con L1.
type BalanceCache struct {
	// L1 Cache: Memoria local (más rápido)
	l1Cache map[string]l1Item
	l1Mutex sync.RWMutex
	// generation sube en cada invalidación (protegido por l1Mutex)
	generation uint64

	// L2 Cache: Redis (compartido entre instancias)
	redisClient *redis.Client

	// Configuración
	maxL1Size int
	ttl       time.Duration
	now       func() time.Time

	logger *zap.Logger

	// Estadísticas
	statsMutex sync.RWMutex
	hits       int64
	misses     int64

	done      chan struct{}
	closeOnce sync.Once
}

// NewBalanceCache crea una nueva instancia del caché
func NewBalanceCache(redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *BalanceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxL1Size <= 0 {
		maxL1Size = 256
	}
	bc := &BalanceCache{
		l1Cache:     make(map[string]l1Item),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
		done:        make(chan struct{}),
	}

	// Iniciar limpieza periódica del L1 cache
	go bc.cleanupL1Cache(time.Minute)

	return bc
}

// Close detiene la limpieza periódica
func (bc *BalanceCache) Close() {
	bc.closeOnce.Do(func() { close(bc.done) })
}

// GetStats retorna estadísticas del caché
func (bc *BalanceCache) GetStats() CacheStats {
	bc.statsMutex.RLock()
	defer bc.statsMutex.RUnlock()

	bc.l1Mutex.RLock()
	totalKeys := len(bc.l1Cache)
	bc.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          bc.hits,
		Misses:        bc.misses,
		TotalRequests: bc.hits + bc.misses,
		TotalKeys:     totalKeys,
		L2Enabled:     bc.redisClient != nil,
	}
}

// Get busca un balance con caché multi-nivel
func (bc *BalanceCache) Get(ctx context.Context, key string) (*Entry, bool) {
	start := time.Now()

	// 1. L1 Cache (Memoria local)
	if entry := bc.getFromL1(key); entry != nil {
		bc.recordHit()
		bc.logger.Debug("L1 cache hit", zap.String("key", key), zap.Duration("latency", time.Since(start)))
		return entry, true
	}

	// 2. L2 Cache (Redis)
	if entry, err := bc.getFromL2(ctx, key); err == nil && entry != nil {
		bc.setToL1(key, entry)
		bc.recordHit()
		bc.logger.Debug("L2 cache hit", zap.String("key", key), zap.Duration("latency", time.Since(start)))
		return entry, true
	}

	bc.recordMiss()
	bc.logger.Debug("Cache miss", zap.String("key", key), zap.Duration("latency", time.Since(start)))
	return nil, false
}

// Set almacena un balance en ambos niveles
func (bc *BalanceCache) Set(ctx context.Context, key string, entry *Entry) error {
	bc.setToL1(key, entry)
	return bc.setToL2(ctx, key, entry)
}

// Generation identifica el estado de invalidación actual; se lee antes de calcular un balance
func (bc *BalanceCache) Generation() uint64 {
	bc.l1Mutex.RLock()
	defer bc.l1Mutex.RUnlock()
	return bc.generation
}

// SetIfCurrent almacena el balance solo si no hubo invalidaciones desde gen.
// Retorna false cuando el valor calculado ya quedó obsoleto y se descartó.
func (bc *BalanceCache) SetIfCurrent(ctx context.Context, key string, entry *Entry, gen uint64) (bool, error) {
	bc.l1Mutex.Lock()
	if bc.generation != gen {
		bc.l1Mutex.Unlock()
		return false, nil
	}
	bc.storeL1Locked(key, entry)
	bc.l1Mutex.Unlock()

	if err := bc.setToL2(ctx, key, entry); err != nil {
		return true, err
	}
	// Una invalidación durante la escritura en Redis puede haber llegado antes que el SET
	if bc.Generation() != gen && bc.redisClient != nil {
		return false, bc.redisClient.Del(ctx, key).Err()
	}
	return true, nil
}

// Invalidate invalida el balance de un producto y el balance completo
func (bc *BalanceCache) Invalidate(ctx context.Context, product models.ProductKey) error {
	keys := []string{ProductKey(product), AllKey}

	bc.l1Mutex.Lock()
	bc.generation++
	for _, k := range keys {
		delete(bc.l1Cache, k)
	}
	bc.l1Mutex.Unlock()

	if bc.redisClient == nil {
		return nil
	}
	return bc.redisClient.Del(ctx, keys...).Err()
}

// InvalidateAll vacía ambos niveles (importaciones y restauraciones)
func (bc *BalanceCache) InvalidateAll(ctx context.Context) error {
	bc.l1Mutex.Lock()
	bc.generation++
	bc.l1Cache = make(map[string]l1Item)
	bc.l1Mutex.Unlock()

	if bc.redisClient == nil {
		return nil
	}
	iter := bc.redisClient.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return bc.redisClient.Del(ctx, keys...).Err()
}

// recordHit registra un hit en el caché
func (bc *BalanceCache) recordHit() {
	bc.statsMutex.Lock()
	bc.hits++
	bc.statsMutex.Unlock()
}

// recordMiss registra un miss en el caché
func (bc *BalanceCache) recordMiss() {
	bc.statsMutex.Lock()
	bc.misses++
	bc.statsMutex.Unlock()
}

// getFromL1 obtiene un balance del L1 cache, descartando los vencidos
func (bc *BalanceCache) getFromL1(key string) *Entry {
	bc.l1Mutex.RLock()
	defer bc.l1Mutex.RUnlock()

	item, ok := bc.l1Cache[key]
	if !ok || (bc.ttl > 0 && bc.now().After(item.expiresAt)) {
		return nil
	}
	return item.entry
}

// setToL1 almacena un balance en el L1 cache
func (bc *BalanceCache) setToL1(key string, entry *Entry) {
	bc.l1Mutex.Lock()
	defer bc.l1Mutex.Unlock()
	bc.storeL1Locked(key, entry)
}

func (bc *BalanceCache) storeL1Locked(key string, entry *Entry) {
	if _, exists := bc.l1Cache[key]; !exists && len(bc.l1Cache) >= bc.maxL1Size {
		bc.evictOldest()
	}

	bc.l1Cache[key] = l1Item{entry: entry, expiresAt: bc.now().Add(bc.ttl)}
}

// evictOldest elimina el elemento más próximo a vencer
func (bc *BalanceCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, item := range bc.l1Cache {
		if oldestKey == "" || item.expiresAt.Before(oldest) {
			oldestKey, oldest = key, item.expiresAt
		}
	}
	delete(bc.l1Cache, oldestKey)
}

// getFromL2 obtiene un balance de Redis
func (bc *BalanceCache) getFromL2(ctx context.Context, key string) (*Entry, error) {
	if bc.redisClient == nil {
		return nil, nil
	}
	data, err := bc.redisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// setToL2 almacena un balance en Redis
func (bc *BalanceCache) setToL2(ctx context.Context, key string, entry *Entry) error {
	if bc.redisClient == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return bc.redisClient.Set(ctx, key, data, bc.ttl).Err()
}

// cleanupL1Cache elimina periódicamente las entradas vencidas del L1
func (bc *BalanceCache) cleanupL1Cache(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-bc.done:
			return
		case <-ticker.C:
			bc.purgeExpired()
		}
	}
}

func (bc *BalanceCache) purgeExpired() {
	if bc.ttl <= 0 {
		return
	}
	bc.l1Mutex.Lock()
	defer bc.l1Mutex.Unlock()

	now := bc.now()
	removed := 0
	for key, item := range bc.l1Cache {
		if now.After(item.expiresAt) {
			delete(bc.l1Cache, key)
			removed++
		}
	}
	bc.logger.Debug("L1 cache cleanup", zap.Int("items", len(bc.l1Cache)), zap.Int("removed", removed))
}

// Stats retorna estadísticas del caché para el endpoint de monitoreo
func (bc *BalanceCache) Stats() map[string]interface{} {
	stats := bc.GetStats()
	hitRate := 0.0
	if stats.TotalRequests > 0 {
		hitRate = float64(stats.Hits) / float64(stats.TotalRequests)
	}
	return map[string]interface{}{
		"hits":           stats.Hits,
		"misses":         stats.Misses,
		"total_requests": stats.TotalRequests,
		"total_keys":     stats.TotalKeys,
		"hit_rate":       hitRate,
		"l2_enabled":     stats.L2Enabled,
	}
}
