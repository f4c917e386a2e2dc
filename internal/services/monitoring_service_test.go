package services

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonitoringRecordsRequests(t *testing.T) {
	svc := NewMonitoringService(zap.NewNop(), "test", newTestStore(t), nil, nil, nil)
	now := time.Now()

	svc.RecordRequest(models.RequestData{Endpoint: "/api/v1/purchases", Method: "POST", Duration: 20 * time.Millisecond, StatusCode: 201, Timestamp: now})
	svc.RecordRequest(models.RequestData{Endpoint: "/api/v1/purchases", Method: "POST", Duration: 40 * time.Millisecond, StatusCode: 400, Timestamp: now})
	svc.RecordRequest(models.RequestData{Endpoint: "/api/v1/import", Method: "POST", Duration: 2 * time.Second, StatusCode: 200, Timestamp: now})

	metrics := svc.GetMetrics(context.Background())
	assert.Equal(t, 3, metrics.Requests.TotalRequests)
	assert.Equal(t, 2, metrics.Requests.Endpoints)
	assert.Equal(t, 1, metrics.Requests.ErrorsCount)
	assert.Equal(t, 1, metrics.Requests.SlowRequestsCount)
	require.NotEmpty(t, metrics.Requests.TopEndpoints)
	assert.Equal(t, "POST /api/v1/purchases", metrics.Requests.TopEndpoints[0].Endpoint)

	purchases := metrics.Requests.ByEndpoint["POST /api/v1/purchases"]
	assert.Equal(t, 2, purchases.Count)
	assert.InDelta(t, 30.0, purchases.AvgTime, 0.001)
	assert.Equal(t, int64(2000), metrics.Performance.MaxResponseTime)

	assert.Equal(t, "disabled", metrics.Cache.Status)
	assert.Equal(t, "disabled", metrics.Redis.Status)
	assert.Equal(t, "test", metrics.System.Environment)
}

func TestMonitoringStorageAndClients(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	purchases := NewPurchaseService(store, nil, nil, zap.NewNop())
	req := purchaseReq("Argan Oil", "2024-01-05", "INV-1", 4, "118")
	_, err := purchases.Record(ctx, &req)
	require.NoError(t, err)

	syncer := &fakeSyncer{}
	clients := NewClientSyncService(store, syncer, 2, zap.NewNop())
	_, err = clients.Upsert(ctx, &models.ClientRequest{Name: "Asha"})
	require.NoError(t, err)
	syncer.setFail(true)
	_, err = clients.Upsert(ctx, &models.ClientRequest{Name: "Meera"})
	require.NoError(t, err)

	bc := cache.NewBalanceCache(nil, 10, 0, nil)
	defer bc.Close()

	svc := NewMonitoringService(zap.NewNop(), "test", store, nil, nil, bc)

	storage := svc.GetStorageStats(ctx)
	assert.Equal(t, "memory", storage.Driver)
	assert.Equal(t, "online", storage.Status)
	assert.Equal(t, 1, storage.Products)
	assert.Equal(t, 1, storage.Purchases)

	clientStats := svc.GetClientStats(ctx)
	assert.Equal(t, models.ClientSyncMetrics{Total: 2, Synced: 1, SyncFailed: 1}, clientStats)

	cacheStats := svc.GetCacheStats()
	assert.Equal(t, "online", cacheStats.Status)
	assert.False(t, cacheStats.L2Enabled)
}
