package cache

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceCacheL1Only(t *testing.T) {
	bc := NewBalanceCache(nil, 4, time.Minute, nil)
	defer bc.Close()
	ctx := context.Background()
	product := models.ProductKey{Name: "Hair Color", HSNCode: "3305", Units: "tube"}

	_, ok := bc.Get(ctx, AllKey)
	assert.False(t, ok)

	entry := &Entry{Entries: []*models.BalanceStockEntry{{ProductKey: product, ClosingStock: 3}}}
	require.NoError(t, bc.Set(ctx, AllKey, entry))
	require.NoError(t, bc.Set(ctx, ProductKey(product), entry))

	got, ok := bc.Get(ctx, AllKey)
	require.True(t, ok)
	assert.Equal(t, 3, got.Entries[0].ClosingStock)

	require.NoError(t, bc.Invalidate(ctx, models.ProductKey{Name: "hair color", HSNCode: "3305", Units: "TUBE"}))
	_, ok = bc.Get(ctx, AllKey)
	assert.False(t, ok)
	_, ok = bc.Get(ctx, ProductKey(product))
	assert.False(t, ok)

	stats := bc.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
}

func TestBalanceCacheExpiry(t *testing.T) {
	bc := NewBalanceCache(nil, 4, time.Minute, nil)
	defer bc.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	bc.now = func() time.Time { return now }

	require.NoError(t, bc.Set(ctx, AllKey, &Entry{}))
	_, ok := bc.Get(ctx, AllKey)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = bc.Get(ctx, AllKey)
	assert.False(t, ok)

	bc.purgeExpired()
	assert.Equal(t, 0, bc.GetStats().TotalKeys)
}

func TestBalanceCacheEvictsWhenFull(t *testing.T) {
	bc := NewBalanceCache(nil, 2, time.Minute, nil)
	defer bc.Close()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, bc.Set(ctx, ProductKey(models.ProductKey{Name: name}), &Entry{}))
	}
	assert.Equal(t, 2, bc.GetStats().TotalKeys)

	require.NoError(t, bc.InvalidateAll(ctx))
	assert.Equal(t, 0, bc.GetStats().TotalKeys)
	assert.Equal(t, false, bc.Stats()["l2_enabled"])
}

func TestBalanceCacheSetIfCurrentDropsStaleResult(t *testing.T) {
	bc := NewBalanceCache(nil, 4, 0, nil)
	defer bc.Close()
	ctx := context.Background()
	product := models.ProductKey{Name: "Hair Color", HSNCode: "3305", Units: "tube"}

	gen := bc.Generation()
	require.NoError(t, bc.Invalidate(ctx, product))

	stored, err := bc.SetIfCurrent(ctx, AllKey, &Entry{}, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok := bc.Get(ctx, AllKey)
	assert.False(t, ok)

	gen = bc.Generation()
	stored, err = bc.SetIfCurrent(ctx, AllKey, &Entry{}, gen)
	require.NoError(t, err)
	assert.True(t, stored)
	_, ok = bc.Get(ctx, AllKey)
	assert.True(t, ok)

	require.NoError(t, bc.InvalidateAll(ctx))
	assert.NotEqual(t, gen, bc.Generation())
}
