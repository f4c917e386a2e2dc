package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CORS_ALLOWED_ORIGINS", "STORAGE_DRIVER", "COSTING_POLICY", "TAX_SPLIT_POLICY",
		"TAX_IGST_THRESHOLD", "SYNC_RETRY_CONCURRENCY", "POS_TIMEOUT_SECONDS", "BALANCE_CACHE_TTL_SECONDS", "REDIS_URL",
		"BACKUP_ARCHIVE_ON_SHUTDOWN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "fifo", cfg.Ledger.CostingPolicy)
	assert.Equal(t, "explicit", cfg.Ledger.TaxSplitPolicy)
	assert.Equal(t, "28", cfg.Ledger.IGSTThreshold)
	assert.Equal(t, 4, cfg.POS.RetryConcurrency)
	assert.Equal(t, 10*time.Second, cfg.POS.Timeout)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.Backup.ArchiveOnShutdown)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://salon.example, ,https://admin.example")
	t.Setenv("POS_TIMEOUT_SECONDS", "3")
	t.Setenv("SHUTDOWN_TIMEOUT", "45s")
	t.Setenv("BACKUP_ARCHIVE_ON_SHUTDOWN", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, []string{"https://salon.example", "https://admin.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.POS.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Backup.ArchiveOnShutdown)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("retry concurrency", func(t *testing.T) {
		t.Setenv("SYNC_RETRY_CONCURRENCY", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnvAsDurationAcceptsSeconds(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "12")
	assert.Equal(t, 12*time.Second, getEnvAsDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_TIMEOUT", time.Second))
}
