package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/config"
	"inventory-service/internal/costing"
	"inventory-service/internal/database"
	"inventory-service/internal/handlers"
	"inventory-service/internal/importer"
	"inventory-service/internal/middleware"
	"inventory-service/internal/pos"
	"inventory-service/internal/repository"
	"inventory-service/internal/routes"
	"inventory-service/internal/services"
	"inventory-service/internal/tax"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging.Level, cfg.Server.GinMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ Servidor detenido con error", zap.Error(err))
	}
}

func newLogger(level, ginMode string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	if ginMode == gin.DebugMode {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = atomicLevel
	return zapCfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Políticas de impuesto y costeo
	splitPolicy, err := tax.ParseSplitPolicy(cfg.Ledger.TaxSplitPolicy)
	if err != nil {
		return err
	}
	threshold, err := decimal.NewFromString(cfg.Ledger.IGSTThreshold)
	if err != nil {
		return fmt.Errorf("invalid TAX_IGST_THRESHOLD %q: %w", cfg.Ledger.IGSTThreshold, err)
	}
	costingPolicy, err := costing.ParsePolicy(cfg.Ledger.CostingPolicy)
	if err != nil {
		return err
	}
	calc := tax.NewCalculator(splitPolicy, threshold)

	// Storage
	var postgresDB *database.PostgresDB
	var store repository.Store
	switch cfg.Storage.Driver {
	case repository.DriverPostgres:
		postgresDB, err = database.NewPostgresDB(sigCtx, cfg.Database.URL,
			cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, logger)
		if err != nil {
			return err
		}
		defer postgresDB.Close()
		store, err = repository.NewPostgresStore(sigCtx, postgresDB.DB, logger)
	default:
		store, err = repository.NewMemoryStore(cfg.Storage.LocalStorePath, logger)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	// Redis opcional como L2 del caché de balance
	var redisDB *database.RedisDB
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisDB, err = database.NewRedisDB(sigCtx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("⚠️ Redis no disponible, caché solo en memoria", zap.Error(err))
			redisDB = nil
		} else {
			redisClient = redisDB.Client
			defer redisDB.Close()
		}
	}
	balanceCache := cache.NewBalanceCache(redisClient, cfg.Cache.L1Size, cfg.Cache.TTL, logger)
	defer balanceCache.Close()

	// Archivo remoto de respaldos
	var archiver services.Archiver
	s3Cfg := database.S3Config{
		Bucket:    cfg.Backup.S3Bucket,
		Endpoint:  cfg.Backup.S3Endpoint,
		Region:    cfg.Backup.S3Region,
		AccessKey: cfg.Backup.S3AccessKey,
		SecretKey: cfg.Backup.S3SecretKey,
	}
	if s3Cfg.Enabled() {
		archive, err := database.NewS3Archive(sigCtx, s3Cfg, logger)
		if err != nil {
			logger.Warn("⚠️ Archivo S3 no disponible", zap.Error(err))
		} else {
			archiver = archive
		}
	}

	posClient := pos.NewClient(cfg.POS.BaseURL, cfg.POS.APIKey, cfg.POS.Timeout, logger)
	parser := importer.NewParser(calc, costingPolicy, logger)

	// Services
	purchaseService := services.NewPurchaseService(store, calc, balanceCache, logger)
	reconcileService := services.NewReconcileService(store, calc, costingPolicy, balanceCache, logger)
	balanceService := services.NewBalanceService(store, balanceCache, logger)
	importService := services.NewImportService(store, parser, balanceCache, logger)
	clientService := services.NewClientSyncService(store, posClient, cfg.POS.RetryConcurrency, logger)
	backupService := services.NewBackupService(store, balanceCache, archiver, logger)

	var sqlPool *sql.DB
	if postgresDB != nil {
		sqlPool = postgresDB.DB
	}
	monitoringService := services.NewMonitoringService(logger, cfg.Server.GinMode, store, redisClient, sqlPool, balanceCache)

	// Handlers
	h := routes.Handlers{
		Stock:      handlers.NewStockHandler(purchaseService, reconcileService, balanceService, logger),
		POS:        handlers.NewPOSHandler(clientService, logger),
		Import:     handlers.NewImportHandler(importService, logger),
		Backup:     handlers.NewBackupHandler(backupService, logger),
		Monitoring: handlers.NewMonitoringHandler(monitoringService, logger),
		Health:     middleware.NewHealthChecker(store, postgresDB, redisDB, balanceCache, logger),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.PrometheusMiddleware())
	router.Use(h.Monitoring.RecordRequestMiddleware())
	router.Use(cors.New(corsConfig(cfg.Server.CORSAllowedOrigins)))

	routes.SetupRoutes(router, h)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	middleware.ServerInfo(middleware.BannerInfo{
		Port:           cfg.Server.Port,
		StorageDriver:  store.Driver(),
		CostingPolicy:  string(costingPolicy),
		TaxSplitPolicy: string(calc.Policy()),
		RedisEnabled:   redisClient != nil,
		POSConfigured:  cfg.POS.BaseURL != "",
		ArchiveBucket:  cfg.Backup.S3Bucket,
	}, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		logger.Info("🛑 Señal recibida, apagando servidor")
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Error cerrando servidor HTTP", zap.Error(err))
	}

	if cfg.Backup.ArchiveOnShutdown && archiver != nil {
		if key, err := backupService.Archive(shutdownCtx); err != nil {
			logger.Error("❌ Error archivando respaldo al apagar", zap.Error(err))
		} else {
			logger.Info("✅ Respaldo archivado al apagar", zap.String("key", key))
		}
	}

	logger.Info("✅ Servidor detenido")
	return nil
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsCfg.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Request-ID")
	corsCfg.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Request-ID")
	return corsCfg
}
