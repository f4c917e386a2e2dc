package services

import (
	"context"
	"fmt"
	"io"

	"inventory-service/internal/cache"
	"inventory-service/internal/importer"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// ImportService importa planillas históricas al store
type ImportService interface {
	// Import parsea la planilla; con dryRun solo retorna la vista previa
	Import(ctx context.Context, r io.Reader, dryRun bool) (*importer.Result, error)
}

type importService struct {
	store  repository.Store
	parser *importer.Parser
	cache  *cache.BalanceCache
	logger *zap.Logger
}

func NewImportService(store repository.Store, parser *importer.Parser, balanceCache *cache.BalanceCache, logger *zap.Logger) ImportService {
	return &importService{store: store, parser: parser, cache: balanceCache, logger: logger}
}

func (s *importService) Import(ctx context.Context, r io.Reader, dryRun bool) (*importer.Result, error) {
	logger := s.logger.With(zap.String("operation", "import_spreadsheet"), zap.Bool("dry_run", dryRun))

	result, err := s.parser.Parse(r)
	if err != nil {
		logger.Warn("❌ Planilla rechazada", zap.Error(err))
		return nil, err
	}
	importRowsTotal.WithLabelValues(resultSuccess).Add(float64(result.Stats.Imported))
	importRowsTotal.WithLabelValues(resultFailure).Add(float64(result.Stats.Skipped))

	if dryRun {
		logger.Info("🔍 [DEBUG] Vista previa de importación", zap.Int("rows", result.Stats.Rows))
		return result, nil
	}

	// Productos y ledgers en una sola escritura: una planilla se importa completa o no se importa
	batch := &models.Snapshot{
		Products:    result.Products,
		Purchases:   result.Purchases,
		Sales:       result.Sales,
		Consumption: result.Consumption,
	}
	if err := s.store.Append(ctx, batch); err != nil {
		logger.Error("❌ Error guardando importación", zap.Error(err))
		return nil, fmt.Errorf("failed to store import: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			logger.Warn("⚠️ No se pudo limpiar caché de balance", zap.Error(err))
		}
	}

	logger.Info("✅ Planilla importada",
		zap.Int("rows", result.Stats.Rows),
		zap.Int("imported", result.Stats.Imported),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("purchases", len(result.Purchases)),
		zap.Int("sales", len(result.Sales)),
		zap.Int("consumption", len(result.Consumption)))
	return result, nil
}
