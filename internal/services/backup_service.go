package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// ErrArchiveNotConfigured no hay bucket de respaldos configurado
var ErrArchiveNotConfigured = errors.New("backup archive not configured")

// Archiver destino externo de respaldos (S3 o compatible)
type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// BackupService exporta y restaura el contenido completo del store
type BackupService interface {
	Export(ctx context.Context) (*models.BackupDocument, error)
	// Import valida la versión y restaura todo o nada
	Import(ctx context.Context, r io.Reader) (*models.BackupDocument, error)
	// Archive exporta y sube el documento; retorna la clave del objeto
	Archive(ctx context.Context) (string, error)
}

type backupService struct {
	store    repository.Store
	cache    *cache.BalanceCache
	archiver Archiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewBackupService crea el servicio; archiver y cache pueden ser nil
func NewBackupService(store repository.Store, balanceCache *cache.BalanceCache, archiver Archiver, logger *zap.Logger) BackupService {
	return &backupService{
		store:    store,
		cache:    balanceCache,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *backupService) Export(ctx context.Context) (*models.BackupDocument, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		backupOperationsTotal.WithLabelValues("export", resultFailure).Inc()
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}
	backupOperationsTotal.WithLabelValues("export", resultSuccess).Inc()

	return &models.BackupDocument{
		Version:     models.BackupVersion,
		ExportDate:  s.now().UTC(),
		Products:    snap.Products,
		Purchases:   snap.Purchases,
		Sales:       snap.Sales,
		Consumption: snap.Consumption,
		Clients:     snap.Clients,
	}, nil
}

func (s *backupService) Import(ctx context.Context, r io.Reader) (*models.BackupDocument, error) {
	logger := s.logger.With(zap.String("operation", "backup_import"))

	var doc models.BackupDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		backupOperationsTotal.WithLabelValues("import", resultFailure).Inc()
		return nil, &models.FormatError{Source: "backup", Err: err}
	}
	if doc.Version != models.BackupVersion {
		backupOperationsTotal.WithLabelValues("import", resultFailure).Inc()
		return nil, models.NewValidationError("version", fmt.Sprintf("unsupported backup version %d", doc.Version))
	}

	snap := &models.Snapshot{
		Products:    doc.Products,
		Purchases:   doc.Purchases,
		Sales:       doc.Sales,
		Consumption: doc.Consumption,
		Clients:     doc.Clients,
	}
	if err := s.store.Restore(ctx, snap); err != nil {
		backupOperationsTotal.WithLabelValues("import", resultFailure).Inc()
		logger.Error("❌ Error restaurando respaldo", zap.Error(err))
		return nil, fmt.Errorf("failed to restore backup: %w", err)
	}
	backupOperationsTotal.WithLabelValues("import", resultSuccess).Inc()

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			logger.Warn("⚠️ No se pudo limpiar caché de balance", zap.Error(err))
		}
	}

	logger.Info("✅ Respaldo restaurado",
		zap.Time("export_date", doc.ExportDate),
		zap.Int("products", len(doc.Products)),
		zap.Int("purchases", len(doc.Purchases)),
		zap.Int("sales", len(doc.Sales)),
		zap.Int("consumption", len(doc.Consumption)),
		zap.Int("clients", len(doc.Clients)))
	return &doc, nil
}

func (s *backupService) Archive(ctx context.Context) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveNotConfigured
	}

	doc, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	key := fmt.Sprintf("backups/inventory_%s.json", doc.ExportDate.Format("20060102_150405"))
	if err := s.archiver.Put(ctx, key, body, "application/json"); err != nil {
		backupOperationsTotal.WithLabelValues("archive", resultFailure).Inc()
		s.logger.Error("❌ Error subiendo respaldo", zap.String("key", key), zap.Error(err))
		return "", err
	}
	backupOperationsTotal.WithLabelValues("archive", resultSuccess).Inc()

	s.logger.Info("✅ Respaldo archivado", zap.String("key", key), zap.Int("bytes", len(body)))
	return key, nil
}
