package services

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/importer"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/tax"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService ledger de compras
type PurchaseService interface {
	Record(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseRecord, error)
	RecordBatch(ctx context.Context, reqs []models.PurchaseRequest) (*models.ProcessingStats, error)
	List(ctx context.Context, filter *models.ProductFilter) ([]*models.PurchaseRecord, error)
}

type purchaseService struct {
	store  repository.Store
	calc   *tax.Calculator
	cache  *cache.BalanceCache
	logger *zap.Logger
	now    func() time.Time
}

// NewPurchaseService crea el servicio; cache puede ser nil
func NewPurchaseService(store repository.Store, calc *tax.Calculator, balanceCache *cache.BalanceCache, logger *zap.Logger) PurchaseService {
	if calc == nil {
		calc = tax.Default()
	}
	return &purchaseService{
		store:  store,
		calc:   calc,
		cache:  balanceCache,
		logger: logger,
		now:    time.Now,
	}
}

// Record valida, calcula impuestos y agrega una compra al ledger
func (s *purchaseService) Record(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseRecord, error) {
	logger := s.logger.With(
		zap.String("operation", "record_purchase"),
		zap.String("product_name", req.ProductName),
		zap.String("invoice_no", req.InvoiceNo),
		zap.Int("qty", req.Qty),
	)

	record, err := s.build(ctx, req)
	if err != nil {
		logger.Warn("❌ Compra rechazada", zap.Error(err))
		recordLedger("purchases", err)
		return nil, err
	}

	if err := s.store.CreatePurchase(ctx, record); err != nil {
		logger.Error("❌ Error guardando compra", zap.Error(err))
		recordLedger("purchases", err)
		return nil, fmt.Errorf("failed to store purchase: %w", err)
	}
	recordLedger("purchases", nil)

	invalidateBalance(ctx, s.cache, record.ProductKey, logger)

	logger.Info("✅ Compra registrada",
		zap.String("id", record.ID),
		zap.String("taxable_value", record.TaxableValue.StringFixed(2)),
		zap.String("invoice_value", record.InvoiceValue.StringFixed(2)))
	return record, nil
}

func (s *purchaseService) build(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseRecord, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	date, err := importer.ParseDate(req.Date)
	if err != nil {
		return nil, models.NewValidationError("date", err.Error())
	}

	in := tax.Input{
		MRPInclGST:      req.MRPInclGST,
		GSTPercent:      req.GSTPercent,
		DiscountPercent: req.DiscountPercent,
		Qty:             req.Qty,
		Interstate:      req.Interstate,
	}
	breakdown, err := s.calc.Compute(in)
	if err != nil {
		return nil, err
	}

	product, err := s.store.UpsertProduct(ctx, &models.Product{
		ProductKey: models.ProductKey{Name: req.ProductName, HSNCode: req.HSNCode, Units: req.Units},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	return &models.PurchaseRecord{
		ID:         uuid.NewString(),
		ProductKey: product.ProductKey,
		Date:       date,
		InvoiceNo:  req.InvoiceNo,
		Qty:        req.Qty,
		TaxFields:  breakdown.Fields(in),
		CreatedAt:  s.now().UTC(),
	}, nil
}

// RecordBatch registra compras en secuencia; un registro inválido no detiene el batch
func (s *purchaseService) RecordBatch(ctx context.Context, reqs []models.PurchaseRequest) (*models.ProcessingStats, error) {
	logger := s.logger.With(zap.String("operation", "record_purchase_batch"), zap.Int("total", len(reqs)))
	logger.Info("🔍 [DEBUG] Iniciando batch de compras")

	stats := models.NewProcessingStats(len(reqs))
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			logger.Warn("⚠️ Batch cancelado", zap.Int("processed", stats.Processed))
			return stats, err
		}
		if _, err := s.Record(ctx, &reqs[i]); err != nil {
			stats.RecordFailure(i+1, err)
			continue
		}
		stats.RecordSuccess()
	}

	logger.Info("✅ Batch de compras completado",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// List lista compras con filtros
func (s *purchaseService) List(ctx context.Context, filter *models.ProductFilter) ([]*models.PurchaseRecord, error) {
	return s.store.ListPurchases(ctx, filter)
}

// invalidateBalance invalida el balance del producto; un error de caché solo se registra
func invalidateBalance(ctx context.Context, bc *cache.BalanceCache, key models.ProductKey, logger *zap.Logger) {
	if bc == nil {
		return
	}
	if err := bc.Invalidate(ctx, key); err != nil {
		logger.Warn("⚠️ No se pudo invalidar caché de balance", zap.String("product", key.Name), zap.Error(err))
	}
}
