package services

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/cache"
	"inventory-service/internal/costing"
	"inventory-service/internal/importer"
	"inventory-service/internal/ledger"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/tax"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileService reconcilia ventas y consumos contra el ledger de compras.
// Cada batch se procesa en secuencia y siempre retorna sus estadísticas.
type ReconcileService interface {
	ReconcileSales(ctx context.Context, events []models.SaleEvent) (*models.ProcessingStats, error)
	ReconcileConsumption(ctx context.Context, events []models.ConsumptionEvent) (*models.ProcessingStats, error)
	ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error)
	ListConsumption(ctx context.Context, filter *models.ProductFilter) ([]*models.ConsumptionRecord, error)
}

type reconcileService struct {
	store  repository.Store
	calc   *tax.Calculator
	policy costing.Policy
	cache  *cache.BalanceCache
	logger *zap.Logger
	now    func() time.Time
}

// NewReconcileService crea el servicio de reconciliación
func NewReconcileService(store repository.Store, calc *tax.Calculator, policy costing.Policy, balanceCache *cache.BalanceCache, logger *zap.Logger) ReconcileService {
	if calc == nil {
		calc = tax.Default()
	}
	if policy == "" {
		policy = costing.FIFO
	}
	return &reconcileService{
		store:  store,
		calc:   calc,
		policy: policy,
		cache:  balanceCache,
		logger: logger,
		now:    time.Now,
	}
}

// ReconcileSales agrega cada venta con su snapshot de costo.
// Con el contexto cancelado retorna las estadísticas parciales junto al error del contexto.
func (s *reconcileService) ReconcileSales(ctx context.Context, events []models.SaleEvent) (*models.ProcessingStats, error) {
	logger := s.logger.With(zap.String("operation", "reconcile_sales"), zap.Int("total", len(events)))
	logger.Info("🔍 [DEBUG] Iniciando reconciliación de ventas", zap.String("costing_policy", string(s.policy)))

	stats := models.NewProcessingStats(len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			logger.Warn("⚠️ Reconciliación cancelada", zap.Int("processed", stats.Processed))
			return stats, err
		}

		err := s.reconcileSale(ctx, &events[i])
		recordLedger("sales", err)
		if err != nil {
			logger.Warn("❌ Venta omitida", zap.Int("record", i+1), zap.Error(err))
			stats.RecordFailure(i+1, err)
			continue
		}
		stats.RecordSuccess()
	}

	logger.Info("✅ Reconciliación de ventas completada",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *reconcileService) reconcileSale(ctx context.Context, ev *models.SaleEvent) error {
	if err := ValidateStruct(ev); err != nil {
		return err
	}
	date, err := importer.ParseDate(ev.Date)
	if err != nil {
		return models.NewValidationError("date", err.Error())
	}

	in := tax.Input{
		MRPInclGST:      ev.MRPInclGST,
		GSTPercent:      ev.GSTPercent,
		DiscountPercent: ev.DiscountPercent,
		Qty:             ev.Quantity,
		Interstate:      ev.Interstate,
	}
	breakdown, err := s.calc.Compute(in)
	if err != nil {
		return err
	}

	key, err := s.resolveProduct(ctx, ev.ProductName, ev.HSNCode, ev.Units)
	if err != nil {
		return err
	}
	cost, err := s.resolveCost(ctx, key, ev.Quantity, date)
	if err != nil {
		return err
	}

	record := &models.SaleRecord{
		ID:           uuid.NewString(),
		ProductKey:   key,
		Date:         date,
		InvoiceNo:    ev.InvoiceNo,
		Qty:          ev.Quantity,
		TaxFields:    breakdown.Fields(in),
		CostSnapshot: cost,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateSale(ctx, record); err != nil {
		return fmt.Errorf("failed to store sale: %w", err)
	}

	invalidateBalance(ctx, s.cache, key, s.logger)
	return nil
}

// ReconcileConsumption agrega cada consumo interno con su snapshot de costo
func (s *reconcileService) ReconcileConsumption(ctx context.Context, events []models.ConsumptionEvent) (*models.ProcessingStats, error) {
	logger := s.logger.With(zap.String("operation", "reconcile_consumption"), zap.Int("total", len(events)))
	logger.Info("🔍 [DEBUG] Iniciando reconciliación de consumos", zap.String("costing_policy", string(s.policy)))

	stats := models.NewProcessingStats(len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			logger.Warn("⚠️ Reconciliación cancelada", zap.Int("processed", stats.Processed))
			return stats, err
		}

		err := s.reconcileConsumption(ctx, &events[i])
		recordLedger("consumption", err)
		if err != nil {
			logger.Warn("❌ Consumo omitido", zap.Int("record", i+1), zap.Error(err))
			stats.RecordFailure(i+1, err)
			continue
		}
		stats.RecordSuccess()
	}

	logger.Info("✅ Reconciliación de consumos completada",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *reconcileService) reconcileConsumption(ctx context.Context, ev *models.ConsumptionEvent) error {
	if err := ValidateStruct(ev); err != nil {
		return err
	}
	date, err := importer.ParseDate(ev.Date)
	if err != nil {
		return models.NewValidationError("date", err.Error())
	}

	key, err := s.resolveProduct(ctx, ev.ProductName, ev.HSNCode, ev.Units)
	if err != nil {
		return err
	}
	cost, err := s.resolveCost(ctx, key, ev.Quantity, date)
	if err != nil {
		return err
	}

	record := &models.ConsumptionRecord{
		ID:           uuid.NewString(),
		ProductKey:   key,
		Date:         date,
		InvoiceNo:    ev.InvoiceNo,
		Qty:          ev.Quantity,
		CostSnapshot: cost,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateConsumption(ctx, record); err != nil {
		return fmt.Errorf("failed to store consumption: %w", err)
	}

	invalidateBalance(ctx, s.cache, key, s.logger)
	return nil
}

// resolveProduct busca el producto; sin HSN ni unidad se resuelve por nombre
func (s *reconcileService) resolveProduct(ctx context.Context, name, hsn, units string) (models.ProductKey, error) {
	key := models.ProductKey{Name: name, HSNCode: hsn, Units: units}.Normalize()

	if key.HSNCode == "" && key.Units == "" {
		existing, err := s.store.FindProductByName(ctx, key.Name)
		if err != nil {
			return models.ProductKey{}, fmt.Errorf("failed to resolve product: %w", err)
		}
		if existing != nil {
			return existing.ProductKey, nil
		}
	}

	product, err := s.store.UpsertProduct(ctx, &models.Product{ProductKey: key})
	if err != nil {
		return models.ProductKey{}, fmt.Errorf("failed to resolve product: %w", err)
	}
	return product.ProductKey, nil
}

// resolveCost calcula el snapshot de costo según la política configurada
func (s *reconcileService) resolveCost(ctx context.Context, key models.ProductKey, qty int, at time.Time) (models.CostSnapshot, error) {
	filter := &models.ProductFilter{ProductName: &key.Name}

	purchases, err := s.store.ListPurchases(ctx, filter)
	if err != nil {
		return models.CostSnapshot{}, fmt.Errorf("failed to load purchases: %w", err)
	}
	sales, err := s.store.ListSales(ctx, filter)
	if err != nil {
		return models.CostSnapshot{}, fmt.Errorf("failed to load sales: %w", err)
	}
	consumption, err := s.store.ListConsumption(ctx, filter)
	if err != nil {
		return models.CostSnapshot{}, fmt.Errorf("failed to load consumption: %w", err)
	}

	res := costing.Resolve(s.policy, costing.Request{
		Purchases: ledger.PurchasesOf(key, purchases),
		IssuedQty: ledger.IssuedQty(key, sales, consumption),
		Qty:       qty,
		At:        at,
	})
	if !res.Found {
		s.logger.Warn("⚠️ Producto sin compras, costo cero", zap.String("product", key.Name))
	} else if res.Shortfall > 0 {
		s.logger.Warn("⚠️ Stock insuficiente, unidades costeadas al último lote",
			zap.String("product", key.Name),
			zap.Int("shortfall", res.Shortfall))
	}
	return res.Snapshot(s.policy), nil
}

// ListSales lista ventas con filtros
func (s *reconcileService) ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error) {
	return s.store.ListSales(ctx, filter)
}

// ListConsumption lista consumos con filtros
func (s *reconcileService) ListConsumption(ctx context.Context, filter *models.ProductFilter) ([]*models.ConsumptionRecord, error) {
	return s.store.ListConsumption(ctx, filter)
}
