package services

import (
	"context"
	"fmt"
	"io"

	"inventory-service/internal/cache"
	"inventory-service/internal/ledger"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// BalanceReport balance completo con resumen y advertencias de agregación
type BalanceReport struct {
	Entries  []*models.BalanceStockEntry `json:"entries"`
	Summary  models.BalanceSummary       `json:"summary"`
	Warnings []string                    `json:"warnings"`
}

// BalanceService proyección de balance de stock, calculada bajo demanda y cacheada
type BalanceService interface {
	BalanceAll(ctx context.Context) (*BalanceReport, error)
	// BalanceFor retorna nil si el producto no aparece en ningún ledger
	BalanceFor(ctx context.Context, key models.ProductKey) (*models.BalanceStockEntry, []string, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type balanceService struct {
	store  repository.Store
	cache  *cache.BalanceCache
	logger *zap.Logger
}

// NewBalanceService crea el servicio; cache puede ser nil
func NewBalanceService(store repository.Store, balanceCache *cache.BalanceCache, logger *zap.Logger) BalanceService {
	return &balanceService{store: store, cache: balanceCache, logger: logger}
}

func (s *balanceService) load(ctx context.Context, filter *models.ProductFilter) (ledger.Ledgers, error) {
	var in ledger.Ledgers
	var err error

	if in.Products, err = s.store.ListProducts(ctx); err != nil {
		return in, fmt.Errorf("failed to load products: %w", err)
	}
	if in.Purchases, err = s.store.ListPurchases(ctx, filter); err != nil {
		return in, fmt.Errorf("failed to load purchases: %w", err)
	}
	if in.Sales, err = s.store.ListSales(ctx, filter); err != nil {
		return in, fmt.Errorf("failed to load sales: %w", err)
	}
	if in.Consumption, err = s.store.ListConsumption(ctx, filter); err != nil {
		return in, fmt.Errorf("failed to load consumption: %w", err)
	}
	return in, nil
}

func warningStrings(warnings []*models.AggregationError) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}

// BalanceAll calcula el balance de todos los productos
func (s *balanceService) BalanceAll(ctx context.Context) (*BalanceReport, error) {
	var gen uint64
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cache.AllKey); ok {
			return &BalanceReport{Entries: cached.Entries, Summary: models.Summarize(cached.Entries), Warnings: cached.Warnings}, nil
		}
		gen = s.cache.Generation()
	}

	in, err := s.load(ctx, nil)
	if err != nil {
		return nil, err
	}
	entries, warnings := ledger.ComputeBalances(in)
	report := &BalanceReport{
		Entries:  entries,
		Summary:  models.Summarize(entries),
		Warnings: warningStrings(warnings),
	}

	if len(warnings) > 0 {
		s.logger.Warn("⚠️ Inconsistencias en ledgers", zap.Int("warnings", len(warnings)))
	}

	if s.cache != nil {
		s.cacheResult(ctx, cache.AllKey, &cache.Entry{Entries: entries, Warnings: report.Warnings}, gen)
	}
	return report, nil
}

// BalanceFor calcula el balance de un producto. Sin HSN ni unidad se resuelve por nombre.
func (s *balanceService) BalanceFor(ctx context.Context, key models.ProductKey) (*models.BalanceStockEntry, []string, error) {
	key = key.Normalize()
	if key.IsZero() {
		return nil, nil, models.NewValidationError("name", "is required")
	}
	if key.HSNCode == "" && key.Units == "" {
		product, err := s.store.FindProductByName(ctx, key.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve product: %w", err)
		}
		if product != nil {
			key = product.ProductKey
		}
	}

	cacheKey := cache.ProductKey(key)
	var gen uint64
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok && len(cached.Entries) == 1 {
			return cached.Entries[0], cached.Warnings, nil
		}
		gen = s.cache.Generation()
	}

	in, err := s.load(ctx, &models.ProductFilter{ProductName: &key.Name})
	if err != nil {
		return nil, nil, err
	}
	entry, warnings := ledger.BalanceFor(in, key)
	if entry == nil {
		return nil, warningStrings(warnings), nil
	}

	ws := warningStrings(warnings)
	if s.cache != nil {
		s.cacheResult(ctx, cacheKey, &cache.Entry{Entries: []*models.BalanceStockEntry{entry}, Warnings: ws}, gen)
	}
	return entry, ws, nil
}

// cacheResult guarda el balance calculado salvo que una escritura lo haya invalidado mientras se calculaba
func (s *balanceService) cacheResult(ctx context.Context, key string, entry *cache.Entry, gen uint64) {
	stored, err := s.cache.SetIfCurrent(ctx, key, entry, gen)
	if err != nil {
		s.logger.Warn("⚠️ No se pudo cachear balance", zap.Error(err))
		return
	}
	if !stored {
		s.logger.Debug("🔍 [DEBUG] Balance descartado por escritura concurrente", zap.String("key", key))
	}
}

var balanceHeaders = []string{
	"Product Name", "HSN Code", "Units", "Opening Stock", "Purchased", "Sold", "Consumed",
	"Closing Stock", "Avg Cost", "Balance Value", "GST %", "CGST", "SGST", "IGST", "Total Value",
}

// ExportXLSX escribe el balance completo como planilla (Sheet1)
func (s *balanceService) ExportXLSX(ctx context.Context, w io.Writer) error {
	report, err := s.BalanceAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	for i, h := range balanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for r, e := range report.Entries {
		values := []interface{}{
			e.Name, e.HSNCode, e.Units, e.OpeningStock, e.PurchasedQty, e.SoldQty, e.ConsumedQty,
			e.ClosingStock, e.AvgCost.InexactFloat64(), e.BalanceValue.InexactFloat64(),
			e.GSTPercentage.InexactFloat64(), e.CGST.InexactFloat64(), e.SGST.InexactFloat64(),
			e.IGST.InexactFloat64(), e.TotalValue.InexactFloat64(),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	totalRow := len(report.Entries) + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOTAL")
	f.SetCellValue(sheet, fmt.Sprintf("O%d", totalRow), report.Summary.TotalValue.InexactFloat64())

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write balance sheet: %w", err)
	}
	return nil
}
