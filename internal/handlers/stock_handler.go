package handlers

import (
	"fmt"
	"net/http"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockHandler maneja ledgers (compras, ventas, consumos) y el balance de stock
type StockHandler struct {
	purchaseService  services.PurchaseService
	reconcileService services.ReconcileService
	balanceService   services.BalanceService
	logger           *zap.Logger
}

// NewStockHandler crea una nueva instancia del handler
func NewStockHandler(
	purchaseService services.PurchaseService,
	reconcileService services.ReconcileService,
	balanceService services.BalanceService,
	logger *zap.Logger,
) *StockHandler {
	return &StockHandler{
		purchaseService:  purchaseService,
		reconcileService: reconcileService,
		balanceService:   balanceService,
		logger:           logger,
	}
}

// logDebug logs solo en modo debug
func (h *StockHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *StockHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// RecordPurchase registra una compra
func (h *StockHandler) RecordPurchase(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "record_purchase"))

	var req models.PurchaseRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	record, err := h.purchaseService.Record(c.Request.Context(), &req)
	if err != nil {
		respondError(c, logger, "Error registrando compra", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "✅ Compra registrada correctamente",
		"data":    record,
	})
}

// RecordPurchaseBatch registra varias compras; los registros inválidos se reportan en stats
func (h *StockHandler) RecordPurchaseBatch(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "record_purchase_batch"))

	var req models.PurchaseBatchRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	h.logDebug("Batch de compras recibido", zap.Int("cantidad", len(req.Purchases)))

	stats, err := h.purchaseService.RecordBatch(c.Request.Context(), req.Purchases)
	if err != nil {
		respondError(c, logger, "Batch de compras interrumpido", err)
		return
	}

	h.logSuccess("Batch de compras completado",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"success": stats.Failed == 0,
		"message": fmt.Sprintf("✅ %d de %d compras registradas", stats.Succeeded, stats.Total),
		"data":    stats,
	})
}

// ListPurchases lista compras con filtros
func (h *StockHandler) ListPurchases(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_purchases"))

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, logger, "Filtros inválidos", err)
		return
	}

	records, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, "Error obteniendo compras", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Compras obtenidas correctamente",
		"data": gin.H{
			"purchases": records,
			"total":     len(records),
			"filtros":   filter,
		},
	})
}

// ReconcileSales reconcilia un batch de ventas del POS
func (h *StockHandler) ReconcileSales(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "reconcile_sales"))

	var req models.ReconcileSalesRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	stats, err := h.reconcileService.ReconcileSales(c.Request.Context(), req.Events)
	h.respondStats(c, logger, "ventas", stats, err, start)
}

// ReconcileConsumption reconcilia un batch de consumos internos
func (h *StockHandler) ReconcileConsumption(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "reconcile_consumption"))

	var req models.ReconcileConsumptionRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	stats, err := h.reconcileService.ReconcileConsumption(c.Request.Context(), req.Events)
	h.respondStats(c, logger, "consumos", stats, err, start)
}

func (h *StockHandler) respondStats(c *gin.Context, logger *zap.Logger, ledger string, stats *models.ProcessingStats, err error, start time.Time) {
	if err != nil {
		logger.Warn("⚠️ Reconciliación interrumpida", zap.String("ledger", ledger), zap.Error(err))
		c.JSON(statusFor(err), gin.H{
			"success": false,
			"message": "❌ Reconciliación de " + ledger + " interrumpida",
			"error":   err.Error(),
			"data":    stats,
		})
		return
	}

	for _, e := range stats.Errors {
		logger.Warn("⚠️ Registro omitido", zap.String("error", e))
	}
	h.logSuccess("Reconciliación completada",
		zap.String("ledger", ledger),
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"success": stats.Failed == 0,
		"message": fmt.Sprintf("✅ %d de %d %s reconciliados", stats.Succeeded, stats.Total, ledger),
		"data":    stats,
	})
}

// ListSales lista ventas con filtros
func (h *StockHandler) ListSales(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_sales"))

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, logger, "Filtros inválidos", err)
		return
	}

	records, err := h.reconcileService.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, "Error obteniendo ventas", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Ventas obtenidas correctamente",
		"data": gin.H{
			"sales":   records,
			"total":   len(records),
			"filtros": filter,
		},
	})
}

// ListConsumption lista consumos con filtros
func (h *StockHandler) ListConsumption(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "list_consumption"))

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, logger, "Filtros inválidos", err)
		return
	}

	records, err := h.reconcileService.ListConsumption(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, "Error obteniendo consumos", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Consumos obtenidos correctamente",
		"data": gin.H{
			"consumption": records,
			"total":       len(records),
			"filtros":     filter,
		},
	})
}

// GetBalanceStock obtiene el balance de todos los productos
func (h *StockHandler) GetBalanceStock(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_balance_stock"))

	report, err := h.balanceService.BalanceAll(c.Request.Context())
	if err != nil {
		respondError(c, logger, "Error calculando balance de stock", err)
		return
	}

	logger.Info("Balance calculado",
		zap.Int("productos", report.Summary.TotalProducts),
		zap.Int("advertencias", len(report.Warnings)))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Balance de stock obtenido correctamente",
		"data":    report,
	})
}

// GetBalanceByProduct obtiene el balance de un producto (?name=&hsn=&units=)
func (h *StockHandler) GetBalanceByProduct(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_balance_by_product"))

	key := models.ProductKey{Name: c.Query("name"), HSNCode: c.Query("hsn"), Units: c.Query("units")}
	entry, warnings, err := h.balanceService.BalanceFor(c.Request.Context(), key)
	if err != nil {
		respondError(c, logger, "Error calculando balance del producto", err)
		return
	}

	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "❌ Producto no encontrado",
			"error":   "El producto no aparece en ningún ledger",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Balance obtenido correctamente",
		"data": gin.H{
			"balance":  entry,
			"warnings": warnings,
		},
	})
}

// ExportBalanceStock descarga el balance como planilla xlsx
func (h *StockHandler) ExportBalanceStock(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "export_balance_stock"))

	filename := fmt.Sprintf("balance_stock_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.balanceService.ExportXLSX(c.Request.Context(), c.Writer); err != nil {
		c.Header("Content-Disposition", "")
		respondError(c, logger, "Error exportando balance", err)
		return
	}
	h.logSuccess("Balance exportado", zap.String("filename", filename))
}
