package routes

import (
	"net/http"

	"inventory-service/internal/handlers"
	"inventory-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers agrupa los handlers HTTP registrados en el router
type Handlers struct {
	Stock      *handlers.StockHandler
	POS        *handlers.POSHandler
	Import     *handlers.ImportHandler
	Backup     *handlers.BackupHandler
	Monitoring *handlers.MonitoringHandler
	Health     *middleware.HealthChecker
}

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, h Handlers) {
	v1 := router.Group("/api/v1")
	{
		// Libro de compras
		purchases := v1.Group("/purchases")
		{
			purchases.POST("", h.Stock.RecordPurchase)
			purchases.POST("/batch", h.Stock.RecordPurchaseBatch)
			purchases.GET("", h.Stock.ListPurchases)
		}

		// Conciliación de ventas y consumo interno
		sales := v1.Group("/sales")
		{
			sales.POST("/reconcile", h.Stock.ReconcileSales)
			sales.GET("", h.Stock.ListSales)
		}
		consumption := v1.Group("/consumption")
		{
			consumption.POST("/reconcile", h.Stock.ReconcileConsumption)
			consumption.GET("", h.Stock.ListConsumption)
		}

		balance := v1.Group("/balance-stock")
		{
			balance.GET("", h.Stock.GetBalanceStock)
			balance.GET("/product", h.Stock.GetBalanceByProduct)
			balance.GET("/export", h.Stock.ExportBalanceStock)
		}

		v1.POST("/import", h.Import.ImportSpreadsheet)

		// Clientes sincronizados con el POS
		clients := v1.Group("/clients")
		{
			clients.POST("", h.POS.UpsertClient)
			clients.GET("", h.POS.SearchClients)
			clients.POST("/retry-sync", h.POS.RetrySync)
			clients.POST("/:id/orders", h.POS.ApplyOrder)
			clients.POST("/:id/payments", h.POS.ApplyPayment)
		}

		backup := v1.Group("/backup")
		{
			backup.GET("/export", h.Backup.Export)
			backup.POST("/import", h.Backup.Import)
			backup.POST("/archive", h.Backup.Archive)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", h.Monitoring.GetMetrics)
			monitoring.GET("/metrics/summary", h.Monitoring.GetMetricsSummary)
			monitoring.GET("/ws", h.Monitoring.WebSocketMetrics)
		}
	}

	router.GET("/health", h.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API info en raíz
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Inventory Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health":  "/health",
				"metrics": "/metrics",
				"api":     "/api/v1",
				"ledgers": gin.H{
					"purchase":       "POST /api/v1/purchases",
					"purchase_batch": "POST /api/v1/purchases/batch",
					"sales":          "POST /api/v1/sales/reconcile",
					"consumption":    "POST /api/v1/consumption/reconcile",
					"balance":        "GET /api/v1/balance-stock",
					"balance_export": "GET /api/v1/balance-stock/export",
				},
				"import":  "POST /api/v1/import",
				"clients": "POST /api/v1/clients",
				"backup":  "GET /api/v1/backup/export",
			},
		})
	})
}
