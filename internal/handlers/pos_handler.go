package handlers

import (
	"net/http"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POSHandler registro de clientes sincronizado con el POS remoto
type POSHandler struct {
	clientService services.ClientSyncService
	logger        *zap.Logger
}

// NewPOSHandler crea una nueva instancia del handler POS
func NewPOSHandler(clientService services.ClientSyncService, logger *zap.Logger) *POSHandler {
	return &POSHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// UpsertClient crea o actualiza un cliente. Si el POS no responde, el cliente queda local.
func (h *POSHandler) UpsertClient(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "upsert_client"))

	var req models.ClientRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	client, err := h.clientService.Upsert(c.Request.Context(), &req)
	if err != nil {
		respondError(c, logger, "Error guardando cliente", err)
		return
	}

	message := "✅ Cliente sincronizado con el POS"
	if client.SyncFailed {
		message = "⚠️ Cliente guardado localmente, sincronización pendiente"
	}

	logger.Info("Cliente guardado",
		zap.String("client_id", client.ID),
		zap.String("sync_state", client.SyncState()),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"client":     client,
			"sync_state": client.SyncState(),
		},
	})
}

// SearchClients busca clientes por nombre o teléfono (?q=)
func (h *POSHandler) SearchClients(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "search_clients"))

	query := c.Query("q")
	clients, err := h.clientService.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, logger, "Error buscando clientes", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Clientes obtenidos correctamente",
		"data": gin.H{
			"clients": clients,
			"total":   len(clients),
			"query":   query,
		},
	})
}

// RetrySync reintenta las sincronizaciones fallidas
func (h *POSHandler) RetrySync(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "retry_sync"))

	report, err := h.clientService.RetryFailedSyncs(c.Request.Context())
	if err != nil {
		// El reporte parcial (si existe) viaja en data
		if report != nil {
			respondErrorWithData(c, logger, "Error reintentando sincronización", err, report)
			return
		}
		respondError(c, logger, "Error reintentando sincronización", err)
		return
	}

	logger.Info("Reintento de sincronización completado",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"success": report.Failed == 0,
		"message": "✅ Reintento de sincronización completado",
		"data":    report,
	})
}

// ApplyOrder registra un pedido del cliente
func (h *POSHandler) ApplyOrder(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "apply_order"), zap.String("client_id", c.Param("id")))

	var req models.OrderRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	client, err := h.clientService.ApplyOrder(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, logger, "Error registrando pedido", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Pedido registrado",
		"data":    client,
	})
}

// ApplyPayment registra un pago del saldo pendiente
func (h *POSHandler) ApplyPayment(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "apply_payment"), zap.String("client_id", c.Param("id")))

	var req models.PaymentRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	client, err := h.clientService.ApplyPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, logger, "Error registrando pago", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Pago registrado",
		"data":    client,
	})
}
