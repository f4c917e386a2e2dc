package handlers

import (
	"fmt"
	"io"
	"net/http"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BackupHandler respaldo y restauración del store completo
type BackupHandler struct {
	backupService services.BackupService
	logger        *zap.Logger
}

func NewBackupHandler(backupService services.BackupService, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{backupService: backupService, logger: logger}
}

// Export descarga el respaldo JSON
func (h *BackupHandler) Export(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "backup_export"))

	doc, err := h.backupService.Export(c.Request.Context())
	if err != nil {
		respondError(c, logger, "Error exportando respaldo", err)
		return
	}

	filename := fmt.Sprintf("inventory_backup_%s.json", doc.ExportDate.Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, doc)
}

// Import restaura un respaldo (body JSON o campo multipart "file"); todo o nada
func (h *BackupHandler) Import(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "backup_import"))

	var body io.Reader = c.Request.Body
	if c.ContentType() == "multipart/form-data" {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, logger, "Archivo requerido", models.NewValidationError("file", err.Error()))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, logger, "Error abriendo archivo", err)
			return
		}
		defer file.Close()
		body = file
	}

	doc, err := h.backupService.Import(c.Request.Context(), body)
	if err != nil {
		respondError(c, logger, "Error restaurando respaldo", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Respaldo restaurado correctamente",
		"data": gin.H{
			"version":     doc.Version,
			"export_date": doc.ExportDate,
			"products":    len(doc.Products),
			"purchases":   len(doc.Purchases),
			"sales":       len(doc.Sales),
			"consumption": len(doc.Consumption),
			"clients":     len(doc.Clients),
		},
	})
}

// Archive sube el respaldo al bucket configurado
func (h *BackupHandler) Archive(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "backup_archive"))

	key, err := h.backupService.Archive(c.Request.Context())
	if err != nil {
		respondError(c, logger, "Error archivando respaldo", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Respaldo archivado",
		"data":    gin.H{"key": key},
	})
}
