package handlers

import (
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxImportSize límite de la planilla subida
const maxImportSize = 32 << 20

// ImportHandler importación de planillas históricas
type ImportHandler struct {
	importService services.ImportService
	logger        *zap.Logger
}

func NewImportHandler(importService services.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{importService: importService, logger: logger}
}

// ImportSpreadsheet recibe la planilla en el campo multipart "file".
// Con dry_run=true solo retorna la vista previa sin guardar.
func (h *ImportHandler) ImportSpreadsheet(c *gin.Context) {
	start := time.Now()
	logger := h.logger.With(zap.String("handler", "import_spreadsheet"))

	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, logger, "Parámetro dry_run inválido", models.NewValidationError("dry_run", "must be a boolean"))
			return
		}
		dryRun = parsed
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
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

	logger.Info("Importando planilla",
		zap.String("filename", fileHeader.Filename),
		zap.Int64("size", fileHeader.Size),
		zap.Bool("dry_run", dryRun))

	result, err := h.importService.Import(c.Request.Context(), file, dryRun)
	if err != nil {
		respondError(c, logger, "Error importando planilla", err)
		return
	}

	logger.Info("✅ Importación completada",
		zap.Int("imported", result.Stats.Imported),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Duration("latency", time.Since(start)))

	message := "✅ Planilla importada correctamente"
	if dryRun {
		message = "✅ Vista previa de la planilla"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"dry_run": dryRun,
			"result":  result,
		},
	})
}
