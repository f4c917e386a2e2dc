package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor traduce los errores tipados a códigos HTTP
func statusFor(err error) int {
	var validationErr *models.ValidationError
	var formatErr *models.FormatError
	var connErr *models.ConnectivityError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &formatErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrClientNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrArchiveNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError responde con el envelope estándar y registra el error
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	respondErrorWithData(c, logger, message, err, nil)
}

// respondErrorWithData igual que respondError pero incluye un resultado parcial en data
func respondErrorWithData(c *gin.Context, logger *zap.Logger, message string, err error, data interface{}) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("❌ "+message, zap.Error(err))
	} else {
		logger.Warn("⚠️ "+message, zap.Error(err))
	}
	body := gin.H{
		"success": false,
		"message": "❌ " + message,
		"error":   err.Error(),
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// bindJSON decodifica el body; responde 400 si el formato es inválido
func bindJSON(c *gin.Context, logger *zap.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warn("⚠️ Error binding JSON", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// parseFilter lee product_name, date_from, date_to, limit y offset del query string
func parseFilter(c *gin.Context) (*models.ProductFilter, error) {
	filter := &models.ProductFilter{}

	if name := c.Query("product_name"); name != "" {
		filter.ProductName = &name
	}
	if raw := c.Query("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, models.NewValidationError("date_from", "must be yyyy-mm-dd")
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, models.NewValidationError("date_to", "must be yyyy-mm-dd")
		}
		filter.DateTo = &to
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, models.NewValidationError("limit", "must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return nil, models.NewValidationError("offset", "must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}
