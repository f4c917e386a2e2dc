package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// PurchaseRequest DTO para registrar una compra
type PurchaseRequest struct {
	ProductName     string          `json:"product_name" validate:"required"`
	HSNCode         string          `json:"hsn_code"`
	Units           string          `json:"units"`
	Date            string          `json:"date" validate:"required"`
	InvoiceNo       string          `json:"invoice_no" validate:"required"`
	Qty             int             `json:"qty" validate:"required,gt=0"`
	MRPInclGST      decimal.Decimal `json:"mrp_incl_gst"`
	GSTPercent      decimal.Decimal `json:"gst_percentage"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
	Interstate      bool            `json:"interstate"`
}

// PurchaseBatchRequest DTO para registrar varias compras
type PurchaseBatchRequest struct {
	Purchases []PurchaseRequest `json:"purchases" validate:"required"`
}

// SaleEvent venta recibida desde el POS
type SaleEvent struct {
	ProductName     string          `json:"product_name" validate:"required"`
	HSNCode         string          `json:"hsn_code"`
	Units           string          `json:"units"`
	Date            string          `json:"date" validate:"required"`
	InvoiceNo       string          `json:"invoice_no"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	MRPInclGST      decimal.Decimal `json:"mrp_incl_gst"`
	GSTPercent      decimal.Decimal `json:"gst_percentage"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
	Interstate      bool            `json:"interstate"`
}

// ConsumptionEvent consumo interno de stock (uso en servicios del salón)
type ConsumptionEvent struct {
	ProductName string `json:"product_name" validate:"required"`
	HSNCode     string `json:"hsn_code"`
	Units       string `json:"units"`
	Date        string `json:"date" validate:"required"`
	InvoiceNo   string `json:"invoice_no"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// ReconcileSalesRequest batch de ventas a reconciliar
type ReconcileSalesRequest struct {
	Events []SaleEvent `json:"events"`
}

// ReconcileConsumptionRequest batch de consumos a reconciliar
type ReconcileConsumptionRequest struct {
	Events []ConsumptionEvent `json:"events"`
}

// ClientRequest DTO para crear o actualizar un cliente
type ClientRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

// OrderRequest pedido asociado a un cliente
type OrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Paid   decimal.Decimal `json:"paid"`
}

// PaymentRequest pago de saldo pendiente
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ===== RESPONSE DTOs =====

// ProcessingStats estadísticas de un batch de reconciliación.
// Se retorna al caller; nunca se lanza como error.
type ProcessingStats struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// NewProcessingStats inicializa las estadísticas para un batch de n registros
func NewProcessingStats(total int) *ProcessingStats {
	return &ProcessingStats{Total: total, Errors: []string{}}
}

// RecordSuccess registra un registro exitoso
func (s *ProcessingStats) RecordSuccess() {
	s.Processed++
	s.Succeeded++
}

// RecordFailure registra un registro fallido con su índice (base 1)
func (s *ProcessingStats) RecordFailure(index int, err error) {
	s.Processed++
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("record %d: %v", index, err))
}

// RetryReport resultado de reintentar las sincronizaciones fallidas
type RetryReport struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// ImportStats estadísticas de una importación de planilla
type ImportStats struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
