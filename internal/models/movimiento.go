package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de sincronización de un registro de ledger
const (
	SyncStatusLocal  = "local"
	SyncStatusSynced = "synced"
)

// TaxFields campos de impuesto derivados al crear el registro.
// Nunca se recalculan aunque cambie la tasa de GST.
type TaxFields struct {
	MRPInclGST         decimal.Decimal `json:"mrp_incl_gst" db:"mrp_incl_gst"`
	MRPExclGST         decimal.Decimal `json:"mrp_excl_gst" db:"mrp_excl_gst"`
	GSTPercentage      decimal.Decimal `json:"gst_percentage" db:"gst_percentage"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	Interstate         bool            `json:"interstate" db:"interstate"`
	TaxableValue       decimal.Decimal `json:"taxable_value" db:"taxable_value"`
	CGST               decimal.Decimal `json:"cgst" db:"cgst"`
	SGST               decimal.Decimal `json:"sgst" db:"sgst"`
	IGST               decimal.Decimal `json:"igst" db:"igst"`
	InvoiceValue       decimal.Decimal `json:"invoice_value" db:"invoice_value"`
}

// CostSnapshot costo de compra capturado al momento de la venta o consumo (inmutable)
type CostSnapshot struct {
	PurchaseCostPerUnitExGST decimal.Decimal `json:"purchase_cost_per_unit_ex_gst" db:"purchase_cost_per_unit_ex_gst"`
	PurchaseTaxableValue     decimal.Decimal `json:"purchase_taxable_value" db:"purchase_taxable_value"`
	TotalPurchaseCost        decimal.Decimal `json:"total_purchase_cost" db:"total_purchase_cost"`
	CostingPolicy            string          `json:"costing_policy" db:"costing_policy"`
}

// PurchaseRecord representa la tabla purchases
type PurchaseRecord struct {
	ID string `json:"id" db:"id"`
	ProductKey
	Date      time.Time `json:"date" db:"date"`
	InvoiceNo string    `json:"invoice_no" db:"invoice_no"`
	Qty       int       `json:"qty" db:"qty"`
	TaxFields
	SyncStatus string    `json:"sync_status" db:"sync_status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SaleRecord representa la tabla sales
type SaleRecord struct {
	ID string `json:"id" db:"id"`
	ProductKey
	Date      time.Time `json:"date" db:"date"`
	InvoiceNo string    `json:"invoice_no" db:"invoice_no"`
	Qty       int       `json:"qty" db:"qty"`
	TaxFields
	CostSnapshot
	SyncStatus string    `json:"sync_status" db:"sync_status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ConsumptionRecord representa la tabla consumption (uso interno, sin precio de venta)
type ConsumptionRecord struct {
	ID string `json:"id" db:"id"`
	ProductKey
	Date      time.Time `json:"date" db:"date"`
	InvoiceNo string    `json:"invoice_no" db:"invoice_no"`
	Qty       int       `json:"qty" db:"qty"`
	CostSnapshot
	SyncStatus string    `json:"sync_status" db:"sync_status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// UnitCost costo unitario ex-GST de una compra (0 si la cantidad es 0)
func (p *PurchaseRecord) UnitCost() decimal.Decimal {
	if p.Qty <= 0 {
		return decimal.Zero
	}
	return p.TaxableValue.Div(decimal.NewFromInt(int64(p.Qty)))
}
