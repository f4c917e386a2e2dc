package models

import (
	"github.com/shopspring/decimal"
)

// BalanceStockEntry proyección calculada del stock de un producto.
// No es fuente de verdad: se deriva siempre de los tres ledgers.
type BalanceStockEntry struct {
	ProductKey
	OpeningStock  int             `json:"opening_stock"`
	PurchasedQty  int             `json:"purchased_qty"`
	SoldQty       int             `json:"sold_qty"`
	ConsumedQty   int             `json:"consumed_qty"`
	ClosingStock  int             `json:"closing_stock"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	BalanceValue  decimal.Decimal `json:"balance_value"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	IGST          decimal.Decimal `json:"igst"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// BalanceSummary resumen del balance de todo el inventario
type BalanceSummary struct {
	TotalProducts int             `json:"total_products"`
	OutOfStock    int             `json:"out_of_stock"`
	NegativeStock int             `json:"negative_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// Summarize calcula el resumen de una lista de entradas
func Summarize(entries []*BalanceStockEntry) BalanceSummary {
	summary := BalanceSummary{TotalProducts: len(entries), TotalValue: decimal.Zero}
	for _, e := range entries {
		switch {
		case e.ClosingStock < 0:
			summary.NegativeStock++
		case e.ClosingStock == 0:
			summary.OutOfStock++
		}
		summary.TotalValue = summary.TotalValue.Add(e.TotalValue)
	}
	return summary
}
