// Package ledger agrega los tres ledgers (compras, ventas, consumo) en el balance de stock.
package ledger

import (
	"sort"

	"inventory-service/internal/models"
	"inventory-service/internal/tax"

	"github.com/shopspring/decimal"
)

// Ledgers contenido de entrada para el cálculo del balance
type Ledgers struct {
	Products    []*models.Product
	Purchases   []*models.PurchaseRecord
	Sales       []*models.SaleRecord
	Consumption []*models.ConsumptionRecord
}

type accumulator struct {
	entry         *models.BalanceStockEntry
	totalTaxable  decimal.Decimal
	firstPurchase *models.PurchaseRecord
}

// ComputeBalances calcula una entrada por producto.
// Los registros inconsistentes se reportan como advertencias y no afectan el resultado.
func ComputeBalances(in Ledgers) ([]*models.BalanceStockEntry, []*models.AggregationError) {
	groups := make(map[string]*accumulator)
	var warnings []*models.AggregationError

	get := func(key models.ProductKey) *accumulator {
		key = key.Normalize()
		id := key.ID()
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{
				entry:        &models.BalanceStockEntry{ProductKey: key},
				totalTaxable: decimal.Zero,
			}
			groups[id] = acc
		}
		return acc
	}

	for _, p := range in.Products {
		if p == nil {
			continue
		}
		get(p.ProductKey).entry.OpeningStock += p.OpeningStock
	}

	for _, p := range in.Purchases {
		if p == nil {
			continue
		}
		if p.Qty <= 0 {
			warnings = append(warnings, &models.AggregationError{Product: p.Name, Reason: "purchase " + p.InvoiceNo + " has non-positive quantity"})
			continue
		}
		acc := get(p.ProductKey)
		acc.entry.PurchasedQty += p.Qty
		acc.totalTaxable = acc.totalTaxable.Add(p.TaxableValue)
		if acc.firstPurchase == nil || p.Date.Before(acc.firstPurchase.Date) {
			acc.firstPurchase = p
		}
	}

	for _, s := range in.Sales {
		if s == nil {
			continue
		}
		if s.Qty <= 0 {
			warnings = append(warnings, &models.AggregationError{Product: s.Name, Reason: "sale " + s.InvoiceNo + " has non-positive quantity"})
			continue
		}
		get(s.ProductKey).entry.SoldQty += s.Qty
	}

	for _, c := range in.Consumption {
		if c == nil {
			continue
		}
		if c.Qty <= 0 {
			warnings = append(warnings, &models.AggregationError{Product: c.Name, Reason: "consumption " + c.InvoiceNo + " has non-positive quantity"})
			continue
		}
		get(c.ProductKey).entry.ConsumedQty += c.Qty
	}

	entries := make([]*models.BalanceStockEntry, 0, len(groups))
	for _, acc := range groups {
		finish(acc)
		entries = append(entries, acc.entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID() < entries[j].ID()
	})
	return entries, warnings
}

func finish(acc *accumulator) {
	e := acc.entry
	e.ClosingStock = e.OpeningStock + e.PurchasedQty - e.SoldQty - e.ConsumedQty

	e.AvgCost = decimal.Zero
	if e.PurchasedQty > 0 {
		e.AvgCost = acc.totalTaxable.Div(decimal.NewFromInt(int64(e.PurchasedQty)))
	}

	e.BalanceValue = decimal.Zero
	if e.ClosingStock > 0 {
		e.BalanceValue = e.AvgCost.Mul(decimal.NewFromInt(int64(e.ClosingStock)))
	}
	e.AvgCost = tax.Round(e.AvgCost)
	e.BalanceValue = tax.Round(e.BalanceValue)

	e.GSTPercentage = decimal.Zero
	interstate := false
	if acc.firstPurchase != nil {
		e.GSTPercentage = acc.firstPurchase.GSTPercentage
		interstate = acc.firstPurchase.Interstate
	}
	totalGST := tax.Round(e.BalanceValue.Mul(e.GSTPercentage).Div(decimal.NewFromInt(100)))
	e.CGST, e.SGST, e.IGST = tax.Split(totalGST, interstate)
	e.TotalValue = e.BalanceValue.Add(totalGST)
}

// BalanceFor calcula el balance de un solo producto (nil si no aparece en ningún ledger)
func BalanceFor(in Ledgers, key models.ProductKey) (*models.BalanceStockEntry, []*models.AggregationError) {
	target := key.Normalize()
	filtered := Ledgers{}
	for _, p := range in.Products {
		if p != nil && p.ProductKey.Equal(target) {
			filtered.Products = append(filtered.Products, p)
		}
	}
	for _, p := range in.Purchases {
		if p != nil && p.ProductKey.Equal(target) {
			filtered.Purchases = append(filtered.Purchases, p)
		}
	}
	for _, s := range in.Sales {
		if s != nil && s.ProductKey.Equal(target) {
			filtered.Sales = append(filtered.Sales, s)
		}
	}
	for _, c := range in.Consumption {
		if c != nil && c.ProductKey.Equal(target) {
			filtered.Consumption = append(filtered.Consumption, c)
		}
	}

	entries, warnings := ComputeBalances(filtered)
	if len(entries) == 0 {
		return nil, warnings
	}
	return entries[0], warnings
}

// IssuedQty unidades ya emitidas (ventas + consumo) de un producto
func IssuedQty(key models.ProductKey, sales []*models.SaleRecord, consumption []*models.ConsumptionRecord) int {
	target := key.Normalize()
	issued := 0
	for _, s := range sales {
		if s != nil && s.Qty > 0 && s.ProductKey.Equal(target) {
			issued += s.Qty
		}
	}
	for _, c := range consumption {
		if c != nil && c.Qty > 0 && c.ProductKey.Equal(target) {
			issued += c.Qty
		}
	}
	return issued
}

// PurchasesOf compras de un producto
func PurchasesOf(key models.ProductKey, purchases []*models.PurchaseRecord) []*models.PurchaseRecord {
	target := key.Normalize()
	var out []*models.PurchaseRecord
	for _, p := range purchases {
		if p != nil && p.ProductKey.Equal(target) {
			out = append(out, p)
		}
	}
	return out
}
