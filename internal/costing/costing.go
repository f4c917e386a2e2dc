package costing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

// Policy estrategia para obtener el costo de compra de una venta o consumo
type Policy string

const (
	FIFO            Policy = "fifo"
	LIFO            Policy = "lifo"
	Latest          Policy = "latest"
	WeightedAverage Policy = "weighted_average"
)

var hundred = decimal.NewFromInt(100)

// ParsePolicy interpreta el valor de configuración (vacío = FIFO)
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", FIFO:
		return FIFO, nil
	case LIFO:
		return LIFO, nil
	case Latest:
		return Latest, nil
	case WeightedAverage, "wac", "average":
		return WeightedAverage, nil
	default:
		return "", fmt.Errorf("unknown costing policy %q", value)
	}
}

// Resolution costo resuelto para una cantidad
type Resolution struct {
	UnitCost     decimal.Decimal
	TaxableValue decimal.Decimal
	GST          decimal.Decimal
	Found        bool
	// Unidades sin lote disponible, costeadas al último lote alcanzado
	Shortfall int
}

// Snapshot convierte la resolución en el snapshot persistido (2 decimales)
func (r Resolution) Snapshot(policy Policy) models.CostSnapshot {
	return models.CostSnapshot{
		PurchaseCostPerUnitExGST: r.UnitCost.Round(2),
		PurchaseTaxableValue:     r.TaxableValue.Round(2),
		TotalPurchaseCost:        r.TaxableValue.Add(r.GST).Round(2),
		CostingPolicy:            string(policy),
	}
}

// Request parámetros de la resolución
type Request struct {
	// Compras del producto (cualquier orden)
	Purchases []*models.PurchaseRecord
	// Unidades ya emitidas por ventas y consumos anteriores (FIFO/LIFO)
	IssuedQty int
	Qty       int
	At        time.Time
}

// Resolve calcula el costo de qty unidades según la política
func Resolve(policy Policy, req Request) Resolution {
	layers := sortedLayers(req.Purchases)
	if len(layers) == 0 || req.Qty <= 0 {
		return Resolution{UnitCost: decimal.Zero, TaxableValue: decimal.Zero, GST: decimal.Zero}
	}

	switch policy {
	case Latest:
		return fromSingle(layers[len(layers)-1], req.Qty)
	case WeightedAverage:
		return weightedAverage(layers, req.Qty, req.At)
	case LIFO:
		reversed := make([]*models.PurchaseRecord, len(layers))
		for i, p := range layers {
			reversed[len(layers)-1-i] = p
		}
		return consumeLayers(reversed, req.IssuedQty, req.Qty)
	default:
		return consumeLayers(layers, req.IssuedQty, req.Qty)
	}
}

// sortedLayers ordena por fecha, luego creación, descartando cantidades no positivas
func sortedLayers(purchases []*models.PurchaseRecord) []*models.PurchaseRecord {
	layers := make([]*models.PurchaseRecord, 0, len(purchases))
	for _, p := range purchases {
		if p != nil && p.Qty > 0 {
			layers = append(layers, p)
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		if !layers[i].Date.Equal(layers[j].Date) {
			return layers[i].Date.Before(layers[j].Date)
		}
		return layers[i].CreatedAt.Before(layers[j].CreatedAt)
	})
	return layers
}

func fromSingle(p *models.PurchaseRecord, qty int) Resolution {
	unit := p.UnitCost()
	taxable := unit.Mul(decimal.NewFromInt(int64(qty)))
	return Resolution{
		UnitCost:     unit,
		TaxableValue: taxable,
		GST:          taxable.Mul(p.GSTPercentage).Div(hundred),
		Found:        true,
	}
}

func weightedAverage(layers []*models.PurchaseRecord, qty int, at time.Time) Resolution {
	eligible := layers
	if !at.IsZero() {
		var dated []*models.PurchaseRecord
		for _, p := range layers {
			if !p.Date.After(at) {
				dated = append(dated, p)
			}
		}
		if len(dated) > 0 {
			eligible = dated
		}
	}

	totalQty := decimal.Zero
	totalTaxable := decimal.Zero
	totalGST := decimal.Zero
	for _, p := range eligible {
		totalQty = totalQty.Add(decimal.NewFromInt(int64(p.Qty)))
		totalTaxable = totalTaxable.Add(p.TaxableValue)
		totalGST = totalGST.Add(p.TaxableValue.Mul(p.GSTPercentage).Div(hundred))
	}

	q := decimal.NewFromInt(int64(qty))
	unit := totalTaxable.Div(totalQty)
	return Resolution{
		UnitCost:     unit,
		TaxableValue: unit.Mul(q),
		GST:          totalGST.Div(totalQty).Mul(q),
		Found:        true,
	}
}

// consumeLayers recorre los lotes en orden, salta las unidades ya emitidas y toma qty unidades
func consumeLayers(layers []*models.PurchaseRecord, issued, qty int) Resolution {
	skip := issued
	if skip < 0 {
		skip = 0
	}
	remaining := qty
	taxable := decimal.Zero
	gst := decimal.Zero

	take := func(p *models.PurchaseRecord, units int) {
		value := p.UnitCost().Mul(decimal.NewFromInt(int64(units)))
		taxable = taxable.Add(value)
		gst = gst.Add(value.Mul(p.GSTPercentage).Div(hundred))
	}

	for _, p := range layers {
		if remaining == 0 {
			break
		}
		available := p.Qty
		if skip > 0 {
			if skip >= available {
				skip -= available
				continue
			}
			available -= skip
			skip = 0
		}
		units := available
		if units > remaining {
			units = remaining
		}
		take(p, units)
		remaining -= units
	}

	res := Resolution{Found: true}
	if remaining > 0 {
		// Stock negativo: las unidades faltantes se costean al último lote
		take(layers[len(layers)-1], remaining)
		res.Shortfall = remaining
	}

	res.TaxableValue = taxable
	res.GST = gst
	res.UnitCost = taxable.Div(decimal.NewFromInt(int64(qty)))
	return res
}
