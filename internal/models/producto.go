package models

import (
	"strings"
	"time"
)

// ProductKey identifica un producto por su clave natural (nombre, HSN, unidad).
// El mismo producto puede derivarse de compras, ventas o consumos, por eso no usamos un id generado.
type ProductKey struct {
	Name    string `json:"product_name" db:"product_name"`
	HSNCode string `json:"hsn_code" db:"hsn_code"`
	Units   string `json:"units" db:"units"`
}

// Normalize retorna la clave con espacios recortados
func (k ProductKey) Normalize() ProductKey {
	return ProductKey{
		Name:    strings.Join(strings.Fields(k.Name), " "),
		HSNCode: strings.TrimSpace(k.HSNCode),
		Units:   strings.TrimSpace(k.Units),
	}
}

// ID retorna la representación canónica usada para agrupar (sin distinguir mayúsculas)
func (k ProductKey) ID() string {
	n := k.Normalize()
	return strings.ToLower(n.Name) + "|" + strings.ToLower(n.HSNCode) + "|" + strings.ToLower(n.Units)
}

// IsZero indica si la clave no tiene nombre de producto
func (k ProductKey) IsZero() bool {
	return strings.TrimSpace(k.Name) == ""
}

// Equal compara dos claves sin distinguir mayúsculas
func (k ProductKey) Equal(other ProductKey) bool {
	return k.ID() == other.ID()
}

// Product representa un producto del inventario
type Product struct {
	ProductKey
	OpeningStock int       `json:"opening_stock" db:"opening_stock"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ProductFilter filtros para listados de ledger
type ProductFilter struct {
	ProductName *string    `json:"product_name,omitempty"`
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}

// Matches evalúa el filtro sobre una clave y fecha
func (f *ProductFilter) Matches(key ProductKey, date time.Time) bool {
	if f == nil {
		return true
	}
	if f.ProductName != nil && !strings.EqualFold(ProductKey{Name: *f.ProductName}.Normalize().Name, key.Normalize().Name) {
		return false
	}
	if f.DateFrom != nil && date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && date.After(*f.DateTo) {
		return false
	}
	return true
}
