package repository

import (
	"context"

	"inventory-service/internal/models"
)

// Drivers de almacenamiento soportados
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// ProductRepository operaciones de productos (clave natural nombre/HSN/unidad)
type ProductRepository interface {
	// UpsertProduct busca por clave o crea; retorna el producto almacenado
	UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, key models.ProductKey) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

// LedgerRepository los tres ledgers de solo-append
type LedgerRepository interface {
	CreatePurchase(ctx context.Context, record *models.PurchaseRecord) error
	ListPurchases(ctx context.Context, filter *models.ProductFilter) ([]*models.PurchaseRecord, error)

	CreateSale(ctx context.Context, record *models.SaleRecord) error
	ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error)

	CreateConsumption(ctx context.Context, record *models.ConsumptionRecord) error
	ListConsumption(ctx context.Context, filter *models.ProductFilter) ([]*models.ConsumptionRecord, error)
}

// ClientRepository registro local de clientes
type ClientRepository interface {
	// SaveClient inserta o actualiza por id
	SaveClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	ListSyncFailed(ctx context.Context) ([]*models.Client, error)
	// UpdateClient lee, modifica y guarda un cliente sin perder escrituras concurrentes.
	// apply recibe nil si el id no existe; si retorna nil no se escribe nada.
	UpdateClient(ctx context.Context, id string, apply func(current *models.Client) (*models.Client, error)) (*models.Client, error)
}

// Store abstracción del almacenamiento, inyectada en los servicios.
// Implementaciones: memoria (opcionalmente respaldada en archivo) y Postgres.
type Store interface {
	ProductRepository
	LedgerRepository
	ClientRepository

	// Snapshot copia completa para respaldo
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	// Append agrega productos (upsert) y registros de ledger; todo o nada
	Append(ctx context.Context, batch *models.Snapshot) error
	// Restore reemplaza todo el contenido; todo o nada
	Restore(ctx context.Context, snapshot *models.Snapshot) error

	Driver() string
	Close() error
}

// paginate aplica limit/offset del filtro a un listado ya filtrado
func paginate[T any](items []T, filter *models.ProductFilter) []T {
	if filter == nil {
		return items
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return items[:0]
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items
}
