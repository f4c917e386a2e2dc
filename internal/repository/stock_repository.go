package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// ledgerRepository implementación Postgres de los tres ledgers
type ledgerRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

const purchaseColumns = `id, product_name, hsn_code, units, date, invoice_no, qty,
	mrp_incl_gst, mrp_excl_gst, gst_percentage, discount_percentage, interstate,
	taxable_value, cgst, sgst, igst, invoice_value, sync_status, created_at`

const saleColumns = `id, product_name, hsn_code, units, date, invoice_no, qty,
	mrp_incl_gst, mrp_excl_gst, gst_percentage, discount_percentage, interstate,
	taxable_value, cgst, sgst, igst, invoice_value,
	purchase_cost_per_unit_ex_gst, purchase_taxable_value, total_purchase_cost, costing_policy,
	sync_status, created_at`

const consumptionColumns = `id, product_name, hsn_code, units, date, invoice_no, qty,
	purchase_cost_per_unit_ex_gst, purchase_taxable_value, total_purchase_cost, costing_policy,
	sync_status, created_at`

// Filtro común: nombre (opcional), rango de fechas (opcional), limit/offset
const ledgerFilter = `
	WHERE ($1::text IS NULL OR lower(product_name) = lower($1))
	  AND ($2::timestamptz IS NULL OR date >= $2)
	  AND ($3::timestamptz IS NULL OR date <= $3)
	ORDER BY date, created_at
	LIMIT NULLIF($4::int, 0) OFFSET $5
`

// Insert statements compartidos con Restore (dentro de la transacción)
const (
	insertPurchaseSQL = `
		INSERT INTO purchases (product_key, ` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	insertSaleSQL = `
		INSERT INTO sales (product_key, ` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	insertConsumptionSQL = `
		INSERT INTO consumption (product_key, ` + consumptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
)

// newLedgerRepository crea el repository de ledgers y prepara sus queries
func newLedgerRepository(db *sql.DB, logger *zap.Logger) (*ledgerRepository, error) {
	repo := &ledgerRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

// prepareStatements prepara todas las consultas SQL para mejor rendimiento
func (r *ledgerRepository) prepareStatements() error {
	statements := map[string]string{
		"create_purchase":    insertPurchaseSQL,
		"create_sale":        insertSaleSQL,
		"create_consumption": insertConsumptionSQL,
		"list_purchases":     `SELECT ` + purchaseColumns + ` FROM purchases` + ledgerFilter,
		"list_sales":         `SELECT ` + saleColumns + ` FROM sales` + ledgerFilter,
		"list_consumption":   `SELECT ` + consumptionColumns + ` FROM consumption` + ledgerFilter,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

func (r *ledgerRepository) close() {
	for _, stmt := range r.stmts {
		stmt.Close()
	}
}

func purchaseArgs(p *models.PurchaseRecord) []interface{} {
	key := p.ProductKey.Normalize()
	return []interface{}{
		key.ID(), p.ID, key.Name, key.HSNCode, key.Units, p.Date, p.InvoiceNo, p.Qty,
		p.MRPInclGST, p.MRPExclGST, p.GSTPercentage, p.DiscountPercentage, p.Interstate,
		p.TaxableValue, p.CGST, p.SGST, p.IGST, p.InvoiceValue, p.SyncStatus, p.CreatedAt,
	}
}

func saleArgs(s *models.SaleRecord) []interface{} {
	key := s.ProductKey.Normalize()
	return []interface{}{
		key.ID(), s.ID, key.Name, key.HSNCode, key.Units, s.Date, s.InvoiceNo, s.Qty,
		s.MRPInclGST, s.MRPExclGST, s.GSTPercentage, s.DiscountPercentage, s.Interstate,
		s.TaxableValue, s.CGST, s.SGST, s.IGST, s.InvoiceValue,
		s.PurchaseCostPerUnitExGST, s.PurchaseTaxableValue, s.TotalPurchaseCost, s.CostingPolicy,
		s.SyncStatus, s.CreatedAt,
	}
}

func consumptionArgs(c *models.ConsumptionRecord) []interface{} {
	key := c.ProductKey.Normalize()
	return []interface{}{
		key.ID(), c.ID, key.Name, key.HSNCode, key.Units, c.Date, c.InvoiceNo, c.Qty,
		c.PurchaseCostPerUnitExGST, c.PurchaseTaxableValue, c.TotalPurchaseCost, c.CostingPolicy,
		c.SyncStatus, c.CreatedAt,
	}
}

func filterArgs(filter *models.ProductFilter) []interface{} {
	if filter == nil {
		filter = &models.ProductFilter{}
	}
	var name *string
	if filter.ProductName != nil {
		n := models.ProductKey{Name: *filter.ProductName}.Normalize().Name
		name = &n
	}
	return []interface{}{name, filter.DateFrom, filter.DateTo, filter.Limit, filter.Offset}
}

// CreatePurchase inserta una compra; en el store compartido queda como synced
func (r *ledgerRepository) CreatePurchase(ctx context.Context, record *models.PurchaseRecord) error {
	record.SyncStatus = models.SyncStatusSynced
	if _, err := r.stmts["create_purchase"].ExecContext(ctx, purchaseArgs(record)...); err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// ListPurchases lista compras con filtros
func (r *ledgerRepository) ListPurchases(ctx context.Context, filter *models.ProductFilter) ([]*models.PurchaseRecord, error) {
	rows, err := r.stmts["list_purchases"].QueryContext(ctx, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var records []*models.PurchaseRecord
	for rows.Next() {
		var p models.PurchaseRecord
		err := rows.Scan(
			&p.ID, &p.Name, &p.HSNCode, &p.Units, &p.Date, &p.InvoiceNo, &p.Qty,
			&p.MRPInclGST, &p.MRPExclGST, &p.GSTPercentage, &p.DiscountPercentage, &p.Interstate,
			&p.TaxableValue, &p.CGST, &p.SGST, &p.IGST, &p.InvoiceValue, &p.SyncStatus, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		records = append(records, &p)
	}
	return records, rows.Err()
}

// CreateSale inserta una venta con su snapshot de costo
func (r *ledgerRepository) CreateSale(ctx context.Context, record *models.SaleRecord) error {
	record.SyncStatus = models.SyncStatusSynced
	if _, err := r.stmts["create_sale"].ExecContext(ctx, saleArgs(record)...); err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// ListSales lista ventas con filtros
func (r *ledgerRepository) ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error) {
	rows, err := r.stmts["list_sales"].QueryContext(ctx, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var records []*models.SaleRecord
	for rows.Next() {
		var s models.SaleRecord
		err := rows.Scan(
			&s.ID, &s.Name, &s.HSNCode, &s.Units, &s.Date, &s.InvoiceNo, &s.Qty,
			&s.MRPInclGST, &s.MRPExclGST, &s.GSTPercentage, &s.DiscountPercentage, &s.Interstate,
			&s.TaxableValue, &s.CGST, &s.SGST, &s.IGST, &s.InvoiceValue,
			&s.PurchaseCostPerUnitExGST, &s.PurchaseTaxableValue, &s.TotalPurchaseCost, &s.CostingPolicy,
			&s.SyncStatus, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		records = append(records, &s)
	}
	return records, rows.Err()
}

// CreateConsumption inserta un consumo interno
func (r *ledgerRepository) CreateConsumption(ctx context.Context, record *models.ConsumptionRecord) error {
	record.SyncStatus = models.SyncStatusSynced
	if _, err := r.stmts["create_consumption"].ExecContext(ctx, consumptionArgs(record)...); err != nil {
		return fmt.Errorf("failed to create consumption: %w", err)
	}
	return nil
}

// ListConsumption lista consumos con filtros
func (r *ledgerRepository) ListConsumption(ctx context.Context, filter *models.ProductFilter) ([]*models.ConsumptionRecord, error) {
	rows, err := r.stmts["list_consumption"].QueryContext(ctx, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption: %w", err)
	}
	defer rows.Close()

	var records []*models.ConsumptionRecord
	for rows.Next() {
		var c models.ConsumptionRecord
		err := rows.Scan(
			&c.ID, &c.Name, &c.HSNCode, &c.Units, &c.Date, &c.InvoiceNo, &c.Qty,
			&c.PurchaseCostPerUnitExGST, &c.PurchaseTaxableValue, &c.TotalPurchaseCost, &c.CostingPolicy,
			&c.SyncStatus, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consumption: %w", err)
		}
		records = append(records, &c)
	}
	return records, rows.Err()
}
