package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// postgresStore store compartido sobre Postgres; compone los repositories por tabla
type postgresStore struct {
	*productRepository
	*ledgerRepository
	*clientRepository
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore crea el esquema si no existe y prepara todas las queries
func NewPostgresStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	products, err := newProductRepository(db, logger)
	if err != nil {
		return nil, err
	}
	ledgers, err := newLedgerRepository(db, logger)
	if err != nil {
		return nil, err
	}
	clients, err := newClientRepository(db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Store Postgres listo", zap.Int("schema_statements", len(schemaStatements)))

	return &postgresStore{
		productRepository: products,
		ledgerRepository:  ledgers,
		clientRepository:  clients,
		db:                db,
		logger:            logger,
	}, nil
}

func (s *postgresStore) Driver() string { return DriverPostgres }

// Close libera los statements preparados; la conexión la cierra su dueño
func (s *postgresStore) Close() error {
	s.productRepository.close()
	s.ledgerRepository.close()
	s.clientRepository.close()
	return nil
}

// Snapshot lee las cinco tablas completas
func (s *postgresStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := s.ListPurchases(ctx, nil)
	if err != nil {
		return nil, err
	}
	sales, err := s.ListSales(ctx, nil)
	if err != nil {
		return nil, err
	}
	consumption, err := s.ListConsumption(ctx, nil)
	if err != nil {
		return nil, err
	}
	clients, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Products:    products,
		Purchases:   purchases,
		Sales:       sales,
		Consumption: consumption,
		Clients:     clients,
	}, nil
}

// Append inserta productos y registros de ledger en una sola transacción
func (s *postgresStore) Append(ctx context.Context, batch *models.Snapshot) error {
	if batch == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := tx.StmtContext(ctx, s.productRepository.stmts["upsert_product"])
	for _, p := range batch.Products {
		if p == nil {
			continue
		}
		key := p.ProductKey.Normalize()
		if key.IsZero() {
			return models.NewValidationError("product_name", "is required")
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := scanProduct(upsert.QueryRowContext(ctx,
			key.ID(), key.Name, key.HSNCode, key.Units, p.OpeningStock, createdAt)); err != nil {
			return fmt.Errorf("failed to append product %q: %w", key.Name, err)
		}
	}

	purchases := tx.StmtContext(ctx, s.ledgerRepository.stmts["create_purchase"])
	for _, r := range batch.Purchases {
		if r == nil {
			continue
		}
		r.SyncStatus = models.SyncStatusSynced
		if _, err := purchases.ExecContext(ctx, purchaseArgs(r)...); err != nil {
			return fmt.Errorf("failed to append purchase %s: %w", r.InvoiceNo, err)
		}
	}
	sales := tx.StmtContext(ctx, s.ledgerRepository.stmts["create_sale"])
	for _, r := range batch.Sales {
		if r == nil {
			continue
		}
		r.SyncStatus = models.SyncStatusSynced
		if _, err := sales.ExecContext(ctx, saleArgs(r)...); err != nil {
			return fmt.Errorf("failed to append sale %s: %w", r.InvoiceNo, err)
		}
	}
	consumption := tx.StmtContext(ctx, s.ledgerRepository.stmts["create_consumption"])
	for _, r := range batch.Consumption {
		if r == nil {
			continue
		}
		r.SyncStatus = models.SyncStatusSynced
		if _, err := consumption.ExecContext(ctx, consumptionArgs(r)...); err != nil {
			return fmt.Errorf("failed to append consumption %s: %w", r.InvoiceNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// Restore borra y reinserta todo dentro de una sola transacción
func (s *postgresStore) Restore(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return models.NewValidationError("snapshot", "is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"consumption", "sales", "purchases", "products", "clients"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insert := func(query string, rows [][]interface{}) error {
		if len(rows) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare restore statement: %w", err)
		}
		defer stmt.Close()
		for _, args := range rows {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	}

	productRows := make([][]interface{}, 0, len(snapshot.Products))
	for _, p := range snapshot.Products {
		if p == nil {
			continue
		}
		key := p.ProductKey.Normalize()
		productRows = append(productRows, []interface{}{key.ID(), key.Name, key.HSNCode, key.Units, p.OpeningStock, p.CreatedAt})
	}
	if err := insert(`
		INSERT INTO products (product_key, product_name, hsn_code, units, opening_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_key) DO NOTHING
	`, productRows); err != nil {
		return fmt.Errorf("failed to restore products: %w", err)
	}

	purchaseRows := make([][]interface{}, 0, len(snapshot.Purchases))
	for _, p := range snapshot.Purchases {
		if p != nil {
			purchaseRows = append(purchaseRows, purchaseArgs(p))
		}
	}
	if err := insert(insertPurchaseSQL, purchaseRows); err != nil {
		return fmt.Errorf("failed to restore purchases: %w", err)
	}

	saleRows := make([][]interface{}, 0, len(snapshot.Sales))
	for _, sale := range snapshot.Sales {
		if sale != nil {
			saleRows = append(saleRows, saleArgs(sale))
		}
	}
	if err := insert(insertSaleSQL, saleRows); err != nil {
		return fmt.Errorf("failed to restore sales: %w", err)
	}

	consumptionRows := make([][]interface{}, 0, len(snapshot.Consumption))
	for _, c := range snapshot.Consumption {
		if c != nil {
			consumptionRows = append(consumptionRows, consumptionArgs(c))
		}
	}
	if err := insert(insertConsumptionSQL, consumptionRows); err != nil {
		return fmt.Errorf("failed to restore consumption: %w", err)
	}

	clientRows := make([][]interface{}, 0, len(snapshot.Clients))
	for _, c := range snapshot.Clients {
		if c != nil {
			clientRows = append(clientRows, clientArgs(c))
		}
	}
	if err := insert(upsertClientSQL, clientRows); err != nil {
		return fmt.Errorf("failed to restore clients: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	s.logger.Info("✅ Restauración completada",
		zap.Int("products", len(productRows)),
		zap.Int("purchases", len(purchaseRows)),
		zap.Int("sales", len(saleRows)),
		zap.Int("consumption", len(consumptionRows)),
		zap.Int("clients", len(clientRows)))
	return nil
}
