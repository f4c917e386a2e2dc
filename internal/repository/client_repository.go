package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

type clientRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

const clientColumns = `id, name, phone, email, pos_id, sync_failed, last_synced,
	total_spent, pending_payment, created_at, updated_at`

const upsertClientSQL = `
	INSERT INTO clients (` + clientColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		phone = EXCLUDED.phone,
		email = EXCLUDED.email,
		pos_id = EXCLUDED.pos_id,
		sync_failed = EXCLUDED.sync_failed,
		last_synced = EXCLUDED.last_synced,
		total_spent = EXCLUDED.total_spent,
		pending_payment = EXCLUDED.pending_payment,
		updated_at = EXCLUDED.updated_at
`

func newClientRepository(db *sql.DB, logger *zap.Logger) (*clientRepository, error) {
	repo := &clientRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	statements := map[string]string{
		"save_client":      upsertClientSQL,
		"get_client":       `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`,
		"lock_client":      `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 FOR UPDATE`,
		"list_clients":     `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at, id`,
		"list_sync_failed": `SELECT ` + clientColumns + ` FROM clients WHERE sync_failed ORDER BY created_at, id`,
	}
	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		repo.stmts[name] = stmt
	}

	return repo, nil
}

func (r *clientRepository) close() {
	for _, stmt := range r.stmts {
		stmt.Close()
	}
}

func clientArgs(c *models.Client) []interface{} {
	return []interface{}{
		c.ID, c.Name, c.Phone, c.Email, c.POSID, c.SyncFailed, c.LastSynced,
		c.TotalSpent, c.PendingPayment, c.CreatedAt, c.UpdatedAt,
	}
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.POSID, &c.SyncFailed, &c.LastSynced,
		&c.TotalSpent, &c.PendingPayment, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveClient inserta o actualiza un cliente
func (r *clientRepository) SaveClient(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		return models.NewValidationError("id", "is required")
	}
	if _, err := r.stmts["save_client"].ExecContext(ctx, clientArgs(client)...); err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// GetClient obtiene un cliente por id (nil si no existe)
func (r *clientRepository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	client, err := scanClient(r.stmts["get_client"].QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// UpdateClient bloquea la fila con FOR UPDATE dentro de una transacción,
// así un pedido aplicado durante una llamada al POS no se pisa
func (r *clientRepository) UpdateClient(ctx context.Context, id string, apply func(current *models.Client) (*models.Client, error)) (*models.Client, error) {
	if id == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanClient(tx.StmtContext(ctx, r.stmts["lock_client"]).QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		current = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to lock client: %w", err)
	}

	next, err := apply(current)
	if err != nil || next == nil {
		return nil, err
	}
	next.ID = id

	if _, err := tx.StmtContext(ctx, r.stmts["save_client"]).ExecContext(ctx, clientArgs(next)...); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit client update: %w", err)
	}
	return next, nil
}

// ListClients lista todos los clientes
func (r *clientRepository) ListClients(ctx context.Context) ([]*models.Client, error) {
	return r.list(ctx, "list_clients")
}

// ListSyncFailed clientes pendientes de sincronizar con el POS
func (r *clientRepository) ListSyncFailed(ctx context.Context) ([]*models.Client, error) {
	return r.list(ctx, "list_sync_failed")
}

func (r *clientRepository) list(ctx context.Context, stmt string) ([]*models.Client, error) {
	rows, err := r.stmts[stmt].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
