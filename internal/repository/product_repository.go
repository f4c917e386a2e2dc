package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// La clave natural se guarda ya normalizada en minúsculas
const upsertProductSQL = `
	INSERT INTO products (product_key, product_name, hsn_code, units, opening_stock, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (product_key) DO UPDATE
	SET opening_stock = CASE WHEN products.opening_stock = 0 THEN EXCLUDED.opening_stock ELSE products.opening_stock END
	RETURNING product_name, hsn_code, units, opening_stock, created_at
`

// productRepository implementación Postgres de ProductRepository
type productRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

// newProductRepository crea el repository y prepara sus queries
func newProductRepository(db *sql.DB, logger *zap.Logger) (*productRepository, error) {
	repo := &productRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

// prepareStatements prepara todas las queries SQL
func (r *productRepository) prepareStatements() error {
	statements := map[string]string{
		"upsert_product": upsertProductSQL,
		"get_product": `
			SELECT product_name, hsn_code, units, opening_stock, created_at
			FROM products
			WHERE product_key = $1
		`,
		"find_product_by_name": `
			SELECT product_name, hsn_code, units, opening_stock, created_at
			FROM products
			WHERE lower(product_name) = lower($1)
			ORDER BY created_at
			LIMIT 1
		`,
		"list_products": `
			SELECT product_name, hsn_code, units, opening_stock, created_at
			FROM products
			ORDER BY created_at, product_key
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

// UpsertProduct busca o crea un producto por su clave natural
func (r *productRepository) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	key := product.ProductKey.Normalize()
	if key.IsZero() {
		return nil, models.NewValidationError("product_name", "is required")
	}
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	stored, err := scanProduct(r.stmts["upsert_product"].QueryRowContext(ctx,
		key.ID(), key.Name, key.HSNCode, key.Units, product.OpeningStock, createdAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product: %w", err)
	}
	return stored, nil
}

// GetProduct obtiene un producto por clave (nil si no existe)
func (r *productRepository) GetProduct(ctx context.Context, key models.ProductKey) (*models.Product, error) {
	start := time.Now()
	product, err := scanProduct(r.stmts["get_product"].QueryRowContext(ctx, key.ID()))
	if err == sql.ErrNoRows {
		r.logger.Debug("Producto no encontrado",
			zap.String("product_key", key.ID()),
			zap.Duration("latency", time.Since(start)))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// FindProductByName busca el primer producto con ese nombre (eventos sin HSN/unidad)
func (r *productRepository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	normalized := models.ProductKey{Name: name}.Normalize().Name
	product, err := scanProduct(r.stmts["find_product_by_name"].QueryRowContext(ctx, normalized))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return product, nil
}

// ListProducts lista todos los productos
func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.stmts["list_products"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// rowScanner cubre *sql.Row y *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.Name, &p.HSNCode, &p.Units, &p.OpeningStock, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) close() {
	for _, stmt := range r.stmts {
		stmt.Close()
	}
}
