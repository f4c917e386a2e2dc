package repository

// schemaStatements DDL idempotente del esquema compartido.
// balance_stock es una vista de solo lectura; el servicio calcula el balance en Go con las mismas fórmulas.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_key   TEXT PRIMARY KEY,
		product_name  TEXT NOT NULL,
		hsn_code      TEXT NOT NULL DEFAULT '',
		units         TEXT NOT NULL DEFAULT '',
		opening_stock INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id                  TEXT PRIMARY KEY,
		product_key         TEXT NOT NULL,
		product_name        TEXT NOT NULL,
		hsn_code            TEXT NOT NULL DEFAULT '',
		units               TEXT NOT NULL DEFAULT '',
		date                TIMESTAMPTZ NOT NULL,
		invoice_no          TEXT NOT NULL DEFAULT '',
		qty                 INTEGER NOT NULL,
		mrp_incl_gst        NUMERIC(18,6) NOT NULL DEFAULT 0,
		mrp_excl_gst        NUMERIC(14,2) NOT NULL DEFAULT 0,
		gst_percentage      NUMERIC(18,6) NOT NULL DEFAULT 0,
		discount_percentage NUMERIC(18,6) NOT NULL DEFAULT 0,
		interstate          BOOLEAN NOT NULL DEFAULT FALSE,
		taxable_value       NUMERIC(14,2) NOT NULL DEFAULT 0,
		cgst                NUMERIC(14,2) NOT NULL DEFAULT 0,
		sgst                NUMERIC(14,2) NOT NULL DEFAULT 0,
		igst                NUMERIC(14,2) NOT NULL DEFAULT 0,
		invoice_value       NUMERIC(14,2) NOT NULL DEFAULT 0,
		sync_status         TEXT NOT NULL DEFAULT 'synced',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id                            TEXT PRIMARY KEY,
		product_key                   TEXT NOT NULL,
		product_name                  TEXT NOT NULL,
		hsn_code                      TEXT NOT NULL DEFAULT '',
		units                         TEXT NOT NULL DEFAULT '',
		date                          TIMESTAMPTZ NOT NULL,
		invoice_no                    TEXT NOT NULL DEFAULT '',
		qty                           INTEGER NOT NULL,
		mrp_incl_gst                  NUMERIC(18,6) NOT NULL DEFAULT 0,
		mrp_excl_gst                  NUMERIC(14,2) NOT NULL DEFAULT 0,
		gst_percentage                NUMERIC(18,6) NOT NULL DEFAULT 0,
		discount_percentage           NUMERIC(18,6) NOT NULL DEFAULT 0,
		interstate                    BOOLEAN NOT NULL DEFAULT FALSE,
		taxable_value                 NUMERIC(14,2) NOT NULL DEFAULT 0,
		cgst                          NUMERIC(14,2) NOT NULL DEFAULT 0,
		sgst                          NUMERIC(14,2) NOT NULL DEFAULT 0,
		igst                          NUMERIC(14,2) NOT NULL DEFAULT 0,
		invoice_value                 NUMERIC(14,2) NOT NULL DEFAULT 0,
		purchase_cost_per_unit_ex_gst NUMERIC(14,2) NOT NULL DEFAULT 0,
		purchase_taxable_value        NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_purchase_cost           NUMERIC(14,2) NOT NULL DEFAULT 0,
		costing_policy                TEXT NOT NULL DEFAULT 'fifo',
		sync_status                   TEXT NOT NULL DEFAULT 'synced',
		created_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS consumption (
		id                            TEXT PRIMARY KEY,
		product_key                   TEXT NOT NULL,
		product_name                  TEXT NOT NULL,
		hsn_code                      TEXT NOT NULL DEFAULT '',
		units                         TEXT NOT NULL DEFAULT '',
		date                          TIMESTAMPTZ NOT NULL,
		invoice_no                    TEXT NOT NULL DEFAULT '',
		qty                           INTEGER NOT NULL,
		purchase_cost_per_unit_ex_gst NUMERIC(14,2) NOT NULL DEFAULT 0,
		purchase_taxable_value        NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_purchase_cost           NUMERIC(14,2) NOT NULL DEFAULT 0,
		costing_policy                TEXT NOT NULL DEFAULT 'fifo',
		sync_status                   TEXT NOT NULL DEFAULT 'synced',
		created_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		phone           TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL DEFAULT '',
		pos_id          TEXT,
		sync_failed     BOOLEAN NOT NULL DEFAULT FALSE,
		last_synced     TIMESTAMPTZ,
		total_spent     NUMERIC(14,2) NOT NULL DEFAULT 0,
		pending_payment NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Los valores de entrada guardan la precisión recibida; solo los derivados se redondean a 2
	`ALTER TABLE purchases
		ALTER COLUMN mrp_incl_gst TYPE NUMERIC(18,6),
		ALTER COLUMN gst_percentage TYPE NUMERIC(18,6),
		ALTER COLUMN discount_percentage TYPE NUMERIC(18,6)`,
	`ALTER TABLE sales
		ALTER COLUMN mrp_incl_gst TYPE NUMERIC(18,6),
		ALTER COLUMN gst_percentage TYPE NUMERIC(18,6),
		ALTER COLUMN discount_percentage TYPE NUMERIC(18,6)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_product ON purchases (product_key, date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product ON sales (product_key, date)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_product ON consumption (product_key, date)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_sync_failed ON clients (sync_failed) WHERE sync_failed`,
	`CREATE OR REPLACE VIEW balance_stock AS
	WITH keys AS (
		SELECT product_key FROM products
		UNION SELECT product_key FROM purchases
		UNION SELECT product_key FROM sales
		UNION SELECT product_key FROM consumption
	),
	p AS (
		SELECT product_key, SUM(qty) AS qty, SUM(taxable_value) AS taxable
		FROM purchases WHERE qty > 0 GROUP BY product_key
	),
	s AS (SELECT product_key, SUM(qty) AS qty FROM sales WHERE qty > 0 GROUP BY product_key),
	c AS (SELECT product_key, SUM(qty) AS qty FROM consumption WHERE qty > 0 GROUP BY product_key)
	SELECT
		k.product_key,
		COALESCE(pr.opening_stock, 0) AS opening_stock,
		COALESCE(p.qty, 0) AS purchased_qty,
		COALESCE(s.qty, 0) AS sold_qty,
		COALESCE(c.qty, 0) AS consumed_qty,
		COALESCE(pr.opening_stock, 0) + COALESCE(p.qty, 0) - COALESCE(s.qty, 0) - COALESCE(c.qty, 0) AS closing_stock,
		CASE WHEN COALESCE(p.qty, 0) > 0 THEN ROUND(p.taxable / p.qty, 2) ELSE 0 END AS avg_cost
	FROM keys k
	LEFT JOIN products pr ON pr.product_key = k.product_key
	LEFT JOIN p ON p.product_key = k.product_key
	LEFT JOIN s ON s.product_key = k.product_key
	LEFT JOIN c ON c.product_key = k.product_key`,
}
