package db

import (
	"context"
	"database/sql"
	"fmt"
)

const ProductsSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Inventory rows reference products.id by value only; the products table lives in
// another service's database.
const InventorySchema = `
	CREATE TABLE IF NOT EXISTS inventories (
		product_id INTEGER PRIMARY KEY,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Migrate runs idempotent schema statements in order.
func Migrate(ctx context.Context, conn *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}
