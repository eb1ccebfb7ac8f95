package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

// InventoryRepository stores stock records in Postgres.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(conn *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: conn}
}

// Get returns the record for productID; found is false when no row exists.
func (r *InventoryRepository) Get(ctx context.Context, productID int) (models.InventoryRecord, bool, error) {
	query := "SELECT product_id, quantity, updated_at FROM inventories WHERE product_id = $1"

	var rec models.InventoryRecord
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&rec.ProductID, &rec.Quantity, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.InventoryRecord{}, false, nil
		}
		return models.InventoryRecord{}, false, fmt.Errorf("failed to get inventory: %w", err)
	}

	return rec, true, nil
}

// Upsert sets the quantity for productID, creating the row if needed.
func (r *InventoryRepository) Upsert(ctx context.Context, productID, quantity int) (models.InventoryRecord, error) {
	query := `
		INSERT INTO inventories (product_id, quantity, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING product_id, quantity, updated_at
	`

	var rec models.InventoryRecord
	err := r.db.QueryRowContext(ctx, query, productID, quantity).
		Scan(&rec.ProductID, &rec.Quantity, &rec.UpdatedAt)
	if err != nil {
		return models.InventoryRecord{}, fmt.Errorf("failed to upsert inventory: %w", err)
	}

	return rec, nil
}

// Delete removes the record for productID. Deleting a missing record is not an error.
func (r *InventoryRepository) Delete(ctx context.Context, productID int) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM inventories WHERE product_id = $1", productID)
	if err != nil {
		return false, fmt.Errorf("failed to delete inventory: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete inventory: %w", err)
	}

	return n > 0, nil
}

// Update applies fn to the current quantity under a row lock. The record is
// created with quantity 0 if absent. If fn fails the transaction is rolled back
// and nothing is written.
func (r *InventoryRepository) Update(ctx context.Context, productID int, fn func(current int) (int, error)) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO inventories (product_id, quantity) VALUES ($1, 0) ON CONFLICT (product_id) DO NOTHING",
		productID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure inventory row: %w", err)
	}

	var current int
	err = tx.QueryRowContext(ctx,
		"SELECT quantity FROM inventories WHERE product_id = $1 FOR UPDATE",
		productID,
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to lock inventory row: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE inventories SET quantity = $2, updated_at = NOW() WHERE product_id = $1",
		productID, next,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit inventory update: %w", err)
	}

	return next, nil
}

// ProductIDs lists every product id that has a stock record.
func (r *InventoryRepository) ProductIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT product_id FROM inventories ORDER BY product_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan inventory id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
