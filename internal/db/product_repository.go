package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(conn *sql.DB) *ProductRepository {
	return &ProductRepository{db: conn}
}

// List returns one page of products ordered by id
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	query := "SELECT id, name, price, created_at FROM products ORDER BY id LIMIT $1 OFFSET $2"

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0, limit)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// GetByID returns a single product
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := "SELECT id, name, price, created_at FROM products WHERE id = $1"

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, attrs models.ProductAttributes) (*models.Product, error) {
	query := `
		INSERT INTO products (name, price)
		VALUES ($1, $2)
		RETURNING id, name, price, created_at
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, attrs.Name, attrs.Price).
		Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &p, nil
}

// Update replaces name and price of an existing product
func (r *ProductRepository) Update(ctx context.Context, id int, attrs models.ProductAttributes) (*models.Product, error) {
	query := `
		UPDATE products SET name = $2, price = $3
		WHERE id = $1
		RETURNING id, name, price, created_at
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id, attrs.Name, attrs.Price).
		Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &p, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	query := "DELETE FROM products WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.ErrProductNotFound
	}

	return nil
}
