package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

func TestProductRepositoryCreate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (name, price)")).
		WithArgs("Lap", decimal.NewFromInt(1200)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at"}).
			AddRow(2, "Lap", "1200.00", now))

	repo := NewProductRepository(conn)
	p, err := repo.Create(context.Background(), models.ProductAttributes{Name: "Lap", Price: decimal.NewFromInt(1200)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != 2 || p.Name != "Lap" || !p.Price.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected product %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestProductRepositoryGetByIDNotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at"}))

	_, err = NewProductRepository(conn).GetByID(context.Background(), 999)
	if !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepositoryListPassesLimitOffset(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id LIMIT $1 OFFSET $2")).
		WithArgs(2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at"}).
			AddRow(5, "Mouse", "25.50", now).
			AddRow(6, "Pad", "9.99", now))

	products, err := NewProductRepository(conn).List(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(products) != 2 || products[0].ID != 5 || !products[1].Price.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected page %+v", products)
	}
}

func TestProductRepositoryDeleteMissing(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewProductRepository(conn).Delete(context.Background(), 7); !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
