package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const ProductType = "products"

func init() {
	// Render prices as JSON numbers, the way clients send them.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductAttributes is the mutable part of a product, used for create and full update.
type ProductAttributes struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (p Product) Attributes() ProductAttributes {
	return ProductAttributes{Name: p.Name, Price: p.Price}
}

// ProductInput is the request form of ProductAttributes. Absent fields stay nil.
// Price is kept raw so it can be parsed as a number or a numeric string.
type ProductInput struct {
	Name  *string         `json:"name"`
	Price json.RawMessage `json:"price"`
}
