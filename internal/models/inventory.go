package models

import "time"

const InventoryType = "inventories"

// InventoryRecord is the stock count held for one product. Quantity is never negative.
type InventoryRecord struct {
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InventoryAttributes struct {
	Quantity int `json:"quantity"`
}

// InventoryInput is the request form of InventoryAttributes.
type InventoryInput struct {
	Quantity *int `json:"quantity"`
}
