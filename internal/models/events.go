package models

import "time"

const (
	ReasonSet      = "set"
	ReasonPurchase = "purchase"
)

// InventoryChangedEvent is published after every successful stock mutation
type InventoryChangedEvent struct {
	EventID    string    `json:"event_id"`
	ProductID  int       `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Delta      int       `json:"delta,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProductDeletedEvent is published when a product is removed from the catalog
type ProductDeletedEvent struct {
	EventID    string    `json:"event_id"`
	ProductID  int       `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
