package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/inventory"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type InventoryHandler struct {
	ledger *inventory.Ledger
}

func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// Register mounts the inventory routes; writes require the inventory API key.
func (h *InventoryHandler) Register(router gin.IRouter, apiKey string) {
	auth := RequireAPIKey(apiKey)
	router.GET("/inventory/:id", h.GetInventory)
	router.POST("/inventory", auth, h.SetInventory)
	router.PATCH("/inventory/:id/purchase", auth, h.Purchase)
}

// GetInventory returns the stock of a product
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	qty, err := h.ledger.GetStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondStock(c, id, qty)
}

// SetInventory overwrites the stock of the product named by data.id
func (h *InventoryHandler) SetInventory(c *gin.Context) {
	doc, err := bindDocument(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if doc.Data.ID == nil {
		respondError(c, apperr.Validation("data.id (product_id) is required"))
		return
	}
	quantity, err := bindQuantity(doc)
	if err != nil {
		respondError(c, err)
		return
	}

	id := *doc.Data.ID
	qty, err := h.ledger.SetStock(c.Request.Context(), id, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondStock(c, id, qty)
}

// Purchase subtracts data.attributes.quantity from the stock
func (h *InventoryHandler) Purchase(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	doc, err := bindDocument(c)
	if err != nil {
		respondError(c, err)
		return
	}
	amount, err := bindQuantity(doc)
	if err != nil {
		respondError(c, err)
		return
	}

	qty, err := h.ledger.Purchase(c.Request.Context(), id, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondStock(c, id, qty)
}

func (h *InventoryHandler) respondStock(c *gin.Context, productID, qty int) {
	res, err := models.InventoryResource(productID, qty)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, models.Document{Data: res})
}
