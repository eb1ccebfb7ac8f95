package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type ProductHandler struct {
	directory *catalog.Directory
}

func NewProductHandler(directory *catalog.Directory) *ProductHandler {
	return &ProductHandler{directory: directory}
}

// Register mounts the public product routes and the key-guarded internal lookup.
func (h *ProductHandler) Register(router gin.IRouter, apiKey string) {
	router.GET("/products", h.ListProducts)
	router.POST("/products", h.CreateProduct)
	router.GET("/products/:id", h.GetProduct)
	router.PATCH("/products/:id", h.UpdateProduct)
	router.DELETE("/products/:id", h.DeleteProduct)

	internal := router.Group("/internal", RequireAPIKey(apiKey))
	internal.GET("/products/:id", h.LookupProduct)
}

// ListProducts returns one page of products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit", catalog.DefaultLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.directory.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	doc := models.CollectionDocument{Data: make([]models.Resource, 0, len(products))}
	for _, p := range products {
		res, err := models.ProductResource(p)
		if err != nil {
			respondError(c, err)
			return
		}
		doc.Data = append(doc.Data, res)
	}
	respond(c, http.StatusOK, doc)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	h.getProduct(c, h.directory.Get)
}

// LookupProduct is the internal existence check; it never answers from cache
func (h *ProductHandler) LookupProduct(c *gin.Context) {
	h.getProduct(c, h.directory.Lookup)
}

func (h *ProductHandler) getProduct(c *gin.Context, get func(context.Context, int) (*models.Product, error)) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondProduct(c, product)
}

// CreateProduct creates a new product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	attrs, ok := h.bindAttributes(c)
	if !ok {
		return
	}

	product, err := h.directory.Create(c.Request.Context(), attrs)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondProduct(c, product)
}

// UpdateProduct replaces name and price
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	attrs, ok := h.bindAttributes(c)
	if !ok {
		return
	}

	product, err := h.directory.Update(c.Request.Context(), id, attrs)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondProduct(c, product)
}

// DeleteProduct removes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.directory.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, models.MetaDocument{Meta: map[string]string{"message": "Product deleted"}})
}

func (h *ProductHandler) bindAttributes(c *gin.Context) (models.ProductAttributes, bool) {
	doc, err := bindDocument(c)
	if err != nil {
		respondError(c, err)
		return models.ProductAttributes{}, false
	}
	attrs, err := bindProduct(doc)
	if err != nil {
		respondError(c, err)
		return models.ProductAttributes{}, false
	}
	return attrs, true
}

func (h *ProductHandler) respondProduct(c *gin.Context, p *models.Product) {
	res, err := models.ProductResource(*p)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, models.Document{Data: res})
}
