package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

var errInvalidID = apperr.Validation("invalid product id")

// respond writes v as a document with the vnd.api+json content type
func respond(c *gin.Context, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(status, models.ContentType, body)
}

// respondError renders err through the error envelope and aborts the chain
func respondError(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	body, _ := json.Marshal(models.NewErrorDocument(status, apperr.DetailOf(err)))
	c.Data(status, models.ContentType, body)
	c.Abort()
}

func parseID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// bindDocument decodes a single-resource document. Decode failures are validation errors.
func bindDocument(c *gin.Context) (models.Document, error) {
	var doc models.Document
	if err := json.NewDecoder(c.Request.Body).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, apperr.Validation("request body is required")
		}
		return doc, decodeError("invalid JSON body", err)
	}
	return doc, nil
}

func decodeAttributes(doc models.Document, dest interface{}) error {
	if err := doc.Data.DecodeAttributes(dest); err != nil {
		if errors.Is(err, models.ErrMissingAttributes) {
			return apperr.Validation(err.Error())
		}
		return decodeError("invalid attributes", err)
	}
	return nil
}

// decodeError turns a JSON decode failure into a field-level message without Go type names.
func decodeError(fallback string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation(typeErr.Field + " must be " + jsonKind(typeErr.Type))
	}
	return apperr.Validation(fallback)
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

// bindQuantity decodes data.attributes.quantity, which must be present.
func bindQuantity(doc models.Document) (int, error) {
	var in models.InventoryInput
	if err := decodeAttributes(doc, &in); err != nil {
		return 0, err
	}
	if in.Quantity == nil {
		return 0, apperr.Validation("quantity is required")
	}
	return *in.Quantity, nil
}

// bindProduct decodes name and price. Both are required on create and update.
func bindProduct(doc models.Document) (models.ProductAttributes, error) {
	var in models.ProductInput
	if err := decodeAttributes(doc, &in); err != nil {
		return models.ProductAttributes{}, err
	}
	if in.Name == nil {
		return models.ProductAttributes{}, apperr.Validation("name is required")
	}
	if len(in.Price) == 0 || string(in.Price) == "null" {
		return models.ProductAttributes{}, apperr.Validation("price is required")
	}
	var price decimal.Decimal
	if err := price.UnmarshalJSON(in.Price); err != nil {
		return models.ProductAttributes{}, apperr.Validation("price must be a number")
	}
	return models.ProductAttributes{Name: *in.Name, Price: price}, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return n, nil
}
