package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

const (
	// ContentType is sent with every document response.
	ContentType = "application/vnd.api+json"
	// APIKeyHeader carries the shared secret on authenticated routes.
	APIKeyHeader = "x-api-key"
)

var ErrMissingAttributes = errors.New("data.attributes is required")

// Resource is a single entry of a document's data member.
type Resource struct {
	ID         *int            `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

// Document wraps a single resource: {"data": {...}}.
type Document struct {
	Data Resource `json:"data"`
}

// CollectionDocument wraps a list of resources: {"data": [...]}.
type CollectionDocument struct {
	Data []Resource `json:"data"`
}

type ErrorObject struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ErrorDocument is the uniform failure envelope of both services.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

type MetaDocument struct {
	Meta map[string]string `json:"meta"`
}

func NewErrorDocument(status int, detail string) ErrorDocument {
	return ErrorDocument{Errors: []ErrorObject{{Status: strconv.Itoa(status), Detail: detail}}}
}

// NewResource builds a resource with attributes marshaled from attrs.
func NewResource(id int, typ string, attrs any) (Resource, error) {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return Resource{}, err
	}
	return Resource{ID: &id, Type: typ, Attributes: raw}, nil
}

// DecodeAttributes unmarshals the resource attributes into dest.
func (r Resource) DecodeAttributes(dest any) error {
	if len(r.Attributes) == 0 {
		return ErrMissingAttributes
	}
	return json.Unmarshal(r.Attributes, dest)
}

func ProductResource(p Product) (Resource, error) {
	return NewResource(p.ID, ProductType, p.Attributes())
}

func InventoryResource(productID, quantity int) (Resource, error) {
	return NewResource(productID, InventoryType, InventoryAttributes{Quantity: quantity})
}
