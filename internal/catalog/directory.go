// Package catalog owns product records and their lifecycle.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/publisher"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Repository persists products. Missing ids report apperr.ErrProductNotFound.
type Repository interface {
	Create(ctx context.Context, attrs models.ProductAttributes) (*models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	Update(ctx context.Context, id int, attrs models.ProductAttributes) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

// uncachedReader is implemented by repositories that front a cache.
type uncachedReader interface {
	GetByIDUncached(ctx context.Context, id int) (*models.Product, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key int, event interface{}) error
}

var tracer = otel.Tracer("catalog")

type Directory struct {
	repo   Repository
	events Publisher
	logger *zap.Logger
}

func NewDirectory(repo Repository, events Publisher, logger *zap.Logger) *Directory {
	return &Directory{repo: repo, events: events, logger: logger}
}

func validate(attrs models.ProductAttributes) (models.ProductAttributes, error) {
	attrs.Name = strings.TrimSpace(attrs.Name)
	if attrs.Name == "" {
		return attrs, apperr.Validation("name is required")
	}
	if attrs.Price.IsNegative() {
		return attrs, apperr.Validation("price must be >= 0")
	}
	return attrs, nil
}

func (d *Directory) Create(ctx context.Context, attrs models.ProductAttributes) (*models.Product, error) {
	attrs, err := validate(attrs)
	if err != nil {
		return nil, err
	}

	p, err := d.repo.Create(ctx, attrs)
	if err != nil {
		return nil, err
	}

	d.logger.Info("✅ Product created", zap.Int("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (d *Directory) Get(ctx context.Context, id int) (*models.Product, error) {
	return d.repo.GetByID(ctx, id)
}

// Lookup answers existence checks from other services. It skips any read cache so a
// deleted product is never reported as present.
func (d *Directory) Lookup(ctx context.Context, id int) (*models.Product, error) {
	if r, ok := d.repo.(uncachedReader); ok {
		return r.GetByIDUncached(ctx, id)
	}
	return d.repo.GetByID(ctx, id)
}

// List returns at most limit products. A non-positive limit means DefaultLimit.
func (d *Directory) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return d.repo.List(ctx, limit, offset)
}

// Update fully replaces name and price.
func (d *Directory) Update(ctx context.Context, id int, attrs models.ProductAttributes) (*models.Product, error) {
	attrs, err := validate(attrs)
	if err != nil {
		return nil, err
	}
	return d.repo.Update(ctx, id, attrs)
}

// Delete removes the product and announces it so dependants can clean up.
func (d *Directory) Delete(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "catalog.delete")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", id))

	if err := d.repo.Delete(ctx, id); err != nil {
		return err
	}

	event := models.ProductDeletedEvent{
		EventID:    uuid.NewString(),
		ProductID:  id,
		OccurredAt: time.Now().UTC(),
	}
	if err := d.events.Publish(ctx, publisher.ProductDeletedTopic, id, event); err != nil {
		// The product is already gone; the reconcile sweep catches what the event misses.
		d.logger.Warn("⚠️ Failed to publish event", zap.String("topic", publisher.ProductDeletedTopic), zap.Error(err))
	} else {
		d.logger.Info("📤 Published product.deleted event", zap.Int("product_id", id))
	}

	d.logger.Info("🗑️ Product deleted", zap.Int("product_id", id))
	return nil
}
