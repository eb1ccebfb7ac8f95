// Package inventory keeps a non-negative stock count per product, validating
// every product against the catalog before touching the store.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/publisher"
)

// Store holds one record per product id.
type Store interface {
	// Get reports found=false, not an error, for a product without a record.
	Get(ctx context.Context, productID int) (models.InventoryRecord, bool, error)
	Upsert(ctx context.Context, productID, quantity int) (models.InventoryRecord, error)
	Delete(ctx context.Context, productID int) (bool, error)
	// Update runs fn on the current quantity (0 if absent) and stores its result
	// atomically per product. If fn fails nothing is written.
	Update(ctx context.Context, productID int, fn func(current int) (int, error)) (int, error)
	ProductIDs(ctx context.Context) ([]int, error)
}

// ProductLookup confirms a product exists. It returns apperr.ErrUpstreamNotFound
// for a missing product and a dependency-unavailable error when it cannot tell.
type ProductLookup interface {
	Exists(ctx context.Context, productID int) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key int, event interface{}) error
}

var tracer = otel.Tracer("inventory")

type Ledger struct {
	store    Store
	products ProductLookup
	events   Publisher
	logger   *zap.Logger
}

func NewLedger(store Store, products ProductLookup, events Publisher, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:    store,
		products: products,
		events:   events,
		logger:   logger,
	}
}

// GetStock returns the stock of a known product; no record means zero.
func (l *Ledger) GetStock(ctx context.Context, productID int) (qty int, err error) {
	ctx, span := l.start(ctx, "inventory.get_stock", productID)
	defer func() { endSpan(span, err) }()

	if err := l.ensureProduct(ctx, productID); err != nil {
		return 0, err
	}

	rec, _, err := l.store.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// SetStock overwrites the stock of a known product with quantity.
func (l *Ledger) SetStock(ctx context.Context, productID, quantity int) (qty int, err error) {
	ctx, span := l.start(ctx, "inventory.set_stock", productID)
	defer func() { endSpan(span, err) }()

	if err := l.ensureProduct(ctx, productID); err != nil {
		return 0, err
	}
	if quantity < 0 {
		return 0, apperr.Validation("quantity must be >= 0")
	}

	rec, err := l.store.Upsert(ctx, productID, quantity)
	if err != nil {
		return 0, err
	}

	l.logger.Info("📦 Inventory set", zap.Int("product_id", productID), zap.Int("quantity", rec.Quantity))
	l.publish(ctx, models.InventoryChangedEvent{
		ProductID: productID,
		Quantity:  rec.Quantity,
		Reason:    models.ReasonSet,
	})
	return rec.Quantity, nil
}

// Purchase subtracts amount from the stock of a known product. It never goes
// below zero: a larger amount fails with apperr.ErrInsufficientStock and leaves
// the stock unchanged.
func (l *Ledger) Purchase(ctx context.Context, productID, amount int) (qty int, err error) {
	ctx, span := l.start(ctx, "inventory.purchase", productID)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("inventory.amount", amount))

	if err := l.ensureProduct(ctx, productID); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, apperr.Validation("quantity must be > 0")
	}

	newQty, err := l.store.Update(ctx, productID, func(current int) (int, error) {
		if amount > current {
			return 0, apperr.ErrInsufficientStock
		}
		return current - amount, nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("🛒 Inventory purchased",
		zap.Int("product_id", productID),
		zap.Int("amount", amount),
		zap.Int("quantity", newQty),
	)
	l.publish(ctx, models.InventoryChangedEvent{
		ProductID: productID,
		Quantity:  newQty,
		Delta:     -amount,
		Reason:    models.ReasonPurchase,
	})
	return newQty, nil
}

// RemoveProduct drops the record of a product the catalog no longer has.
func (l *Ledger) RemoveProduct(ctx context.Context, productID int) error {
	removed, err := l.store.Delete(ctx, productID)
	if err != nil {
		return err
	}
	if removed {
		l.logger.Info("🗑️ Inventory record removed", zap.Int("product_id", productID))
	}
	return nil
}

func (l *Ledger) ensureProduct(ctx context.Context, productID int) error {
	if productID <= 0 {
		return apperr.Validation("invalid product id")
	}
	return l.products.Exists(ctx, productID)
}

// publish never fails the caller; the stock change is already committed.
func (l *Ledger) publish(ctx context.Context, event models.InventoryChangedEvent) {
	event.EventID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()

	if err := l.events.Publish(ctx, publisher.InventoryChangedTopic, event.ProductID, event); err != nil {
		l.logger.Warn("⚠️ Failed to publish event",
			zap.String("topic", publisher.InventoryChangedTopic),
			zap.Int("product_id", event.ProductID),
			zap.Error(err),
		)
	}
}

func (l *Ledger) start(ctx context.Context, name string, productID int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attribute.Int("product.id", productID))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.kind", apperr.KindOf(err).String()))
		span.SetStatus(codes.Error, apperr.DetailOf(err))
	}
	span.End()
}
