package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

var errMalformed = errors.New("malformed event")

// ProductRemover drops local state held for a product that no longer exists.
type ProductRemover interface {
	RemoveProduct(ctx context.Context, productID int) error
}

// MessageSource is a consumer-group stream with explicit commits, e.g. messaging.KafkaReader.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

const DefaultRetryWait = time.Second

// ProductDeletedConsumer removes inventory records of deleted products.
type ProductDeletedConsumer struct {
	remover ProductRemover
	logger  *zap.Logger

	// RetryWait is the pause after a failed read and between retries of a failed removal.
	RetryWait time.Duration
}

func NewProductDeletedConsumer(remover ProductRemover, logger *zap.Logger) *ProductDeletedConsumer {
	return &ProductDeletedConsumer{remover: remover, logger: logger, RetryWait: DefaultRetryWait}
}

// Handle processes one product.deleted body.
func (c *ProductDeletedConsumer) Handle(ctx context.Context, body []byte) error {
	var event models.ProductDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.ProductID <= 0 {
		return fmt.Errorf("%w: product_id %d", errMalformed, event.ProductID)
	}

	c.logger.Info("📥 Received product.deleted event",
		zap.Int("product_id", event.ProductID),
		zap.String("event_id", event.EventID),
	)
	return c.remover.RemoveProduct(ctx, event.ProductID)
}

// ProcessDeliveries handles RabbitMQ deliveries until the channel closes.
// Bad messages are dropped; store failures are requeued.
func (c *ProductDeletedConsumer) ProcessDeliveries(ctx context.Context, messages <-chan amqp.Delivery) {
	for msg := range messages {
		err := c.Handle(ctx, msg.Body)
		switch {
		case err == nil:
			msg.Ack(false) // Acknowledge message
		case errors.Is(err, errMalformed):
			c.logger.Error("❌ Failed to parse event", zap.Error(err))
			msg.Nack(false, false) // Don't requeue bad messages
		default:
			c.logger.Error("❌ Failed to remove inventory record", zap.Error(err))
			msg.Nack(false, true) // Requeue for retry
		}
	}
}

// ProcessStream reads from src until ctx is done. An offset is committed only after
// the event was applied or found malformed; store failures are retried in place so
// later events on the partition wait behind them.
func (c *ProductDeletedConsumer) ProcessStream(ctx context.Context, src MessageSource) {
	for {
		msg, err := src.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context done, exiting read loop", zap.Error(err))
				return
			}
			c.logger.Error("❌ Error reading message", zap.Error(err))
			if !c.pause(ctx) {
				return
			}
			continue
		}

		if err := c.handleWithRetry(ctx, msg.Value); err != nil {
			if !errors.Is(err, errMalformed) {
				// Context ended mid-retry; leave the offset for the next group member.
				return
			}
			c.logger.Error("❌ Failed to parse event", zap.Error(err), zap.Int64("offset", msg.Offset))
		}

		if err := src.CommitMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("❌ Failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *ProductDeletedConsumer) handleWithRetry(ctx context.Context, body []byte) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(c.RetryWait), ctx)
	return backoff.RetryNotify(func() error {
		err := c.Handle(ctx, body)
		if errors.Is(err, errMalformed) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		c.logger.Warn("⚠️ Failed to remove inventory record, retrying", zap.Duration("wait", wait), zap.Error(err))
	})
}

// pause waits RetryWait and reports false if ctx ended first.
func (c *ProductDeletedConsumer) pause(ctx context.Context) bool {
	t := time.NewTimer(c.RetryWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
