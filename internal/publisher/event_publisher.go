package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/config"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/messaging"
)

const (
	InventoryChangedTopic = "inventory.changed"
	ProductDeletedTopic   = "product.deleted"
)

// EventPublisher sends a domain event to a named topic. key identifies the
// product the event is about.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key int, event interface{}) error
	Close() error
}

type queueBroker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

// RabbitPublisher publishes each topic to a durable queue of the same name.
type RabbitPublisher struct {
	mq queueBroker
}

func NewRabbitPublisher(mq queueBroker, topics ...string) (*RabbitPublisher, error) {
	// Declare the queues
	for _, topic := range topics {
		if err := mq.DeclareQueue(topic); err != nil {
			return nil, err
		}
	}

	return &RabbitPublisher{mq: mq}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic string, _ int, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, topic, data)
}

// Close is a no-op; the connection belongs to the caller.
func (p *RabbitPublisher) Close() error { return nil }

// KafkaPublisher holds one writer per topic.
type KafkaPublisher struct {
	writers map[string]*messaging.KafkaWriter
}

func NewKafkaPublisher(brokers []string, clientID string, logger *zap.Logger, topics ...string) (*KafkaPublisher, error) {
	p := &KafkaPublisher{writers: make(map[string]*messaging.KafkaWriter, len(topics))}
	for _, topic := range topics {
		w, err := messaging.NewKafkaWriter(brokers, topic, clientID, logger)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.writers[topic] = w
	}
	return p, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key int, event interface{}) error {
	w, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no kafka writer for topic %q", topic)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return w.Publish(ctx, []byte(strconv.Itoa(key)), data)
}

func (p *KafkaPublisher) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Noop drops every event. Used when EVENTS_BACKEND=none.
type Noop struct{}

func (Noop) Publish(context.Context, string, int, interface{}) error { return nil }
func (Noop) Close() error                                            { return nil }

// Open builds the publisher for an EVENTS_BACKEND value. mq is required for rabbitmq.
func Open(backend string, mq *messaging.RabbitMQ, brokers []string, clientID string, logger *zap.Logger, topics ...string) (EventPublisher, error) {
	switch backend {
	case config.EventsBackendRabbitMQ:
		if mq == nil {
			return nil, errors.New("rabbitmq backend selected without a connection")
		}
		return NewRabbitPublisher(mq, topics...)
	case config.EventsBackendKafka:
		return NewKafkaPublisher(brokers, clientID, logger, topics...)
	case config.EventsBackendNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", backend)
	}
}
