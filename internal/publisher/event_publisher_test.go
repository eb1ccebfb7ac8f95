package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type fakeBroker struct {
	declared  []string
	published map[string][][]byte
	failOn    string
}

func (b *fakeBroker) DeclareQueue(name string) error {
	if name == b.failOn {
		return errors.New("channel closed")
	}
	b.declared = append(b.declared, name)
	return nil
}

func (b *fakeBroker) Publish(_ context.Context, queue string, message []byte) error {
	if b.published == nil {
		b.published = make(map[string][][]byte)
	}
	b.published[queue] = append(b.published[queue], message)
	return nil
}

func TestRabbitPublisherDeclaresAndPublishesJSON(t *testing.T) {
	broker := &fakeBroker{}
	p, err := NewRabbitPublisher(broker, InventoryChangedTopic, ProductDeletedTopic)
	if err != nil {
		t.Fatalf("NewRabbitPublisher: %v", err)
	}
	if len(broker.declared) != 2 {
		t.Fatalf("expected both queues declared, got %v", broker.declared)
	}

	evt := models.InventoryChangedEvent{EventID: "e1", ProductID: 2, Quantity: 5, Delta: -3, Reason: models.ReasonPurchase}
	if err := p.Publish(context.Background(), InventoryChangedTopic, 2, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := broker.published[InventoryChangedTopic]
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	var got models.InventoryChangedEvent
	if err := json.Unmarshal(msgs[0], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ProductID != 2 || got.Quantity != 5 || got.Delta != -3 {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestRabbitPublisherDeclareFailure(t *testing.T) {
	if _, err := NewRabbitPublisher(&fakeBroker{failOn: ProductDeletedTopic}, ProductDeletedTopic); err == nil {
		t.Fatalf("expected declare error")
	}
}

func TestKafkaPublisherUnknownTopic(t *testing.T) {
	p := &KafkaPublisher{}
	if err := p.Publish(context.Background(), "orders", 1, struct{}{}); err == nil {
		t.Fatalf("expected error for unconfigured topic")
	}
}

func TestOpen(t *testing.T) {
	p, err := Open("none", nil, nil, "test", zap.NewNop())
	if err != nil {
		t.Fatalf("Open(none): %v", err)
	}
	if _, ok := p.(Noop); !ok {
		t.Fatalf("expected Noop, got %T", p)
	}
	if _, err := Open("rabbitmq", nil, nil, "test", zap.NewNop()); err == nil {
		t.Fatalf("rabbitmq without a connection must fail")
	}
	if _, err := Open("sqs", nil, nil, "test", zap.NewNop()); err == nil {
		t.Fatalf("unknown backend must fail")
	}
}
