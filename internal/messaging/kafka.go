package messaging

import (
	"context"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// KafkaWriter publishes to a single topic with trace context in the message headers.
type KafkaWriter struct {
	topic  string
	writer *otelkafka.Writer
	logger *zap.Logger
}

func NewKafkaWriter(brokers []string, topic, clientID string, logger *zap.Logger) (*KafkaWriter, error) {
	baseWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(otel.GetTracerProvider()),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.kafka.client_id", clientID),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka writer: %w", err)
	}

	logger.Info("✅ Kafka writer ready", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaWriter{topic: topic, writer: writer, logger: logger}, nil
}

// Publish writes one message. The key keeps events of one product on one partition.
func (w *KafkaWriter) Publish(ctx context.Context, key, message []byte) error {
	// WriteMessage (singular) carries the span context; WriteMessages does not.
	if err := w.writer.WriteMessage(ctx, kafka.Message{Key: key, Value: message}); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	w.logger.Debug("📤 Message published", zap.String("topic", w.topic))
	return nil
}

func (w *KafkaWriter) Close() error {
	return w.writer.Close()
}

// KafkaReader is a traced consumer-group reader on one topic.
type KafkaReader struct {
	reader *otelkafka.Reader
}

func NewKafkaReader(brokers []string, topic, groupID string, logger *zap.Logger) (*KafkaReader, error) {
	baseReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})

	reader, err := otelkafka.NewReader(baseReader)
	if err != nil {
		baseReader.Close()
		return nil, fmt.Errorf("failed to create Kafka reader: %w", err)
	}

	logger.Info("👂 Listening on topic", zap.String("topic", topic), zap.String("group", groupID))
	return &KafkaReader{reader: reader}, nil
}

// FetchMessage blocks for the next message without committing its offset.
func (r *KafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	var msg kafka.Message
	if err := r.reader.FetchMessage(ctx, &msg); err != nil {
		return kafka.Message{}, err
	}
	return msg, nil
}

// CommitMessage marks msg as processed for the consumer group.
func (r *KafkaReader) CommitMessage(ctx context.Context, msg kafka.Message) error {
	return r.reader.CommitMessages(ctx, msg)
}

func (r *KafkaReader) Close() error {
	return r.reader.Close()
}
