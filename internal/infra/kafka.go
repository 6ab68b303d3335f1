package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaProducer publishes outbox events with kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaProducer creates a producer. Each event goes to the topic named by
// its event type, keyed by its partition key so one guild stays ordered.
func NewKafkaProducer(brokers []string, logger *slog.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger}
}

// EventMessage converts an outbox row into a Kafka message.
func EventMessage(d domain.OutboxDraft) kafka.Message {
	return kafka.Message{
		Topic: d.Topic(),
		Key:   []byte(d.PartitionKey),
		Value: d.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(d.EventID.String())},
			{Key: "event_type", Value: []byte(d.EventType)},
			{Key: "aggregate_type", Value: []byte(d.AggregateType)},
			{Key: "aggregate_id", Value: []byte(d.AggregateID)},
		},
		Time: d.OccurredAt,
	}
}

// PublishEvents writes the batch; it either fully succeeds or returns an error.
func (p *KafkaProducer) PublishEvents(ctx context.Context, events []domain.OutboxDraft) error {
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		msgs[i] = EventMessage(e)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads one topic as part of a consumer group.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer creates a Kafka consumer for the given topic and group.
func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaConsumer{reader: r}
}

// Fetch blocks for the next message without committing it.
func (c *KafkaConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

// Commit marks msg as processed for the group.
func (c *KafkaConsumer) Commit(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

// Close shuts down the Kafka reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// Header returns the named header value, or "".
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
