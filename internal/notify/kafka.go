package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventOrderStatusChanged is the envelope type for status changes.
const EventOrderStatusChanged = "order.status_changed"

// Envelope wraps every message published to Kafka.
type Envelope struct {
	EventID      string       `json:"event_id"`
	EventType    string       `json:"event_type"`
	EventVersion int          `json:"event_version"`
	OccurredAt   time.Time    `json:"occurred_at"`
	Producer     string       `json:"producer"`
	Payload      Notification `json:"payload"`
}

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notifications keyed by order ID so one order's changes
// stay in one partition.
type Kafka struct {
	w        MessageWriter
	producer string
}

func NewKafka(brokers []string, topic string) *Kafka {
	return NewKafkaWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func NewKafkaWriter(w MessageWriter) *Kafka {
	return &Kafka{w: w, producer: "pidebot"}
}

func (s *Kafka) Notify(ctx context.Context, n Notification) error {
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderStatusChanged,
		EventVersion: 1,
		OccurredAt:   n.At.UTC(),
		Producer:     s.producer,
		Payload:      n,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OrderID),
		Value: body,
		Time:  n.At,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	})
	if err != nil {
		return fmt.Errorf("writing to kafka: %w", err)
	}
	return nil
}

func (s *Kafka) Close() error { return s.w.Close() }
