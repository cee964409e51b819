package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"tickalert/internal/application/port"
	"tickalert/internal/domain/model"
)

const EventSpikeAlert = "SPIKE_ALERT"

// AlertEvent message value published per dispatched alert, keyed by symbol
type AlertEvent struct {
	EventType string           `json:"event_type"`
	AlertID   string           `json:"alert_id"`
	Symbol    string           `json:"symbol"`
	Price     string           `json:"price"`
	Volume    int64            `json:"volume"`
	Condition int              `json:"condition"`
	News      []model.NewsItem `json:"news"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes alert events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) Name() string { return "kafka" }

// Publish implements port.AlertPublisher
func (p *Producer) Publish(ctx context.Context, a *model.Alert) error {
	return p.publish(ctx, a.Detection.Symbol, newAlertEvent(a))
}

func newAlertEvent(a *model.Alert) AlertEvent {
	return AlertEvent{
		EventType: EventSpikeAlert,
		AlertID:   a.ID,
		Symbol:    a.Detection.Symbol,
		Price:     a.Detection.Price.String(),
		Volume:    a.Detection.Volume,
		Condition: a.Detection.Condition,
		News:      a.News,
		Text:      a.Text,
		Timestamp: a.CreatedAt,
	}
}

func (p *Producer) publish(ctx context.Context, key string, event AlertEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ port.AlertPublisher = (*Producer)(nil)
