package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards stock changes to other services. Messages are keyed
// by product so per-product ordering survives partitioning.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	logger  logger.ZapLogger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaPublisher(writer MessageWriter, log logger.ZapLogger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		timeout: 5 * time.Second,
		logger:  log,
	}
}

type stockChangedMessage struct {
	EventType string                 `json:"event_type"`
	Payload   model.StockChangeEvent `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.StockChangeEvent) error {
	body, err := json.Marshal(stockChangedMessage{
		EventType: "StockChanged",
		Payload:   event,
		Timestamp: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.ProductID), Value: body}); err != nil {
		return fmt.Errorf("publish stock event for %s: %w", event.ProductID, err)
	}

	p.logger.Debug("Stock event published",
		zap.String("product_id", event.ProductID),
		zap.Int("new_stock", event.NewStock))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
