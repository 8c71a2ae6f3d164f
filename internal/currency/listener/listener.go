package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/currency/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const eventRateSynced = "CurrencyRateSynced"

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// RateListener applies rates published by the external rate feed.
type RateListener struct {
	reader  MessageReader
	uc      currency.UseCase
	logger  logger.ZapLogger
	backoff time.Duration
}

func NewRateListener(reader MessageReader, uc currency.UseCase, logger logger.ZapLogger) *RateListener {
	return &RateListener{
		reader:  reader,
		uc:      uc,
		logger:  logger,
		backoff: time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *RateListener) Start(ctx context.Context) {
	l.logger.Info("Starting Currency Rate Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Currency Rate Kafka Listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *RateListener) processMessage(ctx context.Context, value []byte) {
	var event dto.RateSyncedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != eventRateSynced {
		return
	}

	p := event.Payload
	source := p.Source
	if source == "" {
		source = "feed"
	}

	_, err := l.uc.SetRate(ctx, &dto.SetRateInput{
		From:   p.FromCurrency,
		To:     p.ToCurrency,
		Rate:   p.Rate,
		Date:   p.EffectiveDate,
		Source: source,
	})
	if err != nil {
		l.logger.Error("Failed to apply synced rate",
			zap.String("from", p.FromCurrency),
			zap.String("to", p.ToCurrency),
			zap.Error(err),
		)
	}
}
