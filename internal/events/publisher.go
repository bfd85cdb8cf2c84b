// Package events streams executed orders to Kafka for downstream consumers
// (analytics, notifications). Publishing is best-effort: a broker outage
// must never fail an order that already committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/models"
)

type Publisher interface {
	PublishOrder(ctx context.Context, rec models.OrderRecord) error
	Close() error
}

type kafkaPublisher struct {
	w      *kafka.Writer
	logger *zap.Logger
}

// NewKafka builds a publisher over the given brokers and topic.
func NewKafka(brokers []string, topic string, logger *zap.Logger) Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           200 * time.Millisecond,
	}
	return &kafkaPublisher{w: w, logger: logger}
}

func (p *kafkaPublisher) PublishOrder(ctx context.Context, rec models.OrderRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	key := []byte(fmt.Sprintf("%d|%d", rec.AccountID, rec.StockID))
	return p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: b, Time: rec.TS})
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }

type nopPublisher struct{}

// NewNop returns a publisher that drops everything. Used when no brokers are
// configured.
func NewNop() Publisher { return nopPublisher{} }

func (nopPublisher) PublishOrder(context.Context, models.OrderRecord) error { return nil }
func (nopPublisher) Close() error                                           { return nil }
