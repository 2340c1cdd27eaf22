package matchpublisher

import (
	"context"
	"encoding/json"

	matchpublisherv1 "github.com/riverstonefx/clob-engine/internal/domain/match-publisher/v1"
	"github.com/riverstonefx/clob-engine/pkg/config"
	pkgerrors "github.com/riverstonefx/clob-engine/pkg/errors"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes FillEvents to the fill-reporting topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a Publisher backed by a Kafka writer configured from config.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.FillTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishMatchEvent publishes a fill event to the Kafka topic.
func (p *Publisher) PublishMatchEvent(ctx context.Context, event *matchpublisherv1.FillEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(err, logger.Field{Key: "event", Value: event})
		return pkgerrors.NewTracer(string(pkgerrors.EnginePublishError)).Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Symbol),
		Value: payload,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "event", Value: event},
		)
		return pkgerrors.NewTracer(string(pkgerrors.EnginePublishError)).Wrap(err)
	}
	return nil
}

// Close flushes and releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
