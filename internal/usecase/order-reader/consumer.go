package orderreader

import (
	"context"
	"encoding/json"

	orderreaderv1 "github.com/riverstonefx/clob-engine/internal/domain/order-reader/v1"
	"github.com/riverstonefx/clob-engine/pkg/config"
	pkgerrors "github.com/riverstonefx/clob-engine/pkg/errors"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader consumes OrderEvents off the ingestion topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader creates a Reader backed by a Kafka reader configured from config.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset positions the reader at offset, used to resume after restart.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return pkgerrors.NewTracer(string(pkgerrors.EngineConsumerDecodeError)).Wrap(err)
	}
	return nil
}

// ReadMessage reads the next message off the topic and decodes its
// OrderEvent payload.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, orderreaderv1.OrderEvent, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{}, orderreaderv1.OrderEvent{}, err
	}

	var event orderreaderv1.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		r.logError(err, "UnmarshalOrderEvent")
		return kafka.Message{}, orderreaderv1.OrderEvent{}, pkgerrors.NewTracer(string(pkgerrors.EngineConsumerDecodeError)).Wrap(err)
	}

	r.logger.Info("ReadMessage",
		logger.Field{Key: "type", Value: event.Type},
		logger.Field{Key: "orderId", Value: event.OrderID},
		logger.Field{Key: "symbol", Value: event.Symbol},
		logger.Field{Key: "price", Value: event.Price},
		logger.Field{Key: "volume", Value: event.Volume},
		logger.Field{Key: "offset", Value: msg.Offset},
	)

	return msg, event, nil
}

// Close releases the underlying Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits msgs after they have been applied to the engine.
// Offsets are tracked via the snapshot checkpoint rather than consumer
// group commits, so this is a no-op when the reader has no GroupID.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if r.kafkaReader.Config().GroupID == "" {
		return nil
	}
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return err
	}
	return nil
}
