package orderreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// OrderReader reads order events off the ingestion topic.
type OrderReader interface {
	// ReadMessage reads the next message and decodes its OrderEvent payload.
	ReadMessage(ctx context.Context) (kafka.Message, OrderEvent, error)
	// SetOffset positions the reader at offset, used to resume after restart.
	SetOffset(offset int64) error
	// Close releases the underlying Kafka reader.
	Close() error
	// CommitMessages commits msgs after they have been applied to the engine.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}
