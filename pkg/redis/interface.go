package redis

import (
	"context"
	"time"
)

// Client defines the interface for a Redis client. Trimmed to connection
// lifecycle plus the get/set key-value pair RedisStore uses for the
// snapshot blob.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}
