package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	if err := godotenv.Load(); err != nil {
		return err // Return error if .env file loading fails
	}

	if err := env.Parse(cfg); err != nil {
		return err // Return error if environment variable parsing fails
	}

	return nil // Return nil if everything is successful
}

// Config holds the configuration for the matching engine process.
type Config struct {
	Pair        string               `env:"PAIR,required"`         // Trading pair/symbol this process serves, e.g. BTC/USD
	Unit        int64                `env:"UNIT" envDefault:"1"`   // Smallest price increment (tick) Pair is quoted in
	KafkaConfig `envPrefix:"KAFKA_"` // Kafka configuration
	RedisConfig `envPrefix:"REDIS_"` // Redis configuration
	SnapshotConfig
}

// KafkaConfig holds the configuration for Kafka consumer and producer.
type KafkaConfig struct {
	Topic     string   `env:"TOPIC,required"`                      // order ingestion topic
	FillTopic string   `env:"FILL_TOPIC" envDefault:"fills"`       // fill publication topic
	GroupID   string   `env:"GROUP_ID" envDefault:"default_group"` // consumer group id
	Brokers   []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for Redis client.
type RedisConfig struct {
	Addr     string `env:"ADDR,required"`
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// SnapshotConfig controls which checkpoint backend is used and how often a
// checkpoint is taken.
type SnapshotConfig struct {
	Backend             string        `env:"SNAPSHOT_BACKEND" envDefault:"redis"` // "redis" or "pebble"
	PebbleDir           string        `env:"SNAPSHOT_PEBBLE_DIR" envDefault:"./data/snapshot"`
	SnapshotInterval    time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotOffsetDelta int64         `env:"SNAPSHOT_OFFSET_DELTA" envDefault:"1000"`
}
