package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/riverstonefx/clob-engine/pkg/errors"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/riverstonefx/clob-engine/pkg/redis"

	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
)

// RedisStore checkpoints a single symbol's snapshot under one Redis key,
// keyed by the symbol itself.
type RedisStore struct {
	symbol      string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewRedisStore builds a RedisStore for symbol using an already-connected
// Redis client.
func NewRedisStore(redisclient redis.Client, symbol string, log *logger.Logger) *RedisStore {
	return &RedisStore{
		symbol:      symbol,
		redisclient: redisclient,
		logger:      log,
	}
}

// Store marshals snapshot to JSON and writes it under the symbol's key.
func (s *RedisStore) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	s.logger.InfoContext(ctx, fmt.Sprintf("storing snapshot for symbol %s", s.symbol), logger.Field{
		Key: "symbol", Value: s.symbol,
	})

	buf, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.symbol, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "symbol", Value: s.symbol})
		return pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	return nil
}

// LoadStore reads and unmarshals the symbol's snapshot. A cache miss returns
// (nil, nil), not an error.
func (s *RedisStore) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.symbol)
	if err != nil {
		return nil, pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("no snapshot found for symbol %s", s.symbol), logger.Field{
			Key: "symbol", Value: s.symbol,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	return &snapshot, nil
}
