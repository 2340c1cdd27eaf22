package snapshot

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/pebble"

	pkgerrors "github.com/riverstonefx/clob-engine/pkg/errors"

	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
)

// snapshotKey is the single fixed key a PebbleStore's database holds: one
// process serves one symbol, so there is never a need to namespace by key.
var snapshotKey = []byte("snapshot")

// PebbleStore checkpoints a symbol's snapshot in an embedded, WAL-backed
// key-value store, for single-process deployments that don't want a Redis
// dependency. Durability comes from opening with the WAL enabled and
// writing with pebble.Sync.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (creating if absent) a pebble database at dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}
	return &PebbleStore{db: db}, nil
}

// Close releases the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// Store marshals snapshot to JSON and writes it under the fixed snapshot
// key, fsyncing before returning.
func (s *PebbleStore) Store(_ context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	if err := s.db.Set(snapshotKey, buf, pebble.Sync); err != nil {
		return pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}
	return nil
}

// LoadStore reads back the fixed snapshot key. A missing key returns
// (nil, nil), not an error.
func (s *PebbleStore) LoadStore(_ context.Context) (*snapshotv1.Snapshot, error) {
	val, closer, err := s.db.Get(snapshotKey)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}
	defer closer.Close()

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		return nil, pkgerrors.NewTracer(string(pkgerrors.EngineSnapshotStoreError)).Wrap(err)
	}

	return &snapshot, nil
}
