package snapshotv1

import "context"

// Store checkpoints and restores book state for warm restart. It is a
// point-in-time, replaceable record, not a trade history.
type Store interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	LoadStore(ctx context.Context) (*Snapshot, error)
}
