package ledger

import (
	"context"
	"errors"
)

var (
	// ErrSnapshotNotFound is returned by Gateway.Load when no dataset has
	// ever been persisted. Callers treat it as EmptySnapshot, not as a
	// failure.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrVersionConflict is returned by Gateway.Save when the persisted
	// version no longer matches the expected version, meaning a concurrent
	// writer committed since the snapshot was loaded.
	ErrVersionConflict = errors.New("version conflict, no rows were affected")
)

// Gateway is the persistence contract for the dataset snapshot. It is
// implemented by storage adapters (Postgres, S3-compatible object stores, or
// in-memory for tests); the conditional write in Save is the sole
// synchronization point between concurrent writers - no locks are held across
// the store boundary.
type Gateway interface {
	// Load returns the current snapshot, or ErrSnapshotNotFound before the
	// first ever save.
	Load(ctx context.Context) (Snapshot, error)

	// Save persists the snapshot if and only if the stored version still
	// equals expectedVersion, and returns the new version. Returns
	// ErrVersionConflict when a concurrent writer got there first.
	Save(ctx context.Context, snapshot Snapshot, expectedVersion SnapshotVersionUint) (SnapshotVersionUint, error)
}
