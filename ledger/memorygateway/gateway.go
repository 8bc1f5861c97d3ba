// Package memorygateway provides an in-process implementation of the
// ledger.Gateway contract with real compare-and-swap semantics on the dataset
// version. It backs tests and single-process setups; the snapshot is held in
// its serialized form so the codec path is exercised exactly as with a remote
// store.
package memorygateway

import (
	"context"
	"sync"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// Gateway is an in-memory snapshot store. The zero value is not usable;
// construct it with NewGateway.
type Gateway struct {
	mu       sync.Mutex
	data     []byte
	version  ledger.SnapshotVersionUint
	hasData  bool
	saveHook func() error
}

// NewGateway creates an empty in-memory gateway; the first Load returns
// ledger.ErrSnapshotNotFound.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Load returns the current snapshot decoded from its serialized form.
func (g *Gateway) Load(_ context.Context) (ledger.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasData {
		return ledger.Snapshot{}, ledger.ErrSnapshotNotFound
	}

	snapshot, err := ledger.DecodeSnapshot(g.data)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	snapshot.Version = g.version

	return snapshot, nil
}

// Save persists the snapshot if the stored version still equals
// expectedVersion and returns the incremented version. The version check and
// the write happen under one lock, giving the same atomicity as a conditional
// write on a remote store.
func (g *Gateway) Save(
	_ context.Context,
	snapshot ledger.Snapshot,
	expectedVersion ledger.SnapshotVersionUint,
) (ledger.SnapshotVersionUint, error) {

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.saveHook != nil {
		hook := g.saveHook
		g.saveHook = nil

		if err := hook(); err != nil {
			return 0, err
		}
	}

	if g.version != expectedVersion {
		return 0, ledger.ErrVersionConflict
	}

	newVersion := g.version + 1
	snapshot.Version = newVersion

	data, err := ledger.EncodeSnapshot(snapshot)
	if err != nil {
		return 0, err
	}

	g.data = data
	g.version = newVersion
	g.hasData = true

	return newVersion, nil
}

// Version returns the currently stored dataset version.
func (g *Gateway) Version() ledger.SnapshotVersionUint {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.version
}

// FailNextSave makes the next Save call return the given error before any
// state change, simulating an unreachable or truncated backing store. Used by
// tests of the retry and persistence-error paths.
func (g *Gateway) FailNextSave(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.saveHook = func() error { return err }
}

var _ ledger.Gateway = (*Gateway)(nil)
