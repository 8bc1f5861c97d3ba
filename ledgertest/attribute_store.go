package ledgertest

import (
	"context"
	"sync"
)

// AttributeStoreStub is an in-memory ledger.AttributeStore for tests.
type AttributeStoreStub struct {
	mu         sync.Mutex
	attributes map[string]map[string]string
	getErr     error
	putErr     error
	deleteErr  error
}

// NewAttributeStoreStub creates an empty in-memory attribute store.
func NewAttributeStoreStub() *AttributeStoreStub {
	return &AttributeStoreStub{attributes: make(map[string]map[string]string)}
}

// Get implements the AttributeStore interface. A session without attributes
// yields an empty map, matching a fresh conversation.
func (s *AttributeStoreStub) Get(_ context.Context, sessionID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	attributes := make(map[string]string, len(s.attributes[sessionID]))
	for key, value := range s.attributes[sessionID] {
		attributes[key] = value
	}

	return attributes, nil
}

// Put implements the AttributeStore interface.
func (s *AttributeStoreStub) Put(_ context.Context, sessionID string, attributes map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return s.putErr
	}

	stored := make(map[string]string, len(attributes))
	for key, value := range attributes {
		stored[key] = value
	}
	s.attributes[sessionID] = stored

	return nil
}

// Delete implements the AttributeStore interface.
func (s *AttributeStoreStub) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}

	delete(s.attributes, sessionID)

	return nil
}

// Has reports whether the session currently has stored attributes.
func (s *AttributeStoreStub) Has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.attributes[sessionID]) > 0
}

// FailGets makes all subsequent Get calls return the given error.
func (s *AttributeStoreStub) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getErr = err
}

// FailDeletes makes all subsequent Delete calls return the given error.
func (s *AttributeStoreStub) FailDeletes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteErr = err
}
