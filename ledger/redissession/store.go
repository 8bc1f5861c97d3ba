// Package redissession stores in-progress multi-turn slot values in Redis,
// implementing ledger.AttributeStore. Successive conversation turns are not
// guaranteed to hit the same process instance, so drafts live here keyed by
// session id, serialized as one JSON document with a TTL matching the
// session lifetime.
package redissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homeshelf/lending-ledger-go/ledger"
	jsoniter "github.com/json-iterator/go"
)

const (
	defaultKeyPrefix = "homeshelf:session:"
	defaultTTL       = 30 * time.Minute
)

var (
	// ErrNilRedisClient is returned when a Store is built without a client.
	ErrNilRedisClient = errors.New("redis client must not be nil")

	// ErrEmptyKeyPrefix is returned by WithKeyPrefix for an empty prefix.
	ErrEmptyKeyPrefix = errors.New("key prefix must not be empty")

	// ErrInvalidTTL is returned by WithTTL for a non-positive TTL.
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// Store is the Redis implementation of ledger.AttributeStore.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ ledger.AttributeStore = (*Store)(nil)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithKeyPrefix sets the Redis key prefix. Defaults to "homeshelf:session:".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) error {
		if prefix == "" {
			return ErrEmptyKeyPrefix
		}

		s.keyPrefix = prefix

		return nil
	}
}

// WithTTL sets how long session attributes survive without being written
// again. Every Put refreshes the TTL. Defaults to 30 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) error {
		if ttl <= 0 {
			return ErrInvalidTTL
		}

		s.ttl = ttl

		return nil
	}
}

// NewStore creates a Store on an existing Redis client.
func NewStore(client redis.UniversalClient, options ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	store := &Store{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultTTL,
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// NewStoreFromAddr connects to Redis at the given address and returns a Store.
func NewStoreFromAddr(addr string, password string, options ...Option) (*Store, error) {
	return NewStore(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), options...)
}

// Get returns the attributes of the session, or an empty map when the
// session has none or they expired.
func (s *Store) Get(ctx context.Context, sessionID string) (map[string]string, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session attributes: %w", err)
	}

	attributes := make(map[string]string)
	if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(raw, &attributes); unmarshalErr != nil {
		return nil, fmt.Errorf("decoding session attributes: %w", unmarshalErr)
	}

	return attributes, nil
}

// Put replaces the attributes of the session and refreshes the TTL. An empty
// attribute map deletes the session key instead of storing an empty document.
func (s *Store) Put(ctx context.Context, sessionID string, attributes map[string]string) error {
	if len(attributes) == 0 {
		return s.Delete(ctx, sessionID)
	}

	raw, err := jsoniter.ConfigFastest.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("encoding session attributes: %w", err)
	}

	if setErr := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); setErr != nil {
		return fmt.Errorf("putting session attributes: %w", setErr)
	}

	return nil
}

// Delete removes the attributes of the session. Deleting an absent session
// is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("deleting session attributes: %w", err)
	}

	return nil
}

func (s *Store) key(sessionID string) string {
	return s.keyPrefix + sessionID
}
