package coordinator

import (
	"errors"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

var (
	// ErrNilClock is returned when a nil clock is provided to WithClock.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrInvalidLoanPeriod is returned when the loan period is not positive.
	ErrInvalidLoanPeriod = errors.New("loan period must be positive")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrNilSessionStore is returned when a nil store is provided to WithSessionStore.
	ErrNilSessionStore = errors.New("session store must not be nil")
)

// Option defines a functional option for configuring a Coordinator.
type Option func(*Coordinator) error

// WithClock sets the time source used for due dates and transaction
// timestamps. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) error {
		if clock == nil {
			return ErrNilClock
		}

		c.clock = clock

		return nil
	}
}

// WithLoanPeriod sets the time a borrower has to return a book.
// Defaults to ledger.DefaultLoanPeriod.
func WithLoanPeriod(period time.Duration) Option {
	return func(c *Coordinator) error {
		if period <= 0 {
			return ErrInvalidLoanPeriod
		}

		c.loanPeriod = period

		return nil
	}
}

// WithPageSize sets the fixed page size of the paginated queries.
// Defaults to ledger.DefaultPageSize.
func WithPageSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			return ErrInvalidPageSize
		}

		c.pageSize = size

		return nil
	}
}

// WithSessionStore sets the session-scoped attribute store that carries
// in-progress multi-turn slot values between conversation turns.
func WithSessionStore(store ledger.AttributeStore) Option {
	return func(c *Coordinator) error {
		if store == nil {
			return ErrNilSessionStore
		}

		c.sessionStore = store

		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for the units of work.
func WithRetryOptions(options ...RetryOption) Option {
	return func(c *Coordinator) error {
		c.retryOptions = options
		return nil
	}
}

// WithLogger sets the logger for the Coordinator.
//
// Info level: committed units of work with version and timing, failed
// operations with their outcome code.
// Warn level: exhausted optimistic concurrency retries.
// Error level: snapshot load failures.
func WithLogger(logger ledger.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Coordinator. It receives
// operation durations and counts labeled by operation and outcome, and a
// counter of exhausted concurrency conflicts.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(c *Coordinator) error {
		c.metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Coordinator. Every unit of
// work runs inside one span carrying the operation name; the span finishes
// with the outcome code as its status.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(c *Coordinator) error {
		c.tracing = collector
		return nil
	}
}
