package coordinator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

const (
	// One transparent retry: the unit of work is reapplied once against a
	// fresh snapshot after a version conflict or a transient persistence
	// failure, then the error is surfaced to the caller.
	defaultMaxAttempts  = 2
	defaultBaseDelay    = 25 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents one attempt of a unit of work. The attempt number
// is 0-based; attempts after the first must bypass any cached snapshot and
// reapply the operation against fresh state.
type RetryableFunc func(ctx context.Context, attempt int) error

// RetryMetrics captures execution metadata of a retried unit of work.
type RetryMetrics struct {
	Attempts         int
	TotalDelay       time.Duration
	LastErrorType    string
	RetriesExhausted bool
}

// retryConfig holds configuration for exponential backoff retry logic.
type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts (first try included).
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter factor added to each backoff delay to
// prevent thundering herd effects. Valid range: 0.0 to 1.0.
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// RetryWithExponentialBackoff executes fn with exponential backoff, retrying
// only on retryable errors (version conflicts and persistence failures) up to
// the configured attempt budget. Domain errors fail fast.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {

	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetrics{}, err
		}
	}

	metrics := RetryMetrics{}
	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec //math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)
			metrics.TotalDelay += backoffDelay

			select {
			case <-time.After(backoffDelay):
				// continue with retry
			case <-ctx.Done():
				metrics.LastErrorType = errorTypeFor(ctx.Err())
				return metrics, ctx.Err()
			}
		}

		metrics.Attempts = attempt + 1
		lastErr = fn(ctx, attempt)
		metrics.LastErrorType = errorTypeFor(lastErr)

		if lastErr == nil {
			return metrics, nil
		}

		if !isRetryableError(lastErr) {
			return metrics, lastErr
		}
	}

	metrics.RetriesExhausted = true

	return metrics, lastErr
}

// isRetryableError determines if an error should be retried: optimistic
// version conflicts and transient persistence failures are, everything else
// fails fast. A context deadline is not retryable - retrying timeouts during
// overload creates cascade failures.
func isRetryableError(err error) bool {
	if errors.Is(err, ledger.ErrVersionConflict) {
		return true
	}

	if errors.Is(err, ledger.ErrPersistence) {
		return true
	}

	return false
}

// errorTypeFor extracts a string representation of the error type for
// metrics labeling.
func errorTypeFor(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ledger.ErrVersionConflict), errors.Is(err, ledger.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ledger.ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}
