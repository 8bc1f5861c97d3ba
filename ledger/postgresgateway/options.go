package postgresgateway

import (
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

var _ ledger.Gateway = Gateway{}

// Option defines a functional option for configuring the Gateway.
type Option func(*Gateway) error

// WithTableName sets the snapshot table name. Defaults to "ledger_snapshots".
func WithTableName(tableName string) Option {
	return func(g *Gateway) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		g.tableName = tableName

		return nil
	}
}

// WithSnapshotKey sets the row key under which the dataset is stored, so
// several independent datasets can share one table. Defaults to "primary".
func WithSnapshotKey(key string) Option {
	return func(g *Gateway) error {
		if key == "" {
			return ErrEmptySnapshotKey
		}

		g.snapshotKey = key

		return nil
	}
}

// WithClock sets the time source for the updated_at column. Defaults to
// time.Now.
func WithClock(clock func() time.Time) Option {
	return func(g *Gateway) error {
		g.clock = clock
		return nil
	}
}

// WithLogger sets the logger for the Gateway.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: load/save completions and version conflicts (production-safe)
// Warn level: non-critical issues like row cleanup failures
// Error level: failures that abort the operation.
func WithLogger(logger ledger.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Gateway. It receives load
// and save durations and a version conflict counter, labeled by snapshot key.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(g *Gateway) error {
		g.metrics = collector
		return nil
	}
}
