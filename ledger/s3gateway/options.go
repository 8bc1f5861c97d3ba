package s3gateway

import "github.com/homeshelf/lending-ledger-go/ledger"

// Option defines a functional option for configuring the Gateway.
type Option func(*Gateway) error

// WithObjectKey sets the object key under which the snapshot is stored.
// Defaults to "ledger/snapshot.json".
func WithObjectKey(key string) Option {
	return func(g *Gateway) error {
		if key == "" {
			return ErrEmptyObjectKey
		}

		g.objectKey = key

		return nil
	}
}

// WithLogger sets the logger for the Gateway.
func WithLogger(logger ledger.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Gateway.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(g *Gateway) error {
		g.metrics = collector
		return nil
	}
}
