// Package adapters bridges the snapshot gateway to the supported database
// access libraries. Each adapter wraps one driver behind the small DBAdapter
// contract so the gateway builds SQL once and runs it against any of them.
package adapters
