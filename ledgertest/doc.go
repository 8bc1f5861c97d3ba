// Package ledgertest provides shared test helpers: spies for the ledger
// observability contracts, fixture builders for valid domain values, and an
// in-memory session attribute store with failure injection.
package ledgertest
