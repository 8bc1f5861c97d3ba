// Package postgresgateway persists the dataset snapshot in a single Postgres
// row per snapshot key. Writes are conditioned on the stored version: the
// UPDATE carries a version predicate and an affected-row count of zero means
// another writer committed first, surfaced as ledger.ErrVersionConflict.
//
// The gateway works with pgxpool.Pool, database/sql and sqlx.DB connections
// through the internal adapter layer; SQL is built once with goqu.
//
// Expected schema:
//
//	CREATE TABLE ledger_snapshots (
//	    snapshot_key TEXT PRIMARY KEY,
//	    payload      JSONB NOT NULL,
//	    version      BIGINT NOT NULL,
//	    updated_at   TIMESTAMP WITH TIME ZONE NOT NULL
//	);
package postgresgateway
