package adapters

import "context"

// DBAdapter is the database access contract of the snapshot gateway.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows is the result-set contract for snapshot reads.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult is the execution-result contract for snapshot writes. The
// rows-affected count carries the optimistic concurrency signal.
type DBResult interface {
	RowsAffected() (int64, error)
}
