// Package history owns the append-only transaction log of a snapshot.
// Records are appended in completion order and served newest first; they are
// never mutated or deleted.
package history

import (
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// Record appends a transaction record to the log. It fails only on a type
// outside the closed set.
func Record(
	snapshot *ledger.Snapshot,
	transactionType ledger.TransactionType,
	bookID string,
	details string,
	now time.Time,
) (ledger.TransactionRecord, error) {

	record, err := ledger.BuildTransactionRecord(transactionType, bookID, details, now)
	if err != nil {
		return ledger.TransactionRecord{}, err
	}

	snapshot.Transactions = append(snapshot.Transactions, record)

	return record, nil
}

// NewestFirst returns the log in reverse insertion order, optionally filtered
// by transaction type. An empty filter returns every record.
func NewestFirst(snapshot ledger.Snapshot, filter ledger.TransactionType) []ledger.TransactionRecord {
	records := make([]ledger.TransactionRecord, 0, len(snapshot.Transactions))
	for i := len(snapshot.Transactions) - 1; i >= 0; i-- {
		record := snapshot.Transactions[i]
		if filter == "" || record.Type == filter {
			records = append(records, record)
		}
	}

	return records
}

// Query serves one page of the log, newest first.
func Query(
	snapshot ledger.Snapshot,
	filter ledger.TransactionType,
	pageIndex int,
	pageSize int,
) (ledger.Page[ledger.TransactionRecord], error) {

	return ledger.BuildPage(NewestFirst(snapshot, filter), pageIndex, pageSize)
}
