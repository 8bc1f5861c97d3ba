package ledger

import (
	"fmt"
	"time"
)

// TransactionType is the closed set of operations recorded in the history.
type TransactionType string

const (
	TransactionAdded    TransactionType = "added"
	TransactionRemoved  TransactionType = "removed"
	TransactionBorrowed TransactionType = "borrowed"
	TransactionReturned TransactionType = "returned"
)

// ErrInvalidTransactionType is returned when a transaction record is built
// with a type outside the closed set.
var ErrInvalidTransactionType = fmt.Errorf("%w: unknown transaction type", ErrValidation)

// TransactionRecord is one entry of the append-only history. Records are
// never mutated or deleted; their order is the insertion order of a
// single-writer execution.
type TransactionRecord struct {
	Type       TransactionType `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	BookID     string          `json:"book_id"`
	Details    string          `json:"details"`
}

// BuildTransactionRecord is a factory method for TransactionRecord.
// It fails only on a type outside the closed set.
func BuildTransactionRecord(
	transactionType TransactionType,
	bookID string,
	details string,
	occurredAt time.Time,
) (TransactionRecord, error) {

	switch transactionType {
	case TransactionAdded, TransactionRemoved, TransactionBorrowed, TransactionReturned:
		// valid
	default:
		return TransactionRecord{}, fmt.Errorf("%w: %q", ErrInvalidTransactionType, transactionType)
	}

	return TransactionRecord{
		Type:       transactionType,
		OccurredAt: occurredAt,
		BookID:     bookID,
		Details:    details,
	}, nil
}
