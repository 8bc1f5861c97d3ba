package ledger

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidSnapshotJSON is returned when serialized snapshot data is
	// malformed.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrInconsistentSnapshot is returned by ValidateConsistency when the
	// central invariant is violated: more than one active loan references the
	// same book, or a book's status diverges from the loan collection.
	ErrInconsistentSnapshot = errors.New("snapshot violates the one-active-loan-per-book invariant")
)

// SnapshotVersionUint is a type alias for uint64, representing the
// monotonically increasing version of the persisted dataset used for
// optimistic concurrency detection on save.
type SnapshotVersionUint = uint64

// Snapshot is the complete dataset persisted as one atomic unit: the book
// catalog, the loan ledger, the transaction history and the dataset version.
//
// A Snapshot is a value that flows through one unit of work; it is never
// shared mutable state. Unknown fields in the serialized form are ignored on
// read, and absent collections default to empty so a first-ever load yields
// EmptySnapshot.
type Snapshot struct {
	Books        []Book              `json:"books"`
	Loans        []Loan              `json:"loans"`
	Transactions []TransactionRecord `json:"transactions"`
	Version      SnapshotVersionUint `json:"version"`
}

// EmptySnapshot returns the dataset state before the first ever save: empty
// collections at version 0.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Books:        make([]Book, 0),
		Loans:        make([]Loan, 0),
		Transactions: make([]TransactionRecord, 0),
		Version:      0,
	}
}

// EncodeSnapshot serializes the snapshot to its stable JSON form.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	data, err := jsoniter.ConfigFastest.Marshal(snapshot)
	if err != nil {
		return nil, errors.Join(ErrInvalidSnapshotJSON, err)
	}

	return data, nil
}

// DecodeSnapshot deserializes a snapshot from its JSON form. Nil collection
// fields are defaulted to empty slices and the derived book statuses are
// recomputed, so a snapshot persisted by an interrupted writer is healed on
// read.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if !jsoniter.ConfigFastest.Valid(data) {
		return Snapshot{}, ErrInvalidSnapshotJSON
	}

	var snapshot Snapshot
	if err := jsoniter.ConfigFastest.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, errors.Join(ErrInvalidSnapshotJSON, err)
	}

	if snapshot.Books == nil {
		snapshot.Books = make([]Book, 0)
	}
	if snapshot.Loans == nil {
		snapshot.Loans = make([]Loan, 0)
	}
	if snapshot.Transactions == nil {
		snapshot.Transactions = make([]TransactionRecord, 0)
	}

	snapshot.RecomputeBookStatuses()

	return snapshot, nil
}

// RecomputeBookStatuses derives every book's status from the presence of an
// active loan referencing it, overriding whatever was persisted.
//
// The book status is a cache, not a source of truth. Recomputing it on every
// load turns "book has an active loan but status says available" - the
// signature of a write truncated between the loan mutation and the book
// mutation - into a self-healing condition instead of a corruption.
func (s *Snapshot) RecomputeBookStatuses() {
	onLoan := make(map[string]bool, len(s.Loans))
	for _, loan := range s.Loans {
		if loan.IsActive() {
			onLoan[loan.BookID] = true
		}
	}

	for i := range s.Books {
		if onLoan[s.Books[i].ID] {
			s.Books[i].Status = BookStatusOnLoan
		} else {
			s.Books[i].Status = BookStatusAvailable
		}
	}
}

// ValidateConsistency checks the central invariant: at most one active loan
// per book, every active loan references an existing book, and each book's
// status equals on_loan exactly when an active loan references it.
func (s Snapshot) ValidateConsistency() error {
	books := make(map[string]BookStatus, len(s.Books))
	for _, book := range s.Books {
		books[book.ID] = book.Status
	}

	activeLoans := make(map[string]int, len(s.Loans))
	for _, loan := range s.Loans {
		if !loan.IsActive() {
			continue
		}

		activeLoans[loan.BookID]++

		if activeLoans[loan.BookID] > 1 {
			return fmt.Errorf("%w: book %s has %d active loans",
				ErrInconsistentSnapshot, loan.BookID, activeLoans[loan.BookID])
		}

		if _, exists := books[loan.BookID]; !exists {
			return fmt.Errorf("%w: active loan %s references missing book %s",
				ErrInconsistentSnapshot, loan.ID, loan.BookID)
		}
	}

	for _, book := range s.Books {
		hasActiveLoan := activeLoans[book.ID] > 0
		if hasActiveLoan != (book.Status == BookStatusOnLoan) {
			return fmt.Errorf("%w: book %s has status %q but active loan presence is %t",
				ErrInconsistentSnapshot, book.ID, book.Status, hasActiveLoan)
		}
	}

	return nil
}

// Clone returns a deep copy of the snapshot, so a cached snapshot can be
// handed to a unit of work without aliasing the cache.
func (s Snapshot) Clone() Snapshot {
	clone := Snapshot{
		Books:        make([]Book, len(s.Books)),
		Loans:        make([]Loan, len(s.Loans)),
		Transactions: make([]TransactionRecord, len(s.Transactions)),
		Version:      s.Version,
	}

	copy(clone.Books, s.Books)
	copy(clone.Transactions, s.Transactions)

	for i, loan := range s.Loans {
		if loan.ReturnedAt != nil {
			returnedAt := *loan.ReturnedAt
			loan.ReturnedAt = &returnedAt
		}
		clone.Loans[i] = loan
	}

	return clone
}
