package ledgertest

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// FixedTime is a deterministic reference instant for clock-injected tests.
var FixedTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// GivenBook builds a valid book with a generated id, failing the test when
// the factory rejects the input.
func GivenBook(t testing.TB, title string, author string, kind ledger.BookKind) ledger.Book {
	t.Helper()

	book, err := ledger.BuildBook(uuid.NewString(), title, author, kind, FixedTime)
	if err != nil {
		t.Fatalf("building book fixture: %v", err)
	}

	return book
}

// GivenActiveLoan builds a valid active loan for the given book with the
// default loan period.
func GivenActiveLoan(t testing.TB, book ledger.Book, borrower string) ledger.Loan {
	t.Helper()

	loan, err := ledger.BuildLoan(uuid.NewString(), book.ID, borrower, FixedTime, ledger.DefaultLoanPeriod)
	if err != nil {
		t.Fatalf("building loan fixture: %v", err)
	}

	return loan
}

// GivenSnapshot builds a snapshot holding the given books and loans with
// reconciled book statuses.
func GivenSnapshot(books []ledger.Book, loans []ledger.Loan) ledger.Snapshot {
	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, books...)
	snapshot.Loans = append(snapshot.Loans, loans...)
	snapshot.RecomputeBookStatuses()

	return snapshot
}
