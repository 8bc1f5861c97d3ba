// Package catalog owns the Book collection of a snapshot: adding, listing,
// searching and removing books, and the status transitions driven by the
// coordinator.
//
// All functions operate on the snapshot of one unit of work; none of them
// touch persistent state.
package catalog

import (
	"strings"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// Add creates a new book with a fresh id and initial status available, and
// appends it to the catalog in insertion order. Returns an error chained onto
// ledger.ErrValidation for empty fields or a kind outside the closed set.
func Add(
	snapshot *ledger.Snapshot,
	title string,
	author string,
	kind ledger.BookKind,
	now time.Time,
) (ledger.Book, error) {

	book, err := ledger.BuildBook(ledger.NewBookID(), title, author, kind, now)
	if err != nil {
		return ledger.Book{}, err
	}

	snapshot.Books = append(snapshot.Books, book)

	return book, nil
}

// List returns all books in insertion order, optionally filtered by a
// case-insensitive substring match on title or author. An empty filter
// returns every book.
func List(snapshot ledger.Snapshot, filter string) []ledger.Book {
	filter = strings.TrimSpace(filter)

	books := make([]ledger.Book, 0, len(snapshot.Books))
	for _, book := range snapshot.Books {
		if filter == "" || book.Matches(filter) {
			books = append(books, book)
		}
	}

	return books
}

// Get returns the book with the given id, or ledger.ErrBookNotFound.
func Get(snapshot ledger.Snapshot, bookID string) (ledger.Book, error) {
	for _, book := range snapshot.Books {
		if book.ID == bookID {
			return book, nil
		}
	}

	return ledger.Book{}, ledger.ErrBookNotFound
}

// Remove deletes the book with the given id and returns it.
// A book that is on loan must be returned first; removing it fails with
// ledger.ErrBookOnLoan and leaves the catalog unchanged.
func Remove(snapshot *ledger.Snapshot, bookID string) (ledger.Book, error) {
	for i, book := range snapshot.Books {
		if book.ID != bookID {
			continue
		}

		if book.Status == ledger.BookStatusOnLoan {
			return ledger.Book{}, ledger.ErrBookOnLoan
		}

		snapshot.Books = append(snapshot.Books[:i], snapshot.Books[i+1:]...)

		return book, nil
	}

	return ledger.Book{}, ledger.ErrBookNotFound
}

// SetStatus updates the derived status cache of a book.
//
// This is invoked exclusively by the coordinator as part of a unit of work;
// the status is recomputed from the loan collection on every load, so any
// other writer would be overridden anyway.
func SetStatus(snapshot *ledger.Snapshot, bookID string, status ledger.BookStatus) error {
	for i := range snapshot.Books {
		if snapshot.Books[i].ID == bookID {
			snapshot.Books[i].Status = status
			return nil
		}
	}

	return ledger.ErrBookNotFound
}

// Statistics aggregates the book collection for reporting.
type Statistics struct {
	TotalBooks     int
	AvailableBooks int
	LoanedBooks    int

	KindDistribution   map[ledger.BookKind]int
	AuthorDistribution map[string]int

	// MostLoanedBook is nil when no book was ever borrowed. Ties go to the
	// book that entered the catalog first.
	MostLoanedBook *ledger.Book
}

// ComputeStatistics derives the catalog statistics from the current snapshot.
func ComputeStatistics(snapshot ledger.Snapshot) Statistics {
	stats := Statistics{
		TotalBooks:         len(snapshot.Books),
		KindDistribution:   make(map[ledger.BookKind]int),
		AuthorDistribution: make(map[string]int),
	}

	for i, book := range snapshot.Books {
		if book.Status == ledger.BookStatusOnLoan {
			stats.LoanedBooks++
		} else {
			stats.AvailableBooks++
		}

		stats.KindDistribution[book.Kind]++
		stats.AuthorDistribution[book.Author]++

		if book.LoanCount > 0 && (stats.MostLoanedBook == nil || book.LoanCount > stats.MostLoanedBook.LoanCount) {
			mostLoaned := snapshot.Books[i]
			stats.MostLoanedBook = &mostLoaned
		}
	}

	return stats
}

// BumpLoanCount increments the book's lifetime borrow counter.
func BumpLoanCount(snapshot *ledger.Snapshot, bookID string) error {
	for i := range snapshot.Books {
		if snapshot.Books[i].ID == bookID {
			snapshot.Books[i].LoanCount++
			return nil
		}
	}

	return ledger.ErrBookNotFound
}
