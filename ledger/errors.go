package ledger

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these sentinels,
// so callers can match on the category with errors.Is without losing the
// specific cause.
var (
	// ErrValidation indicates bad input that the caller can fix and retry.
	// Nothing is persisted when a validation error is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a referenced entity id is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an invariant violation such as a double borrow,
	// a delete of a loaned book, or a double return.
	ErrConflict = errors.New("conflict")

	// ErrConcurrencyConflict indicates that the optimistic save raced with a
	// concurrent writer and the retry budget is exhausted.
	ErrConcurrencyConflict = errors.New("concurrency conflict, dataset was modified concurrently")

	// ErrPersistence indicates that the backing store was unreachable or did
	// not acknowledge a write within the retry budget.
	ErrPersistence = errors.New("persistence failed")
)

// Specific errors, each chained onto its category.
var (
	ErrInvalidExtension    = fmt.Errorf("%w: additional days must be positive", ErrValidation)
	ErrBookNotFound        = fmt.Errorf("%w: book does not exist", ErrNotFound)
	ErrLoanNotFound        = fmt.Errorf("%w: loan does not exist", ErrNotFound)
	ErrNoActiveLoanForBook = fmt.Errorf("%w: book has no active loan", ErrNotFound)
	ErrBookAlreadyLent     = fmt.Errorf("%w: book already has an active loan", ErrConflict)
	ErrBookOnLoan          = fmt.Errorf("%w: book is on loan and must be returned first", ErrConflict)
	ErrLoanAlreadyReturned = fmt.Errorf("%w: loan was already returned", ErrConflict)
)
