// Package lending owns the Loan collection of a snapshot and the loan state
// machine: active loans are created on borrow, transition to returned exactly
// once, and are never deleted. Overdue is a computed projection of an active
// loan past its due date, not a stored state.
package lending

import (
	"sort"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// DefaultDueSoonThresholdDays is how far ahead DueSoon looks when the caller
// does not say.
const DefaultDueSoonThresholdDays = 2

// ActiveLoan is a loan annotated with its computed overdue flag.
type ActiveLoan struct {
	ledger.Loan
	Overdue bool
}

// Borrow creates an active loan for the given book with a due date of
// now + loanPeriod.
//
// Preconditions are checked before any mutation: the book must exist
// (ledger.ErrBookNotFound) and must not already have an active loan
// (ledger.ErrBookAlreadyLent) - the central one-active-loan-per-book
// invariant.
func Borrow(
	snapshot *ledger.Snapshot,
	bookID string,
	borrower string,
	now time.Time,
	loanPeriod time.Duration,
) (ledger.Loan, error) {

	if !bookExists(*snapshot, bookID) {
		return ledger.Loan{}, ledger.ErrBookNotFound
	}

	if _, found := FindActiveLoanFor(*snapshot, bookID); found {
		return ledger.Loan{}, ledger.ErrBookAlreadyLent
	}

	loan, err := ledger.BuildLoan(ledger.NewLoanID(), bookID, borrower, now, loanPeriod)
	if err != nil {
		return ledger.Loan{}, err
	}

	snapshot.Loans = append(snapshot.Loans, loan)

	return loan, nil
}

// Return marks the loan as returned and records the return date.
//
// Returning an already returned loan is an idempotency guard, not a state
// change: it fails with ledger.ErrLoanAlreadyReturned and leaves the ledger
// exactly as it was.
func Return(snapshot *ledger.Snapshot, loanID string, now time.Time) (ledger.Loan, error) {
	for i := range snapshot.Loans {
		if snapshot.Loans[i].ID != loanID {
			continue
		}

		if snapshot.Loans[i].Status == ledger.LoanStatusReturned {
			return ledger.Loan{}, ledger.ErrLoanAlreadyReturned
		}

		returnedAt := now
		snapshot.Loans[i].Status = ledger.LoanStatusReturned
		snapshot.Loans[i].ReturnedAt = &returnedAt

		return snapshot.Loans[i], nil
	}

	return ledger.Loan{}, ledger.ErrLoanNotFound
}

// ReturnByBook returns the single active loan referencing the given book.
// Fails with ledger.ErrNoActiveLoanForBook when the book has no active loan.
func ReturnByBook(snapshot *ledger.Snapshot, bookID string, now time.Time) (ledger.Loan, error) {
	activeLoan, found := FindActiveLoanFor(*snapshot, bookID)
	if !found {
		return ledger.Loan{}, ledger.ErrNoActiveLoanForBook
	}

	return Return(snapshot, activeLoan.ID, now)
}

// Extend moves the due date of an active loan forward by additionalDays.
//
// Fails with ledger.ErrLoanNotFound for an unknown loan id and with
// ledger.ErrLoanAlreadyReturned for a completed loan; a non-positive day
// count is rejected before any state is touched.
func Extend(snapshot *ledger.Snapshot, loanID string, additionalDays int) (ledger.Loan, error) {
	if additionalDays <= 0 {
		return ledger.Loan{}, ledger.ErrInvalidExtension
	}

	for i := range snapshot.Loans {
		if snapshot.Loans[i].ID != loanID {
			continue
		}

		if snapshot.Loans[i].Status == ledger.LoanStatusReturned {
			return ledger.Loan{}, ledger.ErrLoanAlreadyReturned
		}

		snapshot.Loans[i].DueDate = snapshot.Loans[i].DueDate.Add(time.Duration(additionalDays) * 24 * time.Hour)

		return snapshot.Loans[i], nil
	}

	return ledger.Loan{}, ledger.ErrLoanNotFound
}

// ReturnedLoans returns all completed loans, most recently returned first.
func ReturnedLoans(snapshot ledger.Snapshot) []ledger.Loan {
	returned := make([]ledger.Loan, 0, len(snapshot.Loans))
	for _, loan := range snapshot.Loans {
		if loan.Status == ledger.LoanStatusReturned {
			returned = append(returned, loan)
		}
	}

	sort.SliceStable(returned, func(i, j int) bool {
		return returned[i].ReturnedAt.After(*returned[j].ReturnedAt)
	})

	return returned
}

// DueSoon returns the active loans due within thresholdDays from now, in
// insertion order. Overdue loans are not due soon, they are already late; see
// OverdueLoans. A non-positive threshold falls back to
// DefaultDueSoonThresholdDays.
func DueSoon(snapshot ledger.Snapshot, now time.Time, thresholdDays int) []ActiveLoan {
	if thresholdDays <= 0 {
		thresholdDays = DefaultDueSoonThresholdDays
	}

	dueSoon := make([]ActiveLoan, 0)
	for _, loan := range snapshot.Loans {
		if !loan.IsActive() || loan.IsOverdue(now) {
			continue
		}

		if remaining := loan.DaysUntilDue(now); remaining >= 0 && remaining <= thresholdDays {
			dueSoon = append(dueSoon, ActiveLoan{Loan: loan, Overdue: false})
		}
	}

	return dueSoon
}

// OverdueLoans returns the active loans past their due date, in insertion
// order.
func OverdueLoans(snapshot ledger.Snapshot, now time.Time) []ActiveLoan {
	overdue := make([]ActiveLoan, 0)
	for _, loan := range snapshot.Loans {
		if loan.IsOverdue(now) {
			overdue = append(overdue, ActiveLoan{Loan: loan, Overdue: true})
		}
	}

	return overdue
}

// Statistics aggregates the loan collection for reporting.
type Statistics struct {
	TotalLoans     int
	ActiveLoans    int
	CompletedLoans int
	OverdueLoans   int
	OnTimeReturns  int
	LateReturns    int

	// ReturnRate is OnTimeReturns over CompletedLoans, 0 with no completions.
	ReturnRate float64

	// MostFrequentBorrower is empty when there are no loans. Ties go to the
	// borrower who appeared first.
	MostFrequentBorrower      string
	MostFrequentBorrowerLoans int
}

// ComputeStatistics derives the loan statistics from the full loan history.
func ComputeStatistics(snapshot ledger.Snapshot, now time.Time) Statistics {
	stats := Statistics{TotalLoans: len(snapshot.Loans)}
	borrowerLoans := make(map[string]int, len(snapshot.Loans))

	for _, loan := range snapshot.Loans {
		borrowerLoans[loan.Borrower]++

		if loan.IsActive() {
			stats.ActiveLoans++
			if loan.IsOverdue(now) {
				stats.OverdueLoans++
			}

			continue
		}

		stats.CompletedLoans++
		if loan.WasReturnedOnTime() {
			stats.OnTimeReturns++
		} else {
			stats.LateReturns++
		}
	}

	if stats.CompletedLoans > 0 {
		stats.ReturnRate = float64(stats.OnTimeReturns) / float64(stats.CompletedLoans)
	}

	// Second pass in insertion order keeps the winner deterministic.
	for _, loan := range snapshot.Loans {
		if borrowerLoans[loan.Borrower] > stats.MostFrequentBorrowerLoans {
			stats.MostFrequentBorrower = loan.Borrower
			stats.MostFrequentBorrowerLoans = borrowerLoans[loan.Borrower]
		}
	}

	return stats
}

// ActiveLoans returns all active loans in insertion order, each annotated
// with its overdue flag computed against now.
func ActiveLoans(snapshot ledger.Snapshot, now time.Time) []ActiveLoan {
	activeLoans := make([]ActiveLoan, 0, len(snapshot.Loans))
	for _, loan := range snapshot.Loans {
		if loan.IsActive() {
			activeLoans = append(activeLoans, ActiveLoan{Loan: loan, Overdue: loan.IsOverdue(now)})
		}
	}

	return activeLoans
}

// FindActiveLoanFor returns the active loan referencing the given book, if
// any. The coordinator uses it to check the invariant before allowing a
// borrow or a remove.
func FindActiveLoanFor(snapshot ledger.Snapshot, bookID string) (ledger.Loan, bool) {
	for _, loan := range snapshot.Loans {
		if loan.IsActive() && loan.BookID == bookID {
			return loan, true
		}
	}

	return ledger.Loan{}, false
}

// Get returns the loan with the given id, or ledger.ErrLoanNotFound.
func Get(snapshot ledger.Snapshot, loanID string) (ledger.Loan, error) {
	for _, loan := range snapshot.Loans {
		if loan.ID == loanID {
			return loan, nil
		}
	}

	return ledger.Loan{}, ledger.ErrLoanNotFound
}

func bookExists(snapshot ledger.Snapshot, bookID string) bool {
	for _, book := range snapshot.Books {
		if book.ID == bookID {
			return true
		}
	}

	return false
}
