package ledger

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	// DefaultLoanPeriod is the time a borrower has to return a book.
	DefaultLoanPeriod = 14 * 24 * time.Hour

	maxBorrowerLength = 50
)

// LoanStatus is the persisted state of a loan.
//
// There is no persisted "overdue" state: overdue is a read-time projection of
// an active loan whose due date has passed, see Loan.IsOverdue.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan records one lending of a book to a person. Loans are historical
// records: they are created on borrow, marked returned on return, and never
// deleted.
//
// BookID is a weak reference into the catalog; the loan does not own the book.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	Borrower   string     `json:"borrower"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     LoanStatus `json:"status"`
}

// NewLoanID generates a unique identifier for a new loan.
func NewLoanID() string {
	return uuid.New().String()
}

// BuildLoan is a factory method for Loan.
//
// The due date is computed as borrowedAt + loanPeriod; a non-positive
// loanPeriod falls back to DefaultLoanPeriod. Returns an error chained onto
// ErrValidation if the borrower is empty or too long.
func BuildLoan(id string, bookID string, borrower string, borrowedAt time.Time, loanPeriod time.Duration) (Loan, error) {
	if loanPeriod <= 0 {
		loanPeriod = DefaultLoanPeriod
	}

	loan := Loan{
		ID:         strings.TrimSpace(id),
		BookID:     strings.TrimSpace(bookID),
		Borrower:   strings.TrimSpace(borrower),
		BorrowedAt: borrowedAt,
		DueDate:    borrowedAt.Add(loanPeriod),
		Status:     LoanStatusActive,
	}

	if err := loan.validate(); err != nil {
		return Loan{}, errors.Join(ErrValidation, err)
	}

	return loan, nil
}

func (l Loan) validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.BookID, validation.Required),
		validation.Field(&l.Borrower, validation.Required, validation.RuneLength(1, maxBorrowerLength)),
	)
}

// IsActive reports whether the loan has not been returned yet.
func (l Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// IsOverdue reports whether the loan is active and past its due date.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && now.After(l.DueDate)
}

// DaysUntilDue returns the number of whole days until the due date, negative
// when the loan is overdue. Returns 0 for loans that are not active.
func (l Loan) DaysUntilDue(now time.Time) int {
	if !l.IsActive() {
		return 0
	}

	return int(l.DueDate.Sub(now).Hours() / 24)
}

// WasReturnedOnTime reports whether the loan was returned no later than its
// due date. Returns false for loans that are still active.
func (l Loan) WasReturnedOnTime() bool {
	if l.Status != LoanStatusReturned || l.ReturnedAt == nil {
		return false
	}

	return !l.ReturnedAt.After(l.DueDate)
}
