package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

func givenBook(t *testing.T, title string, author string) ledger.Book {
	t.Helper()

	book, err := ledger.BuildBook(ledger.NewBookID(), title, author, ledger.KindPhysical, time.Now().UTC())
	require.NoError(t, err)

	return book
}

func givenActiveLoan(t *testing.T, bookID string, borrower string) ledger.Loan {
	t.Helper()

	loan, err := ledger.BuildLoan(ledger.NewLoanID(), bookID, borrower, time.Now().UTC(), ledger.DefaultLoanPeriod)
	require.NoError(t, err)

	return loan
}

func Test_EmptySnapshot_HasEmptyCollectionsAndVersionZero(t *testing.T) {
	// act
	snapshot := ledger.EmptySnapshot()

	// assert
	assert.Empty(t, snapshot.Books)
	assert.Empty(t, snapshot.Loans)
	assert.Empty(t, snapshot.Transactions)
	assert.Zero(t, snapshot.Version)
	assert.NoError(t, snapshot.ValidateConsistency())
}

func Test_SnapshotCodec_RoundTrip_PreservesDatasetContent(t *testing.T) {
	// arrange
	book := givenBook(t, "Dune", "Herbert")
	loan := givenActiveLoan(t, book.ID, "Ana")
	book.Status = ledger.BookStatusOnLoan

	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, book)
	snapshot.Loans = append(snapshot.Loans, loan)
	snapshot.Version = 7

	// act
	data, encodeErr := ledger.EncodeSnapshot(snapshot)
	decoded, decodeErr := ledger.DecodeSnapshot(data)

	// assert
	require.NoError(t, encodeErr)
	require.NoError(t, decodeErr)
	require.Len(t, decoded.Books, 1)
	require.Len(t, decoded.Loans, 1)
	assert.Equal(t, snapshot.Version, decoded.Version)
	assert.Equal(t, book.ID, decoded.Books[0].ID)
	assert.Equal(t, book.Title, decoded.Books[0].Title)
	assert.Equal(t, loan.ID, decoded.Loans[0].ID)
	assert.True(t, loan.DueDate.Equal(decoded.Loans[0].DueDate))
}

func Test_DecodeSnapshot_DefaultsAbsentCollections(t *testing.T) {
	// act
	decoded, err := ledger.DecodeSnapshot([]byte(`{"version": 3, "some_future_field": true}`))

	// assert
	require.NoError(t, err)
	assert.NotNil(t, decoded.Books)
	assert.NotNil(t, decoded.Loans)
	assert.NotNil(t, decoded.Transactions)
	assert.Equal(t, ledger.SnapshotVersionUint(3), decoded.Version)
}

func Test_DecodeSnapshot_Error_WhenJSONMalformed(t *testing.T) {
	// act
	_, err := ledger.DecodeSnapshot([]byte(`{"books": [`))

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidSnapshotJSON)
}

func Test_DecodeSnapshot_HealsStaleAvailableStatus_WhenActiveLoanExists(t *testing.T) {
	// arrange - simulates a write truncated after the loan was created but
	// before the book status was updated
	book := givenBook(t, "Dune", "Herbert")
	loan := givenActiveLoan(t, book.ID, "Ana")

	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, book) // status still "available"
	snapshot.Loans = append(snapshot.Loans, loan)

	data, err := ledger.EncodeSnapshot(snapshot)
	require.NoError(t, err)

	// act
	decoded, err := ledger.DecodeSnapshot(data)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.BookStatusOnLoan, decoded.Books[0].Status)
	assert.NoError(t, decoded.ValidateConsistency())
}

func Test_RecomputeBookStatuses_HealsStaleOnLoanStatus_WhenNoActiveLoan(t *testing.T) {
	// arrange
	book := givenBook(t, "Dune", "Herbert")
	book.Status = ledger.BookStatusOnLoan // stale, no loan backs it

	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, book)

	// act
	snapshot.RecomputeBookStatuses()

	// assert
	assert.Equal(t, ledger.BookStatusAvailable, snapshot.Books[0].Status)
	assert.NoError(t, snapshot.ValidateConsistency())
}

func Test_ValidateConsistency_Error_WhenTwoActiveLoansReferenceSameBook(t *testing.T) {
	// arrange
	book := givenBook(t, "Dune", "Herbert")
	book.Status = ledger.BookStatusOnLoan

	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, book)
	snapshot.Loans = append(snapshot.Loans,
		givenActiveLoan(t, book.ID, "Ana"),
		givenActiveLoan(t, book.ID, "Luis"),
	)

	// act
	err := snapshot.ValidateConsistency()

	// assert
	assert.ErrorIs(t, err, ledger.ErrInconsistentSnapshot)
}

func Test_ValidateConsistency_Error_WhenActiveLoanReferencesMissingBook(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()
	snapshot.Loans = append(snapshot.Loans, givenActiveLoan(t, "ghost-book", "Ana"))

	// act
	err := snapshot.ValidateConsistency()

	// assert
	assert.ErrorIs(t, err, ledger.ErrInconsistentSnapshot)
}

func Test_Snapshot_Clone_IsDeep(t *testing.T) {
	// arrange
	book := givenBook(t, "Dune", "Herbert")
	loan := givenActiveLoan(t, book.ID, "Ana")
	returnedAt := time.Now().UTC()
	loan.Status = ledger.LoanStatusReturned
	loan.ReturnedAt = &returnedAt

	snapshot := ledger.EmptySnapshot()
	snapshot.Books = append(snapshot.Books, book)
	snapshot.Loans = append(snapshot.Loans, loan)

	// act
	clone := snapshot.Clone()
	clone.Books[0].Title = "changed"
	*clone.Loans[0].ReturnedAt = returnedAt.Add(time.Hour)

	// assert
	assert.Equal(t, "Dune", snapshot.Books[0].Title)
	assert.True(t, snapshot.Loans[0].ReturnedAt.Equal(returnedAt))
}
