package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/catalog"
)

func givenCatalogWith(t *testing.T, titlesAndAuthors ...string) *ledger.Snapshot {
	t.Helper()
	require.Zero(t, len(titlesAndAuthors)%2, "titlesAndAuthors must be pairs")

	snapshot := ledger.EmptySnapshot()
	for i := 0; i < len(titlesAndAuthors); i += 2 {
		_, err := catalog.Add(&snapshot, titlesAndAuthors[i], titlesAndAuthors[i+1], ledger.KindPhysical, time.Now())
		require.NoError(t, err)
	}

	return &snapshot
}

func Test_Add_Success_AssignsIDAndAvailableStatus(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()

	// act
	book, err := catalog.Add(&snapshot, "Dune", "Herbert", ledger.KindPhysical, time.Now())

	// assert
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, ledger.BookStatusAvailable, book.Status)
	require.Len(t, snapshot.Books, 1)
	assert.Equal(t, book, snapshot.Books[0])
}

func Test_Add_Error_WhenValidationFails_CatalogUnchanged(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()

	// act
	_, err := catalog.Add(&snapshot, "", "Herbert", ledger.KindPhysical, time.Now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Empty(t, snapshot.Books)
}

func Test_List_ReturnsInsertionOrder(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t,
		"Dune", "Herbert",
		"Neuromancer", "Gibson",
		"Solaris", "Lem",
	)

	// act
	books := catalog.List(*snapshot, "")

	// assert
	require.Len(t, books, 3)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Neuromancer", books[1].Title)
	assert.Equal(t, "Solaris", books[2].Title)
}

func Test_List_FiltersCaseInsensitively_OnTitleOrAuthor(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t,
		"Dune", "Herbert",
		"Dune Messiah", "Herbert",
		"Solaris", "Lem",
	)

	// act + assert
	assert.Len(t, catalog.List(*snapshot, "dune"), 2)
	assert.Len(t, catalog.List(*snapshot, "HERBERT"), 2)
	assert.Len(t, catalog.List(*snapshot, "lem"), 1)
	assert.Empty(t, catalog.List(*snapshot, "asimov"))
}

func Test_Get_Error_WhenAbsent(t *testing.T) {
	// act
	_, err := catalog.Get(ledger.EmptySnapshot(), "missing")

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func Test_Remove_Success_WhenAvailable(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t, "Dune", "Herbert", "Solaris", "Lem")
	bookID := snapshot.Books[0].ID

	// act
	removed, err := catalog.Remove(snapshot, bookID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Dune", removed.Title)
	require.Len(t, snapshot.Books, 1)
	assert.Equal(t, "Solaris", snapshot.Books[0].Title)
}

func Test_Remove_Error_WhenOnLoan_CatalogUnchanged(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t, "Dune", "Herbert")
	require.NoError(t, catalog.SetStatus(snapshot, snapshot.Books[0].ID, ledger.BookStatusOnLoan))

	// act
	_, err := catalog.Remove(snapshot, snapshot.Books[0].ID)

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookOnLoan)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Len(t, snapshot.Books, 1)
}

func Test_Remove_Error_WhenAbsent(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t, "Dune", "Herbert")

	// act
	_, err := catalog.Remove(snapshot, "missing")

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)
}

func Test_SetStatus_And_BumpLoanCount(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t, "Dune", "Herbert")
	bookID := snapshot.Books[0].ID

	// act
	require.NoError(t, catalog.SetStatus(snapshot, bookID, ledger.BookStatusOnLoan))
	require.NoError(t, catalog.BumpLoanCount(snapshot, bookID))

	// assert
	assert.Equal(t, ledger.BookStatusOnLoan, snapshot.Books[0].Status)
	assert.Equal(t, 1, snapshot.Books[0].LoanCount)

	// absent ids fail
	assert.ErrorIs(t, catalog.SetStatus(snapshot, "missing", ledger.BookStatusAvailable), ledger.ErrBookNotFound)
	assert.ErrorIs(t, catalog.BumpLoanCount(snapshot, "missing"), ledger.ErrBookNotFound)
}

func Test_ComputeStatistics_AggregatesTheCatalog(t *testing.T) {
	// arrange
	snapshot := givenCatalogWith(t, "Dune", "Herbert", "Solaris", "Lem", "Foundation", "Asimov")
	mostLoanedID := snapshot.Books[1].ID

	require.NoError(t, catalog.SetStatus(snapshot, mostLoanedID, ledger.BookStatusOnLoan))
	require.NoError(t, catalog.BumpLoanCount(snapshot, mostLoanedID))
	require.NoError(t, catalog.BumpLoanCount(snapshot, mostLoanedID))
	require.NoError(t, catalog.BumpLoanCount(snapshot, snapshot.Books[0].ID))

	// act
	stats := catalog.ComputeStatistics(*snapshot)

	// assert
	assert.Equal(t, 3, stats.TotalBooks)
	assert.Equal(t, 2, stats.AvailableBooks)
	assert.Equal(t, 1, stats.LoanedBooks)
	assert.Equal(t, 3, stats.KindDistribution[ledger.KindPhysical])
	assert.Equal(t, 1, stats.AuthorDistribution["Lem"])
	require.NotNil(t, stats.MostLoanedBook)
	assert.Equal(t, "Solaris", stats.MostLoanedBook.Title)
	assert.Equal(t, 2, stats.MostLoanedBook.LoanCount)
}

func Test_ComputeStatistics_EmptyCatalog_HasNoMostLoanedBook(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()

	// act
	stats := catalog.ComputeStatistics(snapshot)

	// assert
	assert.Zero(t, stats.TotalBooks)
	assert.Nil(t, stats.MostLoanedBook)
}
