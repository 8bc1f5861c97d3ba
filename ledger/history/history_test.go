package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/history"
)

func Test_Record_AppendsInCompletionOrder(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()
	now := time.Now()

	// act
	_, err := history.Record(&snapshot, ledger.TransactionAdded, "book-1", "added Dune", now)
	require.NoError(t, err)
	_, err = history.Record(&snapshot, ledger.TransactionBorrowed, "book-1", "borrowed by Ana", now.Add(time.Minute))
	require.NoError(t, err)

	// assert
	require.Len(t, snapshot.Transactions, 2)
	assert.Equal(t, ledger.TransactionAdded, snapshot.Transactions[0].Type)
	assert.Equal(t, ledger.TransactionBorrowed, snapshot.Transactions[1].Type)
}

func Test_Record_Error_OnMalformedType_LogUnchanged(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()

	// act
	_, err := history.Record(&snapshot, ledger.TransactionType("archived"), "book-1", "details", time.Now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidTransactionType)
	assert.Empty(t, snapshot.Transactions)
}

func Test_NewestFirst_ReversesInsertionOrder_AndFiltersByType(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()
	now := time.Now()
	for i, transactionType := range []ledger.TransactionType{
		ledger.TransactionAdded,
		ledger.TransactionBorrowed,
		ledger.TransactionReturned,
	} {
		_, err := history.Record(&snapshot, transactionType, "book-1", "", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// act + assert
	all := history.NewestFirst(snapshot, "")
	require.Len(t, all, 3)
	assert.Equal(t, ledger.TransactionReturned, all[0].Type)
	assert.Equal(t, ledger.TransactionAdded, all[2].Type)

	borrowed := history.NewestFirst(snapshot, ledger.TransactionBorrowed)
	require.Len(t, borrowed, 1)
	assert.Equal(t, ledger.TransactionBorrowed, borrowed[0].Type)
}

func Test_Query_PagesNewestFirst(t *testing.T) {
	// arrange
	snapshot := ledger.EmptySnapshot()
	now := time.Now()
	for i := 0; i < 12; i++ {
		_, err := history.Record(&snapshot, ledger.TransactionAdded, "book-1", "", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// act
	firstPage, err := history.Query(snapshot, "", 0, ledger.DefaultPageSize)
	require.NoError(t, err)
	secondPage, err := history.Query(snapshot, "", 1, ledger.DefaultPageSize)
	require.NoError(t, err)

	// assert
	assert.Len(t, firstPage.Items, 10)
	assert.True(t, firstPage.HasNext)
	assert.Len(t, secondPage.Items, 2)
	assert.False(t, secondPage.HasNext)
	assert.True(t, firstPage.Items[0].OccurredAt.After(secondPage.Items[1].OccurredAt))
}
