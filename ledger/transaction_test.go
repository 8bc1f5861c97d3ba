package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

func Test_BuildTransactionRecord_Success_ForEveryTypeInClosedSet(t *testing.T) {
	for _, transactionType := range []ledger.TransactionType{
		ledger.TransactionAdded,
		ledger.TransactionRemoved,
		ledger.TransactionBorrowed,
		ledger.TransactionReturned,
	} {
		// act
		record, err := ledger.BuildTransactionRecord(transactionType, "book-1", "details", time.Now())

		// assert
		require.NoError(t, err)
		assert.Equal(t, transactionType, record.Type)
	}
}

func Test_BuildTransactionRecord_Error_WhenTypeUnknown(t *testing.T) {
	// act
	_, err := ledger.BuildTransactionRecord(ledger.TransactionType("renamed"), "book-1", "details", time.Now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidTransactionType)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
