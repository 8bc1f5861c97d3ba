package coordinator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/coordinator"
	"github.com/homeshelf/lending-ledger-go/ledger/memorygateway"
	"github.com/homeshelf/lending-ledger-go/ledgertest"
)

const sessionID = "session-42"

func Test_BookDraft_CollectedOverTurns_CommittedOnce(t *testing.T) {
	// arrange
	ctx := context.Background()
	gateway := memorygateway.NewGateway()
	sessions := ledgertest.NewAttributeStoreStub()
	c := newTestCoordinator(t, gateway, coordinator.WithSessionStore(sessions))

	// act - turn 1: only the title is given
	draft, err := c.ResumeBookDraft(ctx, sessionID)
	require.NoError(t, err)
	draft.Title = "Dune"
	require.NoError(t, c.SaveBookDraft(ctx, sessionID, draft))

	// assert - the intermediate turn performed no persistent mutation
	assert.Zero(t, gateway.Version())

	// act - turn 2: a different process instance resumes and adds the author
	c2 := newTestCoordinator(t, gateway, coordinator.WithSessionStore(sessions))
	draft, err = c2.ResumeBookDraft(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", draft.Title)
	draft.Author = "Herbert"
	require.NoError(t, c2.SaveBookDraft(ctx, sessionID, draft))
	assert.Zero(t, gateway.Version())

	// act - turn 3: the kind completes the draft, which is committed
	draft, err = c2.ResumeBookDraft(ctx, sessionID)
	require.NoError(t, err)
	draft.Kind = ledger.KindPhysical
	require.NoError(t, c2.SaveBookDraft(ctx, sessionID, draft))

	result, err := c2.CommitBookDraft(ctx, sessionID)

	// assert - exactly one catalog write, session state cleared
	require.NoError(t, err)
	assert.Equal(t, coordinator.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "Dune", result.Book.Title)
	assert.Equal(t, ledger.SnapshotVersionUint(1), gateway.Version())
	assert.False(t, sessions.Has(sessionID))
}

func Test_CommitBookDraft_ValidationError_WhenSlotsMissing(t *testing.T) {
	// arrange
	ctx := context.Background()
	gateway := memorygateway.NewGateway()
	sessions := ledgertest.NewAttributeStoreStub()
	c := newTestCoordinator(t, gateway, coordinator.WithSessionStore(sessions))
	require.NoError(t, c.SaveBookDraft(ctx, sessionID, ledger.BookDraft{Title: "Dune"}))

	// act
	result, err := c.CommitBookDraft(ctx, sessionID)

	// assert - the error reports the slots still to elicit, nothing persisted
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, coordinator.OutcomeValidationError, result.Outcome)
	assert.Contains(t, err.Error(), ledger.SlotAuthor)
	assert.Contains(t, err.Error(), ledger.SlotKind)
	assert.Zero(t, gateway.Version())
	assert.True(t, sessions.Has(sessionID))
}

func Test_DraftOperations_Error_WithoutSessionStore(t *testing.T) {
	// arrange
	ctx := context.Background()
	c := newTestCoordinator(t, memorygateway.NewGateway())

	// act / assert
	_, err := c.ResumeBookDraft(ctx, sessionID)
	assert.ErrorIs(t, err, coordinator.ErrSessionStoreNotConfigured)

	err = c.SaveBookDraft(ctx, sessionID, ledger.BookDraft{})
	assert.ErrorIs(t, err, coordinator.ErrSessionStoreNotConfigured)

	_, err = c.CommitBookDraft(ctx, sessionID)
	assert.ErrorIs(t, err, coordinator.ErrSessionStoreNotConfigured)
}

func Test_CommitBookDraft_Commits_EvenWhenSessionCleanupFails(t *testing.T) {
	// arrange
	ctx := context.Background()
	gateway := memorygateway.NewGateway()
	sessions := ledgertest.NewAttributeStoreStub()
	loggerSpy := ledgertest.NewLoggerSpy()
	c := newTestCoordinator(t, gateway,
		coordinator.WithSessionStore(sessions),
		coordinator.WithLogger(loggerSpy),
	)

	draft := ledger.BookDraft{Title: "Dune", Author: "Herbert", Kind: ledger.KindPhysical}
	require.NoError(t, c.SaveBookDraft(ctx, sessionID, draft))
	sessions.FailDeletes(assert.AnError)

	// act
	result, err := c.CommitBookDraft(ctx, sessionID)

	// assert - the book is committed, the cleanup failure is only logged
	require.NoError(t, err)
	assert.Equal(t, coordinator.OutcomeSuccess, result.Outcome)
	assert.Equal(t, ledger.SnapshotVersionUint(1), gateway.Version())
	assert.True(t, loggerSpy.HasMessage("clearing book draft failed"))
}
