package coordinator

import (
	"context"
	"fmt"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// The add-book conversation spans several turns (title, then author, then
// kind), and successive turns are not guaranteed to hit the same process
// instance. The draft therefore lives in the session attribute store;
// intermediate turns perform no persistent mutation, and the catalog is
// touched exactly once, when the completed draft is committed.

// ResumeBookDraft restores the in-progress draft for the session, or an empty
// draft when the session has none.
func (c *Coordinator) ResumeBookDraft(ctx context.Context, sessionID string) (ledger.BookDraft, error) {
	if c.sessionStore == nil {
		return ledger.BookDraft{}, ErrSessionStoreNotConfigured
	}

	attributes, err := c.sessionStore.Get(ctx, sessionID)
	if err != nil {
		return ledger.BookDraft{}, fmt.Errorf("resuming book draft: %w", err)
	}

	return ledger.BookDraftFromAttributes(attributes), nil
}

// SaveBookDraft stores the partially collected draft for the next turn.
func (c *Coordinator) SaveBookDraft(ctx context.Context, sessionID string, draft ledger.BookDraft) error {
	if c.sessionStore == nil {
		return ErrSessionStoreNotConfigured
	}

	if err := c.sessionStore.Put(ctx, sessionID, draft.Attributes()); err != nil {
		return fmt.Errorf("saving book draft: %w", err)
	}

	return nil
}

// CommitBookDraft turns a completed draft into the AddBook unit of work and
// clears the session state. An incomplete draft fails with a validation
// error naming no slot in particular; the caller elicits the missing slots
// reported by the draft itself.
func (c *Coordinator) CommitBookDraft(ctx context.Context, sessionID string) (AddBookResult, error) {
	draft, err := c.ResumeBookDraft(ctx, sessionID)
	if err != nil {
		return AddBookResult{}, err
	}

	if !draft.Complete() {
		err = fmt.Errorf("%w: book draft is missing slots %v", ledger.ErrValidation, draft.MissingSlots())
		return AddBookResult{OperationResult: OperationResult{Outcome: OutcomeFor(err)}}, err
	}

	result, err := c.AddBook(ctx, draft.Title, draft.Author, draft.Kind)
	if err != nil {
		return result, err
	}

	if deleteErr := c.sessionStore.Delete(ctx, sessionID); deleteErr != nil && c.logger != nil {
		// The book is committed; a leftover draft only costs one stale
		// attribute until the session expires.
		c.logger.Warn("clearing book draft failed", logAttrError, deleteErr.Error())
	}

	return result, nil
}
