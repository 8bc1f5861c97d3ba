// Package coordinator enforces the referential consistency between the book
// catalog and the loan ledger. Every state-changing use case runs as one unit
// of work: load snapshot, validate preconditions against both collections,
// apply the mutations in a fixed order, append a transaction record, and
// commit an atomically replaced snapshot through the persistence gateway.
//
// Cross-invocation concurrency is handled optimistically: the save is
// conditioned on the dataset version being unchanged since load. On a
// conflict the coordinator reloads the fresh snapshot and reapplies the same
// logical operation exactly once; a second conflict is surfaced as
// ledger.ErrConcurrencyConflict.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/catalog"
	"github.com/homeshelf/lending-ledger-go/ledger/history"
	"github.com/homeshelf/lending-ledger-go/ledger/lending"
)

const (
	logMsgOperationCommitted   = "unit of work committed"
	logMsgOperationFailed      = "unit of work failed"
	logMsgLoadSnapshotFailed   = "loading snapshot failed"
	logMsgRetriesExhausted     = "optimistic concurrency retries exhausted"
	logAttrOperation           = "operation"
	logAttrError               = "error"
	logAttrOutcome             = "outcome"
	logAttrSnapshotVersion     = "snapshot_version"
	logAttrRetryAttempts       = "retry_attempts"
	logAttrDurationMS          = "duration_ms"
	metricOperationDuration    = "ledger_operation_duration_seconds"
	metricOperationsTotal      = "ledger_operations_total"
	metricConcurrencyConflicts = "ledger_concurrency_conflicts_total"

	spanNameUnitOfWork = "ledger.unit_of_work"

	operationAddBook    = "add_book"
	operationRemoveBook = "remove_book"
	operationBorrowBook = "borrow_book"
	operationReturnBook = "return_book"
	operationExtendLoan = "extend_loan"
)

// DefaultExtensionDays is how far ExtendLoan moves the due date when the
// caller does not say.
const DefaultExtensionDays = 7

// ErrNilGateway is returned when a Coordinator is constructed without a gateway.
var ErrNilGateway = errors.New("gateway must not be nil")

// ErrSessionStoreNotConfigured is returned by the draft flow when no
// attribute store was supplied via WithSessionStore.
var ErrSessionStoreNotConfigured = errors.New("session attribute store is not configured")

// Coordinator orchestrates units of work across the catalog, the loan ledger
// and the transaction history. It holds no persistent state of its own; a
// snapshot cache for one warm execution context is the only in-memory state,
// and it is never trusted past a version conflict.
type Coordinator struct {
	gateway      ledger.Gateway
	sessionStore ledger.AttributeStore
	clock        func() time.Time
	loanPeriod   time.Duration
	pageSize     int
	retryOptions []RetryOption
	logger       ledger.Logger
	metrics      ledger.MetricsCollector
	tracing      ledger.TracingCollector

	mu     sync.Mutex
	cached *ledger.Snapshot
}

// NewCoordinator creates a Coordinator on top of the given persistence
// gateway with optional configuration.
func NewCoordinator(gateway ledger.Gateway, options ...Option) (*Coordinator, error) {
	if gateway == nil {
		return nil, ErrNilGateway
	}

	coordinator := &Coordinator{
		gateway:    gateway,
		clock:      time.Now,
		loanPeriod: ledger.DefaultLoanPeriod,
		pageSize:   ledger.DefaultPageSize,
	}

	for _, option := range options {
		if err := option(coordinator); err != nil {
			return nil, err
		}
	}

	return coordinator, nil
}

// OperationResult carries the execution metadata common to all
// state-changing operations.
type OperationResult struct {
	Outcome         Outcome
	Summary         string
	SnapshotVersion ledger.SnapshotVersionUint
	RetryAttempts   int
}

// AddBookResult is the result of AddBook.
type AddBookResult struct {
	OperationResult
	Book ledger.Book
}

// RemoveBookResult is the result of RemoveBook.
type RemoveBookResult struct {
	OperationResult
	Book ledger.Book
}

// BorrowBookResult is the result of BorrowBook.
type BorrowBookResult struct {
	OperationResult
	Book ledger.Book
	Loan ledger.Loan
}

// ReturnBookResult is the result of ReturnBook and ReturnBookByID.
type ReturnBookResult struct {
	OperationResult
	Book ledger.Book
	Loan ledger.Loan
}

// ExtendLoanResult is the result of ExtendLoan.
type ExtendLoanResult struct {
	OperationResult
	Book ledger.Book
	Loan ledger.Loan
}

// AddBook creates a book from already-validated slot values and records an
// "added" transaction, all in one unit of work.
func (c *Coordinator) AddBook(
	ctx context.Context,
	title string,
	author string,
	kind ledger.BookKind,
) (AddBookResult, error) {

	var book ledger.Book
	var summary string

	result, err := c.execute(ctx, operationAddBook, func(snapshot *ledger.Snapshot, now time.Time) error {
		added, addErr := catalog.Add(snapshot, title, author, kind, now)
		if addErr != nil {
			return addErr
		}

		summary = fmt.Sprintf("added %q by %s", added.Title, added.Author)
		if _, recordErr := history.Record(snapshot, ledger.TransactionAdded, added.ID, summary, now); recordErr != nil {
			return recordErr
		}

		book = added

		return nil
	})

	result.Summary = summary

	return AddBookResult{OperationResult: result, Book: book}, err
}

// RemoveBook deletes a book that is not on loan and records a "removed"
// transaction. A book with an active loan must be returned first; the
// catalog stays unchanged and the caller gets ledger.ErrBookOnLoan.
func (c *Coordinator) RemoveBook(ctx context.Context, bookID string) (RemoveBookResult, error) {
	var book ledger.Book
	var summary string

	result, err := c.execute(ctx, operationRemoveBook, func(snapshot *ledger.Snapshot, now time.Time) error {
		// The loan ledger is the source of truth for the invariant; check it
		// before trusting the derived status cache.
		if _, found := lending.FindActiveLoanFor(*snapshot, bookID); found {
			return ledger.ErrBookOnLoan
		}

		removed, removeErr := catalog.Remove(snapshot, bookID)
		if removeErr != nil {
			return removeErr
		}

		summary = fmt.Sprintf("removed %q by %s", removed.Title, removed.Author)
		if _, recordErr := history.Record(snapshot, ledger.TransactionRemoved, removed.ID, summary, now); recordErr != nil {
			return recordErr
		}

		book = removed

		return nil
	})

	result.Summary = summary

	return RemoveBookResult{OperationResult: result, Book: book}, err
}

// BorrowBook lends a book to a borrower. Preconditions (book exists, book
// available, no active loan) are checked against both collections before any
// mutation; then the loan is created first and the book status updated
// second, so an interrupted write is healed by status recomputation on the
// next load.
func (c *Coordinator) BorrowBook(
	ctx context.Context,
	bookID string,
	borrower string,
) (BorrowBookResult, error) {

	var book ledger.Book
	var loan ledger.Loan
	var summary string

	result, err := c.execute(ctx, operationBorrowBook, func(snapshot *ledger.Snapshot, now time.Time) error {
		lent, borrowErr := lending.Borrow(snapshot, bookID, borrower, now, c.loanPeriod)
		if borrowErr != nil {
			return borrowErr
		}

		if statusErr := catalog.SetStatus(snapshot, bookID, ledger.BookStatusOnLoan); statusErr != nil {
			return statusErr
		}
		if countErr := catalog.BumpLoanCount(snapshot, bookID); countErr != nil {
			return countErr
		}

		borrowed, getErr := catalog.Get(*snapshot, bookID)
		if getErr != nil {
			return getErr
		}

		summary = fmt.Sprintf("lent %q to %s, due %s", borrowed.Title, lent.Borrower, lent.DueDate.Format("2006-01-02"))
		if _, recordErr := history.Record(snapshot, ledger.TransactionBorrowed, bookID, summary, now); recordErr != nil {
			return recordErr
		}

		book = borrowed
		loan = lent

		return nil
	})

	result.Summary = summary

	return BorrowBookResult{OperationResult: result, Book: book, Loan: loan}, err
}

// ReturnBook completes the loan with the given loan id: the loan is marked
// returned first, then the book status recomputed, then a "returned"
// transaction appended. Returning an already returned loan reports
// ledger.ErrLoanAlreadyReturned without touching any state.
func (c *Coordinator) ReturnBook(ctx context.Context, loanID string) (ReturnBookResult, error) {
	return c.returnLoan(ctx, func(snapshot *ledger.Snapshot, now time.Time) (ledger.Loan, error) {
		return lending.Return(snapshot, loanID, now)
	})
}

// ReturnBookByID completes the single active loan of the given book, for
// callers that know the book rather than the loan.
func (c *Coordinator) ReturnBookByID(ctx context.Context, bookID string) (ReturnBookResult, error) {
	return c.returnLoan(ctx, func(snapshot *ledger.Snapshot, now time.Time) (ledger.Loan, error) {
		return lending.ReturnByBook(snapshot, bookID, now)
	})
}

func (c *Coordinator) returnLoan(
	ctx context.Context,
	complete func(snapshot *ledger.Snapshot, now time.Time) (ledger.Loan, error),
) (ReturnBookResult, error) {

	var book ledger.Book
	var loan ledger.Loan
	var summary string

	result, err := c.execute(ctx, operationReturnBook, func(snapshot *ledger.Snapshot, now time.Time) error {
		returned, returnErr := complete(snapshot, now)
		if returnErr != nil {
			return returnErr
		}

		if statusErr := catalog.SetStatus(snapshot, returned.BookID, ledger.BookStatusAvailable); statusErr != nil {
			return statusErr
		}

		returnedBook, getErr := catalog.Get(*snapshot, returned.BookID)
		if getErr != nil {
			return getErr
		}

		summary = fmt.Sprintf("%s returned %q", returned.Borrower, returnedBook.Title)
		if _, recordErr := history.Record(snapshot, ledger.TransactionReturned, returned.BookID, summary, now); recordErr != nil {
			return recordErr
		}

		book = returnedBook
		loan = returned

		return nil
	})

	result.Summary = summary

	return ReturnBookResult{OperationResult: result, Book: book, Loan: loan}, err
}

// ExtendLoan moves the due date of an active loan forward by additionalDays
// (DefaultExtensionDays when non-positive). A returned loan cannot be
// extended; the caller gets ledger.ErrLoanAlreadyReturned.
//
// An extension changes no book state and lends nothing new, so the
// transaction log stays untouched; the loan itself carries the new due date.
func (c *Coordinator) ExtendLoan(
	ctx context.Context,
	loanID string,
	additionalDays int,
) (ExtendLoanResult, error) {

	if additionalDays <= 0 {
		additionalDays = DefaultExtensionDays
	}

	var book ledger.Book
	var loan ledger.Loan
	var summary string

	result, err := c.execute(ctx, operationExtendLoan, func(snapshot *ledger.Snapshot, now time.Time) error {
		extended, extendErr := lending.Extend(snapshot, loanID, additionalDays)
		if extendErr != nil {
			return extendErr
		}

		extendedBook, getErr := catalog.Get(*snapshot, extended.BookID)
		if getErr != nil {
			return getErr
		}

		summary = fmt.Sprintf("extended %q for %s until %s",
			extendedBook.Title, extended.Borrower, extended.DueDate.Format("2006-01-02"))

		book = extendedBook
		loan = extended

		return nil
	})

	result.Summary = summary

	return ExtendLoanResult{OperationResult: result, Book: book, Loan: loan}, err
}

// execute runs one unit of work with the single transparent retry. The
// mutate callback sees a snapshot whose book statuses were already recomputed
// from the loan collection.
func (c *Coordinator) execute(
	ctx context.Context,
	operation string,
	mutate func(snapshot *ledger.Snapshot, now time.Time) error,
) (OperationResult, error) {

	start := time.Now()
	var committedVersion ledger.SnapshotVersionUint

	var span ledger.SpanContext
	if c.tracing != nil {
		ctx, span = c.tracing.StartSpan(ctx, spanNameUnitOfWork, map[string]string{logAttrOperation: operation})
	}

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context, attempt int) error {
		snapshot, fromCache, loadErr := c.loadForWrite(retryCtx, attempt)
		if loadErr != nil {
			return loadErr
		}

		if mutateErr := mutate(&snapshot, c.clock()); mutateErr != nil {
			if !fromCache {
				return mutateErr
			}

			// A precondition verdict from the warm cache is not trustworthy;
			// another process may have moved the dataset since. Confirm
			// against fresh store state before failing the caller.
			c.invalidateCache()

			fresh, freshErr := c.loadFresh(retryCtx)
			if freshErr != nil {
				return freshErr
			}

			snapshot = fresh
			if mutateErr = mutate(&snapshot, c.clock()); mutateErr != nil {
				return mutateErr
			}
		}

		expectedVersion := snapshot.Version

		snapshot.RecomputeBookStatuses()

		newVersion, saveErr := c.gateway.Save(retryCtx, snapshot, expectedVersion)
		if saveErr != nil {
			c.invalidateCache()

			if errors.Is(saveErr, ledger.ErrVersionConflict) {
				return saveErr
			}

			return errors.Join(ledger.ErrPersistence, saveErr)
		}

		snapshot.Version = newVersion
		committedVersion = newVersion
		c.cacheSnapshot(snapshot)

		return nil
	}, c.retryOptions...)

	err = c.mapExhaustedRetries(retryMetrics, err)

	result := OperationResult{
		Outcome:         OutcomeFor(err),
		SnapshotVersion: committedVersion,
		RetryAttempts:   retryMetrics.Attempts,
	}

	if c.tracing != nil {
		c.tracing.FinishSpan(span, string(result.Outcome), map[string]string{
			logAttrRetryAttempts: fmt.Sprintf("%d", retryMetrics.Attempts),
		})
	}

	c.observeOperation(operation, result, retryMetrics, time.Since(start), err)

	return result, err
}

// mapExhaustedRetries converts a version conflict that survived the retry
// budget into the caller-facing concurrency error.
func (c *Coordinator) mapExhaustedRetries(metrics RetryMetrics, err error) error {
	if err == nil {
		return nil
	}

	if metrics.RetriesExhausted && errors.Is(err, ledger.ErrVersionConflict) {
		return errors.Join(ledger.ErrConcurrencyConflict, err)
	}

	return err
}

// loadForWrite returns a snapshot to mutate and whether it came from the warm
// cache. The cache is only good for the first attempt; retries always reload,
// because a version conflict means the cache lied.
func (c *Coordinator) loadForWrite(ctx context.Context, attempt int) (ledger.Snapshot, bool, error) {
	if attempt == 0 {
		if cached, ok := c.cachedSnapshot(); ok {
			return cached, true, nil
		}
	}

	snapshot, err := c.loadFresh(ctx)

	return snapshot, false, err
}

func (c *Coordinator) loadFresh(ctx context.Context) (ledger.Snapshot, error) {
	snapshot, err := c.gateway.Load(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrSnapshotNotFound) {
			return ledger.EmptySnapshot(), nil
		}

		if c.logger != nil {
			c.logger.Error(logMsgLoadSnapshotFailed, logAttrError, err.Error())
		}

		return ledger.Snapshot{}, errors.Join(ledger.ErrPersistence, err)
	}

	snapshot.RecomputeBookStatuses()
	c.cacheSnapshot(snapshot)

	return snapshot, nil
}

func (c *Coordinator) cachedSnapshot() (ledger.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached == nil {
		return ledger.Snapshot{}, false
	}

	return c.cached.Clone(), true
}

func (c *Coordinator) cacheSnapshot(snapshot ledger.Snapshot) {
	clone := snapshot.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = &clone
}

func (c *Coordinator) invalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = nil
}

func (c *Coordinator) observeOperation(
	operation string,
	result OperationResult,
	retryMetrics RetryMetrics,
	duration time.Duration,
	err error,
) {

	if c.logger != nil {
		if err == nil {
			c.logger.Info(logMsgOperationCommitted,
				logAttrOperation, operation,
				logAttrSnapshotVersion, result.SnapshotVersion,
				logAttrRetryAttempts, retryMetrics.Attempts,
				logAttrDurationMS, duration.Milliseconds(),
			)
		} else {
			c.logger.Info(logMsgOperationFailed,
				logAttrOperation, operation,
				logAttrOutcome, string(result.Outcome),
				logAttrError, err.Error(),
			)
		}

		if retryMetrics.RetriesExhausted {
			c.logger.Warn(logMsgRetriesExhausted, logAttrOperation, operation)
		}
	}

	if c.metrics != nil {
		labels := map[string]string{
			logAttrOperation: operation,
			logAttrOutcome:   string(result.Outcome),
		}

		c.metrics.RecordDuration(metricOperationDuration, duration, labels)
		c.metrics.IncrementCounter(metricOperationsTotal, labels)

		if result.Outcome == OutcomeConcurrencyConflict {
			c.metrics.IncrementCounter(metricConcurrencyConflicts, map[string]string{logAttrOperation: operation})
		}
	}
}
