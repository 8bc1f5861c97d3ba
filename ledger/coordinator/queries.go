package coordinator

import (
	"context"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/catalog"
	"github.com/homeshelf/lending-ledger-go/ledger/history"
	"github.com/homeshelf/lending-ledger-go/ledger/lending"
)

// PageRequest addresses one page of a paginated query. KnownVersion is the
// snapshot version from a previous page response; zero means the caller has
// no remembered position. When the current dataset version differs from a
// non-zero KnownVersion the page is still served from the current data -
// never an error mid-conversation - but flagged as ListChanged so the caller
// can reset any cached index.
type PageRequest struct {
	Index        int
	KnownVersion ledger.SnapshotVersionUint
}

// ListBooks serves one page of the catalog in insertion order, optionally
// filtered by a case-insensitive substring match on title or author.
func (c *Coordinator) ListBooks(
	ctx context.Context,
	filter string,
	request PageRequest,
) (ledger.Page[ledger.Book], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[ledger.Book]{}, err
	}

	page, err := ledger.BuildPage(catalog.List(snapshot, filter), request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[ledger.Book]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// GetBook returns the book with the given id from the current snapshot.
func (c *Coordinator) GetBook(ctx context.Context, bookID string) (ledger.Book, error) {
	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Book{}, err
	}

	return catalog.Get(snapshot, bookID)
}

// ActiveLoans serves one page of the active loans in insertion order, each
// annotated with its computed overdue flag.
func (c *Coordinator) ActiveLoans(
	ctx context.Context,
	request PageRequest,
) (ledger.Page[lending.ActiveLoan], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	page, err := ledger.BuildPage(lending.ActiveLoans(snapshot, c.clock()), request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// ReturnedLoans serves one page of the completed loans, most recently
// returned first.
func (c *Coordinator) ReturnedLoans(
	ctx context.Context,
	request PageRequest,
) (ledger.Page[ledger.Loan], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[ledger.Loan]{}, err
	}

	page, err := ledger.BuildPage(lending.ReturnedLoans(snapshot), request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[ledger.Loan]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// LoansDueSoon serves one page of the active loans due within thresholdDays
// (lending.DefaultDueSoonThresholdDays when non-positive). Loans already
// overdue are served by OverdueLoans instead.
func (c *Coordinator) LoansDueSoon(
	ctx context.Context,
	thresholdDays int,
	request PageRequest,
) (ledger.Page[lending.ActiveLoan], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	page, err := ledger.BuildPage(lending.DueSoon(snapshot, c.clock(), thresholdDays), request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// OverdueLoans serves one page of the active loans past their due date.
func (c *Coordinator) OverdueLoans(
	ctx context.Context,
	request PageRequest,
) (ledger.Page[lending.ActiveLoan], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	page, err := ledger.BuildPage(lending.OverdueLoans(snapshot, c.clock()), request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[lending.ActiveLoan]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// LoanStatistics aggregates the full loan history of the current snapshot.
func (c *Coordinator) LoanStatistics(ctx context.Context) (lending.Statistics, error) {
	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return lending.Statistics{}, err
	}

	return lending.ComputeStatistics(snapshot, c.clock()), nil
}

// BookStatistics aggregates the catalog of the current snapshot.
func (c *Coordinator) BookStatistics(ctx context.Context) (catalog.Statistics, error) {
	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return catalog.Statistics{}, err
	}

	return catalog.ComputeStatistics(snapshot), nil
}

// History serves one page of the transaction log, newest first, optionally
// filtered by transaction type (empty filter returns every record).
func (c *Coordinator) History(
	ctx context.Context,
	filter ledger.TransactionType,
	request PageRequest,
) (ledger.Page[ledger.TransactionRecord], error) {

	snapshot, err := c.loadForRead(ctx)
	if err != nil {
		return ledger.Page[ledger.TransactionRecord]{}, err
	}

	page, err := history.Query(snapshot, filter, request.Index, c.pageSize)
	if err != nil {
		return ledger.Page[ledger.TransactionRecord]{}, err
	}

	return stampPage(page, snapshot.Version, request), nil
}

// loadForRead returns the cached snapshot of this warm execution context when
// present, otherwise loads fresh. Reads never mutate, so a stale cache can at
// worst serve a page that the ListChanged flag already accounts for.
func (c *Coordinator) loadForRead(ctx context.Context) (ledger.Snapshot, error) {
	if cached, ok := c.cachedSnapshot(); ok {
		return cached, nil
	}

	return c.loadFresh(ctx)
}

func stampPage[T any](
	page ledger.Page[T],
	version ledger.SnapshotVersionUint,
	request PageRequest,
) ledger.Page[T] {

	page.SnapshotVersion = version
	page.ListChanged = request.KnownVersion != 0 && request.KnownVersion != version

	return page
}
