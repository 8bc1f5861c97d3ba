package ledger

import "fmt"

// DefaultPageSize is the fixed page size used by the paginated queries,
// matching the "next page" navigation model of a conversational front-end.
const DefaultPageSize = 10

var (
	// ErrNegativePageIndex is returned for page indexes below zero.
	ErrNegativePageIndex = fmt.Errorf("%w: page index must not be negative", ErrValidation)

	// ErrInvalidPageSize is returned for page sizes below one.
	ErrInvalidPageSize = fmt.Errorf("%w: page size must be positive", ErrValidation)
)

// Page is one fixed-size window over an ordered sequence, plus the metadata a
// conversational caller needs to navigate with "next" and "previous".
type Page[T any] struct {
	Items       []T
	Index       int
	Size        int
	TotalItems  int
	TotalPages  int
	HasNext     bool
	HasPrevious bool

	// SnapshotVersion is the dataset version the page was served from.
	SnapshotVersion SnapshotVersionUint

	// ListChanged flags that the caller's remembered snapshot version no
	// longer matched the current dataset: the page was still served from the
	// current data, but any cached position may be stale.
	ListChanged bool
}

// BuildPage cuts the page with the given 0-based index out of items.
//
// Requesting an index at or beyond the last page is not an error: it returns
// an empty page with HasNext=false, so a caller paging past the end gets a
// clean stop instead of a failure mid-conversation.
func BuildPage[T any](items []T, pageIndex int, pageSize int) (Page[T], error) {
	if pageIndex < 0 {
		return Page[T]{}, ErrNegativePageIndex
	}

	if pageSize < 1 {
		return Page[T]{}, ErrInvalidPageSize
	}

	totalItems := len(items)
	totalPages := (totalItems + pageSize - 1) / pageSize

	page := Page[T]{
		Items:       make([]T, 0, pageSize),
		Index:       pageIndex,
		Size:        pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     pageIndex < totalPages-1,
		HasPrevious: pageIndex > 0 && totalPages > 0,
	}

	start := pageIndex * pageSize
	if start >= totalItems {
		return page, nil
	}

	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	page.Items = append(page.Items, items[start:end]...)

	return page, nil
}
