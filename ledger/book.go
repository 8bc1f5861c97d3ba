package ledger

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	maxTitleLength  = 200
	maxAuthorLength = 100
)

// BookKind is the closed set of categories a book can belong to.
type BookKind string

const (
	KindPhysical  BookKind = "physical"
	KindDigital   BookKind = "digital"
	KindAudiobook BookKind = "audiobook"
)

// BookKinds returns all valid book kinds.
func BookKinds() []BookKind {
	return []BookKind{KindPhysical, KindDigital, KindAudiobook}
}

// BookStatus marks whether a book is available or currently lent out.
//
// The status is a derived cache of the loan collection, never a source of
// truth: it is recomputed from the presence of an active loan on every
// snapshot load (see Snapshot.RecomputeBookStatuses) and written only by the
// coordinator.
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusOnLoan    BookStatus = "on_loan"
)

// Book is a single item of the catalog.
//
// While its properties are exported for serialization, it should only be
// constructed with BuildBook.
type Book struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Kind      BookKind   `json:"kind"`
	Status    BookStatus `json:"status"`
	AddedAt   time.Time  `json:"added_at"`
	LoanCount int        `json:"loan_count"`
}

// NewBookID generates a unique identifier for a new book.
func NewBookID() string {
	return uuid.New().String()
}

// BuildBook is a factory method for Book.
//
// It trims the given strings, validates all fields and sets the initial
// status to available. Returns an error chained onto ErrValidation if the
// title or author is empty or too long, or the kind is not in the closed set.
func BuildBook(id string, title string, author string, kind BookKind, addedAt time.Time) (Book, error) {
	book := Book{
		ID:      strings.TrimSpace(id),
		Title:   strings.TrimSpace(title),
		Author:  strings.TrimSpace(author),
		Kind:    kind,
		Status:  BookStatusAvailable,
		AddedAt: addedAt,
	}

	if err := book.validate(); err != nil {
		return Book{}, errors.Join(ErrValidation, err)
	}

	return book, nil
}

func (b Book) validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&b.Author, validation.Required, validation.RuneLength(1, maxAuthorLength)),
		validation.Field(&b.Kind, validation.Required, validation.In(KindPhysical, KindDigital, KindAudiobook)),
	)
}

// IsAvailable reports whether the book can be borrowed.
func (b Book) IsAvailable() bool {
	return b.Status == BookStatusAvailable
}

// Matches reports whether the normalized search term is a substring of the
// book's title or author, compared case-insensitively. An empty term never
// matches; filtering with an empty term is handled by the catalog.
func (b Book) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}

	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Author), term)
}
