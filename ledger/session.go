package ledger

import (
	"context"
	"strings"
)

// Attribute keys for in-progress multi-turn state. Successive turns of one
// conversation are not guaranteed to run in the same process, so partial
// slot values live in an external AttributeStore, never in process memory.
const (
	draftAttrTitle  = "draft_book_title"
	draftAttrAuthor = "draft_book_author"
	draftAttrKind   = "draft_book_kind"
)

// Slot names reported by BookDraft.MissingSlots, in elicitation order.
const (
	SlotTitle  = "title"
	SlotAuthor = "author"
	SlotKind   = "kind"
)

// AttributeStore is the session-scoped attribute contract used to carry
// in-progress multi-turn slot values between conversation turns.
type AttributeStore interface {
	Get(ctx context.Context, sessionID string) (map[string]string, error)
	Put(ctx context.Context, sessionID string, attributes map[string]string) error
	Delete(ctx context.Context, sessionID string) error
}

// BookDraft carries the slots of a partially entered "add book" conversation.
// Intermediate turns only update the draft through the AttributeStore; the
// catalog is touched only once all slots are present and the draft is
// committed as a single unit of work.
type BookDraft struct {
	Title  string
	Author string
	Kind   BookKind
}

// BookDraftFromAttributes restores a draft from session attributes. Unknown
// attributes are ignored.
func BookDraftFromAttributes(attributes map[string]string) BookDraft {
	return BookDraft{
		Title:  attributes[draftAttrTitle],
		Author: attributes[draftAttrAuthor],
		Kind:   BookKind(attributes[draftAttrKind]),
	}
}

// Attributes serializes the draft into session attributes, omitting empty
// slots.
func (d BookDraft) Attributes() map[string]string {
	attributes := make(map[string]string, 3)

	if d.Title != "" {
		attributes[draftAttrTitle] = d.Title
	}
	if d.Author != "" {
		attributes[draftAttrAuthor] = d.Author
	}
	if d.Kind != "" {
		attributes[draftAttrKind] = string(d.Kind)
	}

	return attributes
}

// Complete reports whether every slot has been collected.
func (d BookDraft) Complete() bool {
	return len(d.MissingSlots()) == 0
}

// MissingSlots returns the names of the slots still to be elicited, in the
// order they should be asked for.
func (d BookDraft) MissingSlots() []string {
	missing := make([]string, 0, 3)

	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, SlotTitle)
	}
	if strings.TrimSpace(d.Author) == "" {
		missing = append(missing, SlotAuthor)
	}
	if strings.TrimSpace(string(d.Kind)) == "" {
		missing = append(missing, SlotKind)
	}

	return missing
}
